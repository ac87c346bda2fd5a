package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses token lifetimes
)

// Session cardinality modes.  In single mode a new login closes any
// prior session for the same user, so at most one session row exists
// per uuid.  In multi mode logins append and logout closes all of them.
const (
	SessionModeSingle = "single"
	SessionModeMulti  = "multi"
)

// DefaultRefreshExpiry applies when REFRESH_TOKEN_EXPIRY is unset.
const DefaultRefreshExpiry = 30 * 24 * time.Hour

// Config holds all runtime configuration values.  It is loaded once at
// startup and treated as immutable afterwards; constructors receive it
// by value and nothing reads the environment during request handling.
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	AccessSecret  string        // HMAC key for access tokens
	AccessExpiry  time.Duration // access token lifetime
	RefreshSecret string        // HMAC key for refresh tokens
	RefreshExpiry time.Duration // refresh token lifetime
	BcryptCost    int           // bcrypt cost for password hashing
	SessionMode   string        // SessionModeSingle or SessionModeMulti
	ResetTokenTTL time.Duration // lifetime of reset/verification tokens
	RequireVerify bool          // registration starts inactive until email is verified
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing
// values cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		AccessSecret:  must("ACCESS_TOKEN_SECRET"),
		AccessExpiry:  mustDuration("ACCESS_TOKEN_EXPIRY", "15m"),
		RefreshSecret: must("REFRESH_TOKEN_SECRET"),
		RefreshExpiry: parseRefreshExpiry(os.Getenv("REFRESH_TOKEN_EXPIRY")),
		BcryptCost:    envInt("BCRYPT_COST", 10),
		SessionMode:   envStr("SESSION_MODE", SessionModeSingle),
		ResetTokenTTL: envDur("RESET_TOKEN_TTL", 30*time.Minute),
		RequireVerify: envBool("REQUIRE_EMAIL_VERIFICATION", false),
	}
	if cfg.SessionMode != SessionModeSingle && cfg.SessionMode != SessionModeMulti {
		log.Fatalf("invalid SESSION_MODE: %q (want %q or %q)", cfg.SessionMode, SessionModeSingle, SessionModeMulti)
	}
	return cfg
}

// parseRefreshExpiry resolves the refresh token lifetime.  Operators may
// set the value either as an integer number of seconds or as a Go
// duration string; both forms are accepted.  An unset value falls back
// to 30 days.  An unparseable value is a fatal configuration error
// rather than a silent default, since it guards a long-lived credential.
func parseRefreshExpiry(raw string) time.Duration {
	if raw == "" {
		return DefaultRefreshExpiry
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("invalid REFRESH_TOKEN_EXPIRY: %q", raw)
	}
	return d
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustDuration reads a duration-string variable, applying def when the
// variable is unset and exiting on an unparseable value.
func mustDuration(key, def string) time.Duration {
	s := envStr(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, s)
	}
	return d
}
