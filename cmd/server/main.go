package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/locvx/tour-booking-auth/internal/authz"
	"github.com/locvx/tour-booking-auth/internal/config"
	"github.com/locvx/tour-booking-auth/internal/database"
	"github.com/locvx/tour-booking-auth/internal/handler"
	"github.com/locvx/tour-booking-auth/internal/middleware"
	"github.com/locvx/tour-booking-auth/internal/queue"
	"github.com/locvx/tour-booking-auth/internal/repository"
	"github.com/locvx/tour-booking-auth/internal/router"
	"github.com/locvx/tour-booking-auth/internal/utils"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set env vars directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	sessions := repository.NewSessionRepo(db, cfg.SessionMode == config.SessionModeSingle)

	issuer := utils.NewTokenIssuer(cfg.AccessSecret, cfg.AccessExpiry, cfg.RefreshSecret, cfg.RefreshExpiry)
	auth := middleware.NewAuthenticator(issuer, sessions, users, roles, authz.NewRoleCache(authz.DefaultCacheTTL))

	rdb := config.NewRedisClient() // nil when Redis is unreachable; limiter degrades
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	a := handler.NewAuthHandler(cfg, issuer, users, sessions, roles)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, a, auth, limiter)

	// Consume auth events in the background; the consumer reconnects on
	// broker failures and never takes the server down.
	go func() {
		if err := queue.StartAuthConsumer(); err != nil {
			log.Printf("auth-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, session_mode=%s)", addr, cfg.Env, cfg.SessionMode)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
