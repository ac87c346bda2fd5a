package utils // package utils provides helper functions for token creation and hashing

import (
	"errors" // error values and inspection helpers
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Verification failures collapse into two cases: the token was valid but
// has expired (clients may run the refresh flow), or it is unusable for
// any other reason.  Callers never see the underlying jwt library error.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

// AccessClaims is the payload of a short-lived access token.  It carries
// the user's external identifier and display name only; role and
// permissions are re-fetched from storage on every authenticated request
// because signed claims are display hints, not live authorization state.
type AccessClaims struct {
	UUID     string `json:"uuid"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token.  It is deliberately
// minimal: the token lives longer than an access token, so it exposes
// nothing but the subject identifier.
type RefreshClaims struct {
	UUID string `json:"uuid"`
	jwt.RegisteredClaims
}

// SignedToken bundles a serialized JWT with its expiration time so
// handlers can return both to the client.
type SignedToken struct {
	Token string    `json:"token"`
	Exp   time.Time `json:"expires"`
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	Access  SignedToken `json:"access"`
	Refresh SignedToken `json:"refresh"`
}

// TokenIssuer signs and verifies access and refresh tokens.  The two
// token kinds use independent secrets and lifetimes; both are HS256.
// The issuer is built once from configuration and is safe for
// concurrent use.
type TokenIssuer struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
}

// NewTokenIssuer builds an issuer from the configured secrets and TTLs.
func NewTokenIssuer(accessSecret string, accessTTL time.Duration, refreshSecret string, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		accessTTL:     accessTTL,
		refreshSecret: []byte(refreshSecret),
		refreshTTL:    refreshTTL,
	}
}

// Issue mints a fresh access/refresh pair for the given user.  Tokens
// are not persisted anywhere; only the session row anchors revocability.
func (i *TokenIssuer) Issue(uid, fullName string) (TokenPair, error) {
	access, err := i.IssueAccess(uid, fullName)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.IssueRefresh(uid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess signs a short-lived access token carrying uuid + full_name.
func (i *TokenIssuer) IssueAccess(uid, fullName string) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(i.accessTTL)
	claims := AccessClaims{
		UUID:     uid,
		FullName: fullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// IssueRefresh signs a refresh token carrying only the uuid.
func (i *TokenIssuer) IssueRefresh(uid string) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(i.refreshTTL)
	claims := RefreshClaims{
		UUID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseAccess verifies the signature and expiration of an access token
// and returns its claims.  Expired tokens yield ErrTokenExpired; any
// other failure, including a non-HMAC signing method, yields
// ErrTokenMalformed.
func (i *TokenIssuer) ParseAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(raw, claims, i.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token against the refresh secret.
func (i *TokenIssuer) ParseRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.parse(raw, claims, i.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *TokenIssuer) parse(raw string, claims jwt.Claims, secret []byte) error {
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// Pin the signing method to HMAC; reject anything else before
		// the signature is even checked.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenMalformed
	}
	if !tok.Valid {
		return ErrTokenMalformed
	}
	return nil
}
