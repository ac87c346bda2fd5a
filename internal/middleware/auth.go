package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/locvx/tour-booking-auth/internal/authz"
	"github.com/locvx/tour-booking-auth/internal/model"
	"github.com/locvx/tour-booking-auth/internal/repository"
	"github.com/locvx/tour-booking-auth/internal/utils"
)

// StatusTokenExpired is returned for expired access tokens instead of a
// plain 401 so clients can distinguish "run the refresh flow" from
// "re-authenticate".  Non-standard on purpose.
const StatusTokenExpired = 419

// expiredPrefix is prepended to the expiry rejection message; part of
// the platform's wire contract.
const expiredPrefix = "Lỗi Unauthorized: "

// principalKey is the context key under which the sanitized principal
// is stored.  Handlers read it through CurrentUser.
const principalKey = "principal"

// SessionFinder is the slice of the session store the authenticator
// consumes: the presence check that implements revocation.
type SessionFinder interface {
	Find(ctx context.Context, userUID string) (model.Session, error)
}

// UserLoader loads a principal with its role resolved.
type UserLoader interface {
	GetByUUID(ctx context.Context, uid string) (model.User, error)
}

// GrantSource resolves the permission names granted to a role.
type GrantSource interface {
	GrantsForRole(ctx context.Context, roleID uint64) ([]string, error)
}

// Authenticator verifies bearer tokens against live server-side state.
// Token claims are treated as untrusted display hints: the principal,
// its status, its role and the role's grants are re-fetched from
// storage on every request.
type Authenticator struct {
	Issuer   *utils.TokenIssuer
	Sessions SessionFinder
	Users    UserLoader
	Grants   GrantSource
	Cache    *authz.RoleCache
}

func NewAuthenticator(issuer *utils.TokenIssuer, sessions SessionFinder, users UserLoader, grants GrantSource, cache *authz.RoleCache) *Authenticator {
	return &Authenticator{Issuer: issuer, Sessions: sessions, Users: users, Grants: grants, Cache: cache}
}

// Require returns middleware that rejects the request unless the bearer
// token verifies, a session exists for its uuid, and the principal is
// loadable and active.  On success the sanitized principal is stored in
// the context.
func (a *Authenticator) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, status, msg := a.authenticate(c)
			if principal == nil {
				return Reject(c, status, msg)
			}
			c.Set(principalKey, *principal)
			return next(c)
		}
	}
}

// Optional returns middleware that never rejects: on any authentication
// failure the request proceeds with no principal attached, letting
// endpoints serve anonymous and authenticated callers differently.
func (a *Authenticator) Optional() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if principal, _, _ := a.authenticate(c); principal != nil {
				c.Set(principalKey, *principal)
			}
			return next(c)
		}
	}
}

// authenticate runs the per-request state machine.  It returns either a
// sanitized principal or the HTTP status and message of the rejection.
func (a *Authenticator) authenticate(c echo.Context) (*model.PublicUser, int, string) {
	// 1. Extract the bearer token.
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, http.StatusUnauthorized, "missing bearer token"
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	// 2. Verify signature and expiration.  Expiry gets its own status
	// so clients can trigger the refresh flow.
	claims, err := a.Issuer.ParseAccess(raw)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, StatusTokenExpired, expiredPrefix + "token expired"
		}
		return nil, http.StatusUnauthorized, "invalid token"
	}

	ctx := c.Request().Context()

	// 3. A signed token is worthless without a live session; this is the
	// revocation check.
	if _, err := a.Sessions.Find(ctx, claims.UUID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, http.StatusUnauthorized, "session not found"
		}
		return nil, http.StatusUnauthorized, "session lookup failed"
	}

	// 4. Load the principal with role and grants from storage.
	user, err := a.Users.GetByUUID(ctx, claims.UUID)
	if err != nil {
		return nil, http.StatusUnauthorized, "principal not found"
	}
	// Deactivated accounts keep sessions and tokens until cleanup, so
	// status is checked here, independent of token and session validity.
	if user.Status != model.StatusActive {
		return nil, http.StatusUnauthorized, "account inactive"
	}

	grants, err := a.resolveGrants(ctx, user.RoleID)
	if err != nil {
		return nil, http.StatusUnauthorized, "authorization lookup failed"
	}

	// 5. Only the allow-list projection crosses this boundary.
	principal := user.Public(grants)
	return &principal, 0, ""
}

// resolveGrants fetches the role's permission names through the cache.
func (a *Authenticator) resolveGrants(ctx context.Context, roleID uint64) ([]string, error) {
	if a.Cache != nil {
		if grants, ok := a.Cache.Get(roleID); ok {
			return grants, nil
		}
	}
	grants, err := a.Grants.GrantsForRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if a.Cache != nil {
		a.Cache.Put(roleID, grants)
	}
	return grants, nil
}

// CurrentUser returns the sanitized principal stored by Require or
// Optional, and false when the request is anonymous.
func CurrentUser(c echo.Context) (model.PublicUser, bool) {
	u, ok := c.Get(principalKey).(model.PublicUser)
	return u, ok
}
