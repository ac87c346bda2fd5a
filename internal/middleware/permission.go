package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvx/tour-booking-auth/internal/authz"
)

// RequirePermission returns middleware enforcing that the authenticated
// principal's role holds a grant satisfying the named permission,
// either exactly or through a trailing-wildcard grant.  It assumes the
// Authenticator ran earlier in the chain; an anonymous request is
// rejected outright.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := CurrentUser(c)
			if !ok {
				return Reject(c, http.StatusUnauthorized, "missing bearer token")
			}
			if !authz.HasPermission(principal.Permissions, permission) {
				return Reject(c, http.StatusForbidden, "permission denied: "+permission)
			}
			return next(c)
		}
	}
}
