package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/locvx/tour-booking-auth/internal/handler"
	"github.com/locvx/tour-booking-auth/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires all authentication routes.  Unauthenticated
// operations live under /v1/auth; endpoints that accept credentials or
// trigger emails additionally sit behind the rate limiter; protected
// endpoints live under /v1 behind the request authenticator.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth *middleware.Authenticator, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh)
	g.POST("/password-reset", a.RequestPasswordReset, limiter)
	g.POST("/password-reset/confirm", a.ConfirmPasswordReset)
	g.POST("/verify-email", a.VerifyEmail)

	// Logout needs a verified caller: it closes the caller's own
	// sessions, never someone else's.
	g.POST("/logout", a.Logout, auth.Require())

	protected := e.Group("/v1")
	protected.Use(auth.Require())
	protected.GET("/me", a.Me)
	protected.GET("/permissions/check", a.CheckPermission)
}
