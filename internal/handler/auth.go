package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/locvx/tour-booking-auth/internal/authz"
	"github.com/locvx/tour-booking-auth/internal/config"
	"github.com/locvx/tour-booking-auth/internal/middleware"
	"github.com/locvx/tour-booking-auth/internal/model"
	"github.com/locvx/tour-booking-auth/internal/queue"
	"github.com/locvx/tour-booking-auth/internal/repository"
	queue_publisher "github.com/locvx/tour-booking-auth/internal/service"
	"github.com/locvx/tour-booking-auth/internal/utils"
)

const dbTimeout = 5 * time.Second

// defaultRole is assigned to self-registered users.
const defaultRole = "customer"

// resetTokenBytes: 32 random bytes -> 64 hex chars.
const resetTokenBytes = 32

// UserStore is the slice of the user repository the auth endpoints use.
type UserStore interface {
	Create(ctx context.Context, username, password, fullName, email string, roleID uint64, status, cost int) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByUUID(ctx context.Context, uid string) (model.User, error)
	SetResetToken(ctx context.Context, userID uint64, token string, expires time.Time) error
	RedeemResetToken(ctx context.Context, token, newHash string) (string, error)
	RedeemVerifyToken(ctx context.Context, token string) error
}

// SessionStore opens, finds and closes login sessions.
type SessionStore interface {
	Open(ctx context.Context, userUID, userAgent, clientIP string) (model.Session, error)
	Find(ctx context.Context, userUID string) (model.Session, error)
	Close(ctx context.Context, userUID string) error
}

// RoleStore resolves roles and their grants.
type RoleStore interface {
	GetByName(ctx context.Context, name string) (model.Role, error)
	GrantsForRole(ctx context.Context, roleID uint64) ([]string, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Issuer   *utils.TokenIssuer
	Users    UserStore
	Sessions SessionStore
	Roles    RoleStore

	// Publish sends a domain event to the broker; failures are ignored
	// by the request flow. Overridable in tests.
	Publish func(ctx context.Context, queueName string, event interface{}) error
}

func NewAuthHandler(cfg config.Config, issuer *utils.TokenIssuer, u UserStore, s SessionStore, r RoleStore) *AuthHandler {
	return &AuthHandler{
		Cfg:      cfg,
		Issuer:   issuer,
		Users:    u,
		Sessions: s,
		Roles:    r,
		Publish:  queue_publisher.Publish,
	}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type resetRequestReq struct {
	Email string `json:"email"`
}
type resetConfirmReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
type verifyEmailReq struct {
	Token string `json:"token"`
}

type authResp struct {
	User    model.PublicUser  `json:"user"`
	Access  utils.SignedToken `json:"access"`
	Refresh utils.SignedToken `json:"refresh"`
}

// Register creates a principal with the default role.  Tokens are not
// issued here; a session only exists after login.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return validationFailed(c, fieldIssue("body", "invalid JSON body"))
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	var issues []fieldError
	if req.Username == "" {
		issues = append(issues, fieldIssue("username", "required"))
	}
	if len(req.Password) < 8 {
		issues = append(issues, fieldIssue("password", "must be at least 8 characters"))
	}
	if req.FullName == "" {
		issues = append(issues, fieldIssue("full_name", "required"))
	}
	if len(issues) > 0 {
		return validationFailed(c, issues...)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	role, err := h.Roles.GetByName(ctx, defaultRole)
	if err != nil {
		return middleware.Reject(c, http.StatusInternalServerError, "default role missing")
	}

	status := model.StatusActive
	if h.Cfg.RequireVerify {
		status = model.StatusInactive
	}
	u, err := h.Users.Create(ctx, req.Username, req.Password, req.FullName, req.Email, role.ID, status, h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return middleware.Reject(c, http.StatusConflict, "username already exists")
		case errors.Is(err, repository.ErrEmailExists):
			return middleware.Reject(c, http.StatusConflict, "email already exists")
		}
		return middleware.Reject(c, http.StatusInternalServerError, "create user failed")
	}
	u.Role = &role

	ev := queue.UserRegisteredEvent{
		UserUID:      u.UUID,
		Username:     u.Username,
		Email:        req.Email,
		FullName:     u.FullName,
		RegisteredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if h.Cfg.RequireVerify {
		// An inactive account without a verification token cannot ever
		// log in, so a token failure must surface instead of leaving
		// the registration half-done.
		token, terr := utils.RandomHex(resetTokenBytes)
		if terr == nil {
			terr = h.Users.SetResetToken(ctx, u.ID, token, time.Now().UTC().Add(h.Cfg.ResetTokenTTL))
		}
		if terr != nil {
			log.Printf("register %s: issue verification token failed: %v", u.UUID, terr)
			return middleware.Reject(c, http.StatusInternalServerError, "issue verification token failed")
		}
		ev.VerifyToken = token
	}
	_ = h.Publish(ctx, queue.UserRegisteredQueue, ev)

	return c.JSON(http.StatusCreated, echo.Map{"user": u.Public(nil)})
}

// Login verifies credentials, opens a session and returns a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return validationFailed(c, fieldIssue("body", "invalid JSON body"))
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	var issues []fieldError
	if req.Username == "" {
		issues = append(issues, fieldIssue("username", "required"))
	}
	if req.Password == "" {
		issues = append(issues, fieldIssue("password", "required"))
	}
	if len(issues) > 0 {
		return validationFailed(c, issues...)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same message as a bad password; usernames are not probeable.
			return middleware.Reject(c, http.StatusUnauthorized, "invalid credentials")
		}
		return middleware.Reject(c, http.StatusInternalServerError, "query failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return middleware.Reject(c, http.StatusUnauthorized, "invalid credentials")
	}
	if u.Status != model.StatusActive {
		return middleware.Reject(c, http.StatusUnauthorized, "account inactive")
	}

	if _, err := h.Sessions.Open(ctx, u.UUID, c.Request().UserAgent(), c.RealIP()); err != nil {
		return middleware.Reject(c, http.StatusInternalServerError, "open session failed")
	}

	pair, err := h.Issuer.Issue(u.UUID, u.FullName)
	if err != nil {
		return middleware.Reject(c, http.StatusInternalServerError, "issue tokens failed")
	}

	// Reload with the role resolved; GetByUsername returns the bare row.
	// The success body must be complete, so a failed reload or grant
	// lookup fails the login instead of returning a principal with no
	// role or permissions.
	u, err = h.Users.GetByUUID(ctx, u.UUID)
	if err != nil {
		return middleware.Reject(c, http.StatusInternalServerError, "load principal failed")
	}
	grants, err := h.Roles.GrantsForRole(ctx, u.RoleID)
	if err != nil {
		return middleware.Reject(c, http.StatusInternalServerError, "authorization lookup failed")
	}
	return c.JSON(http.StatusOK, authResp{User: u.Public(grants), Access: pair.Access, Refresh: pair.Refresh})
}

// Refresh exchanges a valid refresh token for a new pair.  The session
// must still exist: logout revokes refresh tokens too.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return validationFailed(c, fieldIssue("refresh_token", "required"))
	}

	claims, err := h.Issuer.ParseRefresh(strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return middleware.Reject(c, http.StatusUnauthorized, "refresh token expired")
		}
		return middleware.Reject(c, http.StatusUnauthorized, "invalid refresh token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Sessions.Find(ctx, claims.UUID); err != nil {
		return middleware.Reject(c, http.StatusUnauthorized, "session not found")
	}
	u, err := h.Users.GetByUUID(ctx, claims.UUID)
	if err != nil {
		return middleware.Reject(c, http.StatusUnauthorized, "principal not found")
	}
	if u.Status != model.StatusActive {
		return middleware.Reject(c, http.StatusUnauthorized, "account inactive")
	}

	pair, err := h.Issuer.Issue(u.UUID, u.FullName)
	if err != nil {
		return middleware.Reject(c, http.StatusInternalServerError, "issue tokens failed")
	}
	grants, err := h.Roles.GrantsForRole(ctx, u.RoleID)
	if err != nil {
		return middleware.Reject(c, http.StatusInternalServerError, "authorization lookup failed")
	}
	return c.JSON(http.StatusOK, authResp{User: u.Public(grants), Access: pair.Access, Refresh: pair.Refresh})
}

// Logout closes the caller's session(s), invalidating every outstanding
// token. Requires authentication.
func (h *AuthHandler) Logout(c echo.Context) error {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		return middleware.Reject(c, http.StatusUnauthorized, "missing bearer token")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Sessions.Close(ctx, principal.UUID); err != nil {
		return middleware.Reject(c, http.StatusInternalServerError, "logout failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the sanitized principal attached by the authenticator.
func (h *AuthHandler) Me(c echo.Context) error {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		return middleware.Reject(c, http.StatusUnauthorized, "missing bearer token")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": principal})
}

// CheckPermission answers whether the caller holds a permission, via
// exact or wildcard grant. Meant for other services and UIs gating
// features client-side.
func (h *AuthHandler) CheckPermission(c echo.Context) error {
	principal, ok := middleware.CurrentUser(c)
	if !ok {
		return middleware.Reject(c, http.StatusUnauthorized, "missing bearer token")
	}
	perm := strings.TrimSpace(c.QueryParam("permission"))
	if perm == "" || !strings.Contains(perm, ":") {
		return validationFailed(c, fieldIssue("permission", "must be of the form resource:action"))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"permission": perm,
		"allowed":    authz.HasPermission(principal.Permissions, perm),
	})
}

// RequestPasswordReset issues a single-use reset token for the account
// behind the email, overwriting any prior pending token.  The response
// is 202 regardless of whether the account exists, and the token
// travels only through the mailer queue.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return validationFailed(c, fieldIssue("email", "required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	accepted := func() error {
		return c.JSON(http.StatusAccepted, echo.Map{"message": "if the account exists, a reset email has been sent"})
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		return accepted()
	}
	token, err := utils.RandomHex(resetTokenBytes)
	if err != nil {
		return accepted()
	}
	expires := time.Now().UTC().Add(h.Cfg.ResetTokenTTL)
	if err := h.Users.SetResetToken(ctx, u.ID, token, expires); err != nil {
		return accepted()
	}
	_ = h.Publish(ctx, queue.PasswordResetRequestQueue, queue.PasswordResetRequestedEvent{
		UserUID:     u.UUID,
		Email:       req.Email,
		ResetToken:  token,
		ExpiresAt:   expires.Format(time.RFC3339),
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})
	return accepted()
}

// ConfirmPasswordReset redeems a reset token and installs the new
// password.  All sessions of the account are closed so tokens issued
// under the old password die with it.
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req resetConfirmReq
	if err := c.Bind(&req); err != nil {
		return validationFailed(c, fieldIssue("body", "invalid JSON body"))
	}
	var issues []fieldError
	if strings.TrimSpace(req.Token) == "" {
		issues = append(issues, fieldIssue("token", "required"))
	}
	if len(req.NewPassword) < 8 {
		issues = append(issues, fieldIssue("new_password", "must be at least 8 characters"))
	}
	if len(issues) > 0 {
		return validationFailed(c, issues...)
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return middleware.Reject(c, http.StatusInternalServerError, "hash password failed")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	uid, err := h.Users.RedeemResetToken(ctx, req.Token, hash)
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenInvalid) {
			return middleware.Reject(c, http.StatusBadRequest, "reset token invalid or expired")
		}
		return middleware.Reject(c, http.StatusInternalServerError, "reset failed")
	}

	_ = h.Sessions.Close(ctx, uid)
	_ = h.Publish(ctx, queue.SessionRevokedQueue, queue.SessionRevokedEvent{
		UserUID:   uid,
		Reason:    "password_reset",
		RevokedAt: time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// VerifyEmail redeems a verification token and activates the account.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return validationFailed(c, fieldIssue("token", "required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.RedeemVerifyToken(ctx, strings.TrimSpace(req.Token)); err != nil {
		if errors.Is(err, repository.ErrResetTokenInvalid) {
			return middleware.Reject(c, http.StatusBadRequest, "verification token invalid or expired")
		}
		return middleware.Reject(c, http.StatusInternalServerError, "verification failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}
