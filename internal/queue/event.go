// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names for auth domain events.  One durable queue per event kind.
const (
	UserRegisteredQueue       = "auth.user.registered"
	PasswordResetRequestQueue = "auth.password_reset.requested"
	SessionRevokedQueue       = "auth.session.revoked"
)

// UserRegisteredEvent is published after a principal is created.
// Downstream consumers send the welcome/verification email; the token
// is present only when the deployment requires email verification.
type UserRegisteredEvent struct {
	UserUID      string `json:"user_uid"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	FullName     string `json:"full_name"`
	VerifyToken  string `json:"verify_token,omitempty"`
	RegisteredAt string `json:"registered_at"`
}

// PasswordResetRequestedEvent carries a freshly issued reset token to
// the mailer.  The token never appears in the HTTP response, so this
// event is the only way it reaches the user.
type PasswordResetRequestedEvent struct {
	UserUID     string `json:"user_uid"`
	Email       string `json:"email"`
	ResetToken  string `json:"reset_token"`
	ExpiresAt   string `json:"expires_at"`
	RequestedAt string `json:"requested_at"`
}

// SessionRevokedEvent is published when sessions are closed outside the
// normal logout path, so other services can drop cached identity state.
type SessionRevokedEvent struct {
	UserUID   string `json:"user_uid"`
	Reason    string `json:"reason"`
	RevokedAt string `json:"revoked_at"`
}
