package model

import (
	"database/sql"
	"time"
)

// Account status values stored in users.status.  Inactive accounts keep
// their rows (users are never hard-deleted) but must be rejected at
// authentication time even when they hold a valid token and session.
const (
	StatusInactive = 0
	StatusActive   = 1
)

// Login type values stored in users.login_type.
const (
	LoginTypePassword = 0
	LoginTypeFacebook = 1
	LoginTypeGoogle   = 2
)

// User represents a row of the `users` table.  ID is the surrogate key
// used for joins; UUID is the stable external identifier carried in
// token claims and session rows.  UUID and Username are both unique.
//
// Fields:
//  ID                – users.id, surrogate primary key.
//  UUID              – users.uuid, external identifier (token subject).
//  Username          – users.username, unique login name.
//  PasswordHash      – users.password_hash, bcrypt digest.
//  FullName          – users.full_name, display name.
//  Email             – users.email, optional and unique when present.
//  Status            – users.status (StatusInactive / StatusActive).
//  LoginType         – users.login_type (password / facebook / google).
//  RoleID            – users.role_id, references roles.id.
//  ResetToken        – users.reset_token, pending reset/verify token.
//  ResetTokenExpires – users.reset_token_expires.
type User struct {
	ID                uint64
	UUID              string
	Username          string
	PasswordHash      string
	FullName          string
	Email             sql.NullString
	Status            int
	LoginType         int
	RoleID            uint64
	ResetToken        sql.NullString
	ResetTokenExpires sql.NullTime
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Role is populated by joins that resolve the user's role eagerly.
	// It is nil when the repository loaded only the users row.
	Role *Role
}

// PublicUser is the sanitized projection of a User that may cross the
// authentication boundary.  It is an explicit allow-list: the password
// hash, status, login type and surrogate id never appear here.
type PublicUser struct {
	UUID        string   `json:"uuid"`
	Username    string   `json:"username"`
	FullName    string   `json:"full_name"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

// Public returns the sanitized projection of u.  The grants slice is the
// resolved permission names of the user's role and may be nil.
func (u *User) Public(grants []string) PublicUser {
	p := PublicUser{
		UUID:        u.UUID,
		Username:    u.Username,
		FullName:    u.FullName,
		Permissions: grants,
	}
	if u.Email.Valid {
		p.Email = u.Email.String
	}
	if u.Role != nil {
		p.Role = u.Role.Name
	}
	return p
}
