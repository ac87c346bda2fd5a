// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and middleware to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import "errors"

// ErrUserNotFound is returned when no users row matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameExists is returned when an insert collides with the unique
// username index.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when an insert collides with the unique
// email index.
var ErrEmailExists = errors.New("email already exists")

// ErrSessionNotFound is returned when a user has no live session row.
// The request authenticator treats it as revocation: a signed token
// without a session is rejected regardless of its expiry.
var ErrSessionNotFound = errors.New("session not found")

// ErrResetTokenInvalid covers both the unknown-token and the expired
// paths of the reset flow.  The two are deliberately indistinguishable
// so the endpoint cannot be used as a token-existence oracle.
var ErrResetTokenInvalid = errors.New("reset token invalid or expired")

// ErrRoleNotFound is returned when a role name or id does not exist.
var ErrRoleNotFound = errors.New("role not found")
