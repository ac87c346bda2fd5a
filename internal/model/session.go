package model

import "time"

// Session is a row of the `sessions` table, keyed by the owning user's
// UUID.  The row's mere presence is the revocation signal: deleting it
// invalidates every outstanding token for that user regardless of token
// expiry, because the request authenticator requires a live session on
// every authenticated request.
type Session struct {
	ID        uint64
	UserUID   string
	UserAgent string
	ClientIP  string
	CreatedAt time.Time
}
