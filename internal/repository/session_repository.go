package repository

import (
	"context"
	"database/sql"

	"github.com/locvx/tour-booking-auth/internal/model"
)

// SessionRepo persists login sessions keyed by user uuid.  A session
// row is the single source of truth for revocation: every authenticated
// request looks one up, and deleting it invalidates all outstanding
// tokens for that user.
type SessionRepo struct {
	DB *sql.DB
	// Single controls session cardinality.  When true, Open closes any
	// prior session for the same uuid so at most one row exists per user.
	Single bool
}

func NewSessionRepo(db *sql.DB, single bool) *SessionRepo {
	return &SessionRepo{DB: db, Single: single}
}

// Open creates a session row at successful login.
func (r *SessionRepo) Open(ctx context.Context, userUID, userAgent, clientIP string) (model.Session, error) {
	if r.Single {
		if err := r.Close(ctx, userUID); err != nil {
			return model.Session{}, err
		}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (user_uid, user_agent, client_ip) VALUES (?,?,?)",
		userUID, userAgent, clientIP)
	if err != nil {
		return model.Session{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{ID: uint64(id), UserUID: userUID, UserAgent: userAgent, ClientIP: clientIP}, nil
}

// Find returns a session for the uuid, or ErrSessionNotFound.  With
// multiple sessions per user the newest one is returned; the caller
// only cares that at least one exists.
func (r *SessionRepo) Find(ctx context.Context, userUID string) (model.Session, error) {
	var s model.Session
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_uid,user_agent,client_ip,created_at FROM sessions WHERE user_uid=? ORDER BY id DESC LIMIT 1",
		userUID).Scan(&s.ID, &s.UserUID, &s.UserAgent, &s.ClientIP, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Session{}, ErrSessionNotFound
		}
		return model.Session{}, err
	}
	return s, nil
}

// Close deletes every session for the uuid.  Used at logout and for
// administrative revocation.
func (r *SessionRepo) Close(ctx context.Context, userUID string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE user_uid=?", userUID)
	return err
}
