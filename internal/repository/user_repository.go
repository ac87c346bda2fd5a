package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/locvx/tour-booking-auth/internal/model"
	"github.com/locvx/tour-booking-auth/internal/utils"
)

const userColumns = "id,uuid,username,password_hash,full_name,email,status,login_type,role_id,reset_token,reset_token_expires,created_at,updated_at"

// UserRepo persists principals.  Reset/verification tokens live on the
// users row itself (single outstanding token per user).
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with a fresh uuid and a bcrypt hash of the
// password, and returns the stored row.
func (r *UserRepo) Create(ctx context.Context, username, password, fullName, email string, roleID uint64, status, cost int) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	uid := uuid.NewString()

	var emailVal sql.NullString
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		emailVal = sql.NullString{String: email, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (uuid, username, password_hash, full_name, email, status, login_type, role_id) VALUES (?,?,?,?,?,?,?,?)",
		uid, username, hash, fullName, emailVal, status, model.LoginTypePassword, roleID)
	if err != nil {
		// MySQL duplicate-key errors (1062) name the violated index.
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			if strings.Contains(msg, "email") {
				return model.User{}, ErrEmailExists
			}
			return model.User{}, ErrUsernameExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return model.User{
		ID:           uint64(id),
		UUID:         uid,
		Username:     username,
		PasswordHash: hash,
		FullName:     fullName,
		Email:        emailVal,
		Status:       status,
		LoginType:    model.LoginTypePassword,
		RoleID:       roleID,
	}, nil
}

// GetByUsername fetches a user by normalized username.  The password
// hash is included because this lookup backs the login flow.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByUUID fetches a user by external identifier with its role resolved
// in the same query.  This is the per-request load of the authenticator.
func (r *UserRepo) GetByUUID(ctx context.Context, uid string) (model.User, error) {
	var (
		u    model.User
		role model.Role
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT u.id,u.uuid,u.username,u.password_hash,u.full_name,u.email,u.status,u.login_type,u.role_id,
		        u.reset_token,u.reset_token_expires,u.created_at,u.updated_at,
		        r.id,r.name,r.description
		 FROM users u JOIN roles r ON r.id = u.role_id
		 WHERE u.uuid=? LIMIT 1`, uid).Scan(
		&u.ID, &u.UUID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.Status, &u.LoginType, &u.RoleID,
		&u.ResetToken, &u.ResetTokenExpires, &u.CreatedAt, &u.UpdatedAt,
		&role.ID, &role.Name, &role.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	u.Role = &role
	return u, nil
}

// SetResetToken stores a pending reset/verification token on the user
// row, overwriting any prior token (single-outstanding-token policy).
func (r *UserRepo) SetResetToken(ctx context.Context, userID uint64, token string, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token=?, reset_token_expires=? WHERE id=?",
		token, expires.UTC(), userID)
	return err
}

// RedeemResetToken replaces the password hash of the user holding the
// token and clears the token columns atomically, returning the user's
// uuid so the caller can revoke live sessions.  The row is locked while
// the token is checked, and the unknown-token and expired paths are
// indistinguishable to the caller.
func (r *UserRepo) RedeemResetToken(ctx context.Context, token, newHash string) (string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var (
		id  uint64
		uid string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, uuid FROM users
		 WHERE reset_token=? AND reset_token_expires > UTC_TIMESTAMP() LIMIT 1 FOR UPDATE`,
		token).Scan(&id, &uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrResetTokenInvalid
		}
		return "", err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash=?, reset_token=NULL, reset_token_expires=NULL WHERE id=?",
		newHash, id); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return uid, nil
}

// RedeemVerifyToken activates the account holding the verification
// token and clears the token columns.  Same atomicity and oracle rules
// as RedeemResetToken.
func (r *UserRepo) RedeemVerifyToken(ctx context.Context, token string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET status=?, reset_token=NULL, reset_token_expires=NULL
		 WHERE reset_token=? AND reset_token_expires > UTC_TIMESTAMP()`,
		model.StatusActive, token)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrResetTokenInvalid
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...interface{}) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.UUID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.Status, &u.LoginType, &u.RoleID,
		&u.ResetToken, &u.ResetTokenExpires, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return u, nil
}
