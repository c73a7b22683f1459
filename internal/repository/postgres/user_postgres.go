package postgres

import (
	"context"
	"database/sql"
	"time"

	"docportal/internal/model"
	"docportal/internal/repository"
)

const userColumns = `u.id, COALESCE(u.name, ''), u.email, u.role, u.current_impersonation_mode, COALESCE(u.password_hash, ''), u.created_at`

func scanUser(s rowScanner) (*model.User, error) {
	var u model.User
	if err := s.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.ImpersonationMode,
		&u.PasswordHash,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// FindByEmail looks a user up case-insensitively.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users u WHERE lower(u.email) = lower($1)`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

func (r *UserPostgres) SetImpersonationMode(ctx context.Context, userID string, mode model.ImpersonationMode) error {
	const q = `UPDATE users SET current_impersonation_mode = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, q, string(mode), userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SessionPostgres is a PostgreSQL implementation of repository.SessionRepository.
type SessionPostgres struct {
	db *sql.DB
}

func NewSessionPostgres(db *sql.DB) *SessionPostgres {
	return &SessionPostgres{db: db}
}

var _ repository.SessionRepository = (*SessionPostgres)(nil)

func (r *SessionPostgres) Create(ctx context.Context, s *model.Session) error {
	const q = `
		INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.UserID, s.TokenHash, s.ExpiresAt, s.CreatedAt)
	return err
}

func (r *SessionPostgres) FindUserByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	q := `
		SELECT ` + userColumns + `
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1 AND s.expires_at > $2`
	return scanUser(r.db.QueryRowContext(ctx, q, tokenHash, now))
}

// Delete removes a session. Deleting an unknown session is not an error.
func (r *SessionPostgres) Delete(ctx context.Context, tokenHash string) error {
	const q = `DELETE FROM sessions WHERE token_hash = $1`
	_, err := r.db.ExecContext(ctx, q, tokenHash)
	return err
}

func (r *SessionPostgres) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM sessions WHERE expires_at <= $1`
	res, err := r.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
