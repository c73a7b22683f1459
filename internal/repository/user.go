package repository

import (
	"context"
	"time"

	"docportal/internal/model"
)

// UserRepository reads accounts. Accounts are provisioned outside this service.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// SetImpersonationMode stores the mode the user is acting as.
	SetImpersonationMode(ctx context.Context, userID string, mode model.ImpersonationMode) error
}

// SessionRepository persists login sessions keyed by token hash.
type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error
	// FindUserByTokenHash returns the owner of an unexpired session.
	FindUserByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	Delete(ctx context.Context, tokenHash string) error
	// DeleteExpired removes sessions that expired at or before now and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
