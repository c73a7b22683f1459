package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"docportal/internal/logging"
	"docportal/internal/model"
	"docportal/internal/repository"
)

// DefaultSessionTTL is used when no TTL is configured.
const DefaultSessionTTL = 24 * time.Hour

// LoginResult carries the bearer token. The token is shown once; only its hash is stored.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

// AuthService resolves and manages login sessions.
type AuthService interface {
	// Authenticate returns the user owning an unexpired session token.
	Authenticate(ctx context.Context, token string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	// SetImpersonationMode switches the mode the user acts as. Only administrators may act as ADMIN.
	SetImpersonationMode(ctx context.Context, user model.User, mode model.ImpersonationMode) (*model.User, error)
}

type authService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	log      *logging.Logger
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthService constructs an AuthService. A non-positive ttl means DefaultSessionTTL.
func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, log *logging.Logger, ttl time.Duration) AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &authService{
		users:    users,
		sessions: sessions,
		log:      log.With(map[string]any{"component": "auth"}),
		ttl:      ttl,
		now:      time.Now,
	}
}

// HashToken returns the stored form of a session token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	u, err := s.sessions.FindUserByTokenHash(ctx, HashToken(token), s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return u, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, invalid("credentials", "email and password are required")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	// Accounts provisioned by an external identity provider have no local password.
	if u.PasswordHash == "" {
		return nil, ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("login_rejected", map[string]any{"user_id": u.ID})
		return nil, ErrUnauthorized
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	now := s.now().UTC()
	sess := &model.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		TokenHash: HashToken(token),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("login", map[string]any{"user_id": u.ID})
	return &LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, User: *u}, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthorized
	}
	return s.sessions.Delete(ctx, HashToken(token))
}

func (s *authService) SetImpersonationMode(ctx context.Context, user model.User, mode model.ImpersonationMode) (*model.User, error) {
	if !mode.Valid() {
		return nil, invalid("mode", "mode must be USER or ADMIN")
	}
	if mode == model.ModeAdmin && user.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	if err := s.users.SetImpersonationMode(ctx, user.ID, mode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	s.log.Info("impersonation_mode_changed", map[string]any{"user_id": user.ID, "mode": string(mode)})
	user.ImpersonationMode = mode
	return &user, nil
}
