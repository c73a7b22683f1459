package engine

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Permissions understood by the document engine's token-gated endpoints.
const (
	PermissionReadDocument = "read-document"
	PermissionDownload     = "download"
	PermissionCoverImage   = "cover-image"
)

const (
	// DefaultTokenTTL applies to generic access tokens.
	DefaultTokenTTL = time.Hour
	// ViewerTokenTTL applies to browser viewer sessions.
	ViewerTokenTTL = 2 * time.Hour
)

// Token is a signed, time-boxed credential for a single engine document. It is never persisted.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type accessClaims struct {
	DocumentID  string   `json:"document_id"`
	Permissions []string `json:"permissions"`
	UserID      string   `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

type tokenSigner struct {
	key *rsa.PrivateKey
	now func() time.Time
}

func loadSigningKey(path string) (*rsa.PrivateKey, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

func (s *tokenSigner) issue(documentID string, permissions []string, subject string, ttl time.Duration) (Token, error) {
	if documentID == "" {
		return Token{}, fmt.Errorf("issue token: document id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if len(permissions) == 0 {
		permissions = []string{PermissionReadDocument}
	}

	exp := s.now().Add(ttl)
	claims := accessClaims{
		DocumentID:  documentID,
		Permissions: permissions,
		UserID:      subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}
