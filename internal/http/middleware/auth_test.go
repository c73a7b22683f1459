package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"docportal/internal/model"
)

var errBadSession = errors.New("bad session")

type staticResolver map[string]*model.User

func (r staticResolver) Authenticate(_ context.Context, token string) (*model.User, error) {
	if u, ok := r[token]; ok {
		return u, nil
	}
	return nil, errBadSession
}

func TestAuth(t *testing.T) {
	resolver := staticResolver{"good": {ID: "user-1", Email: "ada@example.com"}}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, errBadSession) || errors.Is(err, fiber.ErrUnauthorized) {
				return c.SendStatus(fiber.StatusUnauthorized)
			}
			return c.SendStatus(fiber.StatusInternalServerError)
		},
	})
	app.Get("/me", Auth(resolver, "docportal_session"), func(c *fiber.Ctx) error {
		u, ok := CurrentUser(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(u.ID)
	})

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
	}{
		{name: "bearer token", header: "Bearer good", wantStatus: fiber.StatusOK},
		{name: "lowercase scheme", header: "bearer good", wantStatus: fiber.StatusOK},
		{name: "session cookie", cookie: "good", wantStatus: fiber.StatusOK},
		{name: "missing token", wantStatus: fiber.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", wantStatus: fiber.StatusUnauthorized},
		{name: "other scheme", header: "Basic Z29vZA==", wantStatus: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.Header.Set("Cookie", "docportal_session="+tt.cookie)
			}

			resp, _ := app.Test(req)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestCurrentUser_Missing(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := CurrentUser(c)
		assert.False(t, ok)
		return nil
	})
	_, _ = app.Test(httptest.NewRequest("GET", "/", nil))
}
