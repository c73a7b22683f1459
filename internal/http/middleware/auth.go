package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docportal/internal/model"
)

// UserLocalKey holds the authenticated *model.User in Fiber's context locals.
const UserLocalKey = "user"

// SessionResolver maps a session token to its user.
type SessionResolver interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// Auth requires a valid session. The token is taken from "Authorization: Bearer <token>",
// falling back to the named cookie. A missing token yields fiber.ErrUnauthorized; resolver
// errors are returned unchanged for the app's error handler.
func Auth(resolver SessionResolver, cookie string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := SessionToken(c, cookie)
		if token == "" {
			return fiber.ErrUnauthorized
		}
		u, err := resolver.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.Locals(UserLocalKey, u)
		return c.Next()
	}
}

// SessionToken extracts the raw session token from the request.
func SessionToken(c *fiber.Ctx, cookie string) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if cookie != "" {
		return c.Cookies(cookie)
	}
	return ""
}

// CurrentUser returns the user stored by Auth.
func CurrentUser(c *fiber.Ctx) (model.User, bool) {
	u, ok := c.Locals(UserLocalKey).(*model.User)
	if !ok || u == nil {
		return model.User{}, false
	}
	return *u, true
}
