package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"docportal/internal/http/middleware"
	"docportal/internal/model"
	"docportal/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type impersonationRequest struct {
	Mode model.ImpersonationMode `json:"mode"`
}

// Login exchanges credentials for a session token, also set as an HTTP-only cookie.
//
//	@Summary	Log in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		loginRequest	true	"Credentials"
//	@Success	200		{object}	service.LoginResult
//	@Failure	400		{object}	errorPayload
//	@Failure	401		{object}	errorPayload
//	@Router		/auth/login [post]
func Login(svc service.AuthService, cookie string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		if cookie != "" {
			c.Cookie(&fiber.Cookie{
				Name:     cookie,
				Value:    res.Token,
				Expires:  res.ExpiresAt,
				HTTPOnly: true,
				Secure:   c.Protocol() == "https",
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		return c.JSON(res)
	}
}

// Logout ends the current session.
//
//	@Summary	Log out
//	@Tags		auth
//	@Security	BearerAuth
//	@Success	204
//	@Failure	401	{object}	errorPayload
//	@Router		/auth/logout [post]
func Logout(svc service.AuthService, cookie string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Logout(c.UserContext(), middleware.SessionToken(c, cookie)); err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		if cookie != "" {
			c.Cookie(&fiber.Cookie{
				Name:     cookie,
				Value:    "",
				Expires:  time.Unix(0, 0),
				HTTPOnly: true,
			})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Me returns the authenticated user.
//
//	@Summary	Current user
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	model.User
//	@Failure	401	{object}	errorPayload
//	@Router		/me [get]
func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		return c.JSON(user)
	}
}

// SetImpersonationMode switches between acting as a regular user and as an administrator.
//
//	@Summary	Switch impersonation mode
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		impersonationRequest	true	"USER or ADMIN"
//	@Success	200		{object}	model.User
//	@Failure	400		{object}	errorPayload
//	@Failure	403		{object}	errorPayload
//	@Router		/me/impersonation-mode [put]
func SetImpersonationMode(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		var req impersonationRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		updated, err := svc.SetImpersonationMode(c.UserContext(), user, req.Mode)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		return c.JSON(updated)
	}
}
