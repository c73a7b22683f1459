package handler

import (
	"github.com/gofiber/fiber/v2"

	"docportal/internal/service"
)

// PutSignatureImage stores the caller's PNG signature appearance image.
//
//	@Summary	Upload signature image
//	@Tags		signature-image
//	@Accept		multipart/form-data
//	@Security	BearerAuth
//	@Param		file	formData	file	true	"PNG image (max 1 MiB)"
//	@Success	204
//	@Failure	400	{object}	errorPayload
//	@Failure	503	{object}	errorPayload
//	@Router		/me/signature-image [put]
func PutSignatureImage(svc service.SignatureImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		if err := svc.Put(c.UserContext(), user, f); err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetSignatureImage returns a short-lived download URL for the caller's image.
//
//	@Summary	Signature image URL
//	@Tags		signature-image
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	service.SignatureImageURL
//	@Failure	404	{object}	errorPayload
//	@Failure	503	{object}	errorPayload
//	@Router		/me/signature-image [get]
func GetSignatureImage(svc service.SignatureImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		u, err := svc.URL(c.UserContext(), user)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		return c.JSON(u)
	}
}

// DeleteSignatureImage removes the caller's image.
//
//	@Summary	Delete signature image
//	@Tags		signature-image
//	@Security	BearerAuth
//	@Success	204
//	@Failure	503	{object}	errorPayload
//	@Router		/me/signature-image [delete]
func DeleteSignatureImage(svc service.SignatureImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		if err := svc.Delete(c.UserContext(), user); err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
