package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docportal/internal/http/middleware"
	"docportal/internal/model"
	"docportal/internal/service"
	"docportal/internal/signing"
)

type updateDocumentRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

type signPosition struct {
	PageIndex int     `json:"pageIndex"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

type signatureOptions struct {
	SignatureType    string       `json:"signatureType"`
	Position         signPosition `json:"position"`
	Flatten          *bool        `json:"flatten"`
	ShowWatermark    *bool        `json:"showWatermark"`
	ShowSignDate     *bool        `json:"showSignDate"`
	ShowDateTimezone *bool        `json:"showDateTimezone"`
	UseCustomImage   bool         `json:"useCustomImage"`
	AppearanceMode   string       `json:"appearanceMode"`
}

type signDocumentRequest struct {
	SignerName       string           `json:"signerName"`
	Reason           string           `json:"reason"`
	SignatureOptions signatureOptions `json:"signatureOptions"`
	ReplaceOriginal  bool             `json:"replaceOriginal"`
}

type signDocumentResponse struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"documentId"`
	Replaced   bool   `json:"replaced"`
	Message    string `json:"message"`
}

// toServiceRequest applies the signing service defaults to omitted appearance toggles.
func (r signDocumentRequest) toServiceRequest() service.SignRequest {
	o := r.SignatureOptions
	kind := signing.Kind(o.SignatureType)
	if kind == "" {
		kind = signing.KindInvisible
	}
	spec := signing.Spec{
		Kind:      kind,
		PageIndex: o.Position.PageIndex,
	}
	if spec.Kind == signing.KindVisible {
		spec.Rect = signing.Rect{X: o.Position.X, Y: o.Position.Y, Width: o.Position.Width, Height: o.Position.Height}
		spec.Appearance = signing.DefaultAppearance()
		if o.AppearanceMode != "" {
			spec.Appearance.Mode = signing.Mode(o.AppearanceMode)
		}
		spec.Appearance.ShowWatermark = boolOr(o.ShowWatermark, spec.Appearance.ShowWatermark)
		spec.Appearance.ShowSignDate = boolOr(o.ShowSignDate, spec.Appearance.ShowSignDate)
		spec.Appearance.ShowDateTimezone = boolOr(o.ShowDateTimezone, spec.Appearance.ShowDateTimezone)
		spec.Flatten = boolOr(o.Flatten, false)
	}
	return service.SignRequest{
		SignerName:      r.SignerName,
		Reason:          r.Reason,
		Spec:            spec,
		UseCustomImage:  o.UseCustomImage,
		ReplaceOriginal: r.ReplaceOriginal,
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func currentUser(c *fiber.Ctx) (model.User, error) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return model.User{}, service.ErrUnauthorized
	}
	return u, nil
}

// documentID returns the :id path parameter if it is a UUID.
func documentID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// ListDocuments returns the documents visible to the caller, newest first.
//
//	@Summary	List documents
//	@Tags		documents
//	@Produce	json
//	@Security	BearerAuth
//	@Param		limit	query		int	false	"Page size (default 10, max 100)"
//	@Param		offset	query		int	false	"Offset"
//	@Success	200		{object}	service.DocumentListResult
//	@Failure	400		{object}	errorPayload
//	@Failure	401		{object}	errorPayload
//	@Router		/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), user, limit, offset)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		return c.JSON(res)
	}
}

// UploadDocument stores a file in the document engine and records it.
//
//	@Summary	Upload a document
//	@Tags		documents
//	@Accept		multipart/form-data
//	@Produce	json
//	@Security	BearerAuth
//	@Param		file	formData	file	true	"Document file (max 10 MiB)"
//	@Param		title	formData	string	true	"Title"
//	@Param		author	formData	string	false	"Author (defaults to the uploader)"
//	@Success	201		{object}	model.Document
//	@Failure	400		{object}	errorPayload
//	@Failure	401		{object}	errorPayload
//	@Failure	503		{object}	errorPayload
//	@Router		/documents [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
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

		doc, err := svc.Upload(c.UserContext(), user, service.UploadInput{
			Title:       c.FormValue("title"),
			Author:      c.FormValue("author"),
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     f,
		})
		if err != nil {
			return serviceError(c, err, fiber.StatusServiceUnavailable)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns one document with its owner.
//
//	@Summary	Get a document
//	@Tags		documents
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Document ID"
//	@Success	200	{object}	model.Document
//	@Failure	400	{object}	errorPayload
//	@Failure	404	{object}	errorPayload
//	@Router		/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), user, id)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		return c.JSON(doc)
	}
}

// UpdateDocument edits title and author.
//
//	@Summary	Update document metadata
//	@Tags		documents
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string					true	"Document ID"
//	@Param		body	body		updateDocumentRequest	true	"New metadata"
//	@Success	200		{object}	model.Document
//	@Failure	400		{object}	errorPayload
//	@Failure	404		{object}	errorPayload
//	@Router		/documents/{id} [put]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req updateDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		doc, err := svc.Update(c.UserContext(), user, id, service.UpdateInput{Title: req.Title, Author: req.Author})
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes a document. The engine copy is removed best-effort.
//
//	@Summary	Delete a document
//	@Tags		documents
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Document ID"
//	@Success	204
//	@Failure	400	{object}	errorPayload
//	@Failure	404	{object}	errorPayload
//	@Router		/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), user, id); err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ViewerURL issues a two-hour viewer token and the URLs that embed it.
//
//	@Summary	Viewer URLs for a document
//	@Tags		documents
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Document ID"
//	@Success	200	{object}	service.ViewerAccess
//	@Failure	404	{object}	errorPayload
//	@Router		/documents/{id}/viewer-url [get]
func ViewerURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		va, err := svc.ViewerAccess(c.UserContext(), user, id)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		return c.JSON(va)
	}
}

// SignDocument signs a document owned by the caller.
//
//	@Summary	Sign a document
//	@Tags		documents
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string				true	"Document ID"
//	@Param		body	body		signDocumentRequest	true	"Signature request"
//	@Success	200		{object}	signDocumentResponse
//	@Failure	400		{object}	errorPayload
//	@Failure	403		{object}	errorPayload
//	@Failure	404		{object}	errorPayload
//	@Failure	500		{object}	errorPayload
//	@Router		/documents/{id}/sign [post]
func SignDocument(svc service.SignService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		// A bad body must not hide a 403/404, so decoding errors go through the service checks.
		var body signDocumentRequest
		var req service.SignRequest
		if err := c.BodyParser(&body); err != nil {
			req.BodyErr = err
		} else {
			req = body.toServiceRequest()
		}

		res, err := svc.Sign(c.UserContext(), user, id, req)
		if err != nil {
			return serviceError(c, err, fiber.StatusInternalServerError)
		}
		return c.JSON(signDocumentResponse{
			Success:    true,
			DocumentID: res.DocumentID,
			Replaced:   res.Replaced,
			Message:    "Document signed successfully",
		})
	}
}
