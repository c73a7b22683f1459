package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docportal/internal/access"
	"docportal/internal/engine"
	"docportal/internal/logging"
	"docportal/internal/model"
	"docportal/internal/repository"
	"docportal/internal/signing"
	"docportal/internal/storage"
)

// SignStage is a step of the signing workflow.
type SignStage string

const (
	StageAuthorizing SignStage = "authorizing"
	StageFetching    SignStage = "fetching"
	StageSigning     SignStage = "signing"
	StagePublishing  SignStage = "publishing"
	StageRecording   SignStage = "recording"
	StageDone        SignStage = "done"
)

// SignError reports the stage at which signing stopped. It matches ErrSigningFailed and
// the underlying cause with errors.Is. Effects of earlier stages are not undone.
type SignError struct {
	Stage SignStage
	Err   error
}

func (e *SignError) Error() string {
	return fmt.Sprintf("sign document: %s: %v", e.Stage, e.Err)
}

func (e *SignError) Unwrap() []error {
	return []error{ErrSigningFailed, e.Err}
}

// SignRequest is what the signer asked for.
type SignRequest struct {
	SignerName string
	Reason     string
	Spec       signing.Spec
	// UseCustomImage attaches the signer's stored appearance image to a visible signature.
	UseCustomImage bool
	// ReplaceOriginal overwrites the engine document in place instead of creating a signed copy.
	ReplaceOriginal bool
	// BodyErr carries a request decoding failure. It is reported only after ownership is confirmed.
	BodyErr error
}

// SignResult identifies the document holding the signed content.
type SignResult struct {
	DocumentID string `json:"documentId"`
	Replaced   bool   `json:"replaced"`
}

// SignService signs documents on behalf of their owner.
type SignService interface {
	Sign(ctx context.Context, user model.User, documentID string, req SignRequest) (*SignResult, error)
}

// SignOptions configure custom appearance images. Images is optional.
type SignOptions struct {
	Images          storage.Storage
	DefaultImageKey string
	MaxImageBytes   int64
}

type signService struct {
	engine engine.Client
	signer signing.Signer
	repo   repository.DocumentRepository
	opts   SignOptions
	log    *logging.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewSignService constructs a SignService.
func NewSignService(eng engine.Client, signer signing.Signer, repo repository.DocumentRepository, log *logging.Logger, opts SignOptions) SignService {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = DefaultMaxImageBytes
	}
	return &signService{
		engine: eng,
		signer: signer,
		repo:   repo,
		opts:   opts,
		log:    log.With(map[string]any{"component": "sign"}),
		tracer: otel.Tracer("docportal/internal/service"),
		now:    time.Now,
	}
}

func (s *signService) Sign(ctx context.Context, user model.User, documentID string, req SignRequest) (*SignResult, error) {
	ctx, span := s.tracer.Start(ctx, "document.sign", trace.WithAttributes(
		attribute.String("document.id", documentID),
		attribute.Bool("sign.replace_original", req.ReplaceOriginal),
	))
	defer span.End()

	log := s.log.With(map[string]any{"document_id": documentID, "user_id": user.ID})
	stage := StageAuthorizing
	enter := func(next SignStage) {
		stage = next
		span.AddEvent(string(next))
		log.Info("sign_stage", map[string]any{"stage": string(next)})
	}
	fail := func(err error) (*SignResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stage))
		log.Error("sign_failed", err, map[string]any{"stage": string(stage)})
		return nil, &SignError{Stage: stage, Err: err}
	}

	enter(StageAuthorizing)
	// Ownership is checked against the unfiltered row: signing is owner-only even in admin mode.
	doc, err := s.repo.FindByID(ctx, documentID, access.Unrestricted())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(ErrNotFound)
		}
		return fail(err)
	}
	if doc.OwnerID != user.ID {
		return fail(ErrForbidden)
	}
	if req.BodyErr != nil {
		return fail(invalid("body", "invalid request body"))
	}
	if strings.TrimSpace(req.SignerName) == "" {
		return fail(invalid("signerName", "signer name is required"))
	}
	if err := req.Spec.Validate(); err != nil {
		return fail(invalid("signatureOptions", err.Error()))
	}

	enter(StageFetching)
	tok, err := s.engine.IssueToken(doc.EngineID,
		[]string{engine.PermissionReadDocument, engine.PermissionDownload}, "", engine.DefaultTokenTTL)
	if err != nil {
		return fail(err)
	}
	pdf, err := s.engine.FetchPDF(ctx, doc.EngineID, tok.Value)
	if err != nil {
		return fail(err)
	}

	enter(StageSigning)
	spec := req.Spec
	if req.UseCustomImage && spec.Kind == signing.KindVisible {
		spec.Appearance.Image = s.appearanceImage(ctx, user.ID, log)
	}
	signed, err := s.signer.Sign(ctx, pdf, req.SignerName, req.Reason, spec)
	if err != nil {
		return fail(err)
	}

	enter(StagePublishing)
	opts := engine.UploadOptions{ContentType: "application/pdf"}
	if req.ReplaceOriginal {
		opts.DocumentID = doc.EngineID
		opts.Overwrite = true
	}
	engineID, err := s.engine.Upload(ctx, signed, doc.Filename, opts)
	if err != nil {
		return fail(err)
	}

	enter(StageRecording)
	size := int64(len(signed))
	result := &SignResult{DocumentID: doc.ID, Replaced: req.ReplaceOriginal}
	if req.ReplaceOriginal {
		if err := s.repo.UpdateSize(ctx, doc.ID, size); err != nil {
			return fail(err)
		}
	} else {
		created, err := s.repo.Create(ctx, &model.Document{
			ID:        uuid.NewString(),
			EngineID:  engineID,
			Title:     doc.Title + " (Signed)",
			Filename:  doc.Filename,
			FileType:  doc.FileType,
			Size:      size,
			Author:    doc.Author,
			OwnerID:   doc.OwnerID,
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return fail(err)
		}
		result.DocumentID = created.ID
	}

	enter(StageDone)
	span.SetAttributes(attribute.String("sign.result_document_id", result.DocumentID))
	return result, nil
}

// appearanceImage loads the signer's image, falling back to the default key. A missing
// image is not an error; the signature is applied without one.
func (s *signService) appearanceImage(ctx context.Context, userID string, log *logging.Logger) []byte {
	if s.opts.Images == nil {
		log.Warn("sign_custom_image_skipped", map[string]any{"reason": "object storage not configured"})
		return nil
	}

	keys := []string{storage.SignatureImageKey(userID)}
	if s.opts.DefaultImageKey != "" {
		keys = append(keys, s.opts.DefaultImageKey)
	}
	for _, key := range keys {
		img, err := storage.ReadObject(ctx, s.opts.Images, key, s.opts.MaxImageBytes)
		if err == nil {
			return img
		}
		if !errors.Is(err, storage.ErrObjectNotFound) {
			log.Error("sign_custom_image_failed", err, map[string]any{"key": key})
			return nil
		}
	}
	log.Warn("sign_custom_image_missing", map[string]any{"keys": keys})
	return nil
}
