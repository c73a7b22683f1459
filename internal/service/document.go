package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docportal/internal/access"
	"docportal/internal/engine"
	"docportal/internal/logging"
	"docportal/internal/model"
	"docportal/internal/repository"
)

const (
	// DefaultMaxUploadBytes is the largest document accepted for upload.
	DefaultMaxUploadBytes int64 = 10 * 1024 * 1024

	defaultListLimit = 10
	maxListLimit     = 100
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items  []model.Document `json:"data"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// UploadInput is a document upload as received from a client. Size is the declared size;
// the content is still read with a bound.
type UploadInput struct {
	Title       string
	Author      string
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UpdateInput holds editable metadata. An empty Author keeps the stored one.
type UpdateInput struct {
	Title  string
	Author string
}

// ViewerAccess is everything a browser needs to open a document in the engine viewer.
type ViewerAccess struct {
	DocumentID   string    `json:"document_id"`
	EngineID     string    `json:"document_engine_id"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	ViewerURL    string    `json:"viewer_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	DownloadURL  string    `json:"download_url"`
}

// EngineHealth is the health report for the document engine.
type EngineHealth struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
}

// DocumentService defines the document use cases. Every method scopes rows with the
// caller's access filter, so documents outside it behave as if they did not exist.
type DocumentService interface {
	List(ctx context.Context, user model.User, limit, offset int) (*DocumentListResult, error)
	Get(ctx context.Context, user model.User, id string) (*model.Document, error)

	// Upload stores the file in the document engine, then records its metadata. If the
	// record cannot be saved the engine copy is removed again.
	Upload(ctx context.Context, user model.User, in UploadInput) (*model.Document, error)

	Update(ctx context.Context, user model.User, id string, in UpdateInput) (*model.Document, error)

	// Delete removes the engine copy best-effort, then always removes the record.
	Delete(ctx context.Context, user model.User, id string) error

	ViewerAccess(ctx context.Context, user model.User, id string) (*ViewerAccess, error)
	EngineHealth(ctx context.Context) EngineHealth
}

// DocumentOption customizes the document service.
type DocumentOption func(*documentService)

// WithRetryPolicy sets the policy for engine upload and delete calls.
func WithRetryPolicy(p engine.RetryPolicy) DocumentOption {
	return func(s *documentService) { s.retry = p }
}

// WithMaxUploadBytes overrides DefaultMaxUploadBytes.
func WithMaxUploadBytes(n int64) DocumentOption {
	return func(s *documentService) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

type documentService struct {
	engine    engine.Client
	repo      repository.DocumentRepository
	log       *logging.Logger
	retry     engine.RetryPolicy
	maxUpload int64
	now       func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(eng engine.Client, repo repository.DocumentRepository, log *logging.Logger, opts ...DocumentOption) DocumentService {
	s := &documentService{
		engine:    eng,
		repo:      repo,
		log:       log.With(map[string]any{"component": "documents"}),
		retry:     engine.DefaultRetryPolicy(),
		maxUpload: DefaultMaxUploadBytes,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *documentService) List(ctx context.Context, user model.User, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, access.For(user), repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total, Limit: limit, Offset: offset}, nil
}

func (s *documentService) Get(ctx context.Context, user model.User, id string) (*model.Document, error) {
	return s.find(ctx, id, access.For(user))
}

func (s *documentService) find(ctx context.Context, id string, f access.Filter) (*model.Document, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	doc, err := s.repo.FindByID(ctx, id, f)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Upload(ctx context.Context, user model.User, in UploadInput) (*model.Document, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title", "title is required")
	}
	if in.Content == nil {
		return nil, invalid("file", "file is required")
	}
	if in.Size > s.maxUpload {
		return nil, s.tooLarge()
	}

	content, ok, err := readAllLimited(in.Content, s.maxUpload)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if !ok {
		return nil, s.tooLarge()
	}
	if len(content) == 0 {
		return nil, invalid("file", "file is required")
	}

	filename := in.Filename
	if filename == "" {
		filename = "document"
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	engineID, err := engine.WithRetry(ctx, s.retry, func(ctx context.Context) (string, error) {
		return s.engine.Upload(ctx, content, filename, engine.UploadOptions{ContentType: contentType})
	})
	if err != nil {
		s.log.Error("engine_upload_failed", err, map[string]any{"user_id": user.ID, "filename": filename})
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = user.DisplayName()
	}

	doc := &model.Document{
		ID:        uuid.NewString(),
		EngineID:  engineID,
		Title:     title,
		Filename:  filename,
		FileType:  contentType,
		Size:      int64(len(content)),
		Author:    author,
		OwnerID:   user.ID,
		CreatedAt: s.now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Compensate so the engine does not keep a document nobody can see.
		if delErr := s.engine.Delete(context.WithoutCancel(ctx), engineID); delErr != nil {
			s.log.Error("engine_compensating_delete_failed", delErr, map[string]any{"document_engine_id": engineID})
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.log.Info("document_uploaded", map[string]any{
		"document_id":        stored.ID,
		"document_engine_id": engineID,
		"user_id":            user.ID,
		"size":               stored.Size,
	})
	return stored, nil
}

func (s *documentService) tooLarge() error {
	return invalid("file", fmt.Sprintf("file exceeds the maximum size of %d bytes", s.maxUpload))
}

func (s *documentService) Update(ctx context.Context, user model.User, id string, in UpdateInput) (*model.Document, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title", "title is required")
	}
	u := repository.DocumentUpdate{Title: title}
	if author := strings.TrimSpace(in.Author); author != "" {
		u.Author = &author
	}

	doc, err := s.repo.Update(ctx, id, access.For(user), u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, user model.User, id string) error {
	f := access.For(user)
	doc, err := s.find(ctx, id, f)
	if err != nil {
		return err
	}

	err = engine.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.engine.Delete(ctx, doc.EngineID)
	})
	if err != nil {
		s.log.Warn("engine_delete_failed", map[string]any{
			"document_id":        doc.ID,
			"document_engine_id": doc.EngineID,
			"error_message":      err.Error(),
		})
	}

	if err := s.repo.Delete(ctx, doc.ID, f); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *documentService) ViewerAccess(ctx context.Context, user model.User, id string) (*ViewerAccess, error) {
	doc, err := s.find(ctx, id, access.For(user))
	if err != nil {
		return nil, err
	}

	tok, err := s.engine.IssueToken(doc.EngineID,
		[]string{engine.PermissionReadDocument, engine.PermissionDownload, engine.PermissionCoverImage},
		user.ID, engine.ViewerTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue viewer token: %w", err)
	}

	return &ViewerAccess{
		DocumentID:   doc.ID,
		EngineID:     doc.EngineID,
		Token:        tok.Value,
		ExpiresAt:    tok.ExpiresAt,
		ViewerURL:    s.engine.ViewerURL(doc.EngineID, tok.Value),
		ThumbnailURL: s.engine.ThumbnailURL(doc.EngineID, tok.Value, 0),
		DownloadURL:  s.engine.DownloadURL(doc.EngineID, tok.Value),
	}, nil
}

func (s *documentService) EngineHealth(ctx context.Context) EngineHealth {
	status := "unhealthy"
	if s.engine.Health(ctx) {
		status = "healthy"
	}
	return EngineHealth{Status: status, Timestamp: s.now().UTC(), Service: "Document Engine"}
}

// readAllLimited reads r fully unless it exceeds limit bytes.
func readAllLimited(r io.Reader, limit int64) ([]byte, bool, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	return buf.Bytes(), n <= limit, nil
}
