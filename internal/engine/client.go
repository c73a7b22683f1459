package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docportal/internal/config"
)

const maxErrorBody = 4096

// DefaultMaxDownloadBytes bounds FetchPDF when the configuration sets no limit.
const DefaultMaxDownloadBytes int64 = 100 * 1024 * 1024

// UploadOptions control a multipart upload.
type UploadOptions struct {
	// ContentType of the file part; defaults to application/octet-stream.
	ContentType string
	// DocumentID targets an existing engine document. Combined with Overwrite it replaces its content.
	DocumentID string
	Overwrite  bool
}

// URLUploadOptions describe ingestion of a remotely hosted file. Nil booleans take the engine defaults
// (copy asset: false, keep annotations: true, overwrite: true).
type URLUploadOptions struct {
	URL                       string
	DocumentID                string
	Title                     string
	CopyAssetToStorageBackend *bool
	KeepCurrentAnnotations    *bool
	OverwriteExistingDocument *bool
}

// Client talks to the external document engine.
type Client interface {
	// Upload stores content and returns the engine document id.
	Upload(ctx context.Context, content []byte, filename string, opts UploadOptions) (string, error)
	// UploadFromURL asks the engine to fetch and store a remote file.
	UploadFromURL(ctx context.Context, opts URLUploadOptions) (string, error)
	Delete(ctx context.Context, documentID string) error
	// FetchPDF downloads the current PDF bytes using a token that grants download permission.
	FetchPDF(ctx context.Context, documentID, token string) ([]byte, error)
	Health(ctx context.Context) bool
	IssueToken(documentID string, permissions []string, subject string, ttl time.Duration) (Token, error)
	ViewerURL(documentID, token string) string
	ThumbnailURL(documentID, token string, width int) string
	DownloadURL(documentID, token string) string
}

// Option customizes a client.
type Option func(*httpClient)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *httpClient) { c.signer.now = now }
}

type httpClient struct {
	baseURL     string
	apiKey      string
	http        *http.Client
	signer      *tokenSigner
	maxDownload int64
}

var _ Client = (*httpClient)(nil)

// New creates a document engine client. The RS256 signing key is loaded once here.
func New(cfg config.DocumentEngineConfig, opts ...Option) (Client, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" || cfg.PrivateKeyPath == "" {
		return nil, fmt.Errorf("missing document engine configuration")
	}
	key, err := loadSigningKey(cfg.PrivateKeyPath)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	maxDownload := cfg.MaxDownloadBytes
	if maxDownload <= 0 {
		maxDownload = DefaultMaxDownloadBytes
	}
	c := &httpClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		signer:      &tokenSigner{key: key, now: time.Now},
		maxDownload: maxDownload,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type uploadEnvelope struct {
	Data struct {
		DocumentID string `json:"document_id"`
	} `json:"data"`
}

func (c *httpClient) Upload(ctx context.Context, content []byte, filename string, opts UploadOptions) (string, error) {
	if filename == "" {
		filename = "document.pdf"
	}
	ct := opts.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if opts.DocumentID != "" {
		_ = w.WriteField("document_id", opts.DocumentID)
	}
	if opts.Overwrite {
		_ = w.WriteField("overwrite_existing_document", "true")
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/documents", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.authorize(req)

	return c.decodeDocumentID(req, "upload", opts.DocumentID)
}

func (c *httpClient) UploadFromURL(ctx context.Context, opts URLUploadOptions) (string, error) {
	if opts.URL == "" {
		return "", fmt.Errorf("document url is required")
	}
	payload := map[string]any{
		"url":                           opts.URL,
		"copy_asset_to_storage_backend": boolOr(opts.CopyAssetToStorageBackend, false),
		"keep_current_annotations":      boolOr(opts.KeepCurrentAnnotations, true),
		"overwrite_existing_document":   boolOr(opts.OverwriteExistingDocument, true),
	}
	if opts.DocumentID != "" {
		payload["document_id"] = opts.DocumentID
	}
	if opts.Title != "" {
		payload["title"] = opts.Title
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/documents", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	return c.decodeDocumentID(req, "url upload", opts.DocumentID)
}

func (c *httpClient) Delete(ctx context.Context, documentID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/documents/"+url.PathEscape(documentID), nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.do(req, "delete")
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *httpClient) FetchPDF(ctx context.Context, documentID, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(documentID, token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req, "download")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, c.maxDownload+1))
	if err != nil {
		return nil, &Error{Op: "download", StatusCode: http.StatusServiceUnavailable, Err: err}
	}
	if int64(len(b)) > c.maxDownload {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrDocumentTooLarge, c.maxDownload)
	}
	return b, nil
}

func (c *httpClient) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *httpClient) IssueToken(documentID string, permissions []string, subject string, ttl time.Duration) (Token, error) {
	return c.signer.issue(documentID, permissions, subject, ttl)
}

func (c *httpClient) ViewerURL(documentID, token string) string {
	q := url.Values{}
	q.Set("document_id", documentID)
	q.Set("jwt", token)
	return c.baseURL + "/viewer?" + q.Encode()
}

func (c *httpClient) ThumbnailURL(documentID, token string, width int) string {
	if width <= 0 {
		width = 400
	}
	q := url.Values{}
	q.Set("jwt", token)
	q.Set("width", strconv.Itoa(width))
	return c.baseURL + "/documents/" + url.PathEscape(documentID) + "/cover?" + q.Encode()
}

func (c *httpClient) DownloadURL(documentID, token string) string {
	q := url.Values{}
	q.Set("jwt", token)
	return c.baseURL + "/documents/" + url.PathEscape(documentID) + "/pdf?" + q.Encode()
}

func (c *httpClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Token token="+c.apiKey)
}

// do executes req and turns transport failures and non-2xx responses into *Error.
func (c *httpClient) do(req *http.Request, op string) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Op: op, StatusCode: http.StatusServiceUnavailable, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

func (c *httpClient) decodeDocumentID(req *http.Request, op, fallback string) (string, error) {
	resp, err := c.do(req, op)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var env uploadEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("decode %s response: %w", op, err)
	}
	if env.Data.DocumentID != "" {
		return env.Data.DocumentID, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrNoDocumentID
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
