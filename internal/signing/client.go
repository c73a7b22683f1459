// Package signing is a client for the hosted digital signature API.
package signing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docportal/internal/config"
)

const maxErrorBody = 4096

// Signer applies a CAdES signature to a PDF and returns the signed bytes.
type Signer interface {
	Sign(ctx context.Context, pdf []byte, signerName, reason string, spec Spec) ([]byte, error)
}

// Option customizes a client.
type Option func(*client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.http = hc }
}

type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ Signer = (*client)(nil)

// New creates a signing client. The base URL is used with a trailing slash.
func New(cfg config.SigningConfig, opts ...Option) (Signer, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("missing signing service configuration")
	}
	c := &client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + "/",
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout:   time.Duration(cfg.RequestTimeoutSec) * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *client) Sign(ctx context.Context, pdf []byte, signerName, reason string, spec Spec) ([]byte, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if err := writeFilePart(w, "file", "document.pdf", "application/pdf", pdf); err != nil {
		return nil, err
	}

	data, err := json.Marshal(buildData(signerName, reason, spec))
	if err != nil {
		return nil, fmt.Errorf("encode signature data: %w", err)
	}
	if err := w.WriteField("data", string(data)); err != nil {
		return nil, fmt.Errorf("build sign form: %w", err)
	}

	if spec.Kind == KindVisible && len(spec.Appearance.Image) > 0 {
		if err := writeFilePart(w, "graphicImage", "signature.png", "image/png", spec.Appearance.Image); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build sign form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"sign", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{StatusCode: http.StatusServiceUnavailable, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(resp)
	}

	signed, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{StatusCode: http.StatusServiceUnavailable, Message: "read signed document", Err: err}
	}
	return signed, nil
}

func writeFilePart(w *multipart.Writer, field, filename, contentType string, content []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("build sign form: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("build sign form: %w", err)
	}
	return nil
}

func parseError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	e := &Error{StatusCode: resp.StatusCode}

	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &env) == nil {
		e.Code = env.Error
		e.Message = env.Message
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
