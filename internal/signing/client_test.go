package signing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal/internal/config"
)

func newTestSigner(t *testing.T, baseURL string) Signer {
	t.Helper()
	s, err := New(config.SigningConfig{BaseURL: baseURL, APIKey: "dws-key", RequestTimeoutSec: 5})
	require.NoError(t, err)
	return s
}

func readPart(t *testing.T, r *http.Request, field string) ([]byte, string) {
	t.Helper()
	f, fh, err := r.FormFile(field)
	require.NoError(t, err)
	defer f.Close()
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	return b, fh.Header.Get("Content-Type")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(config.SigningConfig{BaseURL: "https://api.example.com/"})
	assert.EqualError(t, err, "missing signing service configuration")
}

func TestSigner_SignInvisible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sign", r.URL.Path)
		assert.Equal(t, "Bearer dws-key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		pdf, ct := readPart(t, r, "file")
		assert.Equal(t, "%PDF-original", string(pdf))
		assert.Equal(t, "application/pdf", ct)

		var data map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("data")), &data))
		assert.Equal(t, "cades", data["signatureType"])
		assert.Equal(t, "b-lt", data["cadesLevel"])
		assert.Equal(t, map[string]any{"pageIndex": float64(2)}, data["position"])
		assert.Equal(t, map[string]any{"signerName": "Ada", "signatureReason": "Approval"}, data["signatureMetadata"])
		assert.NotContains(t, data, "appearance")
		assert.NotContains(t, data, "flatten")

		_, _, err := r.FormFile("graphicImage")
		assert.ErrorIs(t, err, http.ErrMissingFile)

		_, _ = w.Write([]byte("%PDF-signed"))
	}))
	defer srv.Close()

	s := newTestSigner(t, srv.URL)
	out, err := s.Sign(context.Background(), []byte("%PDF-original"), "Ada", "Approval", Spec{Kind: KindInvisible, PageIndex: 2})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-signed", string(out))
}

func TestSigner_SignVisibleWithImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var data map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("data")), &data))
		assert.Equal(t, map[string]any{
			"pageIndex": float64(0),
			"rect":      []any{float64(10), float64(20), float64(150), float64(50)},
		}, data["position"])
		assert.Equal(t, map[string]any{
			"mode":             "signatureAndDescription",
			"showWatermark":    true,
			"showSignDate":     true,
			"showDateTimezone": false,
			"contentType":      "image/png",
		}, data["appearance"])
		assert.Equal(t, true, data["flatten"])

		img, ct := readPart(t, r, "graphicImage")
		assert.Equal(t, "png-bytes", string(img))
		assert.Equal(t, "image/png", ct)

		_, _ = w.Write([]byte("%PDF-signed"))
	}))
	defer srv.Close()

	appearance := DefaultAppearance()
	appearance.Mode = ModeSignatureAndDescription
	appearance.Image = []byte("png-bytes")

	s := newTestSigner(t, srv.URL+"/")
	out, err := s.Sign(context.Background(), []byte("%PDF"), "Ada", "", Spec{
		Kind:       KindVisible,
		Rect:       Rect{X: 10, Y: 20, Width: 150, Height: 50},
		Appearance: appearance,
		Flatten:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-signed", string(out))
}

func TestSigner_SignErrors(t *testing.T) {
	t.Run("error envelope", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"invalid_pdf","message":"document is encrypted"}`))
		}))
		defer srv.Close()

		_, err := newTestSigner(t, srv.URL).Sign(context.Background(), []byte("x"), "Ada", "", Spec{Kind: KindInvisible})

		var sErr *Error
		require.ErrorAs(t, err, &sErr)
		assert.Equal(t, http.StatusUnprocessableEntity, sErr.StatusCode)
		assert.Equal(t, "invalid_pdf", sErr.Code)
		assert.Equal(t, "document is encrypted", sErr.Message)
	})

	t.Run("plain text body", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newTestSigner(t, srv.URL).Sign(context.Background(), []byte("x"), "Ada", "", Spec{Kind: KindInvisible})

		var sErr *Error
		require.ErrorAs(t, err, &sErr)
		assert.Equal(t, http.StatusBadGateway, sErr.StatusCode)
		assert.Equal(t, "Bad Gateway", sErr.Message)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("invalid spec is not sent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		}))
		defer srv.Close()

		_, err := newTestSigner(t, srv.URL).Sign(context.Background(), []byte("x"), "Ada", "", Spec{Kind: KindVisible})
		assert.ErrorIs(t, err, ErrInvalidSpec)
	})

	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		base := srv.URL
		srv.Close()

		_, err := newTestSigner(t, base).Sign(context.Background(), []byte("x"), "Ada", "", Spec{Kind: KindInvisible})

		var sErr *Error
		require.ErrorAs(t, err, &sErr)
		assert.Equal(t, http.StatusServiceUnavailable, sErr.StatusCode)
		assert.NotNil(t, errors.Unwrap(err))
	})
}

func TestSpec_Validate(t *testing.T) {
	visible := func(mut func(*Spec)) Spec {
		s := Spec{Kind: KindVisible, Rect: Rect{X: 1, Y: 1, Width: 100, Height: 40}}
		if mut != nil {
			mut(&s)
		}
		return s
	}

	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{name: "invisible", spec: Spec{Kind: KindInvisible}},
		{name: "visible", spec: visible(nil)},
		{name: "visible with mode", spec: visible(func(s *Spec) { s.Appearance.Mode = ModeDescriptionOnly })},
		{name: "negative page", spec: Spec{Kind: KindInvisible, PageIndex: -1}, wantErr: true},
		{name: "unknown kind", spec: Spec{Kind: "stamp"}, wantErr: true},
		{name: "empty kind", spec: Spec{}, wantErr: true},
		{name: "zero width", spec: visible(func(s *Spec) { s.Rect.Width = 0 }), wantErr: true},
		{name: "negative position", spec: visible(func(s *Spec) { s.Rect.X = -5 }), wantErr: true},
		{name: "unknown mode", spec: visible(func(s *Spec) { s.Appearance.Mode = "fancy" }), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSpec)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
