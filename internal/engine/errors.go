package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNoDocumentID is returned when the engine accepted an upload but its response carried no id.
var ErrNoDocumentID = errors.New("document engine did not return a document ID")

// ErrDocumentTooLarge is returned when a downloaded PDF exceeds the configured limit.
var ErrDocumentTooLarge = errors.New("document exceeds the download limit")

// Error is a failed call to the document engine. Transport failures are reported with
// StatusCode 503 so callers can tell them apart from rejected requests.
type Error struct {
	Op         string
	StatusCode int
	// Body is the engine's response text, kept for diagnostics only.
	Body string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("document engine %s failed: %d - %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("document engine %s failed: %d - %s", e.Op, e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err is a transport failure or a 5xx from the engine.
func IsUnavailable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// IsRetryable is the default retry predicate: transport failures and 5xx responses are
// retried; 4xx responses, missing ids and cancelled contexts are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNoDocumentID) || errors.Is(err, ErrDocumentTooLarge) {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode >= http.StatusInternalServerError
	}
	return true
}
