package signing

import (
	"fmt"
	"net/http"
)

// Error is a failed call to the signing service. Transport failures carry StatusCode 503.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("signing service: %d %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("signing service: %d %s", e.StatusCode, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}
