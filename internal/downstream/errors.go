package downstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrTimeout      = errors.New("downstream_timeout")
	ErrUnavailable  = errors.New("downstream_unavailable")
	ErrNotFound     = errors.New("resource_not_found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// StatusError is a non-2xx answer from the shop API. Message is empty when
// the API did not explain itself.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("unexpected status: %d", e.StatusCode)
	}
	return fmt.Sprintf("downstream error [%d] %s: %s", e.StatusCode, e.Code, msg)
}

// Unwrap lets callers use errors.Is with the status sentinels.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// decodeError accepts the shapes the shop API answers with:
// {"message": "..."}, {"error": "..."} and {"error": {"code", "message"}}.
func decodeError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode, Code: "downstream_error"}

	b, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(b) == 0 {
		return se
	}

	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(b, &body); err != nil {
		return se
	}

	raw := strings.TrimSpace(string(body.Error))
	switch {
	case strings.HasPrefix(raw, "{"):
		var nested struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body.Error, &nested) == nil {
			if nested.Code != "" {
				se.Code = nested.Code
			}
			if nested.Message != "" {
				se.Message = nested.Message
			}
		}
	case strings.HasPrefix(raw, `"`):
		var s string
		if json.Unmarshal(body.Error, &s) == nil && s != "" {
			se.Message = s
		}
	}
	if body.Message != "" {
		se.Message = body.Message
	}
	return se
}

// Message returns the API's own message for err, or fallback when the
// failure did not come with one.
func Message(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
