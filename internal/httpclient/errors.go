package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// StatusNetwork is the status reported when no HTTP response was received.
const StatusNetwork = 0

// ErrorBody is the structured error envelope returned by the backend.
type ErrorBody struct {
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HTTPError carries the HTTP status of a failed call. Status is 0 when the
// request never produced a response (DNS, refused connection, TLS, CORS-like
// proxy failures).
type HTTPError struct {
	Status  int
	Message string
	Body    *ErrorBody
	Err     error
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Status == StatusNetwork {
		if e.Err != nil {
			return fmt.Sprintf("network error: %v", e.Err)
		}
		return "network error"
	}
	return fmt.Sprintf("http %d: %s", e.Status, msg)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError constructs an HTTPError with a message and no body.
func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// StatusOf returns the HTTP status carried by err, or -1 if err is not an HTTPError.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return -1
}

// IsUnauthorized reports whether err is exactly a 401.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// decodeError builds an HTTPError from a non-2xx response body. It understands
// {"error":{"code","message","details"}}, {"error":"..."}, {"message":"..."}
// and {"detail":"..."}; anything else leaves Message empty.
func decodeError(status int, raw []byte) *HTTPError {
	out := &HTTPError{Status: status}
	if len(raw) == 0 {
		return out
	}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Detail  string          `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return out
	}

	if len(envelope.Error) > 0 {
		var body ErrorBody
		if err := json.Unmarshal(envelope.Error, &body); err == nil {
			out.Body = &body
			out.Message = body.Message
		} else {
			var text string
			if json.Unmarshal(envelope.Error, &text) == nil {
				out.Message = text
			}
		}
	}
	if out.Message == "" {
		out.Message = envelope.Message
	}
	if out.Message == "" {
		out.Message = envelope.Detail
	}
	return out
}
