package authapi

import (
	"errors"
	"net/http"

	"github.com/spec-kit/support-console/internal/httpclient"
)

// User-facing messages for the auth failure classes.
const (
	MsgInvalidSession = "Invalid session, please log in again"
	MsgNetwork        = "Network error: unable to reach the server"
	MsgUnknown        = "Unknown error"
)

// Message turns an auth failure into a message suitable for display.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		if msg := err.Error(); msg != "" {
			return msg
		}
		return MsgUnknown
	}

	switch httpErr.Status {
	case http.StatusUnauthorized:
		return MsgInvalidSession
	case httpclient.StatusNetwork:
		return MsgNetwork
	}
	if httpErr.Message != "" {
		return httpErr.Message
	}
	return MsgUnknown
}
