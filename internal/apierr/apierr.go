// Package apierr defines the structured error type shared by the SDK and the
// request gateway. Backend errors arrive as JSON bodies of the shape
// {"error": "<machine code>", "message": "<human text>"} and are normalized
// here into a single Error value that keeps the HTTP status and machine code
// available to callers while carrying a readable message.
package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Machine codes the backend uses to signal an unusable access token.
const (
	CodeTokenExpired = "token_expired"
	CodeInvalidToken = "invalid_token"
)

// ErrNoResponse is the message used when the request never produced a
// response (connection refused, timeout, DNS failure).
const ErrNoResponse = "no response received from server, please check your connection"

// Error is a backend or transport failure with its context preserved.
type Error struct {
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	// Code is the backend-supplied machine code, empty when absent.
	Code string
	// Message is the normalized human-readable message.
	Message string
	// RetryAfter is the backend-supplied wait in seconds for 429 responses.
	RetryAfter int
}

func (e *Error) Error() string {
	return e.Message
}

// FromResponse builds an Error from an HTTP status and response body,
// applying the message precedence: body message, then a status-derived
// generic, then the fallback.
func FromResponse(status int, body []byte) *Error {
	e := &Error{Status: status}
	if len(body) > 0 {
		e.Code = gjson.GetBytes(body, "error").String()
		e.Message = gjson.GetBytes(body, "message").String()
		if retry := gjson.GetBytes(body, "retryAfter"); retry.Exists() {
			e.RetryAfter = int(retry.Int())
		}
	}
	if e.Message == "" {
		e.Message = statusMessage(status)
	}
	return e
}

// FromTransport wraps a transport-level failure (no response at all).
func FromTransport(err error) *Error {
	return &Error{Message: ErrNoResponse}
}

// IsAuth reports whether err is an authentication failure: a 401 response,
// or one of the token machine codes regardless of status.
func IsAuth(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Status == http.StatusUnauthorized {
		return true
	}
	return apiErr.Code == CodeTokenExpired || apiErr.Code == CodeInvalidToken
}

// IsTokenCode reports whether the given machine code marks an expired or
// invalid access token, the only class the gateway will try to recover from.
func IsTokenCode(code string) bool {
	return code == CodeTokenExpired || code == CodeInvalidToken
}

func statusMessage(status int) string {
	switch status {
	case 0:
		return ErrNoResponse
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusUnauthorized:
		return "authentication required"
	case http.StatusForbidden:
		return "you do not have permission to perform this action"
	case http.StatusNotFound:
		return "the requested resource was not found"
	case http.StatusConflict:
		return "the request conflicts with the current state"
	case http.StatusTooManyRequests:
		return "too many requests, please slow down"
	default:
		if status >= 500 {
			return fmt.Sprintf("server error (status %d), please try again later", status)
		}
		return fmt.Sprintf("request failed with status %d", status)
	}
}
