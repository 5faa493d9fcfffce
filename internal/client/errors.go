// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrAborted is returned when the caller canceled a request, typically
// because a newer request superseded it. It is never shown to users.
var ErrAborted = errors.New("request aborted")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	// Detail is the human-readable reason: the JSON "detail" string when
	// present, otherwise the raw body, otherwise the status line.
	Detail  string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Conflict reports a 409, the backend's answer to capacity and status races.
func (e *APIError) Conflict() bool {
	return e.StatusCode == http.StatusConflict
}

// NotFound reports a 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// newAPIError builds an APIError from a failed response body.
func newAPIError(resp *http.Response, body []byte) *APIError {
	text := strings.TrimSpace(string(body))
	detail := text

	var parsed struct {
		Detail any `json:"detail"`
	}
	if text != "" && json.Unmarshal(body, &parsed) == nil {
		if s, ok := parsed.Detail.(string); ok {
			detail = s
		}
	}
	if detail == "" {
		detail = resp.Status
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Detail:     detail,
		Message:    fmt.Sprintf("API %d: %s", resp.StatusCode, detail),
	}
}

// IsAborted reports whether err came from a self-canceled request.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnavailable reports whether the circuit breaker rejected the call.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
