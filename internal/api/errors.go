// Package api exposes the feed service over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/simosa/fyp/internal/middleware"
)

// Error codes returned in the error envelope.
const (
	// ErrCodeInvalidLimit indicates a limit query parameter that is not an integer.
	ErrCodeInvalidLimit = "invalid_limit"

	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeUnavailable      = "service_unavailable"
	ErrCodeInternal         = "internal_error"

	// ErrCodeAuthFailed and ErrCodeRateLimited are written by middleware.
	ErrCodeAuthFailed  = middleware.ErrCodeUnauthorized
	ErrCodeRateLimited = middleware.ErrCodeRateLimited
)

// ErrorResponse is the body of every error: {"error":{"code","message"}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine readable code and a human readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes the error envelope with status and records code for
// the request log.
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	middleware.SetErrorCode(ctx, code)
	writeJSON(ctx, w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeJSON encodes v as the response body.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

// StatusCodeMapping returns the HTTP status used with an error code.
func StatusCodeMapping(code string) int {
	switch code {
	case ErrCodeInvalidLimit:
		return http.StatusBadRequest
	case ErrCodeAuthFailed:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
