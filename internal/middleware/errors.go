package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
)

// Error codes written by the middleware itself.
const (
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeUnauthorized = "auth_failed"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes the {"error":{"code","message"}} envelope shared with
// the api package and records the code for the request log.
func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	SetErrorCode(ctx, code)
	data, err := json.Marshal(errorBody{Error: errorDetail{Code: code, Message: message}})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
