package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
)

type testLogEntry struct {
	Level     string `json:"level"`
	Msg       string `json:"msg"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Size      int    `json:"size"`
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	ErrorCode string `json:"error_code"`
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func serveLogged(t *testing.T, h http.Handler, req *http.Request) testLogEntry {
	t.Helper()
	buf := &bytes.Buffer{}
	Logging(newTestLogger(buf))(h).ServeHTTP(httptest.NewRecorder(), req)

	var entry testLogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v, log: %s", err, buf.String())
	}
	return entry
}

func TestLogging_BasicFields(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})
	entry := serveLogged(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil))

	if entry.Method != http.MethodGet {
		t.Errorf("method = %s, want GET", entry.Method)
	}
	if entry.Path != "/api/v1/feed" {
		t.Errorf("path = %s", entry.Path)
	}
	if entry.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", entry.Status)
	}
	if entry.Size != 5 {
		t.Errorf("size = %d, want 5", entry.Size)
	}
	if entry.Level != "INFO" {
		t.Errorf("level = %s, want INFO", entry.Level)
	}
	if entry.Msg != "request completed" {
		t.Errorf("msg = %q", entry.Msg)
	}
}

func TestLogging_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusBadRequest, "WARN"},
		{http.StatusTooManyRequests, "WARN"},
		{http.StatusServiceUnavailable, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			entry := serveLogged(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil))
			if entry.Level != tt.level {
				t.Errorf("level = %s, want %s", entry.Level, tt.level)
			}
			if entry.Status != tt.status {
				t.Errorf("status = %d, want %d", entry.Status, tt.status)
			}
		})
	}
}

func TestLogging_RequestAndUserFromInnerMiddleware(t *testing.T) {
	// The user id is set by a middleware running inside Logging and must
	// still reach the log line.
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = SetUserID(r.Context(), "user-42")
		w.WriteHeader(http.StatusOK)
	})
	buf := &bytes.Buffer{}
	h := RequestID(Logging(newTestLogger(buf))(inner))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry testLogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}
	if entry.RequestID != "req-1" {
		t.Errorf("request_id = %q, want req-1", entry.RequestID)
	}
	if entry.UserID != "user-42" {
		t.Errorf("user_id = %q, want user-42", entry.UserID)
	}
}

func TestLogging_UserIDSetBeforeLogging(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(SetUserID(req.Context(), "user-7"))

	entry := serveLogged(t, h, req)
	if entry.UserID != "user-7" {
		t.Errorf("user_id = %q, want user-7", entry.UserID)
	}
}

func TestLogging_ErrorCode(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"client error", http.StatusBadRequest, "invalid_limit"},
		{"success hides code", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				SetErrorCode(r.Context(), "invalid_limit")
				w.WriteHeader(tt.status)
			})
			entry := serveLogged(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil))
			if entry.ErrorCode != tt.want {
				t.Errorf("error_code = %q, want %q", entry.ErrorCode, tt.want)
			}
		})
	}
}

func TestLogging_NilLoggerUsesDefault(t *testing.T) {
	h := Logging(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()
	if !NewLogger("development").Enabled(ctx, slog.LevelDebug) {
		t.Error("development logger should enable debug")
	}
	prod := NewLogger("production")
	if prod.Enabled(ctx, slog.LevelDebug) {
		t.Error("production logger should not enable debug")
	}
	if !prod.Enabled(ctx, slog.LevelInfo) {
		t.Error("production logger should enable info")
	}
}

func TestContextAccessors_Empty(t *testing.T) {
	ctx := context.Background()
	if got := GetUserID(ctx); got != "" {
		t.Errorf("GetUserID = %q", got)
	}
	if got := GetErrorCode(ctx); got != "" {
		t.Errorf("GetErrorCode = %q", got)
	}
	ctx = SetErrorCode(ctx, "internal_error")
	if got := GetErrorCode(ctx); got != "internal_error" {
		t.Errorf("GetErrorCode = %q, want internal_error", got)
	}
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := newResponseWriter(rr)
	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK)
	n, _ := rw.Write([]byte("abc"))

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want 404", rw.statusCode)
	}
	if rw.size != n || n != 3 {
		t.Errorf("size = %d, wrote %d", rw.size, n)
	}
	if rw.Unwrap() != rr {
		t.Error("Unwrap should return the wrapped writer")
	}
}
