package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging_RequestIDInContext(t *testing.T) {
	var seen string
	h := Logging(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-7", seen)
	assert.Equal(t, "req-7", rec.Header().Get(RequestIDHeader))
}

func TestLogging_ReplacesOverlongRequestID(t *testing.T) {
	h := Logging(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("a", maxRequestIDLen+1))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	got := rec.Header().Get(RequestIDHeader)
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), maxRequestIDLen)
}

func TestStatusRecorder_CountsBytes(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

	rec.WriteHeader(http.StatusCreated)
	rec.WriteHeader(http.StatusInternalServerError)
	_, _ = rec.Write([]byte("hello"))

	assert.Equal(t, http.StatusCreated, rec.status)
	assert.EqualValues(t, 5, rec.bytes)
}

func TestAccessLevel(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   slog.Level
	}{
		{"/api/health", http.StatusOK, slog.LevelDebug},
		{"/api/health", http.StatusServiceUnavailable, slog.LevelError},
		{"/api/scan", http.StatusConflict, slog.LevelWarn},
		{"/api/opportunities", http.StatusOK, slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, accessLevel(tt.path, tt.status), "%s %d", tt.path, tt.status)
	}
}
