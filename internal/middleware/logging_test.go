package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	applog "shop-catalog/internal/logger"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	handler := middleware.RequestID(LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context(), nil).Info("inside handler")
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 4)

	inner, access := entries[0], entries[1]
	assert.Equal(t, "inside handler", inner.Message)
	assert.NotEmpty(t, inner.ContextMap()["request_id"])
	assert.Equal(t, inner.ContextMap()["request_id"], access.ContextMap()["request_id"])
	assert.Equal(t, zapcore.InfoLevel, access.Level)
	assert.Equal(t, int64(200), access.ContextMap()["status"])
	assert.Equal(t, int64(2), access.ContextMap()["bytes"])

	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, int64(500), entries[3].ContextMap()["status"])
}
