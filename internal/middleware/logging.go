package middleware

import (
	"net/http"
	"time"

	applog "shop-catalog/internal/logger"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingMiddleware writes one access log line per request. Handlers reach
// the request-tagged logger through logger.FromContext.
func LoggingMiddleware(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			reqLog := base.With(zap.String("request_id", middleware.GetReqID(r.Context())))
			rec := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(rec, r.WithContext(applog.WithContext(r.Context(), reqLog)))

			status := rec.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := zapcore.InfoLevel
			if status >= http.StatusInternalServerError {
				level = zapcore.ErrorLevel
			}
			reqLog.Log(level, "request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", rec.BytesWritten()),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Duration("duration", time.Since(started)),
			)
		})
	}
}
