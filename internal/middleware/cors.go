package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	corsHeaders = []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader}
	// List responses and the limiter report through headers the browser must be allowed to read.
	corsExposed = []string{"X-Total-Count", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"}
)

// CORSMiddleware opens the API to every origin in development or when no
// origins are configured. Credentials are only allowed for an explicit list.
func CORSMiddleware(origins []string, development bool) func(http.Handler) http.Handler {
	wildcard := development || len(origins) == 0
	if wildcard {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   corsMethods,
		AllowedHeaders:   corsHeaders,
		ExposedHeaders:   corsExposed,
		AllowCredentials: !wildcard,
		MaxAge:           300,
	})
}

// DefaultMiddlewareStack is installed ahead of everything else on the router.
// X-Real-IP and X-Forwarded-For are client controlled, so they only replace
// the peer address when the API sits behind a proxy that overwrites them.
func DefaultMiddlewareStack(trustProxyHeaders bool) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{middleware.RequestID}
	if trustProxyHeaders {
		stack = append(stack, middleware.RealIP)
	}
	return append(stack, middleware.Compress(5))
}
