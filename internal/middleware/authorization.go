package middleware

import (
	"net/http"

	"shop-catalog/internal/domain"

	"go.uber.org/zap"
)

// RequireRole lets the request through only when the authenticated user holds
// required. Roles do not imply each other: ROLE_SUPER_ADMIN alone does not
// satisfy a ROLE_EDIT gate. A denial never reaches the handler.
func RequireRole(required domain.Role, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roles, ok := GetUserRoles(r.Context())
			if !ok {
				logger.Warn("Roles not found in context", zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusForbidden, MsgAccessDenied)
				return
			}

			if !domain.HasRole(roles, required) {
				userID, _ := GetUserID(r.Context())
				logger.Warn("User role not authorized",
					zap.Int64("user_id", userID),
					zap.Strings("roles", roles),
					zap.String("required_role", string(required)),
				)
				RespondWithError(w, http.StatusForbidden, MsgAccessDenied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
