package transport

import (
	"net/http"
	"strings"

	"shop-catalog/internal/domain"
	"shop-catalog/internal/middleware"
	"shop-catalog/internal/service"
	"shop-catalog/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const msgUserNotFound = "User not found"

// LoginRequest represents the login payload. The identifier is the first
// non-empty of Identifier, Username and Email.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (r LoginRequest) identifier() string {
	for _, v := range []string{r.Identifier, r.Username, r.Email} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// RefreshRequest carries a refresh token for token refresh and logout
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"notblank"`
}

// ChangeRoleRequest represents the role change payload
type ChangeRoleRequest struct {
	Role *string `json:"role"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         view.Object `json:"user"`
}

// RefreshResponse represents the token refresh response
type RefreshResponse struct {
	Token string `json:"token"`
}

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers all user and authentication routes. credentialLimiter,
// when not nil, wraps registration and login.
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware, credentialLimiter func(http.Handler) http.Handler) {
	admin := r.With(authMiddleware, middleware.RequireRole(domain.RoleSuperAdmin, h.logger))
	member := r.With(authMiddleware, middleware.RequireRole(domain.RoleUser, h.logger))

	credentials := r
	if credentialLimiter != nil {
		credentials = r.With(credentialLimiter)
	}
	credentials.Post("/api/register", h.Register)
	credentials.Post("/api/login", h.Login)
	r.Post("/api/token/refresh", h.RefreshToken)
	r.With(authMiddleware).Post("/api/logout", h.Logout)

	admin.Get("/api/users", h.List)
	r.Get("/api/users/{id}", h.Get)
	member.Patch("/api/user/{id}/update", h.UpdateProfile)
	admin.Patch("/api/user/{id}", h.ChangeRole)
	admin.Delete("/api/user/{id}", h.Delete)
}

// Register handles user registration
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Registration")
		return
	}

	h.logger.Info("User registered successfully", zap.Int64("user_id", user.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, view.User(user, view.UserShow))
}

// Login handles user authentication
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	accessToken, refreshToken, user, err := h.userService.Login(r.Context(), req.identifier(), req.Password)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Login")
		return
	}

	h.logger.Info("User logged in successfully", zap.Int64("user_id", user.ID))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		Token:        accessToken,
		RefreshToken: refreshToken,
		User:         view.User(user, view.UserShow),
	})
}

// RefreshToken mints a new access token
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeValid(w, r, h.logger, &req) {
		return
	}

	accessToken, err := h.userService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Token refresh")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, RefreshResponse{Token: accessToken})
}

// Logout revokes the given refresh token
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeValid(w, r, h.logger, &req) {
		return
	}

	if err := h.userService.Logout(r.Context(), req.RefreshToken); err != nil {
		respondWithServiceError(w, r, h.logger, err, "Logout")
		return
	}

	userID, _ := middleware.GetUserID(r.Context())
	h.logger.Info("User logged out", zap.Int64("user_id", userID))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// List returns every user
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "List users")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view.Users(users, view.UserShow))
}

// Get returns a single user
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Get user")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view.User(user, view.UserShow))
}

// UpdateProfile merges username and email. id, password and roles in the payload are ignored.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	var patch domain.UserPatch
	if !decodeBody(w, r, h.logger, &patch) {
		return
	}

	actorID, _ := middleware.GetUserID(r.Context())
	roles, _ := middleware.GetUserRoles(r.Context())

	user, err := h.userService.UpdateProfile(r.Context(), service.Actor{UserID: actorID, Roles: roles}, id, patch)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Update user")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view.User(user, view.UserShow))
}

// ChangeRole replaces the assignable role of a user
func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	var req ChangeRoleRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.ChangeRole(r.Context(), id, req.Role)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Change role")
		return
	}

	h.logger.Info("User role changed",
		zap.Int64("user_id", user.ID),
		zap.Strings("roles", user.Roles),
	)
	middleware.RespondWithJSON(w, http.StatusOK, view.User(user, view.UserShow))
}

// Delete removes a user and, through the foreign key, their refresh tokens
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	if err := h.userService.DeleteUser(r.Context(), id); err != nil {
		respondWithServiceError(w, r, h.logger, err, "Delete user")
		return
	}

	h.logger.Info("User deleted", zap.Int64("user_id", id))
	middleware.RespondNoContent(w)
}
