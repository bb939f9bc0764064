package transport

import (
	"errors"
	"net/http"
	"strconv"

	applog "shop-catalog/internal/logger"
	"shop-catalog/internal/middleware"
	"shop-catalog/internal/repository"
	"shop-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type errorMapping struct {
	err     error
	status  int
	message string
}

// errorMappings is the single place where domain failures become HTTP replies
var errorMappings = []errorMapping{
	{repository.ErrCategoryNotFound, http.StatusNotFound, "Category not found"},
	{repository.ErrProductNotFound, http.StatusNotFound, "Product not found"},
	{repository.ErrImageNotFound, http.StatusNotFound, "Image not found"},
	{repository.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{repository.ErrProductAlreadyExists, http.StatusBadRequest, "This product already exists"},
	{repository.ErrImageAlreadyExists, http.StatusBadRequest, "This filename of image already exists"},
	{repository.ErrUsernameAlreadyExists, http.StatusBadRequest, "This username is already taken"},
	{repository.ErrEmailAlreadyExists, http.StatusBadRequest, "This email is already used"},
	{repository.ErrCategoryInUse, http.StatusBadRequest, "Category still has products"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "Token has expired"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{service.ErrForbidden, http.StatusForbidden, middleware.MsgAccessDenied},
	{service.ErrRoleRequired, http.StatusBadRequest, "Role is required"},
	{service.ErrInvalidRole, http.StatusBadRequest, "Invalid role"},
	{service.ErrCategoryIDRequired, http.StatusBadRequest, "Category ID is required"},
	{service.ErrFileRequired, http.StatusBadRequest, "File not found"},
	{service.ErrNotAnImage, http.StatusBadRequest, "File must be an image"},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "File is too large"},
}

// respondWithServiceError converts err into a response. Unknown errors are
// logged and hidden behind a 500.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, fallback *zap.Logger, err error, action string) {
	logger := applog.FromContext(r.Context(), fallback)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.Debug(action+" rejected", zap.Error(err))
		middleware.RespondWithValidationErrors(w, validationErr.Fields)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			logger.Debug(action+" failed", zap.Error(err), zap.Int("status", m.status))
			middleware.RespondWithError(w, m.status, m.message)
			return
		}
	}

	logger.Error(action+" failed", zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}

// pathID reads the numeric {id} URL parameter. Anything that is not a
// positive integer cannot name a stored row.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// decodeValid decodes the JSON payload and runs its validate tags, answering
// 400 itself on failure.
func decodeValid(w http.ResponseWriter, r *http.Request, fallback *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		applog.FromContext(r.Context(), fallback).Debug("Rejected request body", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return false
	}
	return true
}

// decodeBody decodes the JSON payload or answers 400 itself
func decodeBody(w http.ResponseWriter, r *http.Request, fallback *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeJSON(r, v); err != nil {
		applog.FromContext(r.Context(), fallback).Debug("Invalid request body", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, middleware.MsgInvalidInput)
		return false
	}
	return true
}
