package transport

import (
	"net/http"

	"shop-catalog/internal/domain"
	"shop-catalog/internal/middleware"
	"shop-catalog/internal/service"
	"shop-catalog/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const msgCategoryNotFound = "Category not found"

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	categoryService service.CategoryService
	logger          *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// RegisterRoutes registers all category routes. Reads are public, writes need ROLE_SUPER_ADMIN.
func (h *CategoryHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	admin := r.With(authMiddleware, middleware.RequireRole(domain.RoleSuperAdmin, h.logger))

	r.Get("/api/categories", h.List)
	r.Get("/api/categories/{id}", h.Get)
	admin.Post("/api/categories", h.Create)
	admin.Patch("/api/categories/{id}", h.Update)
	admin.Delete("/api/categories/{id}", h.Delete)
}

// List returns every category with its product count
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "List categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view.CategorySummaries(categories, view.CategoryIndex))
}

// Get returns one category with its products
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgCategoryNotFound)
		return
	}

	category, err := h.categoryService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Get category")
		return
	}

	body := view.Category(&category.Category, view.CategoryShow).With("productCount", category.ProductCount)
	middleware.RespondWithJSON(w, http.StatusOK, body)
}

// Create handles category creation
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryInput
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	category, err := h.categoryService.Create(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Create category")
		return
	}

	h.logger.Info("Category created", zap.Int64("category_id", category.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, view.Category(category, view.CategoryCreate))
}

// Update merges name and slug. A products key in the payload is ignored.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgCategoryNotFound)
		return
	}

	var patch domain.CategoryPatch
	if !decodeBody(w, r, h.logger, &patch) {
		return
	}

	category, err := h.categoryService.Update(r.Context(), id, patch)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Update category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view.Category(category, view.CategoryCreate))
}

// Delete removes a category that holds no products
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgCategoryNotFound)
		return
	}

	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, r, h.logger, err, "Delete category")
		return
	}

	h.logger.Info("Category deleted", zap.Int64("category_id", id))
	middleware.RespondNoContent(w)
}
