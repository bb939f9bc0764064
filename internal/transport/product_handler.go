package transport

import (
	"math"
	"net/http"
	"strconv"

	"shop-catalog/internal/domain"
	"shop-catalog/internal/middleware"
	"shop-catalog/internal/repository"
	"shop-catalog/internal/service"
	"shop-catalog/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const msgProductNotFound = "Product not found"

// categoryRef is the {"id": n} object that names a product's category
type categoryRef struct {
	ID *int64 `json:"id"`
}

func (c *categoryRef) categoryID() *int64 {
	if c == nil {
		return nil
	}
	return c.ID
}

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string       `json:"name"`
	Mark        string       `json:"mark"`
	Quantity    int          `json:"quantity"`
	Description *string      `json:"description"`
	Color       *string      `json:"color"`
	UnitPrice   float64      `json:"unitPrice"`
	IsAvailable *bool        `json:"isAvailable"`
	Category    *categoryRef `json:"category"`
}

// UpdateProductCategoryRequest is a product patch that may also move the product
type UpdateProductCategoryRequest struct {
	domain.ProductPatch
	Category *categoryRef `json:"category"`
}

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	gate := func(role domain.Role) chi.Router {
		return r.With(authMiddleware, middleware.RequireRole(role, h.logger))
	}

	gate(domain.RoleUser).Get("/api/products", h.List)
	gate(domain.RoleUser).Get("/api/products/{id}", h.Get)
	gate(domain.RoleSuperAdmin).Post("/api/products", h.Create)
	gate(domain.RoleEdit).Patch("/api/products/{id}", h.Update)
	gate(domain.RoleGrantEdit).Patch("/api/products/{id}/category", h.UpdateWithCategory)
	gate(domain.RoleSuperAdmin).Delete("/api/products/{id}", h.Delete)
}

// List returns one page of products. The unpaged total goes in X-Total-Count.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	params, field, ok := parseListParams(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "Invalid query parameter: "+field)
		return
	}

	page, err := h.productService.List(r.Context(), params)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "List products")
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	middleware.RespondWithJSON(w, http.StatusOK, view.Products(page.Products, view.ProductShow))
}

func parseListParams(r *http.Request) (service.ListProductsParams, string, bool) {
	q := r.URL.Query()
	params := service.ListProductsParams{
		Query:     q.Get("q"),
		SortBy:    q.Get("sort"),
		SortOrder: q.Get("order"),
	}

	if v := q.Get("category"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return params, "category", false
		}
		params.CategoryID = &id
	}

	// pageSize above the maximum is clamped by the service; a page past
	// MaxPage cannot hold rows and is refused.
	for _, p := range []struct {
		name  string
		dst   *int
		limit int
	}{
		{"page", &params.Page, repository.MaxPage},
		{"pageSize", &params.PageSize, math.MaxInt32},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > p.limit {
			return params, p.name, false
		}
		*p.dst = n
	}

	return params, "", true
}

// Get returns a single product with its images
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgProductNotFound)
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view.Product(product, view.ProductShow))
}

// Create handles product creation. The body must name an existing category.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	product, err := h.productService.Create(r.Context(), service.CreateProductInput{
		Name:        req.Name,
		Mark:        req.Mark,
		Quantity:    req.Quantity,
		Description: req.Description,
		Color:       req.Color,
		UnitPrice:   req.UnitPrice,
		IsAvailable: req.IsAvailable,
		CategoryID:  req.Category.categoryID(),
	})
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Create product")
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", product.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, view.Product(product, view.ProductCreate))
}

// Update merges scalar fields. A category key in the payload is ignored.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgProductNotFound)
		return
	}

	var patch domain.ProductPatch
	if !decodeBody(w, r, h.logger, &patch) {
		return
	}

	product, err := h.productService.Update(r.Context(), id, patch)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view.Product(product, view.ProductCreate))
}

// UpdateWithCategory merges scalar fields and moves the product to the named category
func (h *ProductHandler) UpdateWithCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgProductNotFound)
		return
	}

	var req UpdateProductCategoryRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	product, err := h.productService.UpdateWithCategory(r.Context(), id, req.ProductPatch, req.Category.categoryID())
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Update product category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view.Product(product, view.ProductCreate))
}

// Delete removes a product together with its images
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgProductNotFound)
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, r, h.logger, err, "Delete product")
		return
	}

	h.logger.Info("Product deleted", zap.Int64("product_id", id))
	middleware.RespondNoContent(w)
}
