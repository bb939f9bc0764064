package transport

import (
	"errors"
	"io"
	"net/http"

	"shop-catalog/internal/middleware"
	"shop-catalog/internal/service"
	"shop-catalog/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// multipartOverhead leaves room for boundaries and part headers on top of the file itself
const multipartOverhead = 1 << 20

// ImageHandler handles the image of a product
type ImageHandler struct {
	imageService service.ImageService
	maxUpload    int64
	logger       *zap.Logger
}

// NewImageHandler creates a new ImageHandler. maxUpload bounds the accepted file size in bytes.
func NewImageHandler(imageService service.ImageService, maxUpload int64, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
		maxUpload:    maxUpload,
		logger:       logger,
	}
}

// RegisterRoutes registers the image routes. They carry no role requirement.
func (h *ImageHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/products/{id}/image", h.Upload)
	r.Patch("/api/products/{id}/image", h.Replace)
	r.Delete("/api/products/{id}/image", h.Delete)
}

// Upload stores a new image from the multipart field "file"
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgProductNotFound)
		return
	}

	file, err := h.readFile(w, r)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Upload image")
		return
	}

	image, err := h.imageService.Upload(r.Context(), id, file)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Upload image")
		return
	}

	h.logger.Info("Image uploaded",
		zap.Int64("product_id", id),
		zap.String("filename", image.Filename),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, view.ImageProduct(image, view.ImageProductCreate))
}

// Replace swaps the payload of the product's canonical image
func (h *ImageHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgProductNotFound)
		return
	}

	file, err := h.readFile(w, r)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Replace image")
		return
	}

	image, err := h.imageService.Replace(r.Context(), id, file)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Replace image")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view.ImageProduct(image, view.ImageProductCreate))
}

// Delete removes the product's canonical image
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, msgProductNotFound)
		return
	}

	if err := h.imageService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, r, h.logger, err, "Delete image")
		return
	}

	middleware.RespondNoContent(w)
}

// readFile returns the uploaded file, or nil when the request carries none so
// the service can report a missing product before a missing file.
func (h *ImageHandler) readFile(w http.ResponseWriter, r *http.Request) (*service.Upload, error) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, service.ErrFileTooLarge
		}
		return nil, nil
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return &service.Upload{Filename: header.Filename, Data: data}, nil
}
