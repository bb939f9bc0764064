package service

import (
	"context"
	"strings"
	"time"

	"shop-catalog/internal/database"
	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"
	"shop-catalog/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Upload is an uploaded file as received from the client
type Upload struct {
	Filename string
	Data     []byte
}

// ImageService defines the interface for product image logic.
// Every operation targets the canonical image of a product: the one with the lowest id.
type ImageService interface {
	Upload(ctx context.Context, productID int64, file *Upload) (*domain.ImageProduct, error)
	Replace(ctx context.Context, productID int64, file *Upload) (*domain.ImageProduct, error)
	Delete(ctx context.Context, productID int64) error
}

type imageService struct {
	productRepo repository.ProductRepository
	imageRepo   repository.ImageRepository
	store       storage.ImageStore
	tx          database.TxManager
	maxSize     int64
	logger      *zap.Logger
	now         func() time.Time
}

// NewImageService creates a new instance of ImageService. maxSize <= 0 disables the size check.
func NewImageService(
	productRepo repository.ProductRepository,
	imageRepo repository.ImageRepository,
	store storage.ImageStore,
	tx database.TxManager,
	maxSize int64,
	logger *zap.Logger,
) ImageService {
	return &imageService{
		productRepo: productRepo,
		imageRepo:   imageRepo,
		store:       store,
		tx:          tx,
		maxSize:     maxSize,
		logger:      logger,
		now:         time.Now,
	}
}

type payload struct {
	filename    string
	contentType string
	data        []byte
}

// inspect checks the upload and picks the generated storage name
func (s *imageService) inspect(file *Upload) (*payload, error) {
	if file == nil || len(file.Data) == 0 {
		return nil, ErrFileRequired
	}
	if s.maxSize > 0 && int64(len(file.Data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	mtype := mimetype.Detect(file.Data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, ErrNotAnImage
	}

	return &payload{
		filename:    uuid.NewString() + mtype.Extension(),
		contentType: mtype.String(),
		data:        file.Data,
	}, nil
}

// Upload stores a new image for the product. The payload is written first
// and removed again when the row cannot be inserted.
func (s *imageService) Upload(ctx context.Context, productID int64, file *Upload) (*domain.ImageProduct, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	p, err := s.inspect(file)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, p.filename, p.contentType, p.data); err != nil {
		return nil, err
	}

	now := s.now()
	image := &domain.ImageProduct{
		Filename:    p.filename,
		ContentType: p.contentType,
		Size:        int64(len(p.data)),
		ProductID:   product.ID,
		Product:     product,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.imageRepo.Create(ctx, image)
	}); err != nil {
		s.discard(ctx, p.filename)
		return nil, err
	}

	return image, nil
}

// Replace swaps the payload of the canonical image
func (s *imageService) Replace(ctx context.Context, productID int64, file *Upload) (*domain.ImageProduct, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	image, err := s.imageRepo.FindCanonical(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	p, err := s.inspect(file)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, p.filename, p.contentType, p.data); err != nil {
		return nil, err
	}

	previous := image.Filename
	image.Filename = p.filename
	image.ContentType = p.contentType
	image.Size = int64(len(p.data))
	image.UpdatedAt = s.now()
	image.Product = product

	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.imageRepo.Update(ctx, image)
	}); err != nil {
		s.discard(ctx, p.filename)
		return nil, err
	}

	s.discard(ctx, previous)
	return image, nil
}

// Delete removes the canonical image and its payload
func (s *imageService) Delete(ctx context.Context, productID int64) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}

	image, err := s.imageRepo.FindCanonical(ctx, product.ID)
	if err != nil {
		return err
	}

	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.imageRepo.Delete(ctx, image.ID)
	}); err != nil {
		return err
	}

	s.discard(ctx, image.Filename)
	return nil
}

func (s *imageService) discard(ctx context.Context, filename string) {
	if err := s.store.Delete(ctx, filename); err != nil {
		s.logger.Warn("Failed to delete image payload", zap.String("filename", filename), zap.Error(err))
	}
}
