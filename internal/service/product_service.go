package service

import (
	"context"
	"strings"
	"time"

	"shop-catalog/internal/database"
	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"
	"shop-catalog/internal/storage"

	"go.uber.org/zap"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// CreateProductInput is the payload accepted when creating a product.
// CategoryID is nil when the payload carried no category id.
type CreateProductInput struct {
	Name        string
	Mark        string
	Quantity    int
	Description *string
	Color       *string
	UnitPrice   float64
	IsAvailable *bool
	CategoryID  *int64
}

// ListProductsParams narrows and pages a product listing
type ListProductsParams struct {
	CategoryID *int64
	Query      string
	SortBy     string
	SortOrder  string
	Page       int
	PageSize   int
}

// ProductPage is one page of a product listing
type ProductPage struct {
	Products []*domain.Product
	Total    int
	Page     int
	PageSize int
}

// ProductService defines the interface for product business logic
type ProductService interface {
	List(ctx context.Context, params ListProductsParams) (*ProductPage, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, in CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error)
	UpdateWithCategory(ctx context.Context, id int64, patch domain.ProductPatch, categoryID *int64) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	imageRepo    repository.ImageRepository
	store        storage.ImageStore
	tx           database.TxManager
	logger       *zap.Logger
	now          func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	imageRepo repository.ImageRepository,
	store storage.ImageStore,
	tx database.TxManager,
	logger *zap.Logger,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		imageRepo:    imageRepo,
		store:        store,
		tx:           tx,
		logger:       logger,
		now:          time.Now,
	}
}

// List returns one page of products with their images attached
func (s *productService) List(ctx context.Context, params ListProductsParams) (*ProductPage, error) {
	page := min(max(params.Page, 1), repository.MaxPage)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	products, total, err := s.productRepo.List(ctx, repository.ProductFilter{
		CategoryID: params.CategoryID,
		Query:      params.Query,
		SortBy:     params.SortBy,
		SortOrder:  repository.SortOrder(strings.ToUpper(params.SortOrder)),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return nil, err
	}

	if err := s.attachImages(ctx, products); err != nil {
		return nil, err
	}

	return &ProductPage{Products: products, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *productService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.attachImages(ctx, []*domain.Product{product}); err != nil {
		return nil, err
	}
	return product, nil
}

// Create resolves the category before anything is written
func (s *productService) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	if in.CategoryID == nil {
		return nil, ErrCategoryIDRequired
	}

	now := s.now()
	product := &domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Mark:        strings.TrimSpace(in.Mark),
		Quantity:    in.Quantity,
		Description: in.Description,
		Color:       in.Color,
		UnitPrice:   in.UnitPrice,
		IsAvailable: true,
		CategoryID:  *in.CategoryID,
		Images:      []*domain.ImageProduct{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsAvailable != nil {
		product.IsAvailable = *in.IsAvailable
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		category, err := s.categoryRepo.FindByID(ctx, *in.CategoryID)
		if err != nil {
			return err
		}
		product.Category = category

		if err := validateStruct(product); err != nil {
			return err
		}

		return s.productRepo.Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// Update merges the scalar fields; the category cannot be changed here
func (s *productService) Update(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error) {
	return s.update(ctx, id, patch, nil, false)
}

// UpdateWithCategory merges the scalar fields and re-resolves the category
func (s *productService) UpdateWithCategory(ctx context.Context, id int64, patch domain.ProductPatch, categoryID *int64) (*domain.Product, error) {
	return s.update(ctx, id, patch, categoryID, true)
}

func (s *productService) update(ctx context.Context, id int64, patch domain.ProductPatch, categoryID *int64, withCategory bool) (*domain.Product, error) {
	var updated domain.Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.productRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		updated = patch.Apply(*current, s.now())

		if withCategory {
			if categoryID == nil {
				return ErrCategoryIDRequired
			}
			category, err := s.categoryRepo.FindByID(ctx, *categoryID)
			if err != nil {
				return err
			}
			updated.CategoryID = category.ID
			updated.Category = category
		}

		if err := validateStruct(updated); err != nil {
			return err
		}

		if withCategory {
			return s.productRepo.UpdateCategory(ctx, &updated)
		}
		return s.productRepo.Update(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}

	if err := s.attachImages(ctx, []*domain.Product{&updated}); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the product and its images, then their stored payloads
func (s *productService) Delete(ctx context.Context, id int64) error {
	var images []*domain.ImageProduct
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		images, err = s.imageRepo.ListByProduct(ctx, id)
		if err != nil {
			return err
		}
		return s.productRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	for _, image := range images {
		if err := s.store.Delete(ctx, image.Filename); err != nil {
			s.logger.Warn("Failed to delete image payload",
				zap.Int64("product_id", id),
				zap.String("filename", image.Filename),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *productService) attachImages(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	byProduct, err := s.imageRepo.ListByProducts(ctx, ids)
	if err != nil {
		return err
	}

	for _, p := range products {
		p.Images = byProduct[p.ID]
		if p.Images == nil {
			p.Images = []*domain.ImageProduct{}
		}
	}
	return nil
}
