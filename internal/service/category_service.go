package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shop-catalog/internal/database"
	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"
	"shop-catalog/internal/validation"
)

// CategoryInput is the payload accepted when creating a category
type CategoryInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CategoryService defines the interface for category business logic
type CategoryService interface {
	List(ctx context.Context) ([]*domain.CategorySummary, error)
	Get(ctx context.Context, id int64) (*domain.CategorySummary, error)
	Create(ctx context.Context, in CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id int64, patch domain.CategoryPatch) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	tx           database.TxManager
	now          func() time.Time
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	tx database.TxManager,
) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		tx:           tx,
		now:          time.Now,
	}
}

// List returns every category with its product count
func (s *categoryService) List(ctx context.Context) ([]*domain.CategorySummary, error) {
	return s.categoryRepo.List(ctx)
}

// Get returns a category with its products loaded
func (s *categoryService) Get(ctx context.Context, id int64) (*domain.CategorySummary, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.ListByCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Products = products

	return &domain.CategorySummary{Category: *category, ProductCount: len(products)}, nil
}

// Create derives the slug from the name when none is given
func (s *categoryService) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	now := s.now()
	category := &domain.Category{
		Name:      strings.TrimSpace(in.Name),
		Slug:      strings.TrimSpace(in.Slug),
		CreatedAt: now,
		UpdatedAt: now,
	}
	derived := category.Slug == ""
	if derived {
		category.Slug = domain.Slugify(category.Name)
	}

	if err := validateStruct(category); err != nil {
		if derived {
			err = blameNameForSlug(err)
		}
		return nil, err
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// Update merges name and slug; the product collection is never touched
func (s *categoryService) Update(ctx context.Context, id int64, patch domain.CategoryPatch) (*domain.Category, error) {
	var updated domain.Category
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.categoryRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		updated = patch.Apply(*current, s.now())
		if err := validateStruct(updated); err != nil {
			return err
		}

		return s.categoryRepo.Update(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete refuses categories that still hold products
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
			return err
		}

		count, err := s.categoryRepo.CountProducts(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return repository.ErrCategoryInUse
		}

		return s.categoryRepo.Delete(ctx, id)
	})
}

// blameNameForSlug reports failures of a slug derived from the name against
// the name, since the caller never sent a slug.
func blameNameForSlug(err error) error {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	fields := make([]validation.FieldError, 0, len(verr.Fields))
	nameFailed := false
	for _, f := range verr.Fields {
		nameFailed = nameFailed || f.Field == "name"
	}
	for _, f := range verr.Fields {
		if f.Field == "slug" {
			if nameFailed {
				continue
			}
			f = validation.FieldError{Field: "name", Message: "Name must contain at least 2 letters or digits"}
		}
		fields = append(fields, f)
	}
	return &ValidationError{Fields: fields}
}
