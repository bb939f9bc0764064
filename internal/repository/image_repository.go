package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-catalog/internal/database"
	"shop-catalog/internal/domain"

	"github.com/lib/pq"
)

var (
	ErrImageNotFound      = errors.New("image not found")
	ErrImageAlreadyExists = errors.New("this filename of image already exists")
)

// ImageRepository defines the interface for product image metadata
type ImageRepository interface {
	Create(ctx context.Context, image *domain.ImageProduct) error
	Update(ctx context.Context, image *domain.ImageProduct) error
	Delete(ctx context.Context, id int64) error
	FindCanonical(ctx context.Context, productID int64) (*domain.ImageProduct, error)
	ListByProduct(ctx context.Context, productID int64) ([]*domain.ImageProduct, error)
	ListByProducts(ctx context.Context, productIDs []int64) (map[int64][]*domain.ImageProduct, error)
}

type imageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new instance of ImageRepository
func NewImageRepository(db *sql.DB) ImageRepository {
	return &imageRepository{db: db}
}

const imageColumns = `id, filename, content_type, size, product_id, created_at, updated_at`

func scanImage(row interface{ Scan(...any) error }) (*domain.ImageProduct, error) {
	image := &domain.ImageProduct{}
	err := row.Scan(
		&image.ID,
		&image.Filename,
		&image.ContentType,
		&image.Size,
		&image.ProductID,
		&image.CreatedAt,
		&image.UpdatedAt,
	)
	return image, err
}

func imageWriteError(err error, action string) error {
	switch {
	case isUniqueViolation(err, "image_products_filename_key"):
		return ErrImageAlreadyExists
	case isForeignKeyViolation(err):
		return ErrProductNotFound
	}
	return fmt.Errorf("failed to %s image: %w", action, err)
}

func (r *imageRepository) Create(ctx context.Context, image *domain.ImageProduct) error {
	query := `
		INSERT INTO image_products (filename, content_type, size, product_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := database.Conn(ctx, r.db).QueryRowContext(
		ctx,
		query,
		image.Filename,
		image.ContentType,
		image.Size,
		image.ProductID,
		image.CreatedAt,
		image.UpdatedAt,
	).Scan(&image.ID)
	if err != nil {
		return imageWriteError(err, "create")
	}

	return nil
}

func (r *imageRepository) Update(ctx context.Context, image *domain.ImageProduct) error {
	query := `
		UPDATE image_products
		SET filename = $2, content_type = $3, size = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, image.ID, image.Filename, image.ContentType, image.Size, image.UpdatedAt)
	if err != nil {
		return imageWriteError(err, "update")
	}

	return expectAffected(result, ErrImageNotFound)
}

func (r *imageRepository) Delete(ctx context.Context, id int64) error {
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM image_products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return expectAffected(result, ErrImageNotFound)
}

// FindCanonical returns the image with the lowest id of a product
func (r *imageRepository) FindCanonical(ctx context.Context, productID int64) (*domain.ImageProduct, error) {
	query := `SELECT ` + imageColumns + ` FROM image_products WHERE product_id = $1 ORDER BY id ASC LIMIT 1`

	image, err := scanImage(database.Conn(ctx, r.db).QueryRowContext(ctx, query, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to find product image: %w", err)
	}

	return image, nil
}

func (r *imageRepository) ListByProduct(ctx context.Context, productID int64) ([]*domain.ImageProduct, error) {
	byProduct, err := r.ListByProducts(ctx, []int64{productID})
	if err != nil {
		return nil, err
	}
	if images, ok := byProduct[productID]; ok {
		return images, nil
	}
	return []*domain.ImageProduct{}, nil
}

// ListByProducts loads the images of several products in one query, each list ordered by id
func (r *imageRepository) ListByProducts(ctx context.Context, productIDs []int64) (map[int64][]*domain.ImageProduct, error) {
	result := make(map[int64][]*domain.ImageProduct, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + imageColumns + ` FROM image_products WHERE product_id = ANY($1) ORDER BY product_id ASC, id ASC`

	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, query, pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		result[image.ProductID] = append(result[image.ProductID], image)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}

	return result, nil
}
