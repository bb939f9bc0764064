package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shop-catalog/internal/database"
	"shop-catalog/internal/domain"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("this product already exists")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// sortColumns maps accepted sort keys to columns; anything else falls back to id
var sortColumns = map[string]string{
	"id":        "p.id",
	"name":      "p.name",
	"unitPrice": "p.unit_price",
	"createdAt": "p.created_at",
	"quantity":  "p.quantity",
}

// ProductFilter narrows and pages a product listing
type ProductFilter struct {
	CategoryID *int64
	Query      string
	SortBy     string
	SortOrder  SortOrder
	Page       int
	PageSize   int
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	UpdateCategory(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.name, p.mark, p.quantity, p.description, p.color, p.unit_price, p.is_available, p.category_id, p.created_at, p.updated_at`

func scanProduct(row interface{ Scan(...any) error }, extra ...any) (*domain.Product, error) {
	product := &domain.Product{}
	dest := []any{
		&product.ID,
		&product.Name,
		&product.Mark,
		&product.Quantity,
		&product.Description,
		&product.Color,
		&product.UnitPrice,
		&product.IsAvailable,
		&product.CategoryID,
		&product.CreatedAt,
		&product.UpdatedAt,
	}
	return product, row.Scan(append(dest, extra...)...)
}

func productWriteError(err error, action string) error {
	switch {
	case isUniqueViolation(err, "products_name_key"):
		return ErrProductAlreadyExists
	case isForeignKeyViolation(err):
		return ErrCategoryNotFound
	}
	return fmt.Errorf("failed to %s product: %w", action, err)
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, mark, quantity, description, color, unit_price, is_available, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := database.Conn(ctx, r.db).QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Mark,
		product.Quantity,
		product.Description,
		product.Color,
		product.UnitPrice,
		product.IsAvailable,
		product.CategoryID,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		return productWriteError(err, "create")
	}

	return nil
}

// Update writes the scalar fields of a product; the category is left alone
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, mark = $3, quantity = $4, description = $5, color = $6,
		    unit_price = $7, is_available = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Mark,
		product.Quantity,
		product.Description,
		product.Color,
		product.UnitPrice,
		product.IsAvailable,
		product.UpdatedAt,
	)
	if err != nil {
		return productWriteError(err, "update")
	}

	return expectAffected(result, ErrProductNotFound)
}

// UpdateCategory writes the scalar fields together with the category reference
func (r *productRepository) UpdateCategory(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, mark = $3, quantity = $4, description = $5, color = $6,
		    unit_price = $7, is_available = $8, category_id = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Mark,
		product.Quantity,
		product.Description,
		product.Color,
		product.UnitPrice,
		product.IsAvailable,
		product.CategoryID,
		product.UpdatedAt,
	)
	if err != nil {
		return productWriteError(err, "update")
	}

	return expectAffected(result, ErrProductNotFound)
}

// Delete removes a product; its image rows cascade
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectAffected(result, ErrProductNotFound)
}

// FindByID retrieves a product together with its category
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `, c.name, c.slug, c.created_at, c.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`

	category := &domain.Category{}
	product, err := scanProduct(
		database.Conn(ctx, r.db).QueryRowContext(ctx, query, id),
		&category.Name,
		&category.Slug,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	category.ID = product.CategoryID
	product.Category = category
	return product, nil
}

// List retrieves products with optional category and text filtering, sorting and pagination.
// It also returns the total number of matching products.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error) {
	sortColumn, ok := sortColumns[filter.SortBy]
	if !ok {
		sortColumn = "p.id"
	}

	sortOrder := SortOrder(strings.ToUpper(string(filter.SortOrder)))
	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderAsc
	}

	var conditions []string
	args := []interface{}{}

	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(`(p.name ILIKE $%d ESCAPE '\' OR p.mark ILIKE $%d ESCAPE '\' OR p.description ILIKE $%d ESCAPE '\')`, n, n, n))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	conn := database.Conn(ctx, r.db)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products p %s", whereClause)
	if err := conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	offset := (page - 1) * pageSize

	orderBy := fmt.Sprintf("%s %s", sortColumn, sortOrder)
	if sortColumn != "p.id" {
		orderBy += ", p.id ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, orderBy, len(args)+1, len(args)+2)

	args = append(args, pageSize, offset)

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// ListByCategory returns every product of a category ordered by id
func (r *productRepository) ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.category_id = $1 ORDER BY p.id ASC`

	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list category products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category products: %w", err)
	}

	return products, nil
}

// MaxPage is the highest page List serves; it keeps OFFSET far from int overflow.
const MaxPage = 1_000_000

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes q match literally inside an ILIKE ... ESCAPE '\' pattern.
func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}
