package domain

import (
	"time"
)

// Product represents a product in the catalog
type Product struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name" validate:"required,notblank,min=3,max=255"`
	Mark        string          `json:"mark" db:"mark" validate:"required,notblank,max=255"`
	Quantity    int             `json:"quantity" db:"quantity" validate:"required,gt=0"`
	Description *string         `json:"description" db:"description"`
	Color       *string         `json:"color" db:"color" validate:"omitempty,max=255"`
	UnitPrice   float64         `json:"unitPrice" db:"unit_price" validate:"required,gt=0"`
	IsAvailable bool            `json:"isAvailable" db:"is_available"`
	CategoryID  int64           `json:"-" db:"category_id" validate:"required,gt=0"`
	Category    *Category       `json:"category,omitempty" validate:"-"`
	Images      []*ImageProduct `json:"images,omitempty" validate:"-"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// CanonicalImage returns the image treated as "the" product image: the one with the lowest id
func (p *Product) CanonicalImage() *ImageProduct {
	var canonical *ImageProduct
	for _, img := range p.Images {
		if canonical == nil || img.ID < canonical.ID {
			canonical = img
		}
	}
	return canonical
}

// Category represents a product category
type Category struct {
	ID        int64      `json:"id" db:"id"`
	Name      string     `json:"name" db:"name" validate:"required,notblank,min=2,max=255"`
	Slug      string     `json:"slug" db:"slug" validate:"required,min=2,max=255"`
	Products  []*Product `json:"products,omitempty" validate:"-"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// CategorySummary is a category with its product count computed at read time
type CategorySummary struct {
	Category
	ProductCount int `json:"productCount" db:"product_count"`
}

// ImageProduct is the metadata of an uploaded product image; the payload lives in the image store
type ImageProduct struct {
	ID          int64     `json:"id" db:"id"`
	Filename    string    `json:"filename" db:"filename"`
	ContentType string    `json:"contentType" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	ProductID   int64     `json:"-" db:"product_id"`
	Product     *Product  `json:"product,omitempty"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}
