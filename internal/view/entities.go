package view

import (
	"shop-catalog/internal/domain"
)

func groups(g ...Group) []Group { return g }

var (
	categoryFields     []field[*domain.Category]
	productFields      []field[*domain.Product]
	imageProductFields []field[*domain.ImageProduct]
	userFields         []field[*domain.User]
)

// The tables reference each other through relation fields, so they are
// assigned in init rather than in their declarations.
func init() {
	categoryFields = []field[*domain.Category]{
		{"id", groups(CategoryIndex, CategoryShow, CategoryCreate, ProductCreate), func(c *domain.Category, _ Group) any { return c.ID }},
		{"name", groups(CategoryIndex, CategoryShow, CategoryCreate, ProductCreate), func(c *domain.Category, _ Group) any { return c.Name }},
		{"slug", groups(CategoryIndex, CategoryShow, CategoryCreate), func(c *domain.Category, _ Group) any { return c.Slug }},
		{"createdAt", groups(CategoryShow, CategoryCreate), func(c *domain.Category, _ Group) any { return c.CreatedAt }},
		{"updatedAt", groups(CategoryShow, CategoryCreate), func(c *domain.Category, _ Group) any { return c.UpdatedAt }},
		{"products", groups(CategoryShow), func(c *domain.Category, g Group) any { return Products(c.Products, g) }},
	}

	productFields = []field[*domain.Product]{
		{"id", groups(CategoryShow, ProductShow, ProductCreate, ImageProductCreate), func(p *domain.Product, _ Group) any { return p.ID }},
		{"name", groups(CategoryShow, ProductShow, ProductCreate, ImageProductCreate), func(p *domain.Product, _ Group) any { return p.Name }},
		{"mark", groups(CategoryShow, ProductShow, ProductCreate), func(p *domain.Product, _ Group) any { return p.Mark }},
		{"quantity", groups(CategoryShow, ProductShow, ProductCreate), func(p *domain.Product, _ Group) any { return p.Quantity }},
		{"description", groups(CategoryShow, ProductShow, ProductCreate), func(p *domain.Product, _ Group) any { return p.Description }},
		{"color", groups(CategoryShow, ProductShow, ProductCreate), func(p *domain.Product, _ Group) any { return p.Color }},
		{"unitPrice", groups(CategoryShow, ProductShow, ProductCreate), func(p *domain.Product, _ Group) any { return p.UnitPrice }},
		{"isAvailable", groups(CategoryShow, ProductShow, ProductCreate), func(p *domain.Product, _ Group) any { return p.IsAvailable }},
		{"createdAt", groups(CategoryShow, ProductShow, ProductCreate), func(p *domain.Product, _ Group) any { return p.CreatedAt }},
		{"updatedAt", groups(CategoryShow, ProductShow, ProductCreate), func(p *domain.Product, _ Group) any { return p.UpdatedAt }},
		{"category", groups(ProductCreate), func(p *domain.Product, g Group) any {
			if p.Category == nil {
				return nil
			}
			return Category(p.Category, g)
		}},
		{"images", groups(ProductShow, ProductCreate), func(p *domain.Product, g Group) any { return ImageProducts(p.Images, g) }},
	}

	imageProductFields = []field[*domain.ImageProduct]{
		{"id", groups(ProductShow, ProductCreate, ImageProductCreate), func(i *domain.ImageProduct, _ Group) any { return i.ID }},
		{"filename", groups(ProductShow, ProductCreate, ImageProductCreate), func(i *domain.ImageProduct, _ Group) any { return i.Filename }},
		{"contentType", groups(ImageProductCreate), func(i *domain.ImageProduct, _ Group) any { return i.ContentType }},
		{"size", groups(ImageProductCreate), func(i *domain.ImageProduct, _ Group) any { return i.Size }},
		{"createdAt", groups(ImageProductCreate), func(i *domain.ImageProduct, _ Group) any { return i.CreatedAt }},
		{"updatedAt", groups(ImageProductCreate), func(i *domain.ImageProduct, _ Group) any { return i.UpdatedAt }},
		{"product", groups(ImageProductCreate), func(i *domain.ImageProduct, g Group) any {
			if i.Product == nil {
				return nil
			}
			return Product(i.Product, g)
		}},
	}

	userFields = []field[*domain.User]{
		{"id", groups(UserShow), func(u *domain.User, _ Group) any { return u.ID }},
		{"username", groups(UserShow), func(u *domain.User, _ Group) any { return u.Username }},
		{"email", groups(UserShow), func(u *domain.User, _ Group) any { return u.Email }},
		{"roles", groups(UserShow), func(u *domain.User, _ Group) any { return u.Roles }},
		{"createdAt", groups(UserShow), func(u *domain.User, _ Group) any { return u.CreatedAt }},
		{"updatedAt", groups(UserShow), func(u *domain.User, _ Group) any { return u.UpdatedAt }},
	}
}

// Category projects a category onto g
func Category(c *domain.Category, g Group) Object {
	return project(categoryFields, c, g)
}

// Categories projects each category onto g
func Categories(cs []*domain.Category, g Group) []Object {
	out := make([]Object, 0, len(cs))
	for _, c := range cs {
		out = append(out, Category(c, g))
	}
	return out
}

// CategorySummaries projects each category onto g and appends its product count
func CategorySummaries(cs []*domain.CategorySummary, g Group) []Object {
	out := make([]Object, 0, len(cs))
	for _, c := range cs {
		out = append(out, Category(&c.Category, g).With("productCount", c.ProductCount))
	}
	return out
}

// Product projects a product onto g
func Product(p *domain.Product, g Group) Object {
	return project(productFields, p, g)
}

// Products projects each product onto g
func Products(ps []*domain.Product, g Group) []Object {
	out := make([]Object, 0, len(ps))
	for _, p := range ps {
		out = append(out, Product(p, g))
	}
	return out
}

// ImageProduct projects an image onto g
func ImageProduct(i *domain.ImageProduct, g Group) Object {
	return project(imageProductFields, i, g)
}

// ImageProducts projects each image onto g
func ImageProducts(is []*domain.ImageProduct, g Group) []Object {
	out := make([]Object, 0, len(is))
	for _, i := range is {
		out = append(out, ImageProduct(i, g))
	}
	return out
}

// User projects a user onto g. No group exposes the password hash.
func User(u *domain.User, g Group) Object {
	return project(userFields, u, g)
}

// Users projects each user onto g
func Users(us []*domain.User, g Group) []Object {
	out := make([]Object, 0, len(us))
	for _, u := range us {
		out = append(out, User(u, g))
	}
	return out
}
