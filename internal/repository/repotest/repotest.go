// Package repotest provides in-memory implementations of the repository
// interfaces for tests. They enforce the same uniqueness and foreign key
// rules as the PostgreSQL schema.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"
)

// TxManager runs fn directly; the in-memory store has no transactions
type TxManager struct{}

func (TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Store holds every table. All repositories returned by one Store share state.
type Store struct {
	mu sync.Mutex

	users      map[int64]*domain.User
	tokens     map[string]*domain.RefreshToken
	categories map[int64]*domain.Category
	products   map[int64]*domain.Product
	images     map[int64]*domain.ImageProduct

	nextUser, nextCategory, nextProduct, nextImage int64
}

func New() *Store {
	return &Store{
		users:      map[int64]*domain.User{},
		tokens:     map[string]*domain.RefreshToken{},
		categories: map[int64]*domain.Category{},
		products:   map[int64]*domain.Product{},
		images:     map[int64]*domain.ImageProduct{},
	}
}

func (s *Store) Users() repository.UserRepository                 { return &userRepo{s} }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return &tokenRepo{s} }
func (s *Store) Categories() repository.CategoryRepository        { return &categoryRepo{s} }
func (s *Store) Products() repository.ProductRepository           { return &productRepo{s} }
func (s *Store) Images() repository.ImageRepository               { return &imageRepo{s} }

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}

func copyCategory(c *domain.Category) *domain.Category {
	cc := *c
	cc.Products = nil
	return &cc
}

func copyProduct(p *domain.Product) *domain.Product {
	c := *p
	c.Category = nil
	c.Images = nil
	return &c
}

func copyImage(i *domain.ImageProduct) *domain.ImageProduct {
	c := *i
	c.Product = nil
	return &c
}

type userRepo struct{ s *Store }

func (r *userRepo) conflict(u *domain.User) error {
	for _, other := range r.s.users {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return repository.ErrUsernameAlreadyExists
		}
		if other.Email == u.Email {
			return repository.ErrEmailAlreadyExists
		}
	}
	return nil
}

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.conflict(user); err != nil {
		return err
	}
	r.s.nextUser++
	user.ID = r.s.nextUser
	r.s.users[user.ID] = copyUser(user)
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *userRepo) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var byEmail *domain.User
	for _, u := range r.s.users {
		if u.Username == identifier {
			return copyUser(u), nil
		}
		if u.Email == identifier {
			byEmail = u
		}
	}
	if byEmail == nil {
		return nil, repository.ErrUserNotFound
	}
	return copyUser(byEmail), nil
}

func (r *userRepo) List(_ context.Context) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := []*domain.User{}
	for _, u := range r.s.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if err := r.conflict(user); err != nil {
		return err
	}
	stored.Username = user.Username
	stored.Email = user.Email
	stored.UpdatedAt = user.UpdatedAt
	return nil
}

func (r *userRepo) UpdateRoles(_ context.Context, id int64, roles []string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	stored.Roles = append([]string(nil), roles...)
	stored.UpdatedAt = updatedAt
	return nil
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.s.users, id)
	for key, t := range r.s.tokens {
		if t.UserID == id {
			delete(r.s.tokens, key)
		}
	}
	return nil
}

type tokenRepo struct{ s *Store }

func (r *tokenRepo) Create(_ context.Context, token *domain.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *token
	r.s.tokens[token.Token] = &c
	return nil
}

func (r *tokenRepo) FindByToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[token]
	if !ok {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if t.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	c := *t
	return &c, nil
}

func (r *tokenRepo) Revoke(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[token]
	if !ok {
		return repository.ErrRefreshTokenNotFound
	}
	t.Revoked = true
	return nil
}

type categoryRepo struct{ s *Store }

func (r *categoryRepo) Create(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextCategory++
	category.ID = r.s.nextCategory
	r.s.categories[category.ID] = copyCategory(category)
	return nil
}

func (r *categoryRepo) Update(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.categories[category.ID]
	if !ok {
		return repository.ErrCategoryNotFound
	}
	stored.Name = category.Name
	stored.Slug = category.Slug
	stored.UpdatedAt = category.UpdatedAt
	return nil
}

func (r *categoryRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	for _, p := range r.s.products {
		if p.CategoryID == id {
			return repository.ErrCategoryInUse
		}
	}
	delete(r.s.categories, id)
	return nil
}

func (r *categoryRepo) FindByID(_ context.Context, id int64) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return copyCategory(c), nil
}

func (r *categoryRepo) List(_ context.Context) ([]*domain.CategorySummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	summaries := []*domain.CategorySummary{}
	for _, c := range r.s.categories {
		summaries = append(summaries, &domain.CategorySummary{Category: *copyCategory(c), ProductCount: r.s.countProducts(c.ID)})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

func (r *categoryRepo) CountProducts(_ context.Context, id int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.countProducts(id), nil
}

func (s *Store) countProducts(categoryID int64) int {
	n := 0
	for _, p := range s.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n
}

type productRepo struct{ s *Store }

func (r *productRepo) check(p *domain.Product) error {
	if _, ok := r.s.categories[p.CategoryID]; !ok {
		return repository.ErrCategoryNotFound
	}
	for _, other := range r.s.products {
		if other.ID != p.ID && other.Name == p.Name {
			return repository.ErrProductAlreadyExists
		}
	}
	return nil
}

func (r *productRepo) Create(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.check(product); err != nil {
		return err
	}
	r.s.nextProduct++
	product.ID = r.s.nextProduct
	r.s.products[product.ID] = copyProduct(product)
	return nil
}

func (r *productRepo) update(product *domain.Product, withCategory bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.products[product.ID]
	if !ok {
		return repository.ErrProductNotFound
	}

	next := copyProduct(product)
	if !withCategory {
		next.CategoryID = stored.CategoryID
	}
	next.CreatedAt = stored.CreatedAt
	if err := r.check(next); err != nil {
		return err
	}
	r.s.products[product.ID] = next
	return nil
}

func (r *productRepo) Update(_ context.Context, product *domain.Product) error {
	return r.update(product, false)
}

func (r *productRepo) UpdateCategory(_ context.Context, product *domain.Product) error {
	return r.update(product, true)
}

func (r *productRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(r.s.products, id)
	for imageID, img := range r.s.images {
		if img.ProductID == id {
			delete(r.s.images, imageID)
		}
	}
	return nil
}

func (r *productRepo) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	c := copyProduct(p)
	if category, ok := r.s.categories[p.CategoryID]; ok {
		c.Category = copyCategory(category)
	}
	return c, nil
}

func (r *productRepo) List(_ context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	matches := []*domain.Product{}
	for _, p := range r.s.products {
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		if q != "" && !matchesQuery(p, q) {
			continue
		}
		matches = append(matches, copyProduct(p))
	}

	less := sortLess(filter.SortBy)
	desc := strings.EqualFold(string(filter.SortOrder), string(repository.SortOrderDesc))
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if desc {
			a, b = b, a
		}
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return matches[i].ID < matches[j].ID
	})

	total := len(matches)
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * filter.PageSize
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

func matchesQuery(p *domain.Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Mark), q) {
		return true
	}
	return p.Description != nil && strings.Contains(strings.ToLower(*p.Description), q)
}

func sortLess(sortBy string) func(a, b *domain.Product) bool {
	switch sortBy {
	case "name":
		return func(a, b *domain.Product) bool { return a.Name < b.Name }
	case "unitPrice":
		return func(a, b *domain.Product) bool { return a.UnitPrice < b.UnitPrice }
	case "createdAt":
		return func(a, b *domain.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "quantity":
		return func(a, b *domain.Product) bool { return a.Quantity < b.Quantity }
	default:
		return func(a, b *domain.Product) bool { return a.ID < b.ID }
	}
}

func (r *productRepo) ListByCategory(_ context.Context, categoryID int64) ([]*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	products := []*domain.Product{}
	for _, p := range r.s.products {
		if p.CategoryID == categoryID {
			products = append(products, copyProduct(p))
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

type imageRepo struct{ s *Store }

func (r *imageRepo) Create(_ context.Context, image *domain.ImageProduct) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[image.ProductID]; !ok {
		return repository.ErrProductNotFound
	}
	for _, other := range r.s.images {
		if other.Filename == image.Filename {
			return repository.ErrImageAlreadyExists
		}
	}
	r.s.nextImage++
	image.ID = r.s.nextImage
	r.s.images[image.ID] = copyImage(image)
	return nil
}

func (r *imageRepo) Update(_ context.Context, image *domain.ImageProduct) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.images[image.ID]
	if !ok {
		return repository.ErrImageNotFound
	}
	for _, other := range r.s.images {
		if other.ID != image.ID && other.Filename == image.Filename {
			return repository.ErrImageAlreadyExists
		}
	}
	stored.Filename = image.Filename
	stored.ContentType = image.ContentType
	stored.Size = image.Size
	stored.UpdatedAt = image.UpdatedAt
	return nil
}

func (r *imageRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.images[id]; !ok {
		return repository.ErrImageNotFound
	}
	delete(r.s.images, id)
	return nil
}

func (r *imageRepo) FindCanonical(_ context.Context, productID int64) (*domain.ImageProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	images := r.s.imagesOf(productID)
	if len(images) == 0 {
		return nil, repository.ErrImageNotFound
	}
	return images[0], nil
}

func (r *imageRepo) ListByProduct(_ context.Context, productID int64) ([]*domain.ImageProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.imagesOf(productID), nil
}

func (r *imageRepo) ListByProducts(_ context.Context, productIDs []int64) (map[int64][]*domain.ImageProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make(map[int64][]*domain.ImageProduct, len(productIDs))
	for _, id := range productIDs {
		if images := r.s.imagesOf(id); len(images) > 0 {
			result[id] = images
		}
	}
	return result, nil
}

// imagesOf returns copies ordered by id
func (s *Store) imagesOf(productID int64) []*domain.ImageProduct {
	images := []*domain.ImageProduct{}
	for _, img := range s.images {
		if img.ProductID == productID {
			images = append(images, copyImage(img))
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].ID < images[j].ID })
	return images
}
