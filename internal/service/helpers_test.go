package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"shop-catalog/internal/config"
	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository/repotest"
	"shop-catalog/internal/storage"

	"go.uber.org/zap"
)

var pngData = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)

var testJWT = config.JWTConfig{Secret: "test-secret", AccessExpiry: 15, RefreshExpiry: 7}

type fixture struct {
	store      *repotest.Store
	images     *storage.LocalStore
	users      *userService
	categories *categoryService
	products   *productService
	imageSvc   *imageService
	clock      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	images, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	store := repotest.New()
	tx := repotest.TxManager{}
	logger := zap.NewNop()

	f := &fixture{
		store:      store,
		images:     images,
		users:      NewUserService(store.Users(), store.RefreshTokens(), tx, testJWT).(*userService),
		categories: NewCategoryService(store.Categories(), store.Products(), tx).(*categoryService),
		products:   NewProductService(store.Products(), store.Categories(), store.Images(), images, tx, logger).(*productService),
		imageSvc:   NewImageService(store.Products(), store.Images(), images, tx, 1<<20, logger).(*imageService),
		clock:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	now := func() time.Time { return f.clock }
	f.users.now = now
	f.categories.now = now
	f.products.now = now
	f.imageSvc.now = now
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) category(t *testing.T, name string) *domain.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), CategoryInput{Name: name})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}

func (f *fixture) product(t *testing.T, name string, categoryID int64) *domain.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), CreateProductInput{
		Name:       name,
		Mark:       "Acme",
		Quantity:   3,
		UnitPrice:  19.9,
		CategoryID: &categoryID,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func (f *fixture) user(t *testing.T, username string, roles ...domain.Role) *domain.User {
	t.Helper()
	ctx := context.Background()
	u, err := f.users.Register(ctx, RegisterInput{Username: username, Email: username + "@example.com", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, r := range roles {
		if u, err = f.users.GrantRole(ctx, username, r); err != nil {
			t.Fatalf("grant role: %v", err)
		}
	}
	return u
}

func strPtr(s string) *string { return &s }

func testJWTWithSecret(secret string) config.JWTConfig {
	cfg := testJWT
	cfg.Secret = secret
	return cfg
}
