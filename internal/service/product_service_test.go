package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProductCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Tools")

	p := f.product(t, "Hammer", c.ID)
	if p.ID == 0 || !p.IsAvailable {
		t.Errorf("unexpected product %+v", p)
	}
	if p.Category == nil || p.Category.Name != "Tools" {
		t.Errorf("category not resolved: %+v", p.Category)
	}

	_, err := f.products.Create(ctx, CreateProductInput{Name: "Saw", Mark: "Acme", Quantity: 1, UnitPrice: 1})
	if err != ErrCategoryIDRequired {
		t.Errorf("missing category: got %v", err)
	}

	missing := int64(999)
	_, err = f.products.Create(ctx, CreateProductInput{Name: "Saw", Mark: "Acme", Quantity: 1, UnitPrice: 1, CategoryID: &missing})
	if !errors.Is(err, repository.ErrCategoryNotFound) {
		t.Errorf("unknown category: got %v", err)
	}

	_, err = f.products.Create(ctx, CreateProductInput{Name: "Hammer", Mark: "Acme", Quantity: 1, UnitPrice: 1, CategoryID: &c.ID})
	if !errors.Is(err, repository.ErrProductAlreadyExists) {
		t.Errorf("duplicate name: got %v", err)
	}

	_, err = f.products.Create(ctx, CreateProductInput{Name: "Nail", Mark: " ", Quantity: 0, UnitPrice: -2, CategoryID: &c.ID})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 3 {
		t.Errorf("expected mark, quantity and unitPrice errors, got %+v", verr.Fields)
	}
}

func TestProperty_ProductUpdateKeepsAbsentFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Tools")
	p := f.product(t, "Hammer", c.ID)

	properties := gopter.NewProperties(nil)

	properties.Property("a patch carrying only quantity leaves every other field as stored", prop.ForAll(
		func(quantity int) bool {
			before, err := f.products.Get(ctx, p.ID)
			if err != nil {
				return false
			}
			after, err := f.products.Update(ctx, p.ID, domain.ProductPatch{Quantity: &quantity})
			if err != nil {
				return false
			}
			return after.Quantity == quantity &&
				after.Name == before.Name &&
				after.Mark == before.Mark &&
				after.UnitPrice == before.UnitPrice &&
				after.IsAvailable == before.IsAvailable &&
				after.CategoryID == before.CategoryID
		},
		gen.IntRange(1, 100000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProductUpdateIgnoresCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tools := f.category(t, "Tools")
	paint := f.category(t, "Paint")
	p := f.product(t, "Hammer", tools.ID)

	f.advance(time.Minute)
	updated, err := f.products.Update(ctx, p.ID, domain.ProductPatch{Name: strPtr("Claw Hammer")})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Category.ID != tools.ID {
		t.Errorf("generic update changed category")
	}
	if !updated.UpdatedAt.Equal(f.clock) || !updated.CreatedAt.Equal(p.CreatedAt) {
		t.Error("only updatedAt is restamped")
	}

	moved, err := f.products.UpdateWithCategory(ctx, p.ID, domain.ProductPatch{}, &paint.ID)
	if err != nil {
		t.Fatal(err)
	}
	if moved.CategoryID != paint.ID || moved.Category.Name != "Paint" || moved.Name != "Claw Hammer" {
		t.Errorf("unexpected reassignment %+v", moved)
	}

	if _, err := f.products.UpdateWithCategory(ctx, p.ID, domain.ProductPatch{}, nil); err != ErrCategoryIDRequired {
		t.Errorf("missing category id: got %v", err)
	}
	missing := int64(404)
	if _, err := f.products.UpdateWithCategory(ctx, p.ID, domain.ProductPatch{}, &missing); !errors.Is(err, repository.ErrCategoryNotFound) {
		t.Errorf("unknown category: got %v", err)
	}
	if _, err := f.products.Update(ctx, 404, domain.ProductPatch{}); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("unknown product: got %v", err)
	}
}

func TestProductUpdateRejectsInvalidMerge(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Tools")
	p := f.product(t, "Hammer", c.ID)

	zero := 0
	_, err := f.products.Update(context.Background(), p.ID, domain.ProductPatch{Quantity: &zero})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	stored, _ := f.products.Get(context.Background(), p.ID)
	if stored.Quantity != p.Quantity {
		t.Error("rejected update was persisted")
	}
}

func TestProductList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tools := f.category(t, "Tools")
	paint := f.category(t, "Paint")
	f.product(t, "Hammer", tools.ID)
	f.product(t, "Drill", tools.ID)
	f.product(t, "Brush", paint.ID)

	page, err := f.products.List(ctx, ListProductsParams{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 || page.PageSize != DefaultPageSize || page.Page != 1 {
		t.Errorf("unexpected page %+v", page)
	}
	for _, p := range page.Products {
		if p.Images == nil {
			t.Error("images should be an empty list, not nil")
		}
	}

	page, err = f.products.List(ctx, ListProductsParams{CategoryID: &tools.ID, SortBy: "name", SortOrder: "asc", PageSize: 500})
	if err != nil {
		t.Fatal(err)
	}
	if page.PageSize != MaxPageSize || page.Total != 2 || page.Products[0].Name != "Drill" {
		t.Errorf("unexpected filtered page %+v", page)
	}

	page, err = f.products.List(ctx, ListProductsParams{Query: "bru"})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Products[0].Name != "Brush" {
		t.Errorf("search returned %+v", page.Products)
	}
}

func TestProductDeleteCascadesImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Tools")
	p := f.product(t, "Hammer", c.ID)

	image, err := f.imageSvc.Upload(ctx, p.ID, &Upload{Filename: "hammer.png", Data: pngData})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.products.Delete(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.products.Get(ctx, p.ID); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("product still present: %v", err)
	}
	if images, _ := f.store.Images().ListByProduct(ctx, p.ID); len(images) != 0 {
		t.Errorf("image rows survived: %d", len(images))
	}
	if _, err := os.Stat(f.images.Path(image.Filename)); !os.IsNotExist(err) {
		t.Error("image payload survived product deletion")
	}
	if err := f.products.Delete(ctx, p.ID); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}
