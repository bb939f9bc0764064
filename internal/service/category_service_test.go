package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"
)

func TestCategoryCreateDerivesSlug(t *testing.T) {
	f := newFixture(t)

	c, err := f.categories.Create(context.Background(), CategoryInput{Name: "  Garden & Outdoor "})
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "Garden & Outdoor" || c.Slug != "garden-outdoor" {
		t.Errorf("got name %q slug %q", c.Name, c.Slug)
	}
	if c.ID == 0 || !c.CreatedAt.Equal(f.clock) {
		t.Errorf("category not persisted with timestamps: %+v", c)
	}

	c, err = f.categories.Create(context.Background(), CategoryInput{Name: "Tools", Slug: "hand-tools"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Slug != "hand-tools" {
		t.Errorf("explicit slug overwritten: %q", c.Slug)
	}
}

func TestCategoryCreateReportsUnusableDerivedSlugOnName(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		in    CategoryInput
		field string
	}{
		{CategoryInput{Name: "A!"}, "name"},
		{CategoryInput{Name: "Книги"}, "name"},
		{CategoryInput{Name: "   "}, "name"},
		{CategoryInput{Name: "Books", Slug: "x"}, "slug"},
	}
	for _, c := range cases {
		_, err := f.categories.Create(context.Background(), c.in)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%+v: expected validation error, got %v", c.in, err)
		}
		for _, fe := range verr.Fields {
			if fe.Field != c.field {
				t.Errorf("%+v: unexpected field %q (%s)", c.in, fe.Field, fe.Message)
			}
		}
	}
}

func TestCategoryCreateValidates(t *testing.T) {
	f := newFixture(t)

	_, err := f.categories.Create(context.Background(), CategoryInput{Name: "   "})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCategoryUpdateKeepsProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Tools")
	f.product(t, "Hammer", c.ID)
	f.product(t, "Wrench", c.ID)

	f.advance(time.Minute)
	updated, err := f.categories.Update(ctx, c.ID, domain.CategoryPatch{Name: strPtr("Hand Tools")})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Hand Tools" || updated.Slug != "tools" {
		t.Errorf("unexpected merge result %+v", updated)
	}
	if !updated.UpdatedAt.Equal(f.clock) || updated.CreatedAt.Equal(f.clock) {
		t.Error("only updatedAt is restamped")
	}

	shown, err := f.categories.Get(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if shown.ProductCount != 2 || len(shown.Products) != 2 {
		t.Errorf("products changed by category update: %d", shown.ProductCount)
	}
}

func TestCategoryUpdateUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.categories.Update(context.Background(), 42, domain.CategoryPatch{Name: strPtr("x")})
	if !errors.Is(err, repository.ErrCategoryNotFound) {
		t.Errorf("got %v", err)
	}
}

func TestCategoryDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	empty := f.category(t, "Empty")
	used := f.category(t, "Used")
	f.product(t, "Saw", used.ID)

	if err := f.categories.Delete(ctx, empty.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.categories.Get(ctx, empty.ID); !errors.Is(err, repository.ErrCategoryNotFound) {
		t.Errorf("deleted category still readable: %v", err)
	}

	if err := f.categories.Delete(ctx, used.ID); !errors.Is(err, repository.ErrCategoryInUse) {
		t.Errorf("expected ErrCategoryInUse, got %v", err)
	}
	if err := f.categories.Delete(ctx, 999); !errors.Is(err, repository.ErrCategoryNotFound) {
		t.Errorf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestCategoryListCounts(t *testing.T) {
	f := newFixture(t)
	tools := f.category(t, "Tools")
	f.category(t, "Paint")
	f.product(t, "Hammer", tools.ID)

	list, err := f.categories.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ProductCount != 1 || list[1].ProductCount != 0 {
		t.Errorf("unexpected summaries %+v", list)
	}
}
