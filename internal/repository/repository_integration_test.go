//go:build integration

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"shop-catalog/internal/database"
	"shop-catalog/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB(ctx context.Context) (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	dbContainer, err := postgres.Run(
		ctx,
		"postgres:15",
		postgres.WithDatabase("catalog"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := dbContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return dbContainer.Terminate, err
	}

	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	if err := database.RunMigrations(testDB, zap.NewNop()); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	ctx := context.Background()
	teardown, err := setupTestDB(ctx)
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	code := m.Run()

	if teardown != nil {
		if err := teardown(ctx); err != nil {
			log.Printf("could not teardown postgres container: %v", err)
		}
	}
	os.Exit(code)
}

func TestIntegration_UserRolesRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testDB)

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &domain.User{
		Username:     "roundtrip",
		Email:        "roundtrip@example.com",
		PasswordHash: "hash",
		Roles:        []string{"ROLE_USER", "ROLE_EDIT"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := repo.FindByIdentifier(ctx, "roundtrip@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found.Roles) != 2 || found.Roles[1] != "ROLE_EDIT" {
		t.Fatalf("roles not preserved: %v", found.Roles)
	}

	if err := repo.Create(ctx, &domain.User{Username: "roundtrip", Email: "other@example.com", PasswordHash: "x", Roles: []string{"ROLE_USER"}, CreatedAt: now, UpdatedAt: now}); err != ErrUsernameAlreadyExists {
		t.Fatalf("expected ErrUsernameAlreadyExists, got %v", err)
	}
}

func TestProperty_ProductCreationPreservesAttributes(t *testing.T) {
	ctx := context.Background()
	productRepo := NewProductRepository(testDB)
	categoryRepo := NewCategoryRepository(testDB)

	now := time.Now().UTC().Truncate(time.Microsecond)
	category := &domain.Category{Name: "Property Tools", Slug: "property-tools", CreatedAt: now, UpdatedAt: now}
	if err := categoryRepo.Create(ctx, category); err != nil {
		t.Fatalf("create category: %v", err)
	}

	properties := gopter.NewProperties(nil)
	counter := 0

	properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
		func(mark string, quantity int, price float64) bool {
			counter++
			product := &domain.Product{
				Name:        fmt.Sprintf("Product %d-%d", now.UnixNano(), counter),
				Mark:        mark,
				Quantity:    quantity,
				UnitPrice:   price,
				IsAvailable: true,
				CategoryID:  category.ID,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := productRepo.Create(ctx, product); err != nil {
				t.Logf("create: %v", err)
				return false
			}

			found, err := productRepo.FindByID(ctx, product.ID)
			if err != nil {
				return false
			}
			return found.Mark == mark &&
				found.Quantity == quantity &&
				found.UnitPrice == price &&
				found.Category.ID == category.ID
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 && len(s) <= 255 }),
		gen.IntRange(1, 10000),
		gen.Float64Range(0.01, 100000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))

	if err := categoryRepo.Delete(ctx, category.ID); err != ErrCategoryInUse {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
}
