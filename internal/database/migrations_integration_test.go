//go:build integration

package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestMigrationsApplyOnPostgres(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.Run(
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
		t.Fatalf("could not start postgres container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("could not terminate postgres container: %v", err)
		}
	}()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	var categoryID int64
	err = db.QueryRowContext(ctx,
		`INSERT INTO categories (name, slug) VALUES ('Tools', 'tools') RETURNING id`).Scan(&categoryID)
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO products (name, mark, quantity, unit_price, category_id) VALUES ('Widget', 'Acme', 5, 9.99, $1)`,
		categoryID)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, categoryID); err == nil {
		t.Error("deleting a referenced category must fail")
	}

	if err := RollbackMigration(db); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
}
