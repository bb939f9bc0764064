package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shop-catalog/internal/database"
	"shop-catalog/internal/domain"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUsernameAlreadyExists = errors.New("this username is already taken")
	ErrEmailAlreadyExists    = errors.New("this email is already used")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateRoles(ctx context.Context, id int64, roles []string, updatedAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// roles is read in its text form so pq.Array can scan it through database/sql
const userColumns = `id, username, email, password_hash, roles::text, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		pq.Array(&user.Roles),
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func userWriteError(err error, action string) error {
	switch {
	case isUniqueViolation(err, "users_username_key"):
		return ErrUsernameAlreadyExists
	case isUniqueViolation(err, "users_email_key"):
		return ErrEmailAlreadyExists
	}
	return fmt.Errorf("failed to %s user: %w", action, err)
}

// Create inserts a new user and stores the generated id on it
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := database.Conn(ctx, r.db).QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.PasswordHash,
		pq.Array(user.Roles),
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	if err != nil {
		return userWriteError(err, "create")
	}

	return nil
}

// FindByID retrieves a user by ID
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(database.Conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByIdentifier looks a user up by username first, then by email
func (r *userRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1 OR email = $1
		ORDER BY (username = $1) DESC
		LIMIT 1
	`

	user, err := scanUser(database.Conn(ctx, r.db).QueryRowContext(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by identifier: %w", err)
	}

	return user, nil
}

// List retrieves all users ordered by id
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC`

	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Update writes the profile fields of a user. Password and roles are not touched.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, user.ID, user.Username, user.Email, user.UpdatedAt)
	if err != nil {
		return userWriteError(err, "update")
	}

	return expectAffected(result, ErrUserNotFound)
}

// UpdateRoles replaces the role set of a user
func (r *userRepository) UpdateRoles(ctx context.Context, id int64, roles []string, updatedAt time.Time) error {
	query := `UPDATE users SET roles = $2, updated_at = $3 WHERE id = $1`

	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, id, pq.Array(roles), updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user roles: %w", err)
	}

	return expectAffected(result, ErrUserNotFound)
}

// Delete removes a user; refresh tokens cascade
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return expectAffected(result, ErrUserNotFound)
}

func expectAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
