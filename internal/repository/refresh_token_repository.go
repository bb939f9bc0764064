package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"shop-catalog/internal/database"
	"shop-catalog/internal/domain"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token has been revoked")
)

// RefreshTokenRepository persists opaque refresh tokens. Only a SHA-256
// digest of each token reaches the database.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
}

type refreshTokenRepository struct {
	db *sql.DB
}

func NewRefreshTokenRepository(db *sql.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// TokenDigest is the value stored in refresh_tokens.token for a raw token.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *refreshTokenRepository) Create(ctx context.Context, rt *domain.RefreshToken) error {
	const insert = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked) VALUES ($1, $2, $3, $4, $5, $6)`

	args := []any{rt.ID, rt.UserID, TokenDigest(rt.Token), rt.ExpiresAt, rt.CreatedAt, rt.Revoked}
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, insert, args...); err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("insert refresh token for user %d: %w", rt.UserID, err)
	}
	return nil
}

// FindByToken looks a raw token up by digest. Revoked rows are reported as
// ErrRefreshTokenRevoked; expiry is left to the caller.
func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	const lookup = `SELECT id, user_id, expires_at, created_at, revoked FROM refresh_tokens WHERE token = $1`

	rt := &domain.RefreshToken{Token: token}
	row := database.Conn(ctx, r.db).QueryRowContext(ctx, lookup, TokenDigest(token))
	switch err := row.Scan(&rt.ID, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt, &rt.Revoked); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrRefreshTokenNotFound
	case err != nil:
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	case rt.Revoked:
		return nil, ErrRefreshTokenRevoked
	}
	return rt, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, token string) error {
	const revoke = `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1 AND NOT revoked`

	result, err := database.Conn(ctx, r.db).ExecContext(ctx, revoke, TokenDigest(token))
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return expectAffected(result, ErrRefreshTokenNotFound)
}
