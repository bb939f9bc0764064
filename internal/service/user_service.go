package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"shop-catalog/internal/config"
	"shop-catalog/internal/database"
	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt hashing
const BcryptCost = 10

// RegisterInput is the payload accepted by registration
type RegisterInput struct {
	Username string `json:"username" validate:"required,notblank,min=3,max=180"`
	Email    string `json:"email" validate:"required,email,max=180"`
	Password string `json:"password" validate:"required,notblank,min=6,max=4096"`
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID int64
	Roles  []string
}

// UserService defines the interface for user and authentication logic
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, identifier, password string) (accessToken, refreshToken string, user *domain.User, err error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken string, err error)
	ValidateToken(tokenString string) (*Claims, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateProfile(ctx context.Context, actor Actor, id int64, patch domain.UserPatch) (*domain.User, error)
	ChangeRole(ctx context.Context, id int64, role *string) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
	GrantRole(ctx context.Context, identifier string, role domain.Role) (*domain.User, error)
	RevokeRole(ctx context.Context, identifier string, role domain.Role) (*domain.User, error)
}

// Claims represents the JWT claims
type Claims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// ID returns the numeric user id carried as a string claim
func (c *Claims) ParseUserID() (int64, error) {
	return strconv.ParseInt(c.UserID, 10, 64)
}

type userService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	tx               database.TxManager
	jwt              config.JWTConfig
	now              func() time.Time
}

// NewUserService creates a new instance of UserService
func NewUserService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	tx database.TxManager,
	jwtCfg config.JWTConfig,
) UserService {
	return &userService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		tx:               tx,
		jwt:              jwtCfg,
		now:              time.Now,
	}
}

// Register creates a new account holding only the base role
func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashedPassword,
		Roles:        []string{string(domain.RoleUser)},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates by username or email. Unknown accounts and wrong
// passwords are indistinguishable to the caller.
func (s *userService) Login(ctx context.Context, identifier, password string) (accessToken, refreshToken string, user *domain.User, err error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return "", "", nil, ErrInvalidCredentials
	}

	user, err = s.userRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// keep the response time of unknown accounts close to a real check
			_ = verifyPassword(dummyHash(), password)
			return "", "", nil, ErrInvalidCredentials
		}
		return "", "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := verifyPassword(user.PasswordHash, password); err != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	accessToken, err = s.generateAccessToken(user)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err = s.generateRefreshToken(ctx, user)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, user, nil
}

// Logout invalidates the refresh token
func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.Revoke(ctx, refreshToken); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil
		}
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RefreshToken mints a new access token; roles are re-read from the store
func (s *userService) RefreshToken(ctx context.Context, refreshTokenString string) (string, error) {
	refreshToken, err := s.refreshTokenRepo.FindByToken(ctx, refreshTokenString)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) || errors.Is(err, repository.ErrRefreshTokenRevoked) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("failed to find refresh token: %w", err)
	}

	if s.now().After(refreshToken.ExpiresAt) {
		return "", ErrTokenExpired
	}

	user, err := s.userRepo.FindByID(ctx, refreshToken.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	newAccessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return newAccessToken, nil
}

// ValidateToken checks an access token's HS256 signature and expiry and
// returns its claims. Tokens without a numeric user id or a roles claim are
// rejected.
func (s *userService) ValidateToken(tokenString string) (*Claims, error) {
	key, err := s.signingKey()
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.ParseUserID(); err != nil || claims.Roles == nil {
		return nil, ErrInvalidTokenClaims
	}
	return claims, nil
}

func (s *userService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

func (s *userService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.List(ctx)
}

// UpdateProfile merges username and email into the stored user. Callers may
// only edit their own account unless they hold ROLE_SUPER_ADMIN.
func (s *userService) UpdateProfile(ctx context.Context, actor Actor, id int64, patch domain.UserPatch) (*domain.User, error) {
	if actor.UserID != id && !domain.HasRole(actor.Roles, domain.RoleSuperAdmin) {
		return nil, ErrForbidden
	}

	var updated domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.userRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		updated = patch.Apply(*current, s.now())
		updated.Username = strings.TrimSpace(updated.Username)
		updated.Email = strings.TrimSpace(updated.Email)
		if err := validateStruct(updated); err != nil {
			return err
		}

		return s.userRepo.Update(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// ChangeRole sets the single assignable role of a user. Only ROLE_EDIT and
// ROLE_GRANT_EDIT are accepted; any previous assignable role is replaced.
func (s *userService) ChangeRole(ctx context.Context, id int64, role *string) (*domain.User, error) {
	var user *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if role == nil || *role == "" {
			return ErrRoleRequired
		}
		if !domain.IsAssignable(*role) {
			return ErrInvalidRole
		}

		user.Roles = domain.ReplaceAssignableRole(user.Roles, domain.Role(*role))
		user.UpdatedAt = s.now()
		return s.userRepo.UpdateRoles(ctx, user.ID, user.Roles, user.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	return s.userRepo.Delete(ctx, id)
}

// GrantRole adds any known role, ROLE_SUPER_ADMIN included. It backs the operator CLI.
func (s *userService) GrantRole(ctx context.Context, identifier string, role domain.Role) (*domain.User, error) {
	return s.editRoles(ctx, identifier, role, func(roles []string) []string {
		return domain.NormalizeRoles(append(roles, string(role)))
	})
}

// RevokeRole removes a role; the base role always stays
func (s *userService) RevokeRole(ctx context.Context, identifier string, role domain.Role) (*domain.User, error) {
	return s.editRoles(ctx, identifier, role, func(roles []string) []string {
		return domain.WithoutRole(roles, role)
	})
}

func (s *userService) editRoles(ctx context.Context, identifier string, role domain.Role, edit func([]string) []string) (*domain.User, error) {
	if _, ok := domain.ParseRole(string(role)); !ok {
		return nil, ErrInvalidRole
	}

	var user *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.FindByIdentifier(ctx, identifier)
		if err != nil {
			return err
		}

		user.Roles = edit(user.Roles)
		user.UpdatedAt = s.now()
		return s.userRepo.UpdateRoles(ctx, user.ID, user.Roles, user.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

var (
	dummyHashOnce  sync.Once
	dummyHashValue string
)

func dummyHash() string {
	dummyHashOnce.Do(func() {
		dummyHashValue, _ = hashPassword(uuid.NewString())
	})
	return dummyHashValue
}

// generateAccessToken signs an HS256 token carrying the user id and roles
func (s *userService) generateAccessToken(user *domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: strconv.FormatInt(user.ID, 10),
		Roles:  user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwt.AccessTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	key, err := s.signingKey()
	if err != nil {
		return "", err
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// signingKey refuses to work with an empty secret: HS256 would happily sign
// and verify with a zero-length key.
func (s *userService) signingKey() ([]byte, error) {
	if s.jwt.Secret == "" {
		return nil, ErrSigningKeyMissing
	}
	return []byte(s.jwt.Secret), nil
}

// generateRefreshToken stores a new opaque refresh token for user
func (s *userService) generateRefreshToken(ctx context.Context, user *domain.User) (string, error) {
	now := s.now()
	refreshToken := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.jwt.RefreshTTL()),
		CreatedAt: now,
	}

	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return "", err
	}

	return refreshToken.Token, nil
}
