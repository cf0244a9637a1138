package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	domain "github.com/example/task-api/domain/user"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
	// ErrNameRequired is returned when a user would end up without a name.
	ErrNameRequired = errors.New("name is required")
	// ErrRevokedToken is returned for a well-formed token whose row was deleted.
	ErrRevokedToken = errors.New("token has been revoked")
)

// tokenName labels the rows created by register and login.
const tokenName = "api-token"

// AuthService handles authentication business logic.
type AuthService struct {
	users  *UserRepository
	tokens *TokenRepository
	hasher *PasswordHasher
	jwt    *JWTManager
}

var _ AuthPort = (*AuthService)(nil)

// NewAuthService creates a new AuthService.
func NewAuthService(users *UserRepository, tokens *TokenRepository, hasher *PasswordHasher, jwt *JWTManager) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		jwt:    jwt,
	}
}

// Register creates a new user account and issues its first token.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(ctx, email, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index still catches a concurrent registration of the same email.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueToken(ctx, user)
}

// Login authenticates a user and issues a new token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(ctx, user)
}

// Logout revokes the token with the given id. Other tokens of the user stay valid.
func (s *AuthService) Logout(ctx context.Context, tokenID string) error {
	if err := s.tokens.Delete(ctx, tokenID); err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return ErrRevokedToken
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// ValidateToken verifies the signature and expiry of a token and that its row still exists.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	row, err := s.tokens.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrRevokedToken
		}
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	if row.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}

	if err := s.tokens.Touch(ctx, row.ID, time.Now().UTC()); err != nil {
		log.Printf("[auth] Warning: failed to touch token %s: %v", row.ID, err)
	}

	return &domain.Claims{
		UserID:  claims.UserID,
		Email:   claims.Email,
		TokenID: claims.ID,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile changes the name and/or email of a user. Nil fields are left untouched.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, name, email *string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, ErrNameRequired
		}
		user.Name = trimmed
	}

	if email != nil && *email != user.Email {
		if _, err := mail.ParseAddress(*email); err != nil {
			return nil, ErrInvalidEmail
		}
		exists, err := s.users.EmailExists(ctx, *email, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check email existence: %w", err)
		}
		if exists {
			return nil, ErrUserExists
		}
		user.Email = *email
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) || errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// issueToken persists a token row and signs a JWT bound to it.
func (s *AuthService) issueToken(ctx context.Context, user *domain.User) (*AuthResult, error) {
	tokenID := uuid.New().String()
	signed, expiresAt, err := s.jwt.GenerateToken(user.ID, user.Email, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	row := &domain.AccessToken{
		ID:        tokenID,
		UserID:    user.ID,
		Name:      tokenName,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	return &AuthResult{
		User:      user,
		Token:     signed,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	}, nil
}

func checkPassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}
