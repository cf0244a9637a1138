package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/task-api/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
type AuthPort interface {
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, tokenID string) error
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, name, email *string) (*domain.User, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// Register creates an account through the register service.
func (a *AuthAdapter) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	req := RegisterRequest{Name: name, Email: email, Password: password}
	var resp TokenResponse
	if err := callService(ctx, a.container, "register", &req, &resp); err != nil {
		return nil, err
	}
	return resp.toResult(), nil
}

// Login authenticates through the login service.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp TokenResponse
	if err := callService(ctx, a.container, "login", &req, &resp); err != nil {
		return nil, err
	}
	return resp.toResult(), nil
}

// Logout revokes one token through the logout service.
func (a *AuthAdapter) Logout(ctx context.Context, tokenID string) error {
	req := LogoutRequest{TokenID: tokenID}
	var resp LogoutResponse
	return callService(ctx, a.container, "logout", &req, &resp)
}

// ValidateToken validates a bearer token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := callService(ctx, a.container, "validate-token", &req, &resp); err != nil {
		return nil, err
	}

	if !resp.Valid {
		return nil, fmt.Errorf("token validation failed: %w", translateError(errors.New(resp.Error)))
	}

	return &domain.Claims{
		UserID:  resp.UserID,
		Email:   resp.Email,
		TokenID: resp.TokenID,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserDTO
	if err := callService(ctx, a.container, "get-user", &req, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// UpdateProfile applies a partial profile update.
func (a *AuthAdapter) UpdateProfile(ctx context.Context, userID string, name, email *string) (*domain.User, error) {
	req := UpdateProfileRequest{UserID: userID, Name: name, Email: email}
	var resp UserDTO
	if err := callService(ctx, a.container, "update-profile", &req, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// callService performs one typed request-reply call and restores known sentinels.
func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, translateError(err))
	}
	return nil
}

func (r TokenResponse) toResult() *AuthResult {
	return &AuthResult{
		User:      r.User.toDomain(),
		Token:     r.Token,
		TokenType: r.TokenType,
		ExpiresAt: r.ExpiresAt,
	}
}

// knownErrors are the sentinels that survive a request-reply round trip by message.
var knownErrors = []error{
	ErrInvalidCredentials,
	ErrUserExists,
	ErrUserNotFound,
	ErrInvalidEmail,
	ErrWeakPassword,
	ErrPasswordTooLong,
	ErrNameRequired,
	ErrRevokedToken,
	ErrExpiredToken,
	ErrInvalidToken,
}

// translateError maps an error received over the service container back to its sentinel.
func translateError(err error) error {
	msg := err.Error()
	for _, known := range knownErrors {
		if strings.Contains(msg, known.Error()) {
			return known
		}
	}
	return err
}
