package auth

import (
	"time"

	domain "github.com/example/task-api/domain/user"
)

// AuthResult is returned by register and login.
type AuthResult struct {
	User      *domain.User
	Token     string
	TokenType string
	ExpiresAt time.Time
}

// UserDTO is the public projection of a user. It never carries the password hash.
type UserDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (d UserDTO) toDomain() *domain.User {
	return &domain.User{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the reply of register and login.
type TokenResponse struct {
	User      UserDTO   `json:"user"`
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LogoutRequest identifies the token to revoke.
type LogoutRequest struct {
	TokenID string `json:"token_id"`
}

// LogoutResponse represents a logout response.
type LogoutResponse struct {
	Revoked bool `json:"revoked"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid   bool   `json:"valid"`
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email,omitempty"`
	TokenID string `json:"token_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// UpdateProfileRequest carries a partial profile update.
type UpdateProfileRequest struct {
	UserID string  `json:"user_id"`
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
}
