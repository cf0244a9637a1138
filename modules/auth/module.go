package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/example/task-api/database"
	domain "github.com/example/task-api/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// Config holds the auth module settings.
type Config struct {
	Database   database.Config
	JWT        JWTConfig
	BcryptCost int
}

// DefaultConfig returns the default auth module configuration.
func DefaultConfig() Config {
	return Config{
		Database:   database.DefaultConfig(),
		JWT:        DefaultJWTConfig(),
		BcryptCost: DefaultBcryptCost,
	}
}

// AuthModule provides users, credentials and bearer tokens.
type AuthModule struct {
	config  Config
	db      *gorm.DB
	service *AuthService
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(config Config) *AuthModule {
	return &AuthModule{
		config: config,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start opens the database and builds the service.
func (m *AuthModule) Start(_ context.Context) error {
	db, err := database.Open(m.config.Database, &domain.User{}, &domain.AccessToken{})
	if err != nil {
		return err
	}
	m.db = db

	m.service = NewAuthService(
		NewUserRepository(db),
		NewTokenRepository(db),
		NewPasswordHasherWithCost(m.config.BcryptCost),
		NewJWTManager(m.config.JWT),
	)

	log.Printf("[auth] Module started (database: %s)", m.config.Database.Path)
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		log.Printf("[auth] Error closing database: %v", err)
	}
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(_ context.Context) mono.HealthStatus {
	if err := database.Ping(m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.config.Database.Path,
		},
	}
}

// Service exposes the auth service for in-process callers.
func (m *AuthModule) Service() *AuthService {
	return m.service
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "register", json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "logout", json.Unmarshal, json.Marshal, m.handleLogout,
	); err != nil {
		return fmt.Errorf("failed to register logout service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-profile", json.Unmarshal, json.Marshal, m.handleUpdateProfile,
	); err != nil {
		return fmt.Errorf("failed to register update-profile service: %w", err)
	}

	log.Printf("[auth] Registered services: register, login, logout, validate-token, get-user, update-profile")
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (TokenResponse, error) {
	result, err := m.service.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return TokenResponse{}, err
	}
	log.Printf("[auth] Registered user %s", result.User.ID)
	return toTokenResponse(result), nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (TokenResponse, error) {
	result, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return TokenResponse{}, err
	}
	return toTokenResponse(result), nil
}

func (m *AuthModule) handleLogout(ctx context.Context, req LogoutRequest, _ *mono.Msg) (LogoutResponse, error) {
	if err := m.service.Logout(ctx, req.TokenID); err != nil {
		return LogoutResponse{}, err
	}
	return LogoutResponse{Revoked: true}, nil
}

func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := ErrInvalidToken.Error()
		switch {
		case errors.Is(err, ErrExpiredToken):
			errMsg = ErrExpiredToken.Error()
		case errors.Is(err, ErrRevokedToken):
			errMsg = ErrRevokedToken.Error()
		}
		return ValidateTokenResponse{
			Valid: false,
			Error: errMsg,
		}, nil // Return response, not error, for validation failures
	}

	return ValidateTokenResponse{
		Valid:   true,
		UserID:  claims.UserID,
		Email:   claims.Email,
		TokenID: claims.TokenID,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserDTO, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func (m *AuthModule) handleUpdateProfile(ctx context.Context, req UpdateProfileRequest, _ *mono.Msg) (UserDTO, error) {
	user, err := m.service.UpdateProfile(ctx, req.UserID, req.Name, req.Email)
	if err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func toTokenResponse(result *AuthResult) TokenResponse {
	return TokenResponse{
		User:      toUserDTO(result.User),
		Token:     result.Token,
		TokenType: result.TokenType,
		ExpiresAt: result.ExpiresAt,
	}
}
