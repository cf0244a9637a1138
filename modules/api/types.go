package api

import (
	"time"

	domain "github.com/example/task-api/domain/user"
	"github.com/example/task-api/modules/notification"
)

// Envelope is the flat reply of auth and profile endpoints.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
	Status  int    `json:"status"`
}

// MessageResponse is a reply without data.
type MessageResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// UserPayload is the public projection of a user in auth replies.
type UserPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func userPayload(u *domain.User) UserPayload {
	return UserPayload{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

// AuthData carries the user and the issued token.
type AuthData struct {
	User      *UserPayload `json:"user,omitempty"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// UserData wraps a user payload.
type UserData struct {
	User UserPayload `json:"user"`
}

// ActivityData wraps the caller's activity entries.
type ActivityData struct {
	Activities []notification.Activity `json:"activities"`
}
