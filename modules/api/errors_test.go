package api

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/example/task-api/modules/auth"
	"github.com/example/task-api/modules/ratelimit"
	"github.com/example/task-api/modules/task"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestResolveError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"unmatched route", fiber.ErrNotFound, 404, "Endpoint not found."},
		{"wrong method", fiber.ErrMethodNotAllowed, 405, "Method not allowed."},
		{"fiber throttle", fiber.ErrTooManyRequests, 429, "Too Many Attempts."},
		{"fiber client error", fiber.NewError(fiber.StatusBadRequest, "bad"), 400, "bad"},
		{"limiter rejection", &ratelimit.LimitExceededError{Result: &ratelimit.Result{}}, 429, "Too Many Attempts."},
		{"missing task", fmt.Errorf("lookup: %w", task.ErrTaskNotFound), 404, "Task cannot be found"},
		{"missing user", auth.ErrUserNotFound, 404, "User not found"},
		{"expired token", auth.ErrExpiredToken, 401, "Unauthenticated."},
		{"bad attributes", task.ErrInvalidAttributes, 422, "The given data was invalid."},
		{"anything else", errors.New("disk on fire"), 500, "An unexpected error occurred."},
		{"fiber server error", fiber.ErrServiceUnavailable, 500, "An unexpected error occurred."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveError(tt.err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantMessage, got.Message)
		})
	}

	apiErr := fieldError("data.attributes.email", takenMessage)
	assert.Same(t, apiErr, resolveError(fmt.Errorf("wrapped: %w", apiErr)))
}

func TestAPIError(t *testing.T) {
	cause := errors.New("boom")
	err := internalError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "An unexpected error occurred.: boom", err.Error())
	assert.NotEmpty(t, err.trace)
	assert.Equal(t, "*errors.errorString", exceptionName(err))

	bare := notFound(msgTaskNotFound, nil)
	assert.Equal(t, msgTaskNotFound, bare.Error())
	assert.Equal(t, "*api.APIError", exceptionName(bare))
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		status int
		want   slog.Level
	}{
		{422, slog.LevelInfo},
		{401, slog.LevelWarn},
		{404, slog.LevelWarn},
		{405, slog.LevelWarn},
		{429, slog.LevelWarn},
		{400, slog.LevelError},
		{500, slog.LevelError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, logLevel(tt.status), "status %d", tt.status)
	}
}

func TestSanitizeHeaders(t *testing.T) {
	got := sanitizeHeaders(map[string][]string{
		"Authorization": {"Bearer secret"},
		"Cookie":        {"a=b"},
		"X-Csrf-Token":  {"csrf"},
		"Accept":        {"application/json", "text/plain"},
	})

	assert.Equal(t, map[string]string{
		"authorization": redacted,
		"cookie":        redacted,
		"x-csrf-token":  redacted,
		"accept":        "application/json, text/plain",
	}, got)
}

func TestSanitizeInput(t *testing.T) {
	body := []byte(`{
		"data": {"attributes": {"email": "a@example.com", "Password": "pw", "password_confirmation": "pw"}},
		"items": [{"token": "t", "keep": 1}],
		"API_KEY": "k"
	}`)

	got := sanitizeInput(body)

	assert.Equal(t, map[string]any{
		"data": map[string]any{"attributes": map[string]any{
			"email":                 "a@example.com",
			"Password":              redacted,
			"password_confirmation": redacted,
		}},
		"items":   []any{map[string]any{"token": redacted, "keep": float64(1)}},
		"API_KEY": redacted,
	}, got)

	assert.Nil(t, sanitizeInput(nil))
	assert.Equal(t, "<9 bytes, not JSON>", sanitizeInput([]byte("password=")))
}
