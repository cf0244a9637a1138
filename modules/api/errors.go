package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/example/task-api/modules/auth"
	"github.com/example/task-api/modules/ratelimit"
	"github.com/example/task-api/modules/task"
	"github.com/gofiber/fiber/v2"
)

const (
	msgValidation      = "The given data was invalid."
	msgUnauthenticated = "Unauthenticated."
	msgTaskNotFound    = "Task cannot be found"
	msgUserNotFound    = "User not found"
	msgEndpoint        = "Endpoint not found."
	msgMethod          = "Method not allowed."
	msgThrottled       = "Too Many Attempts."
	msgInternal        = "An unexpected error occurred."

	redacted = "***HIDDEN***"
)

var (
	sensitiveHeaders = map[string]bool{"authorization": true, "cookie": true, "x-csrf-token": true}
	sensitiveFields  = map[string]bool{"password": true, "password_confirmation": true, "token": true, "api_key": true}
)

// APIError is an error with a fixed HTTP rendering.
type APIError struct {
	Status  int
	Message string
	Errors  map[string][]string
	Err     error

	file  string
	line  int
	trace string
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func newAPIError(status int, message string, err error) *APIError {
	e := &APIError{Status: status, Message: message, Err: err}
	if _, file, line, ok := runtime.Caller(2); ok {
		e.file, e.line = file, line
	}
	e.trace = string(debug.Stack())
	return e
}

func validationError(errs map[string][]string) *APIError {
	e := newAPIError(fiber.StatusUnprocessableEntity, msgValidation, nil)
	e.Errors = errs
	return e
}

func fieldError(field, message string) *APIError {
	return validationError(map[string][]string{field: {message}})
}

func unauthenticated(err error) *APIError {
	return newAPIError(fiber.StatusUnauthorized, msgUnauthenticated, err)
}

func notFound(message string, err error) *APIError {
	return newAPIError(fiber.StatusNotFound, message, err)
}

func internalError(err error) *APIError {
	return newAPIError(fiber.StatusInternalServerError, msgInternal, err)
}

// errorResponse is the envelope of every error reply.
type errorResponse struct {
	Message string              `json:"message"`
	Status  int                 `json:"status"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Debug   *debugInfo          `json:"debug,omitempty"`
}

type debugInfo struct {
	Exception string `json:"exception"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Trace     string `json:"trace"`
}

// resolveError maps any handler error onto an APIError.
func resolveError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			return newAPIError(fiber.StatusNotFound, msgEndpoint, err)
		case fiber.StatusMethodNotAllowed:
			return newAPIError(fiber.StatusMethodNotAllowed, msgMethod, err)
		case fiber.StatusTooManyRequests:
			return newAPIError(fiber.StatusTooManyRequests, msgThrottled, err)
		}
		if fiberErr.Code < fiber.StatusInternalServerError {
			return newAPIError(fiberErr.Code, fiberErr.Message, err)
		}
	}

	switch {
	case errors.Is(err, ratelimit.ErrTooManyAttempts):
		return newAPIError(fiber.StatusTooManyRequests, msgThrottled, err)
	case errors.Is(err, task.ErrTaskNotFound):
		return notFound(msgTaskNotFound, err)
	case errors.Is(err, auth.ErrUserNotFound):
		return notFound(msgUserNotFound, err)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken), errors.Is(err, auth.ErrRevokedToken):
		return unauthenticated(err)
	case errors.Is(err, task.ErrInvalidAttributes):
		return newAPIError(fiber.StatusUnprocessableEntity, msgValidation, err)
	}
	return internalError(err)
}

// newErrorHandler renders the error envelope and logs the failure with redacted request context.
func newErrorHandler(logger *slog.Logger, debugMode bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		apiErr := resolveError(err)
		logRequestError(c, logger, apiErr)

		resp := errorResponse{
			Message: apiErr.Message,
			Status:  apiErr.Status,
			Errors:  apiErr.Errors,
		}
		if debugMode {
			if apiErr.Status == fiber.StatusInternalServerError && apiErr.Err != nil {
				resp.Message = apiErr.Err.Error()
			}
			resp.Debug = &debugInfo{
				Exception: exceptionName(apiErr),
				File:      apiErr.file,
				Line:      apiErr.line,
				Trace:     apiErr.trace,
			}
		}
		return c.Status(apiErr.Status).JSON(resp)
	}
}

func exceptionName(e *APIError) string {
	if e.Err == nil {
		return fmt.Sprintf("%T", e)
	}
	root := e.Err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}
	return fmt.Sprintf("%T", root)
}

// logLevel picks the severity for a rendered status.
func logLevel(status int) slog.Level {
	switch status {
	case fiber.StatusUnprocessableEntity:
		return slog.LevelInfo
	case fiber.StatusUnauthorized, fiber.StatusNotFound, fiber.StatusMethodNotAllowed, fiber.StatusTooManyRequests:
		return slog.LevelWarn
	}
	return slog.LevelError
}

func logRequestError(c *fiber.Ctx, logger *slog.Logger, e *APIError) {
	var userID string
	if claims := currentClaims(c); claims != nil {
		userID = claims.UserID
	}

	cause := e.Message
	if e.Err != nil {
		cause = e.Err.Error()
	}

	logger.Log(c.UserContext(), logLevel(e.Status), "API exception occurred",
		"exception", exceptionName(e),
		"message", cause,
		"status_code", e.Status,
		"method", c.Method(),
		"url", c.OriginalURL(),
		"ip", c.IP(),
		"user_agent", c.Get(fiber.HeaderUserAgent),
		"user_id", userID,
		"headers", sanitizeHeaders(c.GetReqHeaders()),
		"input", sanitizeInput(c.Body()),
	)
}

// sanitizeHeaders copies headers with credentials replaced.
func sanitizeHeaders(headers map[string][]string) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		key := strings.ToLower(name)
		if sensitiveHeaders[key] {
			out[key] = redacted
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// sanitizeInput decodes a JSON body and hides sensitive fields at any depth.
// Bodies that are not JSON are summarised by size only.
func sanitizeInput(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var input any
	if err := json.Unmarshal(body, &input); err != nil {
		return fmt.Sprintf("<%d bytes, not JSON>", len(body))
	}
	return redact(input)
}

func redact(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, inner := range v {
			if sensitiveFields[strings.ToLower(key)] {
				v[key] = redacted
				continue
			}
			v[key] = redact(inner)
		}
		return v
	case []any:
		for i, inner := range v {
			v[i] = redact(inner)
		}
		return v
	}
	return value
}
