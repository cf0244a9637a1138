package api

import (
	"errors"
	"strconv"

	"github.com/example/task-api/modules/auth"
	"github.com/example/task-api/modules/notification"
	"github.com/example/task-api/modules/task"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth      auth.AuthPort
	tasks     task.TaskPort
	activity  notification.ActivityPort
	baseURL   string
	validator *requestValidator
}

// NewHandlers creates a new Handlers instance. An empty baseURL means links
// are built from the request's own scheme and host.
func NewHandlers(authPort auth.AuthPort, tasks task.TaskPort, baseURL string) *Handlers {
	return &Handlers{
		auth:      authPort,
		tasks:     tasks,
		baseURL:   baseURL,
		validator: newRequestValidator(),
	}
}

func (h *Handlers) serializer(c *fiber.Ctx) *Serializer {
	if h.baseURL != "" {
		return NewSerializer(h.baseURL)
	}
	return NewSerializer(c.BaseURL())
}

func str(attrs map[string]any, field string) string {
	s, _ := attrs[field].(string)
	return s
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	attrs := mapAttributes(decodeBody(c.Body()), registerAttributeMap)
	if errs := h.validator.check(attrs, registerAttributeMap, registerRules); len(errs) > 0 {
		return validationError(errs)
	}

	result, err := h.auth.Register(c.UserContext(), str(attrs, "name"), str(attrs, "email"), str(attrs, "password"))
	if err != nil {
		return registrationError(err)
	}

	user := userPayload(result.User)
	return c.Status(fiber.StatusCreated).JSON(Envelope{
		Message: "User registered successfully",
		Data: AuthData{
			User:      &user,
			Token:     result.Token,
			TokenType: result.TokenType,
			ExpiresAt: result.ExpiresAt,
		},
		Status: fiber.StatusCreated,
	})
}

// registrationError turns auth validation sentinels into field errors.
func registrationError(err error) error {
	switch {
	case errors.Is(err, auth.ErrUserExists):
		return fieldError("data.attributes.email", takenMessage)
	case errors.Is(err, auth.ErrInvalidEmail):
		return fieldError("data.attributes.email", "The email must be a valid email address.")
	case errors.Is(err, auth.ErrWeakPassword):
		return fieldError("data.attributes.password", "The password must be at least 8 characters.")
	case errors.Is(err, auth.ErrPasswordTooLong):
		return fieldError("data.attributes.password", "The password may not be greater than 72 characters.")
	case errors.Is(err, auth.ErrNameRequired):
		return fieldError("data.attributes.name", "The name field is required.")
	}
	return err
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	attrs := mapAttributes(decodeBody(c.Body()), loginAttributeMap)
	if errs := h.validator.check(attrs, loginAttributeMap, loginRules); len(errs) > 0 {
		return validationError(errs)
	}

	result, err := h.auth.Login(c.UserContext(), str(attrs, "email"), str(attrs, "password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return newAPIError(fiber.StatusUnauthorized, "Invalid credentials", err)
		}
		return err
	}

	return c.JSON(Envelope{
		Message: "Authenticated",
		Data: AuthData{
			Token:     result.Token,
			TokenType: result.TokenType,
			ExpiresAt: result.ExpiresAt,
		},
		Status: fiber.StatusOK,
	})
}

// Logout revokes the token that authenticated the request.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	claims := currentClaims(c)
	if claims == nil {
		return unauthenticated(nil)
	}

	if err := h.auth.Logout(c.UserContext(), claims.TokenID); err != nil {
		if errors.Is(err, auth.ErrRevokedToken) {
			return unauthenticated(err)
		}
		return err
	}

	return c.JSON(Envelope{
		Message: "Logout successful",
		Data:    fiber.Map{},
		Status:  fiber.StatusOK,
	})
}

// CurrentUser returns the authenticated user.
func (h *Handlers) CurrentUser(c *fiber.Ctx) error {
	claims := currentClaims(c)
	if claims == nil {
		return unauthenticated(nil)
	}

	user, err := h.auth.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}

	return c.JSON(Envelope{
		Message: "Authenticated user",
		Data:    UserData{User: userPayload(user)},
		Status:  fiber.StatusOK,
	})
}

// UpdateProfile applies a partial update of the caller's name and email.
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	claims := currentClaims(c)
	if claims == nil {
		return unauthenticated(nil)
	}

	attrs := mapAttributes(decodeBody(c.Body()), profileAttributeMap)
	if errs := h.validator.check(attrs, profileAttributeMap, profileRules); len(errs) > 0 {
		return validationError(errs)
	}

	user, err := h.auth.UpdateProfile(c.UserContext(), claims.UserID, stringAttr(attrs, "name"), stringAttr(attrs, "email"))
	if err != nil {
		return registrationError(err)
	}

	return c.JSON(Envelope{
		Message: "Profile updated successfully",
		Data:    UserData{User: userPayload(user)},
		Status:  fiber.StatusOK,
	})
}

// RecentActivity lists the caller's latest task activity, newest first.
func (h *Handlers) RecentActivity(c *fiber.Ctx) error {
	claims := currentClaims(c)
	if claims == nil {
		return unauthenticated(nil)
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	activities, err := h.activity.RecentActivity(c.UserContext(), claims.UserID, limit)
	if err != nil {
		return err
	}

	return c.JSON(Envelope{
		Message: "Recent activity",
		Data:    ActivityData{Activities: activities},
		Status:  fiber.StatusOK,
	})
}
