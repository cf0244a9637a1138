package api

import (
	"strings"

	domain "github.com/example/task-api/domain/user"
	"github.com/example/task-api/modules/auth"
	"github.com/example/task-api/modules/ratelimit"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
)

// AuthMiddleware creates a middleware that validates bearer tokens.
func AuthMiddleware(authPort auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return unauthenticated(nil)
		}

		claims, err := authPort.ValidateToken(c.UserContext(), token)
		if err != nil {
			return unauthenticated(err)
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// currentClaims returns the authenticated caller, or nil on public routes.
func currentClaims(c *fiber.Ctx) *domain.Claims {
	claims, _ := c.Locals(UserContextKey).(*domain.Claims)
	return claims
}

// ThrottleKey keys authenticated requests on the user and anonymous ones on the client address.
func ThrottleKey(c *fiber.Ctx) string {
	if claims := currentClaims(c); claims != nil {
		return "user:" + claims.UserID
	}
	return ratelimit.ByIP(c)
}
