package ratelimit

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// KeyFunc extracts the throttle key of a request.
type KeyFunc func(c *fiber.Ctx) string

// ByIP keys requests on the client address.
func ByIP(c *fiber.Ctx) string {
	return "ip:" + c.IP()
}

// Middleware returns a fiber handler that throttles requests through limiter.
// Rejected requests get a *LimitExceededError which the application's error
// handler renders. Limiter failures let the request through.
func Middleware(limiter Limiter, key KeyFunc) fiber.Handler {
	if key == nil {
		key = ByIP
	}
	return func(c *fiber.Ctx) error {
		result, err := limiter.Allow(c.UserContext(), key(c))
		if err != nil {
			log.Printf("[ratelimit] Warning: limiter unavailable, allowing request: %v", err)
			return c.Next()
		}

		setHeaders(c, result)
		if !result.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(result)))
			return &LimitExceededError{Result: result}
		}
		return c.Next()
	}
}

func setHeaders(c *fiber.Ctx, result *Result) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func retryAfterSeconds(result *Result) int {
	seconds := int(result.RetryAfter.Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}
