package ratelimit

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Module owns the Redis connection used for request throttling.
type Module struct {
	addr    string
	config  Config
	client  *redis.Client
	limiter *SlidingWindowLimiter
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new rate limiting module for the Redis server at addr.
func NewModule(addr string, config Config) *Module {
	return &Module{
		addr:   addr,
		config: config,
	}
}

func (m *Module) Name() string {
	return "ratelimit"
}

// Start connects to Redis and prepares the limiter.
func (m *Module) Start(ctx context.Context) error {
	m.client = redis.NewClient(&redis.Options{Addr: m.addr})
	if err := m.client.Ping(ctx).Err(); err != nil {
		_ = m.client.Close()
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.addr, err)
	}
	m.limiter = NewSlidingWindowLimiter(m.client, m.config)

	log.Printf("[ratelimit] Module started (redis: %s, %d requests per %s)", m.addr, m.config.Requests, m.config.Window)
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			log.Printf("[ratelimit] Error closing Redis connection: %v", err)
		}
	}
	log.Println("[ratelimit] Module stopped")
	return nil
}

func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{Healthy: false, Message: "redis client not initialized"}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis":    m.addr,
			"requests": m.config.Requests,
			"window":   m.config.Window.String(),
		},
	}
}

// Middleware returns the throttle handler. The limiter is looked up per request,
// so the handler may be built before the module has started.
func (m *Module) Middleware(key KeyFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.limiter == nil {
			return c.Next()
		}
		return Middleware(m.limiter, key)(c)
	}
}
