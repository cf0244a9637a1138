package api

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/example/task-api/modules/auth"
	"github.com/example/task-api/modules/notification"
	"github.com/example/task-api/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Config configures the HTTP surface.
type Config struct {
	// Addr is the listen address.
	Addr string
	// Debug adds exception details to error replies.
	Debug bool
	// BaseURL prefixes resource links. Empty uses the request's host.
	BaseURL string
	// Throttle, when set, runs on every API route, after authentication on protected ones.
	Throttle fiber.Handler
	// Activity, when set, serves GET /api/v1/activity.
	Activity notification.ActivityPort
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{Addr: ":3000"}
}

// APIModule is the HTTP API module.
type APIModule struct {
	config      Config
	app         *fiber.App
	logger      *slog.Logger
	authAdapter auth.AuthPort
	taskAdapter task.TaskPort
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(config Config) *APIModule {
	return &APIModule{
		config: config,
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "notification"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "task":
		m.taskAdapter = task.NewTaskAdapter(container)
	case "notification":
		m.config.Activity = notification.NewActivityAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authAdapter == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.taskAdapter == nil {
		return fmt.Errorf("task dependency not set")
	}

	m.app = NewApp(m.config, m.logger, m.authAdapter, m.taskAdapter)

	go func() {
		if err := m.app.Listen(m.config.Addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", m.config.Addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr":      m.config.Addr,
			"debug":     m.config.Debug,
			"throttled": m.config.Throttle != nil,
			"activity":  m.config.Activity != nil,
		},
	}
}

// NewApp builds the Fiber application with every route and the error envelope.
func NewApp(config Config, errLogger *slog.Logger, authPort auth.AuthPort, tasks task.TaskPort) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          newErrorHandler(errLogger, config.Debug),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: config.Debug}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	h := NewHandlers(authPort, tasks, config.BaseURL)
	h.activity = config.Activity
	setupRoutes(app, config, h, authPort)
	return app
}

// setupRoutes configures all API routes. Middleware is attached per route so
// unknown paths and wrong methods reach the error handler unauthenticated.
func setupRoutes(app *fiber.App, config Config, h *Handlers, authPort auth.AuthPort) {
	public := func(handler fiber.Handler) []fiber.Handler {
		if config.Throttle == nil {
			return []fiber.Handler{handler}
		}
		return []fiber.Handler{config.Throttle, handler}
	}
	authMiddleware := AuthMiddleware(authPort)
	protected := func(handler fiber.Handler) []fiber.Handler {
		return append([]fiber.Handler{authMiddleware}, public(handler)...)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	v1 := app.Group("/api/v1")

	v1.Post("/register", public(h.Register)...)
	v1.Post("/login", public(h.Login)...)
	v1.Post("/logout", protected(h.Logout)...)
	v1.Get("/user", protected(h.CurrentUser)...)
	v1.Put("/profile", protected(h.UpdateProfile)...)
	v1.Patch("/profile", protected(h.UpdateProfile)...)
	if config.Activity != nil {
		v1.Get("/activity", protected(h.RecentActivity)...)
	}

	for _, prefix := range []string{"/tasks", "/users/:user/tasks"} {
		v1.Get(prefix, protected(h.ListTasks)...)
		v1.Post(prefix, protected(h.CreateTask)...)
		v1.Get(prefix+"/:task", protected(h.ShowTask)...)
		v1.Put(prefix+"/:task", protected(h.ReplaceTask)...)
		v1.Patch(prefix+"/:task", protected(h.UpdateTask)...)
		v1.Delete(prefix+"/:task", protected(h.DeleteTask)...)
	}
}
