package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/task-api/database"
	"github.com/example/task-api/modules/api"
	"github.com/example/task-api/modules/auth"
	"github.com/example/task-api/modules/notification"
	"github.com/example/task-api/modules/ratelimit"
	"github.com/example/task-api/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Task API ===")

	shutdownTimeout := getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)

	dbConfig := database.Config{
		Path:  getEnv("DB_PATH", database.DefaultConfig().Path),
		Debug: getEnvBool("DB_DEBUG", false),
	}

	authConfig := auth.DefaultConfig()
	authConfig.Database = dbConfig
	authConfig.JWT.SecretKey = getEnv("JWT_SECRET_KEY", authConfig.JWT.SecretKey)
	authConfig.JWT.Issuer = getEnv("JWT_ISSUER", authConfig.JWT.Issuer)
	authConfig.JWT.TokenDuration = getEnvDuration("JWT_TOKEN_TTL", authConfig.JWT.TokenDuration)

	apiConfig := api.DefaultConfig()
	apiConfig.Addr = getEnv("HTTP_ADDR", apiConfig.Addr)
	apiConfig.Debug = getEnvBool("APP_DEBUG", false)
	apiConfig.BaseURL = getEnv("APP_URL", "")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Throttling needs Redis; without REDIS_ADDR the API runs unthrottled.
	if redisAddr := getEnv("REDIS_ADDR", ""); redisAddr != "" {
		limitConfig := ratelimit.DefaultConfig()
		limitConfig.Requests = getEnvInt("RATE_LIMIT_REQUESTS", limitConfig.Requests)
		limitConfig.Window = getEnvDuration("RATE_LIMIT_WINDOW", limitConfig.Window)

		limiter := ratelimit.NewModule(redisAddr, limitConfig)
		app.Register(limiter)
		apiConfig.Throttle = limiter.Middleware(api.ThrottleKey)
	}

	// Order: providers first, then consumers, then the HTTP surface
	app.Register(auth.NewModule(authConfig))
	app.Register(task.NewModule(dbConfig))
	app.Register(notification.NewModule(getEnvInt("ACTIVITY_LOG_SIZE", notification.DefaultMaxEntries)))
	app.Register(api.NewModule(apiConfig))

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(apiConfig)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(config api.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (%s):", config.Addr)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/register            - Register a new user")
	log.Println("  POST   /api/v1/login               - Login and get a token")
	log.Println("  GET    /health                     - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  POST   /api/v1/logout              - Revoke the current token")
	log.Println("  GET    /api/v1/user                - Current user")
	log.Println("  PATCH  /api/v1/profile             - Update name or email")
	log.Println("  GET    /api/v1/activity            - Recent task activity (limit)")
	log.Println("  GET    /api/v1/tasks               - List tasks (filter[...], sort, include, page)")
	log.Println("  POST   /api/v1/tasks               - Create a task")
	log.Println("  GET    /api/v1/tasks/:task         - Show a task")
	log.Println("  PUT    /api/v1/tasks/:task         - Replace a task")
	log.Println("  PATCH  /api/v1/tasks/:task         - Update a task")
	log.Println("  DELETE /api/v1/tasks/:task         - Delete a task")
	log.Println("  *      /api/v1/users/:user/tasks   - Same operations scoped to a user")
	log.Println("")
	if config.Throttle == nil {
		log.Println("Throttling disabled (set REDIS_ADDR to enable)")
	}
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as time.Duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
