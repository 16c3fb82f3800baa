// Package server contains the HTTP handlers for the threads API.
package server

import (
	"context"
	"time"

	_ "threads/docs" // swagger docs
	"threads/internal/config"
	"threads/internal/featureflags"
	"threads/internal/middleware"
	"threads/internal/notifications"
	"threads/internal/repository"
	"threads/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config       *config.Config
	store        repository.Store
	redis        *redis.Client
	notifier     *notifications.Notifier
	featureFlags *featureflags.Manager
	threads      *service.ThreadService
	users        *service.UserService
	communities  *service.CommunityService
}

// NewServer wires the services on top of store. redisClient may be nil, in
// which case caching, revalidation and rate limiting are skipped.
func NewServer(cfg *config.Config, store repository.Store, redisClient *redis.Client) *Server {
	s := &Server{
		config:       cfg,
		store:        store,
		redis:        redisClient,
		featureFlags: featureflags.NewManager(cfg.FeatureFlags),
	}

	var revalidator service.Revalidator
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		revalidator = s.notifier
	}

	s.threads = service.NewThreadService(store, revalidator, s.featureFlags)
	s.users = service.NewUserService(store, revalidator)
	s.communities = service.NewCommunityService(store, revalidator)
	return s
}

// Notifier returns the revalidation notifier, or nil without Redis.
func (s *Server) Notifier() *notifications.Notifier {
	return s.notifier
}

// ThreadService exposes the thread service for background jobs.
func (s *Server) ThreadService() *service.ThreadService {
	return s.threads
}

// NewApp returns a Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Threads API",
		BodyLimit: 1 * 1024 * 1024,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	middleware.InitMetrics(app, "threads-api")
	app.Use(middleware.MetricsMiddleware())

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	middleware.InitMiddleware(s.config)

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	api.Get("/flags", s.GetFeatureFlags)

	// Public reads
	api.Get("/threads", s.GetThreads)
	api.Get("/threads/:id", s.GetThread)
	api.Get("/communities", s.GetCommunities)
	api.Get("/communities/:id/threads", s.GetCommunityThreads)
	api.Get("/communities/:id", s.GetCommunity)

	protected := api.Group("", middleware.AuthRequired)

	threads := protected.Group("/threads")
	threads.Post("/", middleware.RateLimit(s.redis, 10, time.Minute, "create_thread"), s.CreateThread)
	threads.Post("/:id/comments", middleware.RateLimit(s.redis, 30, time.Minute, "create_comment"), s.CreateComment)
	threads.Delete("/:id", s.DeleteThread)

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/", middleware.RateLimit(s.redis, 60, time.Minute, "search_users"), s.GetUsers)
	// Specific /:id/:resource routes before the generic /:id route
	users.Get("/:id/threads", s.GetUserThreads)
	users.Get("/:id", s.GetUser)

	protected.Get("/activity", s.GetActivity)

	communities := protected.Group("/communities")
	communities.Post("/", middleware.RateLimit(s.redis, 5, time.Minute, "create_community"), s.CreateCommunity)
	communities.Post("/:id/members", s.AddCommunityMember)
	communities.Delete("/:id/members/:userId", s.RemoveCommunityMember)
	communities.Put("/:id", s.UpdateCommunity)
	communities.Delete("/:id", s.DeleteCommunity)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if err := s.store.EnsureConnected(ctx); err != nil {
		storeStatus = "unhealthy"
	} else if !s.store.Connected() {
		storeStatus = "unconfigured"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// Shutdown releases the store connection.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.store.Close(ctx)
}
