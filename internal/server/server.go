// Package server contains the HTTP handlers and routing for the bulletin board API.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"bulletin/internal/config"
	"bulletin/internal/database"
	"bulletin/internal/featureflags"
	"bulletin/internal/middleware"
	"bulletin/internal/repository"
	"bulletin/internal/service"
	"bulletin/internal/session"
	"bulletin/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// maxFilesPerRequest bounds the request body: every file may be up to the
// per-file limit, plus room for the text fields.
const maxFilesPerRequest = 10

// Deps are the already-initialized dependencies of a Server.
type Deps struct {
	DB    *gorm.DB
	Redis *redis.Client
	Store storage.Store
	// HashCost overrides the bcrypt cost; zero keeps service.DefaultHashCost.
	HashCost int
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	sessions       *session.Manager
	featureFlags   *featureflags.Manager
	credentials    *service.CredentialService
	posts          *service.PostService
	comments       *service.CommentService
	attachments    *service.AttachmentService
}

// NewServerWithDeps creates a Server on dependencies connected by the
// bootstrap layer or by tests.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("server requires a database")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("server requires attachment storage")
	}

	userRepo := repository.NewUserRepository(deps.DB)
	postRepo := repository.NewPostRepository(deps.DB)
	commentRepo := repository.NewCommentRepository(deps.DB)

	flags := featureflags.NewManager(cfg.FeatureFlags)
	attachments := service.NewAttachmentService(deps.Store, cfg.MaxUploadBytes())

	return &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		store:          deps.Store,
		promMiddleware: middleware.InitMetrics("bulletin-api"),
		sessions: session.NewManager(session.Config{
			TTL:    cfg.SessionTTL(),
			Secure: cfg.CookieSecure,
			Redis:  deps.Redis,
		}),
		featureFlags: flags,
		credentials:  service.NewCredentialService(userRepo, deps.HashCost),
		posts:        service.NewPostService(postRepo, attachments, flags, cfg.BoardList()),
		comments:     service.NewCommentService(commentRepo),
		attachments:  attachments,
	}, nil
}

// NewApp builds the fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Bulletin API",
		BodyLimit:    int(s.config.MaxUploadBytes())*maxFilesPerRequest + 1024*1024,
		ErrorHandler: s.ErrorHandler,
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Server span per request; must run before ContextMiddleware copies the trace ID
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5000,http://127.0.0.1:5000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"msg":     "Too many requests, please try again later.",
			})
		},
	}))

	// Session cookies are encrypted with a key derived from SESSION_SECRET.
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: cookieKey(s.config.SessionSecret),
	}))

	if s.sessions != nil {
		app.Use(s.sessions.Middleware())
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Pages
	app.Get("/", s.IndexPage)
	app.Get("/login", session.RedirectIfAuthenticated("/"), s.LoginPage)
	app.Get("/register", session.RedirectIfAuthenticated("/"), s.RegisterPage)
	app.Get("/logout", s.Logout)
	app.Post("/account/delete", session.RequireAuthenticated(), s.DeleteAccount)

	// Stored attachments
	app.Get("/uploads/:filename", s.ServeUpload)

	api := app.Group("/api")
	api.Get("/health", s.HealthCheck)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Bulletin Backend Metrics Dashboard",
	}))
	api.Get("/feature-flags", s.GetFeatureFlags)

	// Auth routes
	api.Post("/register", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.Register)
	api.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public post routes
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/:id/comments", s.GetComments)
	posts.Get("/:id", s.GetPost)

	// Protected post routes
	posts.Post("/", session.RequireAuthenticated(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/like", session.RequireAuthenticated(), s.LikePost)
	posts.Post("/:id/comments", session.RequireAuthenticated(), middleware.RateLimit(
		s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	posts.Delete("/:id", session.RequireAuthenticated(), s.DeletePost)
}

// Start builds the app and listens on the configured port until Shutdown.
func (s *Server) Start() error {
	app := s.NewApp()
	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server and releases its connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if err := database.Close(s.db); err != nil {
		log.Printf("error closing sql DB: %v", err)
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

// cookieKey derives the 32-byte AES key encryptcookie expects from an
// arbitrary-length secret.
func cookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}
