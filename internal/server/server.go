// Package server contains the HTTP handlers and route wiring for the
// application.
package server

import (
	"context"
	"log"
	"time"

	"quill/internal/config"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/service"
	"quill/internal/session"
	"quill/internal/supabase"
	"quill/static"
	"quill/views"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// authClient is the auth surface of the remote backend client.
type authClient interface {
	SignUp(ctx context.Context, email, password, displayName string) error
	SignInWithPassword(ctx context.Context, email, password string) (models.TokenPair, error)
	SignOut(ctx context.Context, accessToken string) error
	ResolveIdentity(ctx context.Context, pair models.TokenPair) (*models.User, *models.TokenPair, error)
}

// imageStore is the image attachment lifecycle surface.
type imageStore interface {
	Attach(ctx context.Context, in service.AttachImageInput) (string, error)
	Remove(ctx context.Context, imageURL string) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	backend        *supabase.Client
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	sessions       *session.Manager
	auth           authClient
	images         imageStore
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	viewRepo       repository.ViewRepository
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	backend := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	}

	return NewServerWithDeps(cfg, backend, redisClient), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes the backend client.
func NewServerWithDeps(cfg *config.Config, backend *supabase.Client, redisClient *redis.Client) *Server {
	secure := cfg.Env == "production" || cfg.Env == "prod"

	return &Server{
		config:         cfg,
		backend:        backend,
		redis:          redisClient,
		promMiddleware: fiberprometheus.New("quill"),
		sessions:       session.NewManager(cfg.SessionSecret, secure),
		auth:           backend,
		images:         service.NewImageService(backend, cfg),
		postRepo:       repository.NewPostRepository(backend),
		commentRepo:    repository.NewCommentRepository(backend),
		viewRepo:       repository.NewViewRepository(backend),
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for log correlation
	app.Use(requestid.New())

	// Context middleware to propagate the request ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (120 requests per minute per IP)
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

	// Resolve the session's identity on every request; never blocks.
	app.Use(s.ResolveCurrentUser())
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

	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   static.FS(),
		MaxAge: 3600,
	}))

	app.Get("/", s.Home)

	// Auth routes
	auth := app.Group("/auth")
	auth.Get("/signup", s.SignupPage)
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Get("/login", s.LoginPage)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/logout", s.Logout)

	// Blog routes. Register /posts/new before the generic /posts/:id routes.
	blog := app.Group("/blog")
	blog.Get("/posts", s.ListPosts)
	blog.Get("/posts/new", s.NewPostPage)
	blog.Post("/posts", s.CreatePost)
	blog.Get("/posts/:id/edit", s.EditPostPage)
	blog.Post("/posts/:id/comments", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	blog.Post("/posts/:id/delete", s.DeletePost)
	blog.Get("/posts/:id", s.ShowPost)
	blog.Post("/posts/:id", s.UpdatePost)

	// Comment routes
	comments := app.Group("/comments")
	comments.Post("/:id/delete", s.DeleteComment)
	comments.Delete("/:id/delete", s.DeleteComment)
	comments.Post("/:id", s.UpdateComment)
}

// Home renders the landing page.
func (s *Server) Home(c *fiber.Ctx) error {
	return s.render(c, "index", fiber.Map{"Title": "Blog Demo"})
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
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	backendStatus := "healthy"
	if err := s.backend.Health(ctx); err != nil {
		backendStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis only backs rate limiting; its absence degrades, not fails.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if backendStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"backend": backendStatus,
			"redis":   redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName:   "Quill",
		Views:     views.Engine(),
		BodyLimit: 12 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
