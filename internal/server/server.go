// Package server contains the HTTP handlers and page rendering for the blog.
package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"unnest/internal/cache"
	"unnest/internal/config"
	"unnest/internal/database"
	"unnest/internal/middleware"
	"unnest/internal/repository"
	"unnest/internal/service"
	"unnest/internal/session"
	"unnest/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const csrfContextKey = "csrf"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	sessions       *session.Manager
	media          *service.MediaService
	authService    *service.AuthService
	userService    *service.UserService
	postService    *service.PostService
	views          *views
}

// NewServer connects to the database, Redis and the media backend, then
// builds the server on top of them.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := cache.Connect(ctx, cfg.RedisURL)

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("media storage init failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Store) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("unnest"),
		userRepo:       repository.NewUserRepository(db),
		postRepo:       repository.NewPostRepository(db),
		sessions:       session.NewManager(cfg.SessionSecret, cfg.SessionTTL(), cfg.RememberTTL(), redisClient),
		media:          service.NewMediaService(store),
	}
	s.authService = service.NewAuthService(s.userRepo, cfg.BcryptCost)
	s.userService = service.NewUserService(s.userRepo, s.media)
	s.postService = service.NewPostService(s.postRepo, s.userRepo, s.media, cfg.PostsPerPage)

	v, err := newViews(s.media)
	if err != nil {
		return nil, err
	}
	s.views = v

	s.app = fiber.New(fiber.Config{
		AppName:      "Unnest",
		BodyLimit:    cfg.UploadLimitBytes(),
		ErrorHandler: s.ErrorHandler,
	})
	s.SetupMiddleware(s.app)
	s.SetupRoutes(s.app)

	return s, nil
}

// App exposes the configured Fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Uploaded images may come from an S3 bucket on another origin.
	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return isInfraPath(c.Path())
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	}))

	if s.config.CSRFEnabled {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:csrf_token",
			CookieName:     "unnest_csrf",
			CookieSameSite: "Lax",
			CookieSecure:   s.config.IsProduction(),
			CookieHTTPOnly: true,
			Expiration:     2 * time.Hour,
			ContextKey:     csrfContextKey,
			Next: func(c *fiber.Ctx) bool {
				return isInfraPath(c.Path())
			},
			ErrorHandler: func(_ *fiber.Ctx, _ error) error {
				return fiber.ErrForbidden
			},
		}))
	}

	// Innermost, so the access log, metrics and spans above see the final status.
	app.Use(middleware.ErrorStatus())
	app.Use(s.LoadUser())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static("/static", s.config.StaticDir)

	for _, path := range []string{"/", "/home"} {
		app.Get(path, s.Home)
		app.Post(path, s.Home)
	}

	guest := s.GuestOnly()
	app.Get("/register", guest, s.RegisterPage)
	app.Post("/register", guest, middleware.RateLimit(s.redis, s.config.Env, 3, 10*time.Minute, "register"), s.Register)
	app.Get("/login", guest, s.LoginPage)
	app.Post("/login", guest, middleware.RateLimit(s.redis, s.config.Env, 10, 5*time.Minute, "login"), s.Login)
	app.Get("/logout", s.Logout)

	login := s.LoginRequired()
	app.Get("/account", login, s.AccountPage)
	app.Post("/account", login, s.UpdateAccount)

	// /post/new must be registered before /post/:id.
	app.Get("/post/new", login, s.NewPostPage)
	app.Post("/post/new", login, s.CreatePost)
	app.Get("/post/:id", s.ShowPost)
	app.Get("/post/:id/update", login, s.EditPostPage)
	app.Post("/post/:id/update", login, s.UpdatePost)
	app.Post("/post/:id/delete", login, s.DeletePost)

	app.Get("/user/:username", s.UserPosts)
	app.Get("/category/:name", s.CategoryPosts)

	app.Use(func(_ *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
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

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only backs logout revocation and rate limits, so its absence
	// does not make the blog unready.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		middleware.Logger.Error("error shutting down HTTP server", "error", err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

func isInfraPath(path string) bool {
	return path == "/metrics" || strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/health/")
}
