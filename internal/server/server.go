// Package server assembles the Fiber application: middleware, routes, page handlers and error pages.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/repository"
	"inkwell/internal/service"
	"inkwell/internal/views"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const loginPath = "/auth/login/"

// sessionStore remembers logged-out session tokens until they expire.
type sessionStore interface {
	middleware.Revocations
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	metrics        *middleware.Metrics
	views          *views.Renderer
	tokens         *middleware.TokenManager
	sessions       sessionStore
	pages          cache.PageCache
	images         *media.Store
	feedService    *service.FeedService
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	userService    *service.UserService
}

// NewServer connects to the database and, when configured, Redis, then builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(context.Background(), cfg.RedisURL)
		if err != nil {
			// Pages and revocations fall back to process memory.
			middleware.Logger.Warn("redis unavailable, using in-memory cache", "error", err)
			redisClient = nil
		}
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redisClient selects the in-memory page cache and revocation list.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	renderer, err := views.New()
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	maxUploadMB := cfg.MaxUploadMB
	if maxUploadMB <= 0 {
		maxUploadMB = 5
	}
	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	if sessionTTL <= 0 {
		sessionTTL = 14 * 24 * time.Hour
	}

	server := &Server{
		config:  cfg,
		db:      db,
		redis:   redisClient,
		metrics: middleware.NewMetrics("inkwell"),
		views:   renderer,
		tokens:  middleware.NewTokenManager(cfg.JWTSecret, sessionTTL),
		images:  media.NewStore(cfg.MediaRoot, maxUploadMB),
	}
	if redisClient != nil {
		server.pages = cache.NewRedisPageCache(redisClient)
		server.sessions = cache.NewRedisRevocations(redisClient)
	} else {
		server.pages = cache.NewMemoryPageCache()
		server.sessions = cache.NewMemoryRevocations()
	}

	server.followService = service.NewFollowService(followRepo, userRepo)
	server.feedService = service.NewFeedService(postRepo, groupRepo, userRepo, server.followService)
	server.postService = service.NewPostService(postRepo, groupRepo, server.images)
	server.commentService = service.NewCommentService(commentRepo, postRepo)
	server.userService = service.NewUserService(userRepo)

	return server, nil
}

// NewApp builds the Fiber application with middleware, routes and the HTML error handler.
func (s *Server) NewApp() *fiber.App {
	maxUploadMB := s.config.MaxUploadMB
	if maxUploadMB <= 0 {
		maxUploadMB = 5
	}
	app := fiber.New(fiber.Config{
		AppName:      "Inkwell",
		BodyLimit:    (maxUploadMB + 1) * 1024 * 1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())
	app.Use(s.metrics.Handler())
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())
	app.Use(middleware.Session(s.tokens, s.sessions))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health/dashboard", monitor.New(monitor.Config{Title: "Inkwell Metrics Dashboard"}))
	app.Get("/metrics", s.metrics.Endpoint())
	app.Static("/media", s.images.Root())

	auth := app.Group("/auth")
	auth.Get("/signup/", s.SignupForm)
	auth.Post("/signup/", s.Signup)
	auth.Get("/login/", s.LoginForm)
	auth.Post("/login/", s.Login)
	auth.Get("/logout/", s.Logout)
	auth.Post("/logout/", s.Logout)

	about := app.Group("/about")
	about.Get("/author/", s.AboutAuthor)
	about.Get("/tech/", s.AboutTech)

	authed := middleware.LoginRequired(loginPath)

	app.Get("/", s.Index)
	app.Get("/group/:slug/", s.GroupPosts)
	app.Get("/follow/", authed, s.FollowIndex)

	// Define specific /profile/:username/:action routes BEFORE the generic profile route
	app.Get("/profile/:username/follow/", authed, s.ProfileFollow)
	app.Get("/profile/:username/unfollow/", authed, s.ProfileUnfollow)
	app.Get("/profile/:username/", s.Profile)

	app.Get("/create/", authed, s.CreatePostForm)
	app.Post("/create/", authed, s.CreatePost)
	app.Get("/posts/:id/edit/", authed, s.EditPostForm)
	app.Post("/posts/:id/edit/", authed, s.EditPost)
	app.Post("/posts/:id/comment/", authed, s.AddComment)
	app.Get("/posts/:id/", s.PostDetail)

	app.Use(func(c *fiber.Ctx) error {
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

// ReadinessCheck reports database and Redis health. Without Redis the server runs on
// the in-memory fallbacks, which does not make it unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
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

// ClearPageCache drops every cached page.
func (s *Server) ClearPageCache(ctx context.Context) error {
	return s.pages.Clear(ctx)
}

// Shutdown gracefully shuts down the server and its resources
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
	return nil
}
