// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"time"

	_ "mutualaid/docs" // swagger docs
	"mutualaid/internal/auth"
	"mutualaid/internal/authz"
	"mutualaid/internal/bootstrap"
	"mutualaid/internal/cache"
	"mutualaid/internal/config"
	"mutualaid/internal/middleware"
	"mutualaid/internal/models"
	"mutualaid/internal/notifications"
	"mutualaid/internal/repository"
	"mutualaid/internal/service"
	"mutualaid/internal/storage"
	"mutualaid/internal/validation"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	limiter  *middleware.RateLimiter
	storage  *storage.LocalStorage
	notifier *notifications.Notifier
	hub      *notifications.Hub

	authService         *service.AuthService
	registrationService *service.RegistrationService
	userService         *service.UserService
	postService         *service.PostService
	engagementService   *service.EngagementService
	catalogService      *service.CatalogService
	messageService      *service.MessageService
	followService       *service.FollowService
	collectionService   *service.CollectionService
	mediaService        *service.MediaService
}

// NewServer connects to the database and Redis described by cfg.
func NewServer(cfg *config.Config) (*Server, error) {
	// Redis is optional; a nil client disables caching, rate limits and realtime fan-out.
	db, redisClient, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{Seed: cfg.SeedOnStartup})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if db == nil {
		return nil, errors.New("database is required")
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	followRepo := repository.NewFollowRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	mediaRepo := repository.NewMediaRepository(db)

	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hasher := auth.NewBcryptHasher(cost)
	tokens := auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTIssuer)
	engine := authz.NewEngine(authz.WithObserver(middleware.RecordAuthzDecision))
	responseCache := cache.New(redisClient)
	store := storage.NewLocalStorage(cfg)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("mutualaid-api"),
		storage:        store,
		notifier:       notifications.NewNotifier(redisClient),
	}

	// A typed nil client would defeat the limiter's disabled check.
	var limiterStore redis.Cmdable
	if redisClient != nil {
		limiterStore = redisClient
		s.hub = notifications.NewHub()
	}
	s.limiter = middleware.NewRateLimiter(limiterStore, cfg.Env)

	s.authService = service.NewAuthService(userRepo, hasher, tokens, responseCache, cfg)
	s.registrationService = service.NewRegistrationService(userRepo, hasher, tokens, cfg)
	s.userService = service.NewUserService(
		userRepo, postRepo, locationRepo, mediaRepo, store, hasher,
		validation.CredentialPolicy{Strict: cfg.StrictPasswords},
		responseCache, engine,
	)
	s.postService = service.NewPostService(postRepo, categoryRepo, locationRepo, mediaRepo, store, engine)
	s.engagementService = service.NewEngagementService(engagementRepo, engine)
	s.catalogService = service.NewCatalogService(categoryRepo, locationRepo, responseCache, engine)
	s.messageService = service.NewMessageService(messageRepo, userRepo, s.notifier, engine)
	s.followService = service.NewFollowService(followRepo, userRepo, s.notifier, engine)
	s.collectionService = service.NewCollectionService(collectionRepo, engine)
	s.mediaService = service.NewMediaService(mediaRepo, postRepo, store, engine)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
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
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	if s.authService != nil {
		app.Use(middleware.Identify(s.authService))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	if s.storage != nil {
		app.Static(storage.PublicPrefix, s.storage.Dir(), fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Mutual Aid Backend Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Registration and session
	api.Post("/register-step1", s.limiter.Limit(10, time.Hour, "register"), s.RegisterStep1)
	api.Post("/register-step2", s.limiter.Limit(20, time.Hour, "register_complete"), s.RegisterStep2)
	api.Post("/login", s.limiter.Limit(10, time.Minute, "login"), s.Login)
	api.Get("/validate-token", s.ValidateToken)

	// Users
	api.Get("/users", s.ListUsers)
	api.Get("/users/:id", s.GetUser)
	api.Get("/users/:id/posts", s.GetUserPosts)
	api.Put("/users/:id", s.UpdateUser)
	api.Delete("/users/:id", s.DeleteUser)
	api.Post("/users/:id/promote-admin", s.PromoteAdmin)
	api.Post("/users/:id/demote-admin", s.DemoteAdmin)

	// Posts and callouts
	api.Get("/posts", s.ListPosts)
	api.Get("/posts/:id", s.GetPost)
	api.Post("/posts", s.limiter.Limit(30, time.Hour, "create_post"), s.CreatePost)
	api.Put("/posts/:id", s.UpdatePost)
	api.Delete("/posts/:id", s.DeletePost)

	// Engagement
	api.Post("/posts/:id/like", s.LikePost)
	api.Delete("/posts/:id/like", s.UnlikePost)
	api.Post("/posts/:id/favorite", s.FavoritePost)
	api.Delete("/posts/:id/favorite", s.UnfavoritePost)
	api.Get("/favorites", s.ListFavorites)
	api.Get("/posts/:id/comments", s.ListComments)
	api.Post("/posts/:id/comments", s.limiter.Limit(30, time.Minute, "comment"), s.AddComment)
	api.Put("/comments/:id", s.EditComment)
	api.Delete("/comments/:id", s.DeleteComment)

	// Catalog
	api.Get("/categories", s.ListCategories)
	api.Get("/categories/:id", s.GetCategory)
	api.Post("/categories", s.CreateCategory)
	api.Put("/categories/:id", s.UpdateCategory)
	api.Delete("/categories/:id", s.DeleteCategory)
	api.Get("/locations", s.ListLocations)
	api.Get("/locations/:id", s.GetLocation)
	api.Post("/locations", s.CreateLocation)
	api.Put("/locations/:id", s.UpdateLocation)
	api.Delete("/locations/:id", s.DeleteLocation)
	api.Get("/countries", s.ListCountries)

	// Messages
	api.Get("/messages", s.ListMessages)
	api.Post("/messages", s.limiter.Limit(60, time.Minute, "message"), s.SendMessage)
	api.Get("/messages/:id", s.GetMessage)
	api.Delete("/messages/:id", s.DeleteMessage)

	// Follows
	api.Get("/following", s.ListFollowing)
	api.Get("/followers", s.ListFollowers)
	api.Post("/follow/:id", s.Follow)
	api.Delete("/follow/:id", s.Unfollow)

	// Collections
	api.Get("/collections", s.ListCollections)
	api.Post("/collections", s.CreateCollection)
	api.Get("/collections/:id", s.GetCollection)
	api.Put("/collections/:id", s.UpdateCollection)
	api.Delete("/collections/:id", s.DeleteCollection)
	api.Post("/collections/:id/add", s.AddToCollection)
	api.Delete("/collections/:id/remove", s.RemoveFromCollection)

	// Images and media
	api.Get("/images", s.ListImages)
	api.Get("/posts/:id/images", s.ListPostImages)
	api.Post("/posts/:id/images", s.AddImage)
	api.Delete("/images/:id", s.DeleteImage)
	api.Get("/media", s.ListMedia)
	api.Get("/posts/:id/media", s.ListPostMedia)
	api.Post("/posts/:id/media", s.AddMedia)
	api.Delete("/media/:id", s.DeleteMedia)

	// Realtime notifications
	api.Get("/ws", s.WebSocketUpgrade(), s.WebSocketHandler())
}

// errorHandler renders errors that escape handlers. Fiber errors keep their
// status; everything else is mapped through the error taxonomy.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error",
			"path", c.Path(), "error", err)
	}
	return models.RespondWithError(c, status, err)
}

// NewApp returns a fully configured Fiber app without listening.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Mutual Aid API",
		ErrorHandler: errorHandler,
		BodyLimit:    s.bodyLimit(),
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) bodyLimit() int {
	mb := s.config.ImageMaxUploadSizeMB
	if mb <= 0 {
		mb = 10
	}
	// Headroom for multipart framing around the image.
	return (mb + 1) * 1024 * 1024
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start notification wiring", "error", err)
			}
		}()
	}

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down notification hub", "error", err)
		}
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
