// Package server contains the HTTP handlers for the Bizzy API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "bizzy/docs" // swagger docs
	"bizzy/internal/bootstrap"
	"bizzy/internal/config"
	"bizzy/internal/database"
	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/places"
	"bizzy/internal/repository"
	"bizzy/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	places         *places.Client

	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	placeRepo  repository.SavedPlaceRepository
	reviewRepo repository.ReviewRepository

	authService           *service.AuthService
	googleOAuth           *service.GoogleOAuth
	userService           *service.UserService
	followService         *service.FollowService
	placeService          *service.PlaceService
	reviewService         *service.ReviewService
	recommendationService *service.RecommendationService
	profileService        *service.ProfileService
}

// NewServer initializes the runtime and builds the server. Development
// databases with no users get demo data.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{
		ApplySchema: true,
		SeedDemo:    cfg.Env == "development",
	})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with SQLite and miniredis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("bizzy-api"),
		userRepo:       repository.NewUserRepository(db),
		followRepo:     repository.NewFollowRepository(db),
		placeRepo:      repository.NewSavedPlaceRepository(db),
		reviewRepo:     repository.NewReviewRepository(db),
	}

	s.places = places.New(places.Config{
		APIKey:        cfg.GoogleMapsAPIKey,
		BaseURL:       cfg.PlacesBaseURL,
		RatePerSecond: cfg.PlacesRatePerSecond,
		Burst:         cfg.PlacesBurst,
		Timeout:       cfg.PlacesTimeout(),
	})

	s.authService = service.NewAuthService(
		s.userRepo,
		repository.NewAccountRepository(db),
		repository.NewSessionRepository(db),
		service.AuthConfig{JWTSecret: cfg.JWTSecret, SessionTTL: cfg.SessionTTL()},
	)
	s.googleOAuth = service.NewGoogleOAuth(s.authService, service.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.PublicBaseURL + "/api/auth/google/callback",
	})
	s.userService = service.NewUserService(s.userRepo)
	s.followService = service.NewFollowService(s.followRepo, s.userRepo)
	s.placeService = service.NewPlaceService(s.placeRepo)
	s.reviewService = service.NewReviewService(s.reviewRepo, s.places)
	s.recommendationService = service.NewRecommendationService(s.userRepo, s.placeRepo, s.places)
	s.profileService = service.NewProfileService(s.userRepo, s.followRepo)

	return s, nil
}

// App builds the Fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "Bizzy API",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		BodyLimit:    8 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler keeps the JSON error shape for errors that escape handlers,
// including recovered panics.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Propagates request, trace and user IDs into the request context.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so 429s still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
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
	api := app.Group("/api")
	authed := s.AuthRequired()
	optional := s.OptionalSession()

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Bizzy Backend Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.Logout)
	auth.Get("/session", s.GetSession)
	auth.Get("/google", s.GoogleLogin)
	auth.Get("/google/callback", s.GoogleCallback)

	// Specific /users routes before the /:userId ones.
	users := api.Group("/users")
	users.Get("/search", authed, middleware.RateLimit(s.redis, 30, time.Minute, "user_search"), s.SearchUsers)
	users.Get("/suggestions", authed, s.GetSuggestions)
	users.Get("/by-username/:username", s.GetUserByUsername)
	users.Post("/:userId/follow", authed, s.FollowUser)
	users.Delete("/:userId/follow", authed, s.UnfollowUser)
	users.Get("/:userId/follow-status", authed, s.GetFollowStatus)
	users.Get("/:userId/followers", authed, s.GetFollowers)
	users.Get("/:userId/following", authed, s.GetFollowing)

	placesGroup := api.Group("/places")
	placesGroup.Get("/", s.NearbyPlaces)
	placesGroup.Post("/", authed, s.SavePlace)
	placesGroup.Get("/check", authed, s.CheckSavedPlace)
	placesGroup.Get("/recommendations", authed, s.GetRecommendations)
	placesGroup.Get("/:placeId/review", authed, s.GetMyReview)
	placesGroup.Post("/:placeId/review", authed, s.SaveReview)
	placesGroup.Delete("/:placeId/review", authed, s.DeleteReview)
	placesGroup.Get("/:placeId/reviews", optional, s.GetPlaceReviews)
	placesGroup.Delete("/:id", authed, s.DeleteSavedPlace)
	api.Get("/place-details", s.PlaceDetails)
	api.Get("/place-photo", s.PlacePhoto)

	reviews := api.Group("/reviews")
	reviews.Get("/user", authed, s.GetMyReviews)
	reviews.Get("/:reviewId/like", authed, s.GetReviewLike)
	reviews.Post("/:reviewId/like", authed, s.LikeReview)
	reviews.Delete("/:reviewId/like", authed, s.UnlikeReview)
	reviews.Get("/:reviewId", optional, s.GetReview)

	profile := api.Group("/profile")
	profile.Get("/check-username", s.CheckUsername)
	profile.Post("/update-name", authed, s.UpdateName)
	profile.Post("/update-username", authed, s.UpdateUsername)
	profile.Post("/update-avatar", authed, s.UpdateAvatar)
	profile.Get("/:userId/places", s.GetProfilePlaces)
	profile.Post("/:userId/follow", authed, s.ProfileFollow)
	profile.Delete("/:userId/follow", authed, s.ProfileUnfollow)
	profile.Get("/:userId", optional, s.GetProfile)

	onboarding := api.Group("/onboarding")
	onboarding.Get("/interests", s.GetInterestCatalog)
	onboarding.Post("/", authed, s.CompleteOnboarding)
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
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
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
	if dbStatus != "healthy" || redisStatus != "healthy" {
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

// AuthRequired rejects requests without a valid session and stores the
// caller's ID in the "userID" local.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := middleware.SessionToken(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("Unauthorized"))
		}
		session, err := s.authService.Validate(c.UserContext(), token)
		if err != nil {
			if models.ErrorCode(err) == models.CodeUnauthorized {
				return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("Unauthorized"))
			}
			return s.respondInternal(c, err, "Failed to validate session", "SESSION_VALIDATE_ERROR")
		}
		setSessionLocals(c, session)
		return c.Next()
	}
}

// OptionalSession resolves the caller when a valid session is present and
// lets anonymous requests through.
func (s *Server) OptionalSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := middleware.SessionToken(c)
		if token == "" {
			return c.Next()
		}
		if session, err := s.authService.Validate(c.UserContext(), token); err == nil {
			setSessionLocals(c, session)
		}
		return c.Next()
	}
}

func setSessionLocals(c *fiber.Ctx, session *models.Session) {
	c.Locals("userID", session.UserID)
	c.Locals("session", session)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), session.UserID))
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
