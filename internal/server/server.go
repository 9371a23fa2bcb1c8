package server

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/ironlog/internal/config"
	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/mansoorceksport/ironlog/internal/handler"
	"github.com/mansoorceksport/ironlog/internal/middleware"
	"github.com/mansoorceksport/ironlog/internal/repository"
	"github.com/mansoorceksport/ironlog/internal/service"
	"github.com/mansoorceksport/ironlog/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	Store       *domain.Store
	RedisClient *redis.Client       // optional: disables caches, leaderboards in Redis and idempotency
	Telemetry   *telemetry.Provider // optional: falls back to the global tracer, no counters
	Now         func() time.Time    // optional, defaults to time.Now
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	store := *deps.Store

	var cache domain.CacheRepository
	if deps.RedisClient != nil {
		redisRepo := repository.NewRedisCacheRepository(deps.RedisClient)
		cache = redisRepo
		store.Exercises = repository.NewCachedExerciseRepository(store.Exercises, redisRepo)
	}

	var metrics *telemetry.Metrics
	if deps.Telemetry != nil {
		metrics = deps.Telemetry.Metrics
	}

	// Initialize services
	evaluator := service.NewProgressEvaluator(&store, deps.Now)
	sessionService := service.NewSessionService(&store, evaluator, cache, metrics, deps.Now)
	setService := service.NewSetService(&store, evaluator, cache, metrics, deps.Now)
	challengeService := service.NewChallengeService(&store, evaluator, metrics, deps.Now)
	catalogService := service.NewCatalogService(&store, deps.Now)
	statsService := service.NewStatsService(&store, cache, deps.Config.Cache.StatsTTL, deps.Now)

	// Initialize handlers
	workoutHandler := handler.NewWorkoutHandler(sessionService, setService)
	progressHandler := handler.NewProgressHandler(statsService, challengeService)
	adminHandler := handler.NewAdminHandler(catalogService)

	app := fiber.New(fiber.Config{
		AppName:      "Ironlog API",
		BodyLimit:    int(deps.Config.Server.MaxBodySizeKB * 1024),
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(deps.Telemetry.FiberMiddleware())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "ironlog",
		})
	})

	v1 := app.Group("/v1")
	v1.Use(middleware.VerifyToken(deps.Config.JWT.Secret))
	if deps.RedisClient != nil {
		v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Config.Cache.IdempotencyTTL))
	}

	// ===========================================
	// MEMBER API - /v1/me/*
	// ===========================================
	me := v1.Group("/me")

	sessions := me.Group("/sessions")
	sessions.Post("/", workoutHandler.StartSession)
	sessions.Get("/active", workoutHandler.GetActiveSession)
	sessions.Post("/:id/complete", workoutHandler.CompleteSession)
	sessions.Delete("/:id", workoutHandler.DiscardSession)
	sessions.Post("/:id/sets", workoutHandler.LogSet)

	me.Delete("/sets/:id", workoutHandler.DeleteSet)

	me.Get("/stats", progressHandler.GetStats)
	me.Get("/progress", progressHandler.GetProgress)
	me.Get("/achievements", progressHandler.ListAchievements)
	me.Post("/challenges/:id/join", progressHandler.JoinChallenge)

	// ===========================================
	// SHARED READERS
	// ===========================================
	v1.Get("/challenges/:id/standings", progressHandler.GetChallengeStandings)
	v1.Get("/leaderboards/:metric", progressHandler.GetLeaderboard)

	// ===========================================
	// ADMIN API - /v1/admin/* (requires 'admin' role)
	// ===========================================
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthorizeRole(domain.RoleAdmin))
	admin.Post("/exercises", adminHandler.CreateExercise)
	admin.Post("/plan-days", adminHandler.CreatePlanDay)
	admin.Post("/achievements", adminHandler.CreateAchievement)
	admin.Post("/challenges", adminHandler.CreateChallenge)

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
