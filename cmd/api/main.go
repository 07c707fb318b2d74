// @title Tichmi Quiz API
// @version 1.0
// @description Generates topic quizzes with an LLM and persists them in an embedded store.
// @host localhost:8090
// @BasePath /api
// @schemes http
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"tichmi/internal/adapter"
	"tichmi/internal/adapter/quizgen"
	"tichmi/internal/cache"
	"tichmi/internal/config"
	"tichmi/internal/database"
	"tichmi/internal/domain"
	"tichmi/internal/handler"
	"tichmi/internal/logger"
	"tichmi/internal/middleware"
	"tichmi/internal/repository"
	"tichmi/internal/service"
	"tichmi/internal/validation"
	"time"

	_ "tichmi/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// requestLogger logs every HTTP request with its request id.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()
		requestID, _ := c.Locals(middleware.RequestIDKey).(string)

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("request_id", requestID),
			zap.String("ip", c.IP()),
		)

		return err
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Open the embedded store and bring the schema up. Schema failures are
	// logged inside EnsureSchema and never abort startup.
	db, err := database.NewSQLXSQLiteDB(cfg.DB.Path)
	if err != nil {
		appLogger.Fatal("Failed to open embedded database", zap.Error(err))
	}
	defer db.Close()
	database.EnsureSchema(context.Background(), db)
	appLogger.Info("Embedded database ready", zap.String("path", cfg.DB.Path))

	// Generation backend per configuration.
	var generator domain.QuizGenerator
	switch cfg.LLM.Provider {
	case "gemini":
		appLogger.Info("Initializing Gemini quiz generator", zap.String("model", cfg.LLM.Model))
		generator = quizgen.NewGeminiQuizGenerator(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout, appLogger)
		if cfg.LLM.APIKey == "" {
			// Not fatal: absence of the credential is reported per call.
			appLogger.Warn("GOOGLE_API_KEY is not set; quiz generation will fail until it is configured")
		}
	case "ollama":
		appLogger.Info("Initializing Ollama quiz generator",
			zap.String("server_url", cfg.LLM.OllamaServerURL),
			zap.String("model", cfg.LLM.Model))
		generator = quizgen.NewOllamaQuizGenerator(cfg.LLM.OllamaServerURL, cfg.LLM.Model, cfg.LLM.Timeout, appLogger)
	default:
		appLogger.Fatal("Unsupported LLM provider; check LLM_PROVIDER", zap.String("provider", cfg.LLM.Provider))
	}

	// Optional generation cache. A missing Redis just disables it.
	var cacheAdapter domain.Cache
	if redisClient, err := cache.NewRedisClient(cfg.Redis); err != nil {
		appLogger.Warn("Generation cache disabled", zap.Error(err))
	} else {
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		appLogger.Info("Generation cache enabled", zap.String("address", cfg.Redis.Address))
	}
	genCache := service.NewGenerationCacheService(cacheAdapter, cfg.LLM.CacheTTL)

	// Repositories and services.
	quizRepository := repository.NewQuizDatabaseAdapter(db)
	resultRepository := repository.NewQuizResultDatabaseAdapter(db)
	quizService := service.NewQuizService(quizRepository, resultRepository, generator, genCache)
	documentLoader := service.NewDocumentLoader()
	validator := validation.NewValidator()

	quizHandler := handler.NewQuizHandler(quizService, validator)
	documentHandler := handler.NewDocumentHandler(documentLoader)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
		BodyLimit:    50 * 1024 * 1024, // uploads are fully buffered, so allow large documents
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(middleware.RequestID())
	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
		MaxAge:       300,
	}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)

	apiGroup := app.Group("/api")
	apiGroup.Post("/documents", documentHandler.UploadDocument)
	apiGroup.Post("/quizzes/generate", quizHandler.GenerateQuiz)
	apiGroup.Post("/quizzes/generate/stream", quizHandler.GenerateQuizStream)
	apiGroup.Get("/quizzes", quizHandler.GetAllQuizzes)
	apiGroup.Get("/quizzes/:id", quizHandler.GetQuizByID)
	apiGroup.Delete("/quizzes/:id", quizHandler.DeleteQuiz)
	apiGroup.Post("/quizzes/:id/results", quizHandler.SaveQuizResult)
	apiGroup.Get("/quizzes/:id/results", quizHandler.GetQuizResults)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
