// @title Quiz Corpus API
// @version 1.0
// @description Interview-quiz corpus search, LLM quiz generation and grading.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey AdminToken
// @in header
// @name X-Admin-Token
// @description Shared admin token for corpus maintenance routes.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quiz-corpus/internal/adapter"
	"quiz-corpus/internal/adapter/llm"
	"quiz-corpus/internal/cache"
	"quiz-corpus/internal/config"
	"quiz-corpus/internal/database"
	"quiz-corpus/internal/domain"
	"quiz-corpus/internal/handler"
	"quiz-corpus/internal/ingestion"
	"quiz-corpus/internal/logger"
	"quiz-corpus/internal/middleware"
	"quiz-corpus/internal/repository"
	"quiz-corpus/internal/service"
	"quiz-corpus/internal/tagging"
	"quiz-corpus/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx := context.Background()

	// Connect to database
	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	corpusRepository := repository.NewCorpusDatabaseAdapter(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Redis is optional; without it searches are not cached
	var cacheAdapter domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Warn("Redis unavailable, search cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
			appLogger.Info("RedisCacheAdapter initialized")
		}
	}

	// LLM collaborator
	model, err := llm.NewModel(cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	chatClient := llm.NewLangChainClient(model, cfg.LLM)
	appLogger.Info("LLM client initialized", zap.String("provider", cfg.LLM.Provider), zap.String("model", cfg.LLM.Model))

	classifier, err := tagging.Load(cfg.Tagging.DictionaryPath)
	if err != nil {
		appLogger.Fatal("Failed to load tag dictionary", zap.Error(err))
	}

	// Initialize services
	searchService := service.NewSearchService(corpusRepository, cacheAdapter, cfg)
	generatorService := service.NewQuizGeneratorService(searchService, chatClient, cfg)
	graderService := service.NewQuizGraderService(chatClient)
	ingestionService := service.NewCorpusIngestionService(
		corpusRepository,
		txManager,
		cacheAdapter,
		ingestion.NewSectionListParser(classifier, appLogger),
		ingestion.NewTableBlockParser(classifier, appLogger),
		cfg.Ingestion,
	)

	if cfg.Ingestion.RunOnStartup {
		report, err := ingestionService.Bootstrap(ctx, service.BootstrapOptions{})
		if err != nil {
			appLogger.Error("Startup corpus bootstrap failed", zap.Error(err))
		} else {
			appLogger.Info("Startup corpus bootstrap finished",
				zap.Bool("written", report.Written),
				zap.Int("companies", report.Companies),
				zap.Int("quizzes", report.Quizzes),
			)
		}
	}

	// Initialize handlers
	validator := validation.NewValidator()
	healthChecks := map[string]handler.HealthCheck{"db": db.PingContext}
	if cacheAdapter != nil {
		healthChecks["redis"] = cacheAdapter.Ping
	}
	routes := handler.Routes{
		Quiz:       handler.NewQuizHandler(searchService, generatorService, graderService, validator),
		Admin:      handler.NewAdminHandler(ingestionService),
		Health:     handler.NewHealthHandler(healthChecks),
		Validation: middleware.NewValidationMiddleware(validator),
		AdminToken: cfg.Admin.Token,
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,X-Admin-Token,X-Request-ID", MaxAge: 300}))
	routes.Register(app)

	// Start server
	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
