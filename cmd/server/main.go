package main

import (
	"context"
	"log"
	"os"

	"licitaciones-backend/fetcher"
	"licitaciones-backend/handlers"
	"licitaciones-backend/service"
	"licitaciones-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func main() {
	// Load .env from the current directory first, then the project root
	// (relative to cmd/server/).
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	logger := initLogger()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Scratch storage for document fetch roundtrips
	scratch, err := storage.NewFromEnv()
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	logger.Info("Storage initialized")

	// Initialize Gemini client
	geminiClient, err := initGemini(logger)
	if err != nil {
		logger.Fatal("Failed to initialize Gemini", zap.Error(err))
	}

	// Initialize services
	analysisService := service.NewAnalysisService(
		service.WithFetcher(fetcher.New(scratch, fetcher.WithLogger(logger))),
		service.WithModelClient(service.NewGeminiClient(geminiClient, logger)),
		service.WithLogger(logger),
	)
	sessionService := service.NewSessionService(
		service.SessionWithAnalysisService(analysisService),
		service.SessionWithLogger(logger),
	)

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(sessionService)

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		api.GET("/questions", sessionHandler.ListQuestions)

		api.POST("/sessions", sessionHandler.CreateSession)
		api.GET("/sessions/:id", sessionHandler.GetSession)
		api.DELETE("/sessions/:id", sessionHandler.ResetSession)

		api.POST("/sessions/:id/documents", sessionHandler.UploadDocument)
		api.POST("/sessions/:id/urls", sessionHandler.AddURLs)

		api.POST("/sessions/:id/questions", sessionHandler.AskQuestion)
		api.POST("/sessions/:id/analyze", sessionHandler.Analyze)
		api.GET("/sessions/:id/summary", sessionHandler.GetSummary)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("Server starting", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func initLogger() *zap.Logger {
	var cfg zap.Config
	if os.Getenv("LOG_FORMAT") == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	return logger
}

func initGemini(logger *zap.Logger) (*genai.Client, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		logger.Warn("GOOGLE_GEMINI_API_KEY not set")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	logger.Info("Gemini client initialized")
	return client, nil
}
