// @title           Sora Studio Backend API
// @version         1.0.0
// @description     Backend API for Sora Studio. Submits text prompts to the OpenAI video generation API, tracks asynchronous generation jobs, materializes finished videos into Supabase Storage, and serves a filterable gallery with per-user spend tracking.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"sora-studio-backend/docs"
	"sora-studio-backend/internal/config"
	"sora-studio-backend/internal/database"
	"sora-studio-backend/internal/handlers"
	"sora-studio-backend/internal/middleware"
	"sora-studio-backend/internal/openai"
	"sora-studio-backend/internal/services"
	"sora-studio-backend/internal/supabase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required: set it to your Supabase PostgreSQL connection string")
	}

	openaiClient := openai.NewClient(cfg.OpenAIAPIBaseURL, cfg.OpenAIAPIKey)

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database client: %v", err)
	}
	defer dbClient.Close()

	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(); err != nil {
		migrator.Close()
		log.Fatalf("Migration failed: %v", err)
	}
	migrator.Close()
	log.Println("Migrations completed successfully")

	// Poller reconciles outstanding jobs; it is woken on submission and
	// stops itself once the outstanding set drains.
	poller := services.NewPoller(openaiClient, dbClient, storageClient, realtimeClient, cfg.PollInterval, cfg.PollMaxAttempts)
	defer poller.Stop()
	poller.Wake()

	videoService := services.NewVideoService(openaiClient, dbClient, storageClient, realtimeClient, poller)

	videosHandler := handlers.NewVideosHandler(videoService, dbClient, storageClient)
	contentHandler := handlers.NewContentHandler(openaiClient, dbClient, storageClient)
	enhanceHandler := handlers.NewEnhanceHandler(openaiClient)
	usageHandler := handlers.NewUsageHandler(dbClient)

	router := gin.Default()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	api.POST("/videos", videosHandler.Generate)
	api.GET("/videos", videosHandler.List)
	api.GET("/videos/:video_id", videosHandler.Get)
	api.DELETE("/videos/:video_id", videosHandler.Delete)
	api.POST("/videos/:video_id/retry", videosHandler.Retry)
	api.POST("/videos/:video_id/upgrade", videosHandler.Upgrade)
	api.GET("/videos/:video_id/url", videosHandler.SignedURL)
	api.GET("/videos/:video_id/content", contentHandler.Content)

	api.POST("/enhance", enhanceHandler.Enhance)

	api.GET("/usage/stats", usageHandler.Stats)
	api.GET("/usage/logs", usageHandler.Logs)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")
	poller.Stop()
	srv.Close()
}
