package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"knowme/config"
	"knowme/handlers"
	"knowme/middleware"
	"knowme/models"
	"knowme/routes"
	"knowme/services"
	"knowme/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Quiz{},
		&models.Question{},
		&models.QuizAttempt{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize the optional quiz read cache
	cache := services.NewQuizCache(config.InitRedis(cfg))

	// Initialize media storage (optional; uploads 500 without it)
	var media storage.MediaStore
	if cfg.S3Endpoint != "" {
		s3, err := storage.NewS3Client(&storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			log.Fatal("Failed to connect to media storage:", err)
		}
		if err := s3.EnsureBucket(context.Background()); err != nil {
			log.Fatal("Failed to prepare media bucket:", err)
		}
		media = s3
	}

	// Initialize the dashboard hub
	hub := services.NewDashboardHub()
	go hub.Run()

	// Initialize services
	userService := services.NewUserService(db)
	quizService := services.NewQuizService(db, cache)
	attemptService := services.NewAttemptService(db, quizService, hub)

	// Start the retention sweeper with a cancellation handle tied to
	// process shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := services.NewSweeper(db, media, cache, cfg.SweepInitialDelay, cfg.SweepInterval)
	sweeper.Start(ctx)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	quizHandler := handlers.NewQuizHandler(quizService, attemptService)
	questionHandler := handlers.NewQuestionHandler(quizService, attemptService)
	attemptHandler := handlers.NewAttemptHandler(attemptService)
	uploadHandler := handlers.NewUploadHandler(media)

	// Setup Gin router
	router := gin.Default()
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, userHandler, quizHandler, questionHandler, attemptHandler, uploadHandler, hub, quizService)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
