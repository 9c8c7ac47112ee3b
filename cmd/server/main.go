package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutricoach/api/internal/api"
	"nutricoach/api/internal/config"
	"nutricoach/api/internal/llm"
	"nutricoach/api/internal/lock"
	"nutricoach/api/internal/nutrition"
	"nutricoach/api/internal/realtime"
	"nutricoach/api/internal/repository"
	"nutricoach/api/internal/repository/memory"
	"nutricoach/api/internal/repository/mongo"
	"nutricoach/api/internal/service"
	"nutricoach/api/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type repositories struct {
	users     repository.UserRepository
	profiles  repository.ProfileRepository
	meals     repository.MealRepository
	daily     repository.DailyNutritionRepository
	groceries repository.GroceryRepository
	chat      repository.ChatRepository
}

// openRepositories connects the configured storage backend. The returned
// func releases it.
func openRepositories(cfg config.DatabaseConfig) (*repositories, func(), error) {
	if cfg.Driver == "memory" {
		log.Println("WARN: Using in-memory storage, data is lost on restart.")
		store := memory.NewStore()
		return &repositories{
			users:     store.Users(),
			profiles:  store.Profiles(),
			meals:     store.Meals(),
			daily:     store.DailyNutrition(),
			groceries: store.Groceries(),
			chat:      store.Chat(),
		}, func() {}, nil
	}

	dbClient, err := mongo.ConnectDB(cfg.URI)
	if err != nil {
		return nil, nil, err
	}
	appDB := dbClient.Database(cfg.Name)
	log.Println("Database connection established.")

	go func() { // Run index creation in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, appDB)
		log.Println("Index creation process completed.")
	}()

	closeDB := func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}
	return &repositories{
		users:     mongo.NewMongoUserRepository(appDB),
		profiles:  mongo.NewMongoProfileRepository(appDB),
		meals:     mongo.NewMongoMealRepository(appDB),
		daily:     mongo.NewMongoDailyNutritionRepository(appDB),
		groceries: mongo.NewMongoGroceryRepository(appDB),
		chat:      mongo.NewMongoChatRepository(appDB),
	}, closeDB, nil
}

// newLocker shares the reconcile lock through Redis when an address is
// configured, so several API replicas serialize on the same keys.
func newLocker(ctx context.Context, cfg config.Config) (lock.Locker, func()) {
	if cfg.Redis.Address == "" {
		return lock.NewLocalLocker(), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("FATAL: Could not connect to Redis at %s: %v", cfg.Redis.Address, err)
	}
	log.Printf("Using Redis lock at %s.", cfg.Redis.Address)
	return lock.NewRedisLocker(client, cfg.Nutrition.LockTTL), func() { _ = client.Close() }
}

func main() {
	log.Println("Starting Nutrition Coach API...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	loc, _ := cfg.Nutrition.Location() // validated by LoadConfig
	clock := nutrition.NewClock(loc)
	log.Printf("Configuration loaded. Days are cut in %s.", loc)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// --- Storage ---
	repos, closeRepos, err := openRepositories(cfg.Database)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer closeRepos()

	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		fileStorage, err = storage.NewS3Storage(startupCtx, cfg.S3)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Println("WARN: s3.bucket_name is empty, meal photos are disabled.")
	}

	locker, closeLocker := newLocker(startupCtx, cfg)
	defer closeLocker()

	if cfg.Gemini.APIKey == "" {
		log.Println("WARN: gemini.api_key is empty, AI endpoints will fail.")
	}
	generator := llm.NewGeminiClient(cfg.Gemini)
	hub := realtime.NewHub()

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(repos.users, cfg.JWT.Secret, cfg.JWT.Expiration)
	profileService := service.NewProfileService(repos.profiles)
	dailyService := service.NewDailyNutritionService(repos.meals, repos.daily, repos.profiles, locker, clock, hub)
	mealService := service.NewMealService(repos.meals, dailyService, fileStorage, clock)
	groceryService := service.NewGroceryService(repos.groceries)
	coachService := service.NewCoachService(repos.profiles, repos.meals, repos.daily, repos.groceries, repos.chat, generator, clock)

	// --- Initialize Gin Engine ---
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default() // Includes Logger and Recovery middleware

	api.SetupRoutes(router, cfg.Server.CORSOrigins, api.Services{
		Auth:      authService,
		Profile:   profileService,
		Meal:      mealService,
		Nutrition: dailyService,
		Grocery:   groceryService,
		Coach:     coachService,
		Hub:       hub,
		Clock:     clock,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// AI endpoints wait on the model.
		WriteTimeout: cfg.Gemini.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
