package api

import (
	"net/http"
	"time"

	"nutricoach/api/internal/nutrition"
	"nutricoach/api/internal/realtime"
	"nutricoach/api/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services bundles everything the HTTP layer depends on.
type Services struct {
	Auth      service.AuthService
	Profile   service.ProfileService
	Meal      service.MealService
	Nutrition service.DailyNutritionService
	Grocery   service.GroceryService
	Coach     service.CoachService
	Hub       *realtime.Hub
	Clock     *nutrition.Clock
}

func SetupRoutes(router *gin.Engine, corsOrigins []string, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	profileHandler := NewProfileHandler(svc.Profile)
	mealHandler := NewMealHandler(svc.Meal, svc.Clock)
	nutritionHandler := NewNutritionHandler(svc.Nutrition, svc.Clock)
	groceryHandler := NewGroceryHandler(svc.Grocery)
	aiHandler := NewAIHandler(svc.Coach)
	realtimeHandler := NewRealtimeHandler(svc.Hub, corsOrigins)

	authMiddleware := AuthMiddleware(svc.Auth)

	// cors.New panics on an empty origin list.
	if len(corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)
		protected.GET("/ws", realtimeHandler.Connect)

		profileGroup := protected.Group("/profile")
		{
			profileGroup.POST("", profileHandler.Upsert)
			profileGroup.GET("", profileHandler.Get)
			profileGroup.PATCH("", profileHandler.Update)
		}

		mealGroup := protected.Group("/meals")
		{
			mealGroup.POST("", mealHandler.Create)
			mealGroup.GET("", mealHandler.List)
			mealGroup.GET("/:id", mealHandler.Get)
			mealGroup.PATCH("/:id", mealHandler.Update)
			mealGroup.DELETE("/:id", mealHandler.Delete)

			// Photos are uploaded straight to object storage.
			mealGroup.POST("/:id/photo/upload-url", mealHandler.CreatePhotoUpload)
			mealGroup.POST("/:id/photo/confirm", mealHandler.ConfirmPhoto)
			mealGroup.GET("/:id/photo", mealHandler.PhotoURL)
		}

		nutritionGroup := protected.Group("/nutrition")
		{
			nutritionGroup.GET("/daily", nutritionHandler.Daily)
			nutritionGroup.GET("/weekly", nutritionHandler.Weekly)
			nutritionGroup.GET("/stats", nutritionHandler.Stats)
		}

		groceryGroup := protected.Group("/grocery")
		{
			groceryGroup.POST("", groceryHandler.Create)
			groceryGroup.GET("", groceryHandler.List)
			groceryGroup.GET("/stats", groceryHandler.Stats)
			groceryGroup.DELETE("/all", groceryHandler.DeleteAll)
			groceryGroup.GET("/:id", groceryHandler.Get)
			groceryGroup.PATCH("/:id", groceryHandler.Update)
			groceryGroup.DELETE("/:id", groceryHandler.Delete)
		}

		aiGroup := protected.Group("/ai")
		{
			aiGroup.POST("/chat", aiHandler.Chat)
			aiGroup.GET("/chat/history", aiHandler.History)
			aiGroup.POST("/suggest-meals", aiHandler.SuggestMeals)
			aiGroup.GET("/progress-analysis", aiHandler.ProgressAnalysis)
			aiGroup.POST("/generate-daily-plan", aiHandler.GenerateDailyPlan)
		}
	}
}
