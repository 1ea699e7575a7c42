package main

import (
	"log"
	"net/http"
	"time"

	"shelfwise-backend/inventory-service/handlers"
	"shelfwise-backend/inventory-service/middleware"
	"shelfwise-backend/inventory-service/services"
	"shelfwise-backend/shared/config"
	"shelfwise-backend/shared/database"
	"shelfwise-backend/shared/utils/cache"

	_ "shelfwise-backend/docs/swagger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title ShelfWise API
// @version 1.0
// @description API documentation for the ShelfWise home inventory backend

// @contact.name API Support
// @contact.email support@shelfwise.app

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @tag.name auth
// @tag.description Authentication and account operations

// @tag.name workspaces
// @tag.description Workspace and membership management

// @tag.name locations
// @tag.description Hierarchical storage locations

// @tag.name boxes
// @tag.description Inventory boxes

// @tag.name qrcodes
// @tag.description QR code generation, printing and scanning

// @tag.name export
// @tag.description Inventory export

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.GetConfig()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	// Redis is optional; handlers fall back to database lookups
	if err := cache.InitCacheManager(); err != nil {
		log.Printf("⚠️ Redis unavailable, continuing without cache: %v", err)
	}

	// Object storage is optional; label printing answers 503 without it
	labelService, err := services.NewLabelService()
	if err != nil {
		log.Printf("⚠️ MinIO unavailable, label printing disabled: %v", err)
		labelService = nil
	}

	wsManager := services.GetWebSocketManager()
	deletionService := services.NewAccountDeletionService(database.DB, wsManager)

	authHandler := handlers.NewAuthHandler(database.DB, deletionService)
	qrHandler := handlers.NewQRCodeHandler(labelService)

	// Global rate limiter
	rateLimiter := middleware.NewRateLimiter(5 * time.Minute)
	rateConfig := middleware.DefaultRateLimitConfig()

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.Use(rateLimiter.RateLimitMiddleware(rateConfig))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "inventory",
		})
	})

	// Auth routes (register/login/refresh need no token)
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)
	router.POST("/api/auth/refresh", authHandler.Refresh)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// Account routes
		api.POST("/auth/logout", authHandler.Logout)
		api.GET("/auth/me", authHandler.Me)
		api.PATCH("/auth/profile", authHandler.UpdateProfile)
		api.DELETE("/auth/delete-account", authHandler.DeleteAccount)

		// Workspace routes
		api.GET("/workspaces", handlers.GetWorkspaces)
		api.GET("/workspaces/:id", handlers.GetWorkspace)
		api.POST("/workspaces", handlers.CreateWorkspace)
		api.PATCH("/workspaces/:id", handlers.UpdateWorkspace)
		api.DELETE("/workspaces/:id", handlers.DeleteWorkspace)
		api.GET("/workspaces/:id/members", handlers.GetWorkspaceMembers)
		api.POST("/workspaces/:id/members", handlers.AddWorkspaceMember)
		api.DELETE("/workspaces/:id/members/:user_id", handlers.RemoveWorkspaceMember)

		// Location routes
		api.GET("/locations", handlers.GetLocations)
		api.GET("/locations/:id", handlers.GetLocation)
		api.POST("/locations", handlers.CreateLocation)
		api.PATCH("/locations/:id", handlers.UpdateLocation)
		api.DELETE("/locations/:id", handlers.DeleteLocation)

		// Box routes
		api.GET("/boxes", handlers.GetBoxes)
		api.GET("/boxes/:id", handlers.GetBox)
		api.POST("/boxes", handlers.CreateBox)
		api.PATCH("/boxes/:id", handlers.UpdateBox)
		api.DELETE("/boxes/:id", handlers.DeleteBox)
		api.POST("/boxes/:id/qr", handlers.AssignQRToBox)
		api.DELETE("/boxes/:id/qr", handlers.UnassignQRFromBox)

		// QR code routes
		api.GET("/qr-codes", qrHandler.GetQRCodes)
		api.POST("/qr-codes/batch", qrHandler.CreateQRCodeBatch)
		api.POST("/qr-codes/labels", qrHandler.GenerateLabels)
		api.DELETE("/qr-codes/:id", qrHandler.DeleteQRCode)
		api.GET("/scan/:short_id", qrHandler.ScanQRCode)

		// Export routes
		api.GET("/export/inventory", handlers.ExportInventory)
	}

	// WebSocket endpoint for live inventory events
	router.GET("/ws/inventory/:user_id", wsManager.HandleWebSocketConnection)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	log.Printf("Inventory Service starting on port %s...", cfg.ServerPort)
	router.Run(":" + cfg.ServerPort)
}
