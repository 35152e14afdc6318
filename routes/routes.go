package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fuelflow-api/config"
	"fuelflow-api/controllers"
	"fuelflow-api/middleware"
	"fuelflow-api/services"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	// Services
	custodyService := services.NewCustodyService(db)
	spendingService := services.NewSpendingService(db)
	emailService := services.NewEmailService(cfg)
	exceptionService := services.NewExceptionService(db, emailService)
	ledgerClient := services.NewLedgerClient(cfg.LedgerURL)
	pinClient := services.NewPINClient(cfg.PINServiceURL)
	flowService := services.NewPurchaseFlowService(db, custodyService, spendingService,
		ledgerClient, pinClient, exceptionService, cfg.JWTSecret, cfg.HandoffTokenTTL)

	// Controllers
	authController := controllers.NewAuthController(db, cfg.JWTSecret)
	custodyController := controllers.NewCustodyController(db)
	garageController := controllers.NewGarageController(db)
	vehicleController := controllers.NewVehicleController(db, custodyService)
	purchaseController := controllers.NewPurchaseController(flowService)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// API version 1
	v1 := r.Group("/api/v1")

	// Auth routes (public, rate limited)
	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimit(30, 10))
	{
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
	}

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		protected.GET("/profile", authController.GetProfile)

		// Custody routes
		custody := protected.Group("/custody")
		{
			custody.GET("/current", custodyController.GetCurrent)
			custody.POST("/draw", custodyController.Draw)
			custody.POST("/return", custodyController.Return)
		}

		// Vehicle routes
		vehicles := protected.Group("/vehicles")
		{
			vehicles.GET("/", vehicleController.ListVehicles)
			vehicles.GET("/drawn", vehicleController.GetDrawnVehicle)
		}

		// Garage directory
		protected.GET("/garages", garageController.ListGarages)

		// Purchase flow routes
		purchases := protected.Group("/purchases")
		{
			purchases.POST("/", purchaseController.Start)
			purchases.GET("/current", purchaseController.GetCurrent)
			purchases.PUT("/current/location", purchaseController.AttachLocation)
			purchases.POST("/current/garage", purchaseController.SelectGarage)
			purchases.POST("/current/confirm-location", purchaseController.ConfirmLocation)
			purchases.POST("/current/scan", purchaseController.Scan)
			purchases.POST("/current/spending-check", purchaseController.SpendingCheck)
			purchases.POST("/current/acknowledge", purchaseController.Acknowledge)
			purchases.PUT("/current/details", purchaseController.SetDetails)
			purchases.POST("/current/submit", purchaseController.Submit)
			purchases.POST("/current/pin", purchaseController.VerifyPIN)
			purchases.POST("/current/handoff", purchaseController.Handoff)
			purchases.POST("/current/attendant", purchaseController.AttendantDecision)
			purchases.POST("/current/cancel", purchaseController.Cancel)
			purchases.DELETE("/current", purchaseController.Abandon)
		}
	}
}

// SetupCORS configures cross-origin requests for the device app
func SetupCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
