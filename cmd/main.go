package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pizzamaster/pizzamaster-api/internal/auth"
	"github.com/pizzamaster/pizzamaster-api/internal/cache"
	"github.com/pizzamaster/pizzamaster-api/internal/config"
	"github.com/pizzamaster/pizzamaster-api/internal/controllers"
	"github.com/pizzamaster/pizzamaster-api/internal/database"
	"github.com/pizzamaster/pizzamaster-api/internal/middleware"
	"github.com/pizzamaster/pizzamaster-api/internal/models"
	"github.com/pizzamaster/pizzamaster-api/internal/notify"
	"github.com/pizzamaster/pizzamaster-api/internal/services"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/pizzamaster/pizzamaster-api/docs" // Import generated docs
)

var (
	db                  *gorm.DB
	configuration       *config.Config
	statusCache         *cache.Cache
	notifier            *notify.Publisher
	catalogService      services.CatalogService
	orderService        services.OrderService
	userService         services.UserService
	oauthService        *auth.OAuthService
	orderController     controllers.OrderController
	inventoryController controllers.InventoryController
	authController      *controllers.AuthController
)

// @title PizzaMaster API
// @version 1.0
// @description Pizza ordering storefront and back office
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Initialize database connection
	setupDatabase(configuration)

	// External collaborators: notification events and read cache
	notifier = notify.NewPublisher(configuration.KafkaBrokers, configuration.KafkaTopic)
	defer notifier.Close()
	statusCache = cache.New(configuration.RedisAddr)
	defer statusCache.Close()

	// Initialize services and controllers
	catalogService = services.NewCatalogService(db)
	orderService = services.NewOrderService(db, catalogService, notifier, statusCache)
	userService = services.NewUserService(db)
	oauthService = auth.NewOAuthService(db, configuration.JWTSecret)

	orderController = controllers.NewOrderController(orderService)
	inventoryController = controllers.NewInventoryController(catalogService, statusCache)
	authController = controllers.NewAuthController(userService, configuration.JWTSecret)

	// Initialize Gin router
	router := setupRouter()

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	if err := router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file.
// If the file is not found, system environment variables are used.
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log
// level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// loadConfig loads the application configuration from environment variables
func loadConfig() *config.Config {
	log.Info("Loading configuration from environment variables")
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase initializes the database connection, migrates the schema and
// seeds an empty catalog
func setupDatabase(conf *config.Config) *gorm.DB {
	var err error
	db, err = database.Connect(database.OptionsFromConfig(conf))
	checkPanicErr(err)

	checkPanicErr(models.AutoMigrateAll(db))

	// Seed only if the catalog is empty
	var count int64
	db.Model(&models.PizzaBase{}).Count(&count)
	if count == 0 {
		log.Info("Catalog is empty, seeding initial data")
		seedCatalog()
	} else {
		log.Info("Catalog already seeded with initial data")
	}
	return db
}

// seedCatalog seeds the four ingredient collections with a starter menu
func seedCatalog() {
	bases := []models.PizzaBase{
		{CatalogItem: models.CatalogItem{Name: "Classic Hand-Tossed", Description: "Traditional hand-tossed dough", Price: 8.99, StockQuantity: 50, MinThreshold: 10, Active: true}, Category: "thin"},
		{CatalogItem: models.CatalogItem{Name: "Deep Dish", Description: "Thick Chicago-style crust", Price: 10.99, StockQuantity: 40, MinThreshold: 10, Active: true}, Category: "thick"},
		{CatalogItem: models.CatalogItem{Name: "Gluten-Free", Description: "Rice-flour crust", Price: 11.49, StockQuantity: 20, MinThreshold: 5, Active: true}, Category: "gluten_free"},
	}
	sauces := []models.Sauce{
		{CatalogItem: models.CatalogItem{Name: "Marinara", Description: "Classic tomato sauce", Price: 0.99, StockQuantity: 100, MinThreshold: 20, Active: true}, SpiceLevel: "mild"},
		{CatalogItem: models.CatalogItem{Name: "Arrabbiata", Description: "Spicy tomato sauce", Price: 1.49, StockQuantity: 80, MinThreshold: 20, Active: true}, SpiceLevel: "hot"},
	}
	cheeses := []models.Cheese{
		{CatalogItem: models.CatalogItem{Name: "Mozzarella", Description: "Whole-milk mozzarella", Price: 2.49, StockQuantity: 200, MinThreshold: 30, Active: true}},
		{CatalogItem: models.CatalogItem{Name: "Vegan Cashew", Description: "Dairy-free cashew cheese", Price: 3.49, StockQuantity: 50, MinThreshold: 10, Active: true}, Vegan: true},
	}
	toppings := []models.Topping{
		{CatalogItem: models.CatalogItem{Name: "Pepperoni", Description: "Cured pork and beef", Price: 2.99, StockQuantity: 150, MinThreshold: 25, Active: true}, Category: "meat"},
		{CatalogItem: models.CatalogItem{Name: "Mushrooms", Description: "Sliced cremini", Price: 1.99, StockQuantity: 120, MinThreshold: 25, Active: true}, Category: "vegetable"},
		{CatalogItem: models.CatalogItem{Name: "Prawns", Description: "Tiger prawns", Price: 4.49, StockQuantity: 60, MinThreshold: 15, Active: true}, Category: "seafood", Allergens: []string{"shellfish"}},
	}
	for i := range bases {
		db.Create(&bases[i])
	}
	for i := range sauces {
		db.Create(&sauces[i])
	}
	for i := range cheeses {
		db.Create(&cheeses[i])
	}
	for i := range toppings {
		db.Create(&toppings[i])
	}
	log.Info("Catalog seeded successfully")
}

// setupRouter initializes the Gin router and sets up the routes
func setupRouter() *gin.Engine {
	router := gin.Default()
	setupRoutes(router)
	return router
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", healthCheckHandler)

	// OAuth2 token endpoint for back-office clients
	router.POST("/oauth/token", oauthService.HandleToken)

	v1 := router.Group("/api/v1")
	{
		publicApi := v1.Group("/public")
		{
			publicApi.GET("/catalog", inventoryController.GetCatalog)
			publicApi.GET("/catalog/:kind", inventoryController.GetCatalogKind)
			publicApi.GET("/orders/:id/track", orderController.TrackOrder)
		}

		authApi := v1.Group("/auth")
		{
			authApi.POST("/register", authController.Register)
			authApi.POST("/login", authController.Login)
		}

		// Protected routes (requires JWT authentication)
		protectedApi := v1.Group("/protected")
		protectedApi.Use(middleware.JWTAuth([]byte(configuration.JWTSecret)))
		{
			protectedApi.GET("/auth/me", authController.Me)
			protectedApi.PUT("/auth/me", authController.UpdateProfile)

			protectedApi.POST("/orders", orderController.PlaceOrder)
			protectedApi.GET("/orders", orderController.GetMyOrders)
			protectedApi.GET("/orders/:id", orderController.GetOrder)
			protectedApi.PUT("/orders/:id/cancel", orderController.CancelOrder)

			adminApi := protectedApi.Group("/admin")
			adminApi.Use(middleware.RequireRole(models.RoleAdmin))
			{
				adminApi.GET("/orders/all", orderController.GetAllOrders)
				adminApi.PUT("/orders/:id/status", orderController.UpdateStatus)

				adminApi.GET("/inventory/dashboard", inventoryController.Dashboard)
				adminApi.GET("/inventory/:kind", inventoryController.ListItems)
				adminApi.POST("/inventory/:kind", inventoryController.CreateItem)
				adminApi.PUT("/inventory/:kind/:id", inventoryController.UpdateItem)
				adminApi.DELETE("/inventory/:kind/:id", inventoryController.DeleteItem)
				adminApi.PUT("/inventory/:kind/:id/stock", inventoryController.AdjustStock)
			}
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "healthy",
		"service": "pizzamaster-api",
	})
}
