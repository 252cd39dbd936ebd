package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/starlive/agency_backend/config"
	"github.com/starlive/agency_backend/controllers"
	"github.com/starlive/agency_backend/middleware"
	"github.com/starlive/agency_backend/routes"
	"github.com/starlive/agency_backend/services"
	"github.com/starlive/agency_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis (optional, summary caching only)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()
	db := config.GetDatabase(client)

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Core services
	policyResolver := services.NewPolicyResolver(db, services.NewConfigCache())
	ingestService := services.NewIngestService(client, db, policyResolver)
	earningsService := services.NewEarningsService(db, redisClient)
	payoutService := services.NewPayoutService(db, earningsService)
	bonusService := services.NewBonusService(db, policyResolver, earningsService)

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Agency commission backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	e.Use(httpsRedirect())

	// Initialize controllers
	authController := controllers.NewAuthController(db)
	managerController := controllers.NewManagerController(db)
	reportController := controllers.NewReportController(ingestService)
	earningsController := controllers.NewEarningsController(earningsService)
	payoutController := controllers.NewPayoutController(payoutService, wsHub)
	bonusController := controllers.NewBonusController(bonusService)
	configController := controllers.NewConfigController(db, policyResolver)

	routes.RegisterAPIRoutes(e, wsHub, authController, earningsController, payoutController)
	routes.RegisterAdminRoutes(e, managerController, reportController, payoutController, bonusController, configController)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
