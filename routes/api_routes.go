package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/starlive/agency_backend/controllers"
	"github.com/starlive/agency_backend/middleware"
	"github.com/starlive/agency_backend/models"
	"github.com/starlive/agency_backend/websocket"
)

// RegisterAPIRoutes wires the public and manager-facing endpoints.
func RegisterAPIRoutes(
	e *echo.Echo,
	wsHub *websocket.Hub,
	authController *controllers.AuthController,
	earningsController *controllers.EarningsController,
	payoutController *controllers.PayoutController,
) {
	e.POST("/api/auth/login", authController.Login)

	api := e.Group("/api")
	api.Use(middleware.JWTMiddleware())

	api.GET("/earnings/:managerId", earningsController.GetEarnings)

	api.POST("/payouts", payoutController.CreatePayout)
	api.GET("/payouts", payoutController.GetMyPayouts)

	api.GET("/ws", func(c echo.Context) error {
		userID, err := middleware.ExtractUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "User ID not found in token",
			})
		}
		managerID, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid manager ID",
			})
		}
		return websocket.HandleWebSocket(c, wsHub, managerID)
	})
}
