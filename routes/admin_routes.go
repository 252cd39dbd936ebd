package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/starlive/agency_backend/controllers"
	"github.com/starlive/agency_backend/middleware"
)

// RegisterAdminRoutes wires the admin surface: report ingestion, manager
// accounts, payout decisions, manual bonuses and policy configuration.
func RegisterAdminRoutes(
	e *echo.Echo,
	managerController *controllers.ManagerController,
	reportController *controllers.ReportController,
	payoutController *controllers.PayoutController,
	bonusController *controllers.BonusController,
	configController *controllers.ConfigController,
) {
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.AdminOnly())

	admin.POST("/managers", managerController.CreateManager)
	admin.GET("/managers", managerController.GetAllManagers)

	admin.POST("/reports", reportController.UploadReport)
	admin.POST("/reports/rows", reportController.IngestRows)

	admin.PUT("/payouts/:id/status", payoutController.UpdatePayoutStatus)

	admin.POST("/bonuses", bonusController.GrantBonus)

	admin.GET("/config", configController.GetConfig)
	admin.PUT("/config", configController.UpdateConfig)
}
