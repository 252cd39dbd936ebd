package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/starlive/agency_backend/middleware"
	"github.com/starlive/agency_backend/models"
	"github.com/starlive/agency_backend/services"
)

type EarningsController struct {
	earnings *services.EarningsService
}

func NewEarningsController(earnings *services.EarningsService) *EarningsController {
	return &EarningsController{earnings: earnings}
}

// GetEarnings returns the aggregated earnings summary for a manager,
// optionally scoped by the period query parameter. Non-admin callers may only
// fetch their own id.
func (ec *EarningsController) GetEarnings(c echo.Context) error {
	managerID, err := primitive.ObjectIDFromHex(c.Param("managerId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid manager ID",
		})
	}

	if middleware.ExtractUserType(c) != "admin" {
		callerID, err := middleware.ExtractUserID(c)
		if err != nil || callerID != managerID.Hex() {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "You may only view your own earnings",
			})
		}
	}

	period := c.QueryParam("period")
	if period != "" {
		if _, err := time.Parse("2006-01", period); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "period must be a calendar month in YYYY-MM format",
			})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	summary, err := ec.earnings.AggregateCached(ctx, managerID, period)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to aggregate earnings",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Earnings retrieved successfully",
		Data:    summary,
	})
}
