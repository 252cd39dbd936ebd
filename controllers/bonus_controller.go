package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/starlive/agency_backend/models"
	"github.com/starlive/agency_backend/services"
)

type BonusController struct {
	bonuses *services.BonusService
}

func NewBonusController(bonuses *services.BonusService) *BonusController {
	return &BonusController{bonuses: bonuses}
}

// GrantBonus creates a manual bonus record (graduation, diamond, recruitment
// or a downline level). Report-derived bonus types are refused.
func (bc *BonusController) GrantBonus(c echo.Context) error {
	var req models.GrantBonusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "managerId, type and period are required",
		})
	}
	if _, err := time.Parse("2006-01", req.Period); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "period must be a calendar month in YYYY-MM format",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bonus, err := bc.bonuses.Grant(ctx, req, adminActorID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBonusTypeNotGrantable):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		case errors.Is(err, services.ErrManagerNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Manager not found",
			})
		case errors.Is(err, services.ErrDiamondThreshold):
			return c.JSON(http.StatusUnprocessableEntity, models.Response{
				Status:  http.StatusUnprocessableEntity,
				Message: err.Error(),
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to grant bonus",
			})
		}
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Bonus granted",
		Data:    bonus,
	})
}
