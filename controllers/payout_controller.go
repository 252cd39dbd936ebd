package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/starlive/agency_backend/middleware"
	"github.com/starlive/agency_backend/models"
	"github.com/starlive/agency_backend/services"
	"github.com/starlive/agency_backend/websocket"
)

type PayoutController struct {
	payouts *services.PayoutService
	hub     *websocket.Hub
}

func NewPayoutController(payouts *services.PayoutService, hub *websocket.Hub) *PayoutController {
	return &PayoutController{payouts: payouts, hub: hub}
}

// CreatePayout submits a payout request for the authenticated manager. The
// ledger guard recomputes the net-available balance; a rejection comes back
// as 422 with the full breakdown.
func (pc *PayoutController) CreatePayout(c echo.Context) error {
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

	var req models.CreatePayoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "period and amount are required",
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

	decision, err := pc.payouts.CheckAndReserve(ctx, managerID, req.Period, req.Amount, &managerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process payout request",
		})
	}

	if !decision.Accepted {
		return c.JSON(http.StatusUnprocessableEntity, models.Response{
			Status:  http.StatusUnprocessableEntity,
			Message: "Payout request rejected: " + decision.Reason,
			Data:    decision,
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Payout request submitted",
		Data:    decision,
	})
}

// GetMyPayouts lists the authenticated manager's payout requests.
func (pc *PayoutController) GetMyPayouts(c echo.Context) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	requests, err := pc.payouts.ListForManager(ctx, managerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch payout requests",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout requests retrieved successfully",
		Data:    requests,
	})
}

// UpdatePayoutStatus applies an admin decision to a payout request and
// notifies the owning manager over the websocket hub.
func (pc *PayoutController) UpdatePayoutStatus(c echo.Context) error {
	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid payout request ID",
		})
	}

	var req struct {
		Status string `json:"status" validate:"required"`
		Note   string `json:"note"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "status is required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stored status tokens are uppercase.
	status := strings.ToUpper(strings.TrimSpace(req.Status))

	request, err := pc.payouts.UpdateStatus(ctx, requestID, status, adminActorID(c), req.Note)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPayoutNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Payout request not found",
			})
		case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrTerminalPayoutState):
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: err.Error(),
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to update payout request",
			})
		}
	}

	if err := pc.hub.NotifyPayoutStatus(request.ManagerID, request); err != nil {
		log.Printf("Payout status notification not delivered: %v", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout request updated",
		Data:    request,
	})
}
