package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/starlive/agency_backend/models"
	"github.com/starlive/agency_backend/services"
)

type ConfigController struct {
	db       *mongo.Database
	resolver *services.PolicyResolver
}

func NewConfigController(db *mongo.Database, resolver *services.PolicyResolver) *ConfigController {
	return &ConfigController{db: db, resolver: resolver}
}

// GetConfig returns the commission policy currently in force.
func (cc *ConfigController) GetConfig(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := cc.resolver.GetActiveConfig(ctx)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Active configuration retrieved",
		Data:    cfg,
	})
}

// UpdateConfig inserts a new policy document effective immediately and drops
// the resolver cache. Existing config documents are never modified, so ledger
// records keep the totals their run's policy produced.
func (cc *ConfigController) UpdateConfig(c echo.Context) error {
	var req models.UpdateConfigRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if req.DetectionMode != "" &&
		req.DetectionMode != models.DetectionModeExact &&
		req.DetectionMode != models.DetectionModePresence {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "detectionMode must be \"exact\" or \"presence\"",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// A partial body changes only the fields it carries; the rest stay at
	// the currently active policy's values.
	now := time.Now()
	cfg := models.MergeConfigUpdate(cc.resolver.GetActiveConfig(ctx), req)
	cfg.EffectiveFrom = now
	cfg.CreatedBy = adminActorID(c)
	cfg.CreatedAt = now

	result, err := cc.db.Collection("systemConfigs").InsertOne(ctx, cfg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to store configuration",
		})
	}
	cfg.ID = result.InsertedID.(primitive.ObjectID)

	// New policy must take effect without waiting out the cache window.
	cc.resolver.Invalidate()

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Configuration updated",
		Data:    cfg,
	})
}
