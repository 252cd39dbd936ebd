package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/starlive/agency_backend/models"
)

type ManagerController struct {
	db *mongo.Database
}

func NewManagerController(db *mongo.Database) *ManagerController {
	return &ManagerController{db: db}
}

// CreateManager creates a new manager account. Managers that first appeared
// in an ingested report already exist without credentials; this endpoint also
// serves to attach email/password to such an account via upsert-by-name.
func (mc *ManagerController) CreateManager(c echo.Context) error {
	var req struct {
		FullName    string `json:"fullName" validate:"required"`
		Email       string `json:"email" validate:"required,email"`
		Password    string `json:"password" validate:"required,min=8"`
		ManagerType string `json:"managerType" validate:"required,oneof=live team"`
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
			Message: "fullName, email, password and managerType (live|team) are required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Check if email already exists
	count, err := mc.db.Collection("managers").CountDocuments(ctx, bson.M{"email": req.Email})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error checking email existence",
		})
	}
	if count > 0 {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Email already exists",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to hash password",
		})
	}

	adminID := adminActorID(c)
	now := time.Now()

	update := bson.M{
		"$set": bson.M{
			"email":     req.Email,
			"password":  string(hashedPassword),
			"isActive":  true,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"fullName":    req.FullName,
			"managerType": req.ManagerType,
			"createdAt":   now,
		},
	}
	if adminID != nil {
		update["$set"].(bson.M)["createdBy"] = *adminID
	}

	var manager models.Manager
	err = mc.db.Collection("managers").FindOneAndUpdate(
		ctx,
		bson.M{"fullName": req.FullName, "managerType": req.ManagerType},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&manager)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create manager",
		})
	}

	manager.Password = "" // Remove password from response

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Manager created successfully",
		Data:    manager,
	})
}

// GetAllManagers lists every manager account.
func (mc *ManagerController) GetAllManagers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := mc.db.Collection("managers").Find(ctx, bson.M{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch managers",
		})
	}
	defer cursor.Close(ctx)

	var managers []models.Manager
	if err := cursor.All(ctx, &managers); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode managers",
		})
	}
	for i := range managers {
		managers[i].Password = ""
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Managers retrieved successfully",
		Data:    managers,
	})
}

// adminActorID extracts the acting admin's id, if the token carries a real
// ObjectID (the env-bootstrapped admin does not).
func adminActorID(c echo.Context) *primitive.ObjectID {
	userID, ok := c.Get("userId").(string)
	if !ok {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	return &id
}
