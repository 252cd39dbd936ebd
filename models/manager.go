package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Manager types determine the commission rate and bonus payout table.
const (
	ManagerTypeLive = "live"
	ManagerTypeTeam = "team"
)

type Manager struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FullName    string             `json:"fullName" bson:"fullName"`
	Email       string             `json:"email,omitempty" bson:"email,omitempty"`
	Password    string             `json:"password,omitempty" bson:"password,omitempty"`
	ManagerType string             `json:"managerType" bson:"managerType"`
	IsActive    bool               `json:"isActive" bson:"isActive"`
	CreatedBy   primitive.ObjectID `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token        string  `json:"token"`
	RefreshToken string  `json:"refreshToken"`
	Manager      Manager `json:"manager"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
