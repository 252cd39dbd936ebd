package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payout request statuses. REJECTED and the legacy DENIED spelling are both
// excluded from the already-requested sum; every other status counts against
// the manager's balance.
const (
	PayoutStatusSubmitted  = "SUBMITTED"
	PayoutStatusApproved   = "APPROVED"
	PayoutStatusInProgress = "IN_PROGRESS"
	PayoutStatusPaid       = "PAID"
	PayoutStatusRejected   = "REJECTED"
	PayoutStatusDenied     = "DENIED"
)

// ExcludedPayoutStatuses lists the statuses that release a request's amount
// back to the manager's available balance.
var ExcludedPayoutStatuses = []string{PayoutStatusRejected, PayoutStatusDenied}

// ValidPayoutTransitions maps each status to the statuses an admin may move
// it to.
var ValidPayoutTransitions = map[string][]string{
	PayoutStatusSubmitted:  {PayoutStatusApproved, PayoutStatusRejected},
	PayoutStatusApproved:   {PayoutStatusInProgress, PayoutStatusPaid, PayoutStatusRejected},
	PayoutStatusInProgress: {PayoutStatusPaid, PayoutStatusRejected},
}

// StatusChange is one entry of a payout request's history log.
type StatusChange struct {
	Status    string              `json:"status" bson:"status"`
	ChangedBy *primitive.ObjectID `json:"changedBy,omitempty" bson:"changedBy,omitempty"`
	Note      string              `json:"note,omitempty" bson:"note,omitempty"`
	ChangedAt time.Time           `json:"changedAt" bson:"changedAt"`
}

type PayoutRequest struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ManagerID primitive.ObjectID `json:"managerId" bson:"managerId"`
	Period    string             `json:"period" bson:"period"`
	Amount    float64            `json:"amount" bson:"amount"`
	Status    string             `json:"status" bson:"status"`
	History   []StatusChange     `json:"history" bson:"history"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CreatePayoutRequest is the manager-facing submission body.
type CreatePayoutRequest struct {
	Period string  `json:"period" validate:"required"`
	Amount float64 `json:"amount" validate:"required"`
}

// PayoutDecision is the ledger guard's answer, including the balance
// breakdown so a rejected caller can see why.
type PayoutDecision struct {
	Accepted         bool           `json:"accepted"`
	Reason           string         `json:"reason,omitempty"`
	TotalEarnings    float64        `json:"totalEarnings"`
	AlreadyRequested float64        `json:"alreadyRequested"`
	NetAvailable     float64        `json:"netAvailable"`
	Request          *PayoutRequest `json:"request,omitempty"`
}
