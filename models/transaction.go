package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransactionRecord is the per-row ledger entry produced by ingestion.
// Records are immutable once written; a re-run of a report always gets a new
// batch id instead of updating these in place.
type TransactionRecord struct {
	ID             primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	ManagerID      primitive.ObjectID  `json:"managerId" bson:"managerId"`
	LiveManagerID  *primitive.ObjectID `json:"liveManagerId,omitempty" bson:"liveManagerId,omitempty"`
	TeamManagerID  *primitive.ObjectID `json:"teamManagerId,omitempty" bson:"teamManagerId,omitempty"`
	ManagerType    string              `json:"managerType" bson:"managerType"`
	CreatorName    string              `json:"creatorName,omitempty" bson:"creatorName,omitempty"`
	Period         string              `json:"period" bson:"period"`
	Gross          float64             `json:"gross" bson:"gross"`
	Deductions     float64             `json:"deductions" bson:"deductions"`
	Net            float64             `json:"net" bson:"net"`
	BaseCommission float64             `json:"baseCommission" bson:"baseCommission"`
	BatchID        string              `json:"batchId" bson:"batchId"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
}
