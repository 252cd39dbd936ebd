package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bonus type tags. BASE_COMMISSION and the four MILESTONE_* types are emitted
// by report ingestion; the rest are granted manually by an admin.
const (
	BonusBaseCommission = "BASE_COMMISSION"
	BonusMilestoneS     = "MILESTONE_S"
	BonusMilestoneN     = "MILESTONE_N"
	BonusMilestoneO     = "MILESTONE_O"
	BonusMilestoneP     = "MILESTONE_P"
	BonusGraduation     = "GRADUATION_BONUS"
	BonusDiamond        = "DIAMOND_BONUS"
	BonusRecruitment    = "RECRUITMENT_BONUS"
	BonusDownlineA      = "DOWNLINE_LEVEL_A"
	BonusDownlineB      = "DOWNLINE_LEVEL_B"
	BonusDownlineC      = "DOWNLINE_LEVEL_C"
)

// MilestoneBonusType returns the bonus type tag for a milestone name.
func MilestoneBonusType(milestone string) string {
	return "MILESTONE_" + milestone
}

// GrantableBonusTypes are the types an admin may create by hand. Everything
// ingestion emits is excluded so manual grants can never masquerade as
// report-derived earnings.
var GrantableBonusTypes = map[string]bool{
	BonusGraduation:  true,
	BonusDiamond:     true,
	BonusRecruitment: true,
	BonusDownlineA:   true,
	BonusDownlineB:   true,
	BonusDownlineC:   true,
}

// BonusRecord is one bonus ledger entry. Immutable once written.
type BonusRecord struct {
	ID        primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	ManagerID primitive.ObjectID  `json:"managerId" bson:"managerId"`
	Type      string              `json:"type" bson:"type"`
	Amount    float64             `json:"amount" bson:"amount"`
	Period    string              `json:"period" bson:"period"`
	BatchID   string              `json:"batchId,omitempty" bson:"batchId,omitempty"`
	GrantedBy *primitive.ObjectID `json:"grantedBy,omitempty" bson:"grantedBy,omitempty"`
	Note      string              `json:"note,omitempty" bson:"note,omitempty"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
}

// GrantBonusRequest is the admin request to create a manual bonus record.
type GrantBonusRequest struct {
	ManagerID string  `json:"managerId" validate:"required"`
	Type      string  `json:"type" validate:"required"`
	Amount    float64 `json:"amount"`
	Period    string  `json:"period" validate:"required"`
	Note      string  `json:"note"`
}
