package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EarningsSummary is a derived aggregate over a manager's transaction and
// bonus records, optionally scoped to one period. It is always recomputed
// from the stored records, never hand-edited.
type EarningsSummary struct {
	ManagerID primitive.ObjectID `json:"managerId" bson:"managerId"`
	Period    string             `json:"period,omitempty" bson:"period,omitempty"`

	Gross          float64 `json:"gross" bson:"gross"`
	Deductions     float64 `json:"deductions" bson:"deductions"`
	Net            float64 `json:"net" bson:"net"`
	BaseCommission float64 `json:"baseCommission" bson:"baseCommission"`

	MilestoneBonuses map[string]float64 `json:"milestoneBonuses" bson:"milestoneBonuses"`
	GraduationBonus  float64            `json:"graduationBonus" bson:"graduationBonus"`
	DiamondBonus     float64            `json:"diamondBonus" bson:"diamondBonus"`
	RecruitmentBonus float64            `json:"recruitmentBonus" bson:"recruitmentBonus"`
	DownlineBonuses  map[string]float64 `json:"downlineBonuses" bson:"downlineBonuses"`

	TotalBonus    float64 `json:"totalBonus" bson:"totalBonus"`
	TotalEarnings float64 `json:"totalEarnings" bson:"totalEarnings"`

	TransactionCount int `json:"transactionCount" bson:"transactionCount"`
	BonusCount       int `json:"bonusCount" bson:"bonusCount"`
}
