package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Milestone detection modes. Exact mode activates a milestone only when its
// marker cell equals the configured marker amount (compared at cent
// precision); presence mode activates on any non-empty, non-zero cell.
const (
	DetectionModeExact    = "exact"
	DetectionModePresence = "presence"
)

// SystemConfig is the externally supplied commission policy. Config changes
// insert a new document with a later effectiveFrom; history is never
// rewritten, so already-persisted ledger records keep the totals the policy
// of their day produced.
type SystemConfig struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	EffectiveFrom time.Time          `json:"effectiveFrom" bson:"effectiveFrom"`
	DetectionMode string             `json:"detectionMode" bson:"detectionMode"`

	// Per-milestone deduction from gross, and the exact-match marker value
	// expected in the milestone's report column.
	MilestoneDeductions map[string]float64 `json:"milestoneDeductions" bson:"milestoneDeductions"`
	MilestoneMarkers    map[string]float64 `json:"milestoneMarkers" bson:"milestoneMarkers"`

	// Per manager type: milestone bonus payouts and commission rate.
	MilestonePayouts map[string]map[string]float64 `json:"milestonePayouts" bson:"milestonePayouts"`
	CommissionRates  map[string]float64            `json:"commissionRates" bson:"commissionRates"`

	DiamondThreshold float64            `json:"diamondThreshold" bson:"diamondThreshold"`
	DiamondBonus     float64            `json:"diamondBonus" bson:"diamondBonus"`
	RecruitmentBonus float64            `json:"recruitmentBonus" bson:"recruitmentBonus"`
	GraduationBonus  float64            `json:"graduationBonus" bson:"graduationBonus"`
	DownlineBonuses  map[string]float64 `json:"downlineBonuses" bson:"downlineBonuses"`

	CreatedBy *primitive.ObjectID `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
}

// DefaultSystemConfig returns the documented fallback policy used when no
// config document exists or the lookup fails.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		DetectionMode: DetectionModeExact,
		MilestoneDeductions: map[string]float64{
			MilestoneS: 150,
			MilestoneN: 300,
			MilestoneO: 1000,
			MilestoneP: 240,
		},
		MilestoneMarkers: map[string]float64{
			MilestoneS: 150,
			MilestoneN: 300,
			MilestoneO: 1000,
			MilestoneP: 240,
		},
		MilestonePayouts: map[string]map[string]float64{
			ManagerTypeLive: {
				MilestoneS: 75,
				MilestoneN: 150,
				MilestoneO: 400,
				MilestoneP: 100,
			},
			ManagerTypeTeam: {
				MilestoneS: 100,
				MilestoneN: 200,
				MilestoneO: 500,
				MilestoneP: 120,
			},
		},
		CommissionRates: map[string]float64{
			ManagerTypeLive: 0.30,
			ManagerTypeTeam: 0.35,
		},
		DiamondThreshold: 100000,
		DiamondBonus:     500,
		RecruitmentBonus: 250,
		GraduationBonus:  200,
		DownlineBonuses: map[string]float64{
			"A": 50,
			"B": 30,
			"C": 15,
		},
	}
}

// MergeConfigUpdate lays a partial admin update over the policy currently in
// force. Only fields the request actually carries change; everything else
// stays at the active config's value, so updating one rate can never revert
// the rest of the policy to factory defaults. Zeroing a field is not
// expressible through this surface; insert a full document for that.
func MergeConfigUpdate(active SystemConfig, req UpdateConfigRequest) SystemConfig {
	cfg := active
	cfg.ID = primitive.NilObjectID

	if req.DetectionMode != "" {
		cfg.DetectionMode = req.DetectionMode
	}
	if len(req.MilestoneDeductions) > 0 {
		cfg.MilestoneDeductions = req.MilestoneDeductions
	}
	if len(req.MilestoneMarkers) > 0 {
		cfg.MilestoneMarkers = req.MilestoneMarkers
	}
	if len(req.MilestonePayouts) > 0 {
		cfg.MilestonePayouts = req.MilestonePayouts
	}
	if len(req.CommissionRates) > 0 {
		cfg.CommissionRates = req.CommissionRates
	}
	if req.DiamondThreshold != 0 {
		cfg.DiamondThreshold = req.DiamondThreshold
	}
	if req.DiamondBonus != 0 {
		cfg.DiamondBonus = req.DiamondBonus
	}
	if req.RecruitmentBonus != 0 {
		cfg.RecruitmentBonus = req.RecruitmentBonus
	}
	if req.GraduationBonus != 0 {
		cfg.GraduationBonus = req.GraduationBonus
	}
	if len(req.DownlineBonuses) > 0 {
		cfg.DownlineBonuses = req.DownlineBonuses
	}
	return cfg
}

// UpdateConfigRequest is the admin body for inserting a new policy document.
type UpdateConfigRequest struct {
	DetectionMode       string                        `json:"detectionMode"`
	MilestoneDeductions map[string]float64            `json:"milestoneDeductions"`
	MilestoneMarkers    map[string]float64            `json:"milestoneMarkers"`
	MilestonePayouts    map[string]map[string]float64 `json:"milestonePayouts"`
	CommissionRates     map[string]float64            `json:"commissionRates"`
	DiamondThreshold    float64                       `json:"diamondThreshold"`
	DiamondBonus        float64                       `json:"diamondBonus"`
	RecruitmentBonus    float64                       `json:"recruitmentBonus"`
	GraduationBonus     float64                       `json:"graduationBonus"`
	DownlineBonuses     map[string]float64            `json:"downlineBonuses"`
}
