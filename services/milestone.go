package services

import (
	"github.com/starlive/agency_backend/models"
	"github.com/starlive/agency_backend/utils"
)

// detectFunc decides whether one milestone's marker cell counts as active.
type detectFunc func(cell interface{}, marker float64) bool

// detectionModes dispatches the configured detection policy. Both policies
// exist in the field: older report templates write the milestone amount into
// the marker column (exact), newer ones write an arbitrary tick (presence).
// The mode is chosen per ingestion run, never mixed within a batch.
var detectionModes = map[string]detectFunc{
	models.DetectionModeExact:    detectExact,
	models.DetectionModePresence: detectPresence,
}

// detectExact activates a milestone only when the cell, parsed as an amount,
// equals the expected marker value at cent precision.
func detectExact(cell interface{}, marker float64) bool {
	amount := utils.ParseAmount(cell)
	if amount == 0 {
		return false
	}
	return utils.RoundCents(amount) == utils.RoundCents(marker)
}

// detectPresence activates a milestone when the cell is non-empty and not a
// textual or numeric zero.
func detectPresence(cell interface{}, _ float64) bool {
	s := utils.ParseCell(cell)
	switch s {
	case "", "0", "0.0", "0,0", "0.00", "0,00", "-":
		return false
	}
	return true
}

// DetectFlags computes the milestone flags for a row under the config's
// detection mode. Unknown modes fall back to exact, the historical default.
func DetectFlags(row models.ReportRow, cfg models.SystemConfig) models.MilestoneFlags {
	detect, ok := detectionModes[cfg.DetectionMode]
	if !ok {
		detect = detectExact
	}

	flags := make(models.MilestoneFlags, len(models.Milestones))
	for _, milestone := range models.Milestones {
		col := models.MilestoneColumns[milestone]
		if col >= len(row) {
			flags[milestone] = false
			continue
		}
		flags[milestone] = detect(row[col], cfg.MilestoneMarkers[milestone])
	}
	return flags
}
