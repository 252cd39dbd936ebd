package services

import (
	"fmt"

	"github.com/starlive/agency_backend/models"
	"github.com/starlive/agency_backend/utils"
)

// RowResult is everything one report row produces: a transaction plus its
// bonus records, with the manager still identified by name. The ingestor
// resolves names to manager ids and stamps period, batch id and timestamps
// before anything is persisted.
type RowResult struct {
	ManagerName string
	ManagerType string
	CreatorName string
	Flags       models.MilestoneFlags
	Transaction models.TransactionRecord
	Bonuses     []models.BonusRecord
}

// ProcessRow turns one report row into a transaction and its bonus records.
// Returns (nil, nil) for rows the engine skips by policy: no manager name in
// either column, or a non-positive gross. Skipping blank-gross rows even when
// a manager is named is deliberate and affects totals; do not "fix" it.
func ProcessRow(row models.ReportRow, cfg models.SystemConfig) (*RowResult, error) {
	if len(row) < models.MinRowLen {
		return nil, fmt.Errorf("row has %d cells, want at least %d", len(row), models.MinRowLen)
	}

	liveName := utils.ParseCell(row[models.ColLiveManagerName])
	teamName := utils.ParseCell(row[models.ColTeamManagerName])

	if liveName == "" && teamName == "" {
		return nil, nil
	}
	if liveName != "" && teamName != "" {
		return nil, fmt.Errorf("row names both a live manager (%q) and a team manager (%q)", liveName, teamName)
	}

	managerType := models.ManagerTypeLive
	managerName := liveName
	if teamName != "" {
		managerType = models.ManagerTypeTeam
		managerName = teamName
	}

	gross := utils.ParseAmount(row[models.ColGrossAmount])
	if gross <= 0 {
		return nil, nil
	}

	rate, ok := cfg.CommissionRates[managerType]
	if !ok {
		return nil, fmt.Errorf("no commission rate configured for manager type %q", managerType)
	}

	flags := DetectFlags(row, cfg)

	var deductions float64
	for _, milestone := range flags.Active() {
		deductions += cfg.MilestoneDeductions[milestone]
	}

	net := gross - deductions
	if net < 0 {
		net = 0
	}
	baseCommission := net * rate

	result := &RowResult{
		ManagerName: managerName,
		ManagerType: managerType,
		CreatorName: utils.ParseCell(row[models.ColCreatorName]),
		Flags:       flags,
		Transaction: models.TransactionRecord{
			ManagerType:    managerType,
			CreatorName:    utils.ParseCell(row[models.ColCreatorName]),
			Gross:          utils.RoundCents(gross),
			Deductions:     utils.RoundCents(deductions),
			Net:            utils.RoundCents(net),
			BaseCommission: utils.RoundCents(baseCommission),
		},
	}

	result.Bonuses = append(result.Bonuses, models.BonusRecord{
		Type:   models.BonusBaseCommission,
		Amount: utils.RoundCents(baseCommission),
	})

	payouts := cfg.MilestonePayouts[managerType]
	for _, milestone := range flags.Active() {
		result.Bonuses = append(result.Bonuses, models.BonusRecord{
			Type:   models.MilestoneBonusType(milestone),
			Amount: utils.RoundCents(payouts[milestone]),
		})
	}

	return result, nil
}
