package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/starlive/agency_backend/models"
)

func TestFoldEarningsBuckets(t *testing.T) {
	managerID := primitive.NewObjectID()

	transactions := []models.TransactionRecord{
		{ManagerID: managerID, Gross: 2000, Deductions: 1690, Net: 310},
		{ManagerID: managerID, Gross: 1000, Deductions: 0, Net: 1000},
	}
	bonuses := []models.BonusRecord{
		{Type: models.BonusBaseCommission, Amount: 93},
		{Type: models.BonusBaseCommission, Amount: 300},
		{Type: models.BonusMilestoneS, Amount: 75},
		{Type: models.BonusMilestoneN, Amount: 150},
		{Type: models.BonusMilestoneO, Amount: 400},
		{Type: models.BonusMilestoneP, Amount: 100},
		{Type: models.BonusGraduation, Amount: 200},
		{Type: models.BonusDiamond, Amount: 500},
		{Type: models.BonusRecruitment, Amount: 250},
		{Type: models.BonusDownlineA, Amount: 50},
		{Type: models.BonusDownlineB, Amount: 30},
		{Type: models.BonusDownlineC, Amount: 15},
	}

	summary := FoldEarnings(managerID, "2026-08", transactions, bonuses)

	assert.Equal(t, 3000.0, summary.Gross)
	assert.Equal(t, 1690.0, summary.Deductions)
	assert.Equal(t, 1310.0, summary.Net)
	assert.Equal(t, 393.0, summary.BaseCommission)

	assert.Equal(t, 75.0, summary.MilestoneBonuses[models.MilestoneS])
	assert.Equal(t, 150.0, summary.MilestoneBonuses[models.MilestoneN])
	assert.Equal(t, 400.0, summary.MilestoneBonuses[models.MilestoneO])
	assert.Equal(t, 100.0, summary.MilestoneBonuses[models.MilestoneP])
	assert.Equal(t, 200.0, summary.GraduationBonus)
	assert.Equal(t, 500.0, summary.DiamondBonus)
	assert.Equal(t, 250.0, summary.RecruitmentBonus)
	assert.Equal(t, 50.0, summary.DownlineBonuses["A"])
	assert.Equal(t, 30.0, summary.DownlineBonuses["B"])
	assert.Equal(t, 15.0, summary.DownlineBonuses["C"])

	// Total bonus excludes base commission; total earnings includes it.
	assert.Equal(t, 1770.0, summary.TotalBonus)
	assert.Equal(t, 2163.0, summary.TotalEarnings)

	assert.Equal(t, 2, summary.TransactionCount)
	assert.Equal(t, 12, summary.BonusCount)
}

func TestFoldEarningsIsIdempotent(t *testing.T) {
	managerID := primitive.NewObjectID()
	transactions := []models.TransactionRecord{{ManagerID: managerID, Gross: 500, Net: 500}}
	bonuses := []models.BonusRecord{{Type: models.BonusBaseCommission, Amount: 150}}

	first := FoldEarnings(managerID, "", transactions, bonuses)
	second := FoldEarnings(managerID, "", transactions, bonuses)

	assert.Equal(t, first, second, "same record set must fold to the same summary")
}

func TestFoldEarningsEmptyRecordSet(t *testing.T) {
	managerID := primitive.NewObjectID()

	summary := FoldEarnings(managerID, "2026-08", nil, nil)

	require.NotNil(t, summary)
	assert.Equal(t, 0.0, summary.TotalEarnings)
	assert.Equal(t, 0, summary.TransactionCount)
	assert.Equal(t, 0, summary.BonusCount)
	assert.Equal(t, 0.0, summary.MilestoneBonuses[models.MilestoneS], "buckets are present even when empty")
}

func TestFoldEarningsRoundsAtCents(t *testing.T) {
	managerID := primitive.NewObjectID()
	bonuses := []models.BonusRecord{
		{Type: models.BonusBaseCommission, Amount: 0.1},
		{Type: models.BonusBaseCommission, Amount: 0.2},
	}

	summary := FoldEarnings(managerID, "", nil, bonuses)

	assert.Equal(t, 0.3, summary.BaseCommission)
	assert.Equal(t, 0.3, summary.TotalEarnings)
}
