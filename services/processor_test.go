package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starlive/agency_backend/models"
)

// fullMilestoneRow is a live-manager row with all four milestones active in
// exact mode and a gross of 2000.
func fullMilestoneRow() models.ReportRow {
	return models.ReportRow{"creator-1", "Ana", "", "2000", "150", "300", "1000", "240"}
}

func TestProcessRowFullMilestones(t *testing.T) {
	result, err := ProcessRow(fullMilestoneRow(), exactConfig())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, models.ManagerTypeLive, result.ManagerType)
	assert.Equal(t, "Ana", result.ManagerName)

	tx := result.Transaction
	assert.Equal(t, 2000.0, tx.Gross)
	assert.Equal(t, 1690.0, tx.Deductions, "S+N+O+P = 150+300+1000+240")
	assert.Equal(t, 310.0, tx.Net)
	assert.Equal(t, 93.0, tx.BaseCommission, "30% of 310")

	require.Len(t, result.Bonuses, 5, "base commission plus one record per active milestone")

	byType := map[string]float64{}
	for _, bonus := range result.Bonuses {
		byType[bonus.Type] = bonus.Amount
	}
	assert.Equal(t, 93.0, byType[models.BonusBaseCommission])
	assert.Equal(t, 75.0, byType[models.BonusMilestoneS])
	assert.Equal(t, 150.0, byType[models.BonusMilestoneN])
	assert.Equal(t, 400.0, byType[models.BonusMilestoneO])
	assert.Equal(t, 100.0, byType[models.BonusMilestoneP])
}

func TestProcessRowTeamManagerRate(t *testing.T) {
	row := models.ReportRow{"creator-1", "", "Bram", "1000", "", "", "", ""}

	result, err := ProcessRow(row, exactConfig())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, models.ManagerTypeTeam, result.ManagerType)
	assert.Equal(t, 350.0, result.Transaction.BaseCommission, "35% of 1000")
	require.Len(t, result.Bonuses, 1)
	assert.Equal(t, models.BonusBaseCommission, result.Bonuses[0].Type)
}

func TestProcessRowNetFlooredAtZero(t *testing.T) {
	// Gross below the combined deductions.
	row := models.ReportRow{"creator-1", "Ana", "", "500", "150", "300", "1000", "240"}

	result, err := ProcessRow(row, exactConfig())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 0.0, result.Transaction.Net)
	assert.Equal(t, 0.0, result.Transaction.BaseCommission)
}

func TestProcessRowSkipsNoManager(t *testing.T) {
	row := models.ReportRow{"creator-1", "", "", "2000", "150", "", "", ""}

	result, err := ProcessRow(row, exactConfig())
	require.NoError(t, err)
	assert.Nil(t, result, "rows without a manager are skipped, not errored")
}

func TestProcessRowSkipsNonPositiveGross(t *testing.T) {
	for _, gross := range []interface{}{"", "0", "-100", "n/a"} {
		row := models.ReportRow{"creator-1", "Ana", "", gross, "150", "", "", ""}

		result, err := ProcessRow(row, exactConfig())
		require.NoError(t, err)
		assert.Nil(t, result, "gross %v must skip the row entirely", gross)
	}
}

func TestProcessRowBothManagersIsRowError(t *testing.T) {
	row := models.ReportRow{"creator-1", "Ana", "Bram", "2000", "", "", "", ""}

	result, err := ProcessRow(row, exactConfig())
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestProcessRowShortRowIsRowError(t *testing.T) {
	result, err := ProcessRow(models.ReportRow{"creator-1", "Ana"}, exactConfig())
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestProcessRowMixedLocaleGross(t *testing.T) {
	row := models.ReportRow{"creator-1", "Ana", "", "1.234,56", "", "", "", ""}

	result, err := ProcessRow(row, exactConfig())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1234.56, result.Transaction.Gross)
}
