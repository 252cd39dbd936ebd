package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/starlive/agency_backend/models"
)

// mapResolver resolves manager names from an in-memory map, creating ids on
// first sight like the production upsert does.
func mapResolver(known map[string]primitive.ObjectID) ManagerResolver {
	return func(ctx context.Context, name, managerType string) (primitive.ObjectID, error) {
		key := managerType + "/" + name
		if id, ok := known[key]; ok {
			return id, nil
		}
		id := primitive.NewObjectID()
		known[key] = id
		return id, nil
	}
}

func failingResolver(failFor string) ManagerResolver {
	inner := mapResolver(map[string]primitive.ObjectID{})
	return func(ctx context.Context, name, managerType string) (primitive.ObjectID, error) {
		if name == failFor {
			return primitive.NilObjectID, fmt.Errorf("manager store unavailable")
		}
		return inner(ctx, name, managerType)
	}
}

func TestBuildBatchStampsRecords(t *testing.T) {
	now := time.Now()
	rows := []models.ReportRow{fullMilestoneRow()}

	staged := BuildBatch(context.Background(), rows, "batch-1", "2026-08", exactConfig(), mapResolver(map[string]primitive.ObjectID{}), now)

	assert.Equal(t, 1, staged.Processed)
	require.Len(t, staged.Transactions, 1)
	require.Len(t, staged.Bonuses, 5, "one transaction plus five bonuses for a full-milestone row")

	tx := staged.Transactions[0]
	assert.Equal(t, "batch-1", tx.BatchID)
	assert.Equal(t, "2026-08", tx.Period)
	assert.Equal(t, now, tx.CreatedAt)
	require.NotNil(t, tx.LiveManagerID)
	assert.Equal(t, tx.ManagerID, *tx.LiveManagerID)
	assert.Nil(t, tx.TeamManagerID)

	for _, bonus := range staged.Bonuses {
		assert.Equal(t, tx.ManagerID, bonus.ManagerID)
		assert.Equal(t, "batch-1", bonus.BatchID)
		assert.Equal(t, "2026-08", bonus.Period)
	}
}

func TestBuildBatchTeamManagerForeignKey(t *testing.T) {
	rows := []models.ReportRow{{"creator", "", "Bram", "1000", "", "", "", ""}}

	staged := BuildBatch(context.Background(), rows, "batch-1", "2026-08", exactConfig(), mapResolver(map[string]primitive.ObjectID{}), time.Now())

	require.Len(t, staged.Transactions, 1)
	tx := staged.Transactions[0]
	require.NotNil(t, tx.TeamManagerID)
	assert.Nil(t, tx.LiveManagerID)
	assert.Equal(t, tx.ManagerID, *tx.TeamManagerID)
}

func TestBuildBatchPartialFailure(t *testing.T) {
	// Ten rows; row index 4 is malformed (both manager columns set).
	var rows []models.ReportRow
	for i := 0; i < 10; i++ {
		row := models.ReportRow{"creator", "Ana", "", "1000", "", "", "", ""}
		if i == 4 {
			row = models.ReportRow{"creator", "Ana", "Bram", "1000", "", "", "", ""}
		}
		rows = append(rows, row)
	}

	staged := BuildBatch(context.Background(), rows, "batch-1", "2026-08", exactConfig(), mapResolver(map[string]primitive.ObjectID{}), time.Now())

	assert.Equal(t, 9, staged.Processed)
	require.Len(t, staged.Errors, 1)
	assert.Equal(t, 4, staged.Errors[0].Row)
	assert.NotEmpty(t, staged.Errors[0].Reason)
	assert.Len(t, staged.Transactions, 9, "the nine valid rows are all staged")
}

func TestBuildBatchSkipRowsAreNotErrors(t *testing.T) {
	rows := []models.ReportRow{
		{"creator", "", "", "1000", "", "", "", ""},   // no manager
		{"creator", "Ana", "", "", "", "", "", ""},    // blank gross
		{"creator", "Ana", "", "0", "", "", "", ""},   // zero gross
		{"creator", "Ana", "", "500", "", "", "", ""}, // valid
	}

	staged := BuildBatch(context.Background(), rows, "batch-1", "2026-08", exactConfig(), mapResolver(map[string]primitive.ObjectID{}), time.Now())

	assert.Equal(t, 1, staged.Processed)
	assert.Equal(t, 3, staged.Skipped)
	assert.Empty(t, staged.Errors)
	assert.Len(t, staged.Bonuses, 1, "skipped rows contribute no bonuses")
}

func TestBuildBatchResolverFailureIsRowError(t *testing.T) {
	rows := []models.ReportRow{
		{"creator", "Ana", "", "1000", "", "", "", ""},
		{"creator", "Cleo", "", "1000", "", "", "", ""},
	}

	staged := BuildBatch(context.Background(), rows, "batch-1", "2026-08", exactConfig(), failingResolver("Cleo"), time.Now())

	assert.Equal(t, 1, staged.Processed)
	require.Len(t, staged.Errors, 1)
	assert.Equal(t, 1, staged.Errors[0].Row)
}

func TestBuildBatchSameManagerSharesID(t *testing.T) {
	rows := []models.ReportRow{
		{"creator-1", "Ana", "", "1000", "", "", "", ""},
		{"creator-2", "Ana", "", "2000", "", "", "", ""},
	}

	staged := BuildBatch(context.Background(), rows, "batch-1", "2026-08", exactConfig(), mapResolver(map[string]primitive.ObjectID{}), time.Now())

	require.Len(t, staged.Transactions, 2)
	assert.Equal(t, staged.Transactions[0].ManagerID, staged.Transactions[1].ManagerID)
}

func TestHashRowsStableUnderFormatting(t *testing.T) {
	a := []models.ReportRow{{"creator", "Ana", "", "1.234,56", "150", "", "", ""}}
	b := []models.ReportRow{{"creator", "Ana", "", 1234.56, 150.0, "", "", ""}}

	assert.Equal(t, HashRows(a), HashRows(b), "cosmetic formatting must not defeat deduplication")
}

func TestHashRowsDistinguishesContent(t *testing.T) {
	a := []models.ReportRow{{"creator", "Ana", "", "1000", "", "", "", ""}}
	b := []models.ReportRow{{"creator", "Ana", "", "1001", "", "", "", ""}}

	assert.NotEqual(t, HashRows(a), HashRows(b))
}

func TestHashRowsRowBoundaries(t *testing.T) {
	a := []models.ReportRow{{"x", "y"}, {"z"}}
	b := []models.ReportRow{{"x"}, {"y", "z"}}

	assert.NotEqual(t, HashRows(a), HashRows(b), "cells must not slide across row boundaries")
}
