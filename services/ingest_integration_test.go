package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/starlive/agency_backend/config"
	"github.com/starlive/agency_backend/models"
)

// setupLedgerDB starts a single-node MongoDB replica set (transactions need
// one) and applies the production collection and index setup.
func setupLedgerDB(t *testing.T) (*mongo.Client, *mongo.Database) {
	if testing.Short() {
		t.Skip("requires Docker")
	}
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7",
		mongodb.WithReplicaSet("rs0"),
		testcontainers.WithLabels(map[string]string{
			"test":      "agency-ledger",
			"test-name": t.Name(),
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate mongo container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := client.Disconnect(context.Background()); err != nil {
			t.Logf("Warning: failed to disconnect mongo client: %v", err)
		}
	})

	t.Setenv("DB_NAME", "agency_test")
	config.SetupCollections(client)

	return client, config.GetDatabase(client)
}

func newTestIngestService(client *mongo.Client, db *mongo.Database) *IngestService {
	resolver := NewPolicyResolver(db, NewConfigCache())
	return NewIngestService(client, db, resolver)
}

// ledgerTestRows is one live-manager row with every milestone and one
// team-manager row with only S.
func ledgerTestRows() []models.ReportRow {
	return []models.ReportRow{
		{"creator-1", "Ana", "", "2000", "150", "300", "1000", "240"},
		{"creator-2", "", "Bora", "1500", "150", "", "", ""},
	}
}

func countDocs(t *testing.T, db *mongo.Database, coll string) int64 {
	n, err := db.Collection(coll).CountDocuments(context.Background(), bson.M{})
	require.NoError(t, err)
	return n
}

func TestIngestCommitsFullRecordSet(t *testing.T) {
	client, db := setupLedgerDB(t)
	ingest := newTestIngestService(client, db)
	ctx := context.Background()

	result, err := ingest.Ingest(ctx, ledgerTestRows(), IngestOptions{Period: "2026-01"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Empty(t, result.Errors)
	assert.Equal(t, int64(1), countDocs(t, db, "batches"))
	assert.Equal(t, int64(2), countDocs(t, db, "transactions"))
	// Row 1: base commission plus four milestone bonuses. Row 2: base plus S.
	assert.Equal(t, int64(7), countDocs(t, db, "bonuses"))

	var manager models.Manager
	err = db.Collection("managers").FindOne(ctx, bson.M{"fullName": "Ana"}).Decode(&manager)
	require.NoError(t, err)
	assert.Equal(t, models.ManagerTypeLive, manager.ManagerType)
	assert.False(t, manager.IsActive, "report-created accounts start inactive")
}

func TestIngestRejectsDuplicateContent(t *testing.T) {
	client, db := setupLedgerDB(t)
	ingest := newTestIngestService(client, db)
	ctx := context.Background()

	_, err := ingest.Ingest(ctx, ledgerTestRows(), IngestOptions{Period: "2026-01"})
	require.NoError(t, err)

	_, err = ingest.Ingest(ctx, ledgerTestRows(), IngestOptions{Period: "2026-01"})
	require.ErrorIs(t, err, ErrDuplicateBatch)

	assert.Equal(t, int64(1), countDocs(t, db, "batches"))
	assert.Equal(t, int64(2), countDocs(t, db, "transactions"))
}

func TestIngestForceSupersedesPriorBatch(t *testing.T) {
	client, db := setupLedgerDB(t)
	ingest := newTestIngestService(client, db)
	ctx := context.Background()

	first, err := ingest.Ingest(ctx, ledgerTestRows(), IngestOptions{Period: "2026-01"})
	require.NoError(t, err)

	second, err := ingest.Ingest(ctx, ledgerTestRows(), IngestOptions{Period: "2026-01", Force: true})
	require.NoError(t, err, "a forced re-run of identical content must commit")
	assert.NotEqual(t, first.BatchID, second.BatchID)

	var priorBatch models.ReportBatch
	err = db.Collection("batches").FindOne(ctx, bson.M{"batchId": first.BatchID}).Decode(&priorBatch)
	require.NoError(t, err)
	assert.True(t, priorBatch.Superseded)
	assert.Equal(t, second.BatchID, priorBatch.SupersededBy)

	var newBatch models.ReportBatch
	err = db.Collection("batches").FindOne(ctx, bson.M{"batchId": second.BatchID}).Decode(&newBatch)
	require.NoError(t, err)
	assert.False(t, newBatch.Superseded)
	assert.Equal(t, first.BatchID, newBatch.Supersedes)

	// Both runs' records persist; a forced chain keeps working.
	assert.Equal(t, int64(2), countDocs(t, db, "batches"))
	assert.Equal(t, int64(4), countDocs(t, db, "transactions"))

	third, err := ingest.Ingest(ctx, ledgerTestRows(), IngestOptions{Period: "2026-01", Force: true})
	require.NoError(t, err)
	assert.NotEqual(t, second.BatchID, third.BatchID)

	_, err = ingest.Ingest(ctx, ledgerTestRows(), IngestOptions{Period: "2026-01"})
	require.ErrorIs(t, err, ErrDuplicateBatch, "unforced duplicates stay rejected after a forced run")
}

func TestIngestCommitIsAllOrNothing(t *testing.T) {
	client, db := setupLedgerDB(t)
	ingest := newTestIngestService(client, db)
	ctx := context.Background()

	// Force the second transaction insert to fail mid-commit: both rows of a
	// batch share the same period and batch id.
	indexName := "uniq_tx_period_batch"
	_, err := db.Collection("transactions").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "period", Value: 1}, {Key: "batchId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(indexName),
	})
	require.NoError(t, err)

	_, err = ingest.Ingest(ctx, ledgerTestRows(), IngestOptions{Period: "2026-01"})
	require.Error(t, err)

	assert.Equal(t, int64(0), countDocs(t, db, "batches"), "aborted commit must leave no batch document")
	assert.Equal(t, int64(0), countDocs(t, db, "transactions"))
	assert.Equal(t, int64(0), countDocs(t, db, "bonuses"))

	// With the constraint gone the same content ingests cleanly, proving the
	// failed run recorded nothing, its content hash included.
	_, err = db.Collection("transactions").Indexes().DropOne(ctx, indexName)
	require.NoError(t, err)

	result, err := ingest.Ingest(ctx, ledgerTestRows(), IngestOptions{Period: "2026-01"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, int64(1), countDocs(t, db, "batches"))
}
