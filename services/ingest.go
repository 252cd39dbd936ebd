package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/starlive/agency_backend/models"
	"github.com/starlive/agency_backend/utils"
)

// ErrDuplicateBatch means the same report content was already ingested.
// Callers that genuinely want a re-run must set Force, which records a fresh
// batch superseding the old one instead of double-counting silently.
var ErrDuplicateBatch = errors.New("report content already ingested")

// ManagerResolver maps a manager name from a report row to the manager's id,
// creating the manager on first sight. Injected so the staging step stays
// testable without a database.
type ManagerResolver func(ctx context.Context, name, managerType string) (primitive.ObjectID, error)

// IngestService drives row processing over a report and commits the
// generated records as one atomic write set.
type IngestService struct {
	client   *mongo.Client
	db       *mongo.Database
	resolver *PolicyResolver
}

func NewIngestService(client *mongo.Client, db *mongo.Database, resolver *PolicyResolver) *IngestService {
	return &IngestService{client: client, db: db, resolver: resolver}
}

// IngestOptions carries the per-run parameters of one ingestion. BatchID is
// optional; when the upload workflow does not supply one, a fresh UUID is
// assigned so a re-run can never collide with earlier records.
type IngestOptions struct {
	BatchID    string
	Period     string
	SourceFile string
	Force      bool
	ActorID    *primitive.ObjectID
}

// StagedBatch is the output of the staging pass: everything ready to commit,
// plus the per-row errors that did not stop the batch.
type StagedBatch struct {
	Transactions []models.TransactionRecord
	Bonuses      []models.BonusRecord
	Processed    int
	Skipped      int
	Errors       []models.RowError
}

// BuildBatch runs the row processor over all rows, resolving manager names
// through resolve and stamping batch id, period and timestamps. One bad row
// is recorded and skipped over; it never aborts the batch. Row indexes in
// errors are zero-based positions within rows.
func BuildBatch(ctx context.Context, rows []models.ReportRow, batchID, period string, cfg models.SystemConfig, resolve ManagerResolver, now time.Time) *StagedBatch {
	staged := &StagedBatch{}

	for i, row := range rows {
		result, err := processRowSafe(row, cfg)
		if err != nil {
			staged.Errors = append(staged.Errors, models.RowError{Row: i, Reason: err.Error()})
			continue
		}
		if result == nil {
			staged.Skipped++
			continue
		}

		managerID, err := resolve(ctx, result.ManagerName, result.ManagerType)
		if err != nil {
			staged.Errors = append(staged.Errors, models.RowError{Row: i, Reason: fmt.Sprintf("resolve manager %q: %v", result.ManagerName, err)})
			continue
		}

		tx := result.Transaction
		tx.ManagerID = managerID
		if result.ManagerType == models.ManagerTypeLive {
			tx.LiveManagerID = &managerID
		} else {
			tx.TeamManagerID = &managerID
		}
		tx.Period = period
		tx.BatchID = batchID
		tx.CreatedAt = now
		staged.Transactions = append(staged.Transactions, tx)

		for _, bonus := range result.Bonuses {
			bonus.ManagerID = managerID
			bonus.Period = period
			bonus.BatchID = batchID
			bonus.CreatedAt = now
			staged.Bonuses = append(staged.Bonuses, bonus)
		}

		staged.Processed++
	}

	return staged
}

// processRowSafe converts a row-processor panic into a row error so a single
// malformed row cannot take the whole batch down.
func processRowSafe(row models.ReportRow, cfg models.SystemConfig) (result *RowResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("row processing panic: %v", r)
		}
	}()
	return ProcessRow(row, cfg)
}

// Ingest processes rows into ledger records and commits them atomically under
// a fresh batch id. Identical report content is refused unless opts.Force is
// set, in which case the new batch records which batch it supersedes.
func (s *IngestService) Ingest(ctx context.Context, rows []models.ReportRow, opts IngestOptions) (*models.IngestResult, error) {
	sourceHash := HashRows(rows)

	// Only the non-superseded batch holds the hash; a forced chain always
	// supersedes the currently active run.
	var prior models.ReportBatch
	err := s.db.Collection("batches").FindOne(ctx, bson.M{"sourceHash": sourceHash, "superseded": false}).Decode(&prior)
	supersedes := ""
	if err == nil {
		if !opts.Force {
			return nil, fmt.Errorf("%w: batch %s", ErrDuplicateBatch, prior.BatchID)
		}
		supersedes = prior.BatchID
	} else if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("batch dedup lookup: %w", err)
	}

	batchID := opts.BatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}
	cfg := s.resolver.GetActiveConfig(ctx)
	now := time.Now()

	staged := BuildBatch(ctx, rows, batchID, opts.Period, cfg, s.resolveManager, now)

	batch := models.ReportBatch{
		BatchID:    batchID,
		Period:     opts.Period,
		SourceFile: opts.SourceFile,
		SourceHash: sourceHash,
		RowCount:   len(rows),
		Processed:  staged.Processed,
		ErrorCount: len(staged.Errors),
		Supersedes: supersedes,
		CreatedBy:  opts.ActorID,
		CreatedAt:  now,
	}

	if err := s.commit(ctx, batch, staged); err != nil {
		return nil, fmt.Errorf("batch commit failed, nothing persisted: %w", err)
	}

	log.Printf("Ingested batch %s: %d processed, %d skipped, %d errors", batchID, staged.Processed, staged.Skipped, len(staged.Errors))

	return &models.IngestResult{
		BatchID:   batchID,
		Period:    opts.Period,
		Processed: staged.Processed,
		Skipped:   staged.Skipped,
		Errors:    staged.Errors,
	}, nil
}

// commit writes the batch document and every staged record in one Mongo
// transaction. Either the whole batch becomes visible or none of it does;
// readers must never observe a half-written batch.
func (s *IngestService) commit(ctx context.Context, batch models.ReportBatch, staged *StagedBatch) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if batch.Supersedes != "" {
			// Must happen before the insert so the superseded batch leaves
			// the partial unique index on sourceHash.
			_, err := s.db.Collection("batches").UpdateOne(
				sc,
				bson.M{"batchId": batch.Supersedes},
				bson.M{"$set": bson.M{"superseded": true, "supersededBy": batch.BatchID}},
			)
			if err != nil {
				return nil, err
			}
		}
		if _, err := s.db.Collection("batches").InsertOne(sc, batch); err != nil {
			return nil, err
		}
		if len(staged.Transactions) > 0 {
			docs := make([]interface{}, len(staged.Transactions))
			for i, tx := range staged.Transactions {
				docs[i] = tx
			}
			if _, err := s.db.Collection("transactions").InsertMany(sc, docs); err != nil {
				return nil, err
			}
		}
		if len(staged.Bonuses) > 0 {
			docs := make([]interface{}, len(staged.Bonuses))
			for i, bonus := range staged.Bonuses {
				docs[i] = bonus
			}
			if _, err := s.db.Collection("bonuses").InsertMany(sc, docs); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// resolveManager finds a manager by name and type, creating the account on
// first appearance in a report. New accounts start inactive with no
// credentials; an admin activates them later.
func (s *IngestService) resolveManager(ctx context.Context, name, managerType string) (primitive.ObjectID, error) {
	filter := bson.M{"fullName": name, "managerType": managerType}
	update := bson.M{
		"$setOnInsert": bson.M{
			"fullName":    name,
			"managerType": managerType,
			"isActive":    false,
			"createdAt":   time.Now(),
			"updatedAt":   time.Now(),
		},
	}

	var manager models.Manager
	err := s.db.Collection("managers").FindOneAndUpdate(
		ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&manager)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return manager.ID, nil
}

// HashRows canonicalizes the cell grid and hashes it. Cell values go through
// the monetary/text normalizers so cosmetic formatting differences do not
// defeat deduplication.
func HashRows(rows []models.ReportRow) string {
	h := sha256.New()
	for _, row := range rows {
		for _, cell := range row {
			if amount := utils.ParseAmount(cell); amount != 0 {
				fmt.Fprintf(h, "%v|", amount)
			} else {
				fmt.Fprintf(h, "%s|", utils.ParseCell(cell))
			}
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
