package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/starlive/agency_backend/models"
	"github.com/starlive/agency_backend/utils"
)

var (
	ErrPayoutNotFound      = errors.New("payout request not found")
	ErrInvalidTransition   = errors.New("invalid payout status transition")
	ErrTerminalPayoutState = errors.New("payout request is in a terminal state")
)

// earningsReader is the slice of EarningsService the guard needs. Kept as an
// interface so tests can drive the concurrency invariant without a database.
type earningsReader interface {
	Aggregate(ctx context.Context, managerID primitive.ObjectID, period string) (*models.EarningsSummary, error)
}

// requestStore is the payout-request persistence the guard needs.
type requestStore interface {
	SumRequested(ctx context.Context, managerID primitive.ObjectID, period string) (float64, error)
	Insert(ctx context.Context, req *models.PayoutRequest) error
}

// PayoutService is the ledger guard: it recomputes a manager's net-available
// balance from the immutable record set and only then admits a new request.
// The check-then-insert runs under a per-(manager, period) mutex so two
// concurrent submissions cannot both read a balance that is individually
// sufficient but jointly overdrawn.
type PayoutService struct {
	db       *mongo.Database
	earnings earningsReader
	store    requestStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewPayoutService(db *mongo.Database, earnings *EarningsService) *PayoutService {
	s := &PayoutService{
		db:       db,
		earnings: earnings,
		locks:    make(map[string]*sync.Mutex),
	}
	s.store = &mongoRequestStore{db: db}
	return s
}

// newPayoutServiceWithDeps is the test seam.
func newPayoutServiceWithDeps(earnings earningsReader, store requestStore) *PayoutService {
	return &PayoutService{
		earnings: earnings,
		store:    store,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *PayoutService) lockFor(managerID primitive.ObjectID, period string) *sync.Mutex {
	key := managerID.Hex() + "|" + period
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[key] = lock
	return lock
}

// CheckAndReserve validates a requested payout against the manager's net
// available balance and, when it fits, creates the request in submitted
// state. A rejection is a normal outcome, not an error; the decision always
// carries the full balance breakdown.
func (s *PayoutService) CheckAndReserve(ctx context.Context, managerID primitive.ObjectID, period string, amount float64, actor *primitive.ObjectID) (*models.PayoutDecision, error) {
	lock := s.lockFor(managerID, period)
	lock.Lock()
	defer lock.Unlock()

	summary, err := s.earnings.Aggregate(ctx, managerID, period)
	if err != nil {
		return nil, fmt.Errorf("recompute earnings: %w", err)
	}

	alreadyRequested, err := s.store.SumRequested(ctx, managerID, period)
	if err != nil {
		return nil, fmt.Errorf("sum prior requests: %w", err)
	}

	decision := EvaluatePayout(summary.TotalEarnings, alreadyRequested, amount)
	if !decision.Accepted {
		return decision, nil
	}

	now := time.Now()
	request := &models.PayoutRequest{
		ManagerID: managerID,
		Period:    period,
		Amount:    utils.RoundCents(amount),
		Status:    models.PayoutStatusSubmitted,
		History: []models.StatusChange{{
			Status:    models.PayoutStatusSubmitted,
			ChangedBy: actor,
			ChangedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, request); err != nil {
		return nil, fmt.Errorf("create payout request: %w", err)
	}

	decision.Request = request
	return decision, nil
}

// EvaluatePayout is the pure balance check. netAvailable is floored at zero
// so an over-requested ledger can never show a negative balance to clients.
func EvaluatePayout(totalEarnings, alreadyRequested, requested float64) *models.PayoutDecision {
	netAvailable := totalEarnings - alreadyRequested
	if netAvailable < 0 {
		netAvailable = 0
	}

	decision := &models.PayoutDecision{
		TotalEarnings:    utils.RoundCents(totalEarnings),
		AlreadyRequested: utils.RoundCents(alreadyRequested),
		NetAvailable:     utils.RoundCents(netAvailable),
	}

	switch {
	case requested <= 0:
		decision.Reason = "requested amount must be positive"
	case utils.RoundCents(requested) > decision.NetAvailable:
		decision.Reason = fmt.Sprintf("requested %.2f exceeds net available %.2f", requested, decision.NetAvailable)
	default:
		decision.Accepted = true
	}
	return decision
}

// UpdateStatus applies an admin transition to a payout request, appending to
// its history log. Paid and rejected are terminal.
func (s *PayoutService) UpdateStatus(ctx context.Context, requestID primitive.ObjectID, newStatus string, actor *primitive.ObjectID, note string) (*models.PayoutRequest, error) {
	var request models.PayoutRequest
	err := s.db.Collection("payoutRequests").FindOne(ctx, bson.M{"_id": requestID}).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}

	allowed, ok := models.ValidPayoutTransitions[request.Status]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTerminalPayoutState, request.Status)
	}
	valid := false
	for _, status := range allowed {
		if status == newStatus {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, request.Status, newStatus)
	}

	now := time.Now()
	change := models.StatusChange{
		Status:    newStatus,
		ChangedBy: actor,
		Note:      note,
		ChangedAt: now,
	}

	err = s.db.Collection("payoutRequests").FindOneAndUpdate(
		ctx,
		bson.M{"_id": requestID, "status": request.Status},
		bson.M{
			"$set":  bson.M{"status": newStatus, "updatedAt": now},
			"$push": bson.M{"history": change},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Lost a race with another admin; surface as an invalid transition.
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	return &request, nil
}

// ListForManager returns a manager's payout requests, newest first.
func (s *PayoutService) ListForManager(ctx context.Context, managerID primitive.ObjectID) ([]models.PayoutRequest, error) {
	cursor, err := s.db.Collection("payoutRequests").Find(
		ctx,
		bson.M{"managerId": managerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	var requests []models.PayoutRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// mongoRequestStore is the production requestStore.
type mongoRequestStore struct {
	db *mongo.Database
}

func (s *mongoRequestStore) SumRequested(ctx context.Context, managerID primitive.ObjectID, period string) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"managerId": managerID,
			"period":    period,
			"status":    bson.M{"$nin": models.ExcludedPayoutStatuses},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
		}}},
	}

	cursor, err := s.db.Collection("payoutRequests").Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

func (s *mongoRequestStore) Insert(ctx context.Context, req *models.PayoutRequest) error {
	result, err := s.db.Collection("payoutRequests").InsertOne(ctx, req)
	if err != nil {
		return err
	}
	req.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}
