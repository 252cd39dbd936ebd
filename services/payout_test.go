package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/starlive/agency_backend/models"
)

type fakeEarnings struct {
	total float64
}

func (f *fakeEarnings) Aggregate(ctx context.Context, managerID primitive.ObjectID, period string) (*models.EarningsSummary, error) {
	return &models.EarningsSummary{ManagerID: managerID, Period: period, TotalEarnings: f.total}, nil
}

type fakeRequestStore struct {
	mu       sync.Mutex
	requests []*models.PayoutRequest
}

func (f *fakeRequestStore) SumRequested(ctx context.Context, managerID primitive.ObjectID, period string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, req := range f.requests {
		if req.ManagerID != managerID || req.Period != period {
			continue
		}
		excluded := false
		for _, status := range models.ExcludedPayoutStatuses {
			if req.Status == status {
				excluded = true
				break
			}
		}
		if !excluded {
			total += req.Amount
		}
	}
	return total, nil
}

func (f *fakeRequestStore) Insert(ctx context.Context, req *models.PayoutRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req.ID = primitive.NewObjectID()
	f.requests = append(f.requests, req)
	return nil
}

func TestEvaluatePayout(t *testing.T) {
	decision := EvaluatePayout(1000, 400, 500)
	assert.True(t, decision.Accepted)
	assert.Equal(t, 600.0, decision.NetAvailable)

	decision = EvaluatePayout(1000, 400, 600.01)
	assert.False(t, decision.Accepted)
	assert.NotEmpty(t, decision.Reason)

	decision = EvaluatePayout(1000, 400, 0)
	assert.False(t, decision.Accepted, "zero amount is rejected")

	decision = EvaluatePayout(1000, 400, -50)
	assert.False(t, decision.Accepted, "negative amount is rejected")
}

func TestEvaluatePayoutNetAvailableFloor(t *testing.T) {
	decision := EvaluatePayout(100, 250, 10)
	assert.False(t, decision.Accepted)
	assert.Equal(t, 0.0, decision.NetAvailable, "over-requested ledger reports zero, not negative")
}

func TestCheckAndReserveRejectionCarriesBreakdown(t *testing.T) {
	svc := newPayoutServiceWithDeps(&fakeEarnings{total: 100}, &fakeRequestStore{})
	managerID := primitive.NewObjectID()

	decision, err := svc.CheckAndReserve(context.Background(), managerID, "2026-08", 150, nil)
	require.NoError(t, err, "a rejection is a normal outcome, not an error")
	assert.False(t, decision.Accepted)
	assert.Equal(t, 100.0, decision.TotalEarnings)
	assert.Equal(t, 0.0, decision.AlreadyRequested)
	assert.Equal(t, 100.0, decision.NetAvailable)
	assert.Nil(t, decision.Request)
}

func TestCheckAndReserveAcceptCreatesSubmittedRequest(t *testing.T) {
	store := &fakeRequestStore{}
	svc := newPayoutServiceWithDeps(&fakeEarnings{total: 100}, store)
	managerID := primitive.NewObjectID()

	decision, err := svc.CheckAndReserve(context.Background(), managerID, "2026-08", 60, &managerID)
	require.NoError(t, err)
	require.True(t, decision.Accepted)
	require.NotNil(t, decision.Request)

	assert.Equal(t, models.PayoutStatusSubmitted, decision.Request.Status)
	require.Len(t, decision.Request.History, 1)
	assert.Equal(t, models.PayoutStatusSubmitted, decision.Request.History[0].Status)
	assert.Equal(t, &managerID, decision.Request.History[0].ChangedBy)
}

func TestCheckAndReserveRejectedRequestsReleaseBalance(t *testing.T) {
	store := &fakeRequestStore{}
	svc := newPayoutServiceWithDeps(&fakeEarnings{total: 100}, store)
	managerID := primitive.NewObjectID()

	first, err := svc.CheckAndReserve(context.Background(), managerID, "2026-08", 80, nil)
	require.NoError(t, err)
	require.True(t, first.Accepted)

	// A second 80 cannot fit while the first is pending.
	second, err := svc.CheckAndReserve(context.Background(), managerID, "2026-08", 80, nil)
	require.NoError(t, err)
	assert.False(t, second.Accepted)

	// Rejecting the first releases its amount.
	first.Request.Status = models.PayoutStatusRejected

	third, err := svc.CheckAndReserve(context.Background(), managerID, "2026-08", 80, nil)
	require.NoError(t, err)
	assert.True(t, third.Accepted)
}

func TestCheckAndReserveConcurrentOverclaim(t *testing.T) {
	// Two concurrent requests that individually fit but jointly exceed the
	// balance: exactly one may win.
	store := &fakeRequestStore{}
	svc := newPayoutServiceWithDeps(&fakeEarnings{total: 100}, store)
	managerID := primitive.NewObjectID()

	const attempts = 2
	decisions := make([]*models.PayoutDecision, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decision, err := svc.CheckAndReserve(context.Background(), managerID, "2026-08", 60, nil)
			assert.NoError(t, err)
			decisions[i] = decision
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, decision := range decisions {
		if decision.Accepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted, "exactly one of the two concurrent requests may be accepted")

	total, err := store.SumRequested(context.Background(), managerID, "2026-08")
	require.NoError(t, err)
	assert.LessOrEqual(t, total, 100.0, "non-rejected requests never exceed total earnings")
}

func TestCheckAndReserveIndependentPeriods(t *testing.T) {
	store := &fakeRequestStore{}
	svc := newPayoutServiceWithDeps(&fakeEarnings{total: 100}, store)
	managerID := primitive.NewObjectID()

	july, err := svc.CheckAndReserve(context.Background(), managerID, "2026-07", 100, nil)
	require.NoError(t, err)
	assert.True(t, july.Accepted)

	august, err := svc.CheckAndReserve(context.Background(), managerID, "2026-08", 100, nil)
	require.NoError(t, err)
	assert.True(t, august.Accepted, "periods are separate ledgers")
}
