package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/starlive/agency_backend/models"
	"github.com/starlive/agency_backend/utils"
)

// summaryCacheTTL is how long an aggregated summary is served from Redis for
// the read API. The payout guard never reads this cache; it always refolds
// from the stored records.
const summaryCacheTTL = 60 * time.Second

// EarningsService folds a manager's immutable transaction and bonus records
// into an EarningsSummary.
type EarningsService struct {
	db    *mongo.Database
	redis *redis.Client
}

func NewEarningsService(db *mongo.Database, redisClient *redis.Client) *EarningsService {
	return &EarningsService{db: db, redis: redisClient}
}

// Aggregate returns the summary for a manager, optionally scoped to one
// period. Pure read: calling it twice against an unchanged record set returns
// identical results.
func (s *EarningsService) Aggregate(ctx context.Context, managerID primitive.ObjectID, period string) (*models.EarningsSummary, error) {
	transactions, bonuses, err := s.fetchRecords(ctx, managerID, period)
	if err != nil {
		return nil, err
	}
	summary := FoldEarnings(managerID, period, transactions, bonuses)
	return summary, nil
}

// AggregateCached serves the read API: Redis first, refold on miss. Cache
// failures degrade to a direct fold, mirroring how the rest of the system
// treats Redis as optional.
func (s *EarningsService) AggregateCached(ctx context.Context, managerID primitive.ObjectID, period string) (*models.EarningsSummary, error) {
	key := summaryCacheKey(managerID, period)

	if s.redis != nil {
		if payload, err := s.redis.Get(ctx, key).Result(); err == nil {
			var summary models.EarningsSummary
			if err := json.Unmarshal([]byte(payload), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	summary, err := s.Aggregate(ctx, managerID, period)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := s.redis.Set(ctx, key, payload, summaryCacheTTL).Err(); err != nil {
				log.Printf("Failed to cache earnings summary: %v", err)
			}
		}
	}

	return summary, nil
}

func summaryCacheKey(managerID primitive.ObjectID, period string) string {
	if period == "" {
		period = "all"
	}
	return "earnings:" + managerID.Hex() + ":" + period
}

// fetchRecords loads the manager's transactions and bonuses. A manager can
// appear under either the live or the team foreign key across rows, so the
// transaction filter matches both and merges, rather than assuming one
// owning key.
func (s *EarningsService) fetchRecords(ctx context.Context, managerID primitive.ObjectID, period string) ([]models.TransactionRecord, []models.BonusRecord, error) {
	txFilter := bson.M{
		"$or": []bson.M{
			{"liveManagerId": managerID},
			{"teamManagerId": managerID},
		},
	}
	bonusFilter := bson.M{"managerId": managerID}
	if period != "" {
		txFilter["period"] = period
		bonusFilter["period"] = period
	}

	var transactions []models.TransactionRecord
	cursor, err := s.db.Collection("transactions").Find(ctx, txFilter)
	if err != nil {
		return nil, nil, err
	}
	if err := cursor.All(ctx, &transactions); err != nil {
		return nil, nil, err
	}

	var bonuses []models.BonusRecord
	cursor, err = s.db.Collection("bonuses").Find(ctx, bonusFilter)
	if err != nil {
		return nil, nil, err
	}
	if err := cursor.All(ctx, &bonuses); err != nil {
		return nil, nil, err
	}

	return transactions, bonuses, nil
}

// FoldEarnings is the pure fold over a record set. No side effects, no
// database: given the same records it always produces the same summary.
func FoldEarnings(managerID primitive.ObjectID, period string, transactions []models.TransactionRecord, bonuses []models.BonusRecord) *models.EarningsSummary {
	summary := &models.EarningsSummary{
		ManagerID:        managerID,
		Period:           period,
		MilestoneBonuses: map[string]float64{},
		DownlineBonuses:  map[string]float64{},
	}
	for _, m := range models.Milestones {
		summary.MilestoneBonuses[m] = 0
	}
	for _, level := range []string{"A", "B", "C"} {
		summary.DownlineBonuses[level] = 0
	}

	for _, tx := range transactions {
		summary.Gross += tx.Gross
		summary.Deductions += tx.Deductions
		summary.Net += tx.Net
		summary.TransactionCount++
	}

	for _, bonus := range bonuses {
		summary.BonusCount++
		switch bonus.Type {
		case models.BonusBaseCommission:
			summary.BaseCommission += bonus.Amount
		case models.BonusMilestoneS:
			summary.MilestoneBonuses[models.MilestoneS] += bonus.Amount
		case models.BonusMilestoneN:
			summary.MilestoneBonuses[models.MilestoneN] += bonus.Amount
		case models.BonusMilestoneO:
			summary.MilestoneBonuses[models.MilestoneO] += bonus.Amount
		case models.BonusMilestoneP:
			summary.MilestoneBonuses[models.MilestoneP] += bonus.Amount
		case models.BonusGraduation:
			summary.GraduationBonus += bonus.Amount
		case models.BonusDiamond:
			summary.DiamondBonus += bonus.Amount
		case models.BonusRecruitment:
			summary.RecruitmentBonus += bonus.Amount
		case models.BonusDownlineA:
			summary.DownlineBonuses["A"] += bonus.Amount
		case models.BonusDownlineB:
			summary.DownlineBonuses["B"] += bonus.Amount
		case models.BonusDownlineC:
			summary.DownlineBonuses["C"] += bonus.Amount
		default:
			log.Printf("Unknown bonus type %q on record %s, counted into total bonus", bonus.Type, bonus.ID.Hex())
			summary.TotalBonus += bonus.Amount
		}
	}

	for _, amount := range summary.MilestoneBonuses {
		summary.TotalBonus += amount
	}
	for _, amount := range summary.DownlineBonuses {
		summary.TotalBonus += amount
	}
	summary.TotalBonus += summary.GraduationBonus + summary.DiamondBonus + summary.RecruitmentBonus

	summary.Gross = utils.RoundCents(summary.Gross)
	summary.Deductions = utils.RoundCents(summary.Deductions)
	summary.Net = utils.RoundCents(summary.Net)
	summary.BaseCommission = utils.RoundCents(summary.BaseCommission)
	summary.TotalBonus = utils.RoundCents(summary.TotalBonus)
	summary.TotalEarnings = utils.RoundCents(summary.BaseCommission + summary.TotalBonus)

	return summary
}
