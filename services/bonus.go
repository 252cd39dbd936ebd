package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/starlive/agency_backend/models"
	"github.com/starlive/agency_backend/utils"
)

var (
	ErrBonusTypeNotGrantable = errors.New("bonus type cannot be granted manually")
	ErrManagerNotFound       = errors.New("manager not found")
	ErrDiamondThreshold      = errors.New("period gross below diamond threshold")
)

// BonusService grants the bonus types report ingestion never emits:
// graduation, diamond, recruitment and the three downline levels.
type BonusService struct {
	db       *mongo.Database
	resolver *PolicyResolver
	earnings *EarningsService
}

func NewBonusService(db *mongo.Database, resolver *PolicyResolver, earnings *EarningsService) *BonusService {
	return &BonusService{db: db, resolver: resolver, earnings: earnings}
}

// Grant writes one manual bonus record. A zero amount takes the configured
// default for the type. Diamond grants are gated on the manager's period
// gross reaching the configured threshold.
func (s *BonusService) Grant(ctx context.Context, req models.GrantBonusRequest, actor *primitive.ObjectID) (*models.BonusRecord, error) {
	if !models.GrantableBonusTypes[req.Type] {
		return nil, fmt.Errorf("%w: %s", ErrBonusTypeNotGrantable, req.Type)
	}

	managerID, err := primitive.ObjectIDFromHex(req.ManagerID)
	if err != nil {
		return nil, fmt.Errorf("invalid manager id: %w", err)
	}

	count, err := s.db.Collection("managers").CountDocuments(ctx, bson.M{"_id": managerID})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrManagerNotFound
	}

	cfg := s.resolver.GetActiveConfig(ctx)

	amount := req.Amount
	if amount == 0 {
		amount = defaultBonusAmount(req.Type, cfg)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("bonus amount must be positive")
	}

	if req.Type == models.BonusDiamond {
		summary, err := s.earnings.Aggregate(ctx, managerID, req.Period)
		if err != nil {
			return nil, fmt.Errorf("check diamond threshold: %w", err)
		}
		if summary.Gross < cfg.DiamondThreshold {
			return nil, fmt.Errorf("%w: gross %.2f, threshold %.2f", ErrDiamondThreshold, summary.Gross, cfg.DiamondThreshold)
		}
	}

	bonus := models.BonusRecord{
		ManagerID: managerID,
		Type:      req.Type,
		Amount:    utils.RoundCents(amount),
		Period:    req.Period,
		GrantedBy: actor,
		Note:      req.Note,
		CreatedAt: time.Now(),
	}

	result, err := s.db.Collection("bonuses").InsertOne(ctx, bonus)
	if err != nil {
		return nil, err
	}
	bonus.ID = result.InsertedID.(primitive.ObjectID)
	return &bonus, nil
}

func defaultBonusAmount(bonusType string, cfg models.SystemConfig) float64 {
	switch bonusType {
	case models.BonusGraduation:
		return cfg.GraduationBonus
	case models.BonusDiamond:
		return cfg.DiamondBonus
	case models.BonusRecruitment:
		return cfg.RecruitmentBonus
	case models.BonusDownlineA:
		return cfg.DownlineBonuses["A"]
	case models.BonusDownlineB:
		return cfg.DownlineBonuses["B"]
	case models.BonusDownlineC:
		return cfg.DownlineBonuses["C"]
	}
	return 0
}
