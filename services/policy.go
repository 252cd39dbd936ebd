package services

import (
	"context"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/starlive/agency_backend/models"
)

// configCacheTTL bounds how long a fetched policy is served before the next
// caller goes back to the database.
const configCacheTTL = 5 * time.Minute

// ConfigCache holds the active SystemConfig with its fetch time. It is an
// explicit object handed to whoever needs policy, so tests can inject a fresh
// one instead of fighting a package-level singleton. Concurrent callers on a
// cache miss may each fetch once; the lookup is idempotent and cheap, so no
// miss coordination is done beyond the value lock.
type ConfigCache struct {
	mu        sync.RWMutex
	value     *models.SystemConfig
	fetchedAt time.Time
}

func NewConfigCache() *ConfigCache {
	return &ConfigCache{}
}

func (c *ConfigCache) get() (*models.SystemConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.value == nil || time.Since(c.fetchedAt) > configCacheTTL {
		return nil, false
	}
	return c.value, true
}

func (c *ConfigCache) set(cfg models.SystemConfig) {
	c.mu.Lock()
	c.value = &cfg
	c.fetchedAt = time.Now()
	c.mu.Unlock()
}

// Invalidate clears the cache so the next lookup hits the database. Called
// after an admin inserts a new policy document.
func (c *ConfigCache) Invalidate() {
	c.mu.Lock()
	c.value = nil
	c.mu.Unlock()
}

// PolicyResolver supplies the active commission policy: the most recent
// config document whose validity window has opened, cached for a bounded
// interval, with hardcoded defaults when nothing is configured or the lookup
// fails. A missing policy must never fail a batch.
type PolicyResolver struct {
	db    *mongo.Database
	cache *ConfigCache
}

func NewPolicyResolver(db *mongo.Database, cache *ConfigCache) *PolicyResolver {
	if cache == nil {
		cache = NewConfigCache()
	}
	return &PolicyResolver{db: db, cache: cache}
}

// GetActiveConfig returns the policy in force right now.
func (r *PolicyResolver) GetActiveConfig(ctx context.Context) models.SystemConfig {
	if cfg, ok := r.cache.get(); ok {
		return *cfg
	}

	var cfg models.SystemConfig
	err := r.db.Collection("systemConfigs").FindOne(
		ctx,
		bson.M{"effectiveFrom": bson.M{"$lte": time.Now()}},
		options.FindOne().SetSort(bson.D{{Key: "effectiveFrom", Value: -1}}),
	).Decode(&cfg)

	if err != nil {
		if err != mongo.ErrNoDocuments {
			log.Printf("System config lookup failed, using defaults: %v", err)
		}
		cfg = models.DefaultSystemConfig()
	} else {
		cfg = fillConfigDefaults(cfg)
	}

	r.cache.set(cfg)
	return cfg
}

// Invalidate drops the cached policy immediately.
func (r *PolicyResolver) Invalidate() {
	r.cache.Invalidate()
}

// fillConfigDefaults backfills fields a stored config document left empty, so
// a partial admin update can never zero out rates or deductions.
func fillConfigDefaults(cfg models.SystemConfig) models.SystemConfig {
	defaults := models.DefaultSystemConfig()

	if cfg.DetectionMode == "" {
		cfg.DetectionMode = defaults.DetectionMode
	}
	if len(cfg.MilestoneDeductions) == 0 {
		cfg.MilestoneDeductions = defaults.MilestoneDeductions
	}
	if len(cfg.MilestoneMarkers) == 0 {
		cfg.MilestoneMarkers = defaults.MilestoneMarkers
	}
	if len(cfg.MilestonePayouts) == 0 {
		cfg.MilestonePayouts = defaults.MilestonePayouts
	}
	if len(cfg.CommissionRates) == 0 {
		cfg.CommissionRates = defaults.CommissionRates
	}
	if cfg.DiamondThreshold == 0 {
		cfg.DiamondThreshold = defaults.DiamondThreshold
	}
	if cfg.DiamondBonus == 0 {
		cfg.DiamondBonus = defaults.DiamondBonus
	}
	if cfg.RecruitmentBonus == 0 {
		cfg.RecruitmentBonus = defaults.RecruitmentBonus
	}
	if cfg.GraduationBonus == 0 {
		cfg.GraduationBonus = defaults.GraduationBonus
	}
	if len(cfg.DownlineBonuses) == 0 {
		cfg.DownlineBonuses = defaults.DownlineBonuses
	}
	return cfg
}
