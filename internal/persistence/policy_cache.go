package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
)

const policyKeyPrefix = "helpdesk:sla-policy:"

// cachedPolicy is the Redis representation; Absent caches a sector with no policy.
type cachedPolicy struct {
	Absent bool                            `json:"absent,omitempty"`
	Mode   domain.SLAMode                  `json:"mode,omitempty"`
	Hours  map[domain.CriticalityLevel]int `json:"hours,omitempty"`
	By     *string                         `json:"updated_by,omitempty"`
	At     time.Time                       `json:"updated_at"`
}

// PolicyCache is a read-through Redis cache in front of SLAPolicyRepository.
// Writes go to Postgres first and then drop the cached entry.
type PolicyCache struct {
	repo   repository.SLAPolicyRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewPolicyCache wraps repo. A nil client disables caching.
func NewPolicyCache(repo repository.SLAPolicyRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *PolicyCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyCache{repo: repo, client: client, ttl: ttl, logger: logger}
}

var _ repository.SLAPolicyRepository = (*PolicyCache)(nil)

func (c *PolicyCache) GetBySector(ctx context.Context, sectorID string) (*domain.SLAPolicy, error) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, policyKeyPrefix+sectorID).Bytes()
		if err == nil {
			var cp cachedPolicy
			if jerr := json.Unmarshal(raw, &cp); jerr == nil {
				if cp.Absent {
					return nil, pgx.ErrNoRows
				}
				return &domain.SLAPolicy{
					SectorID:      sectorID,
					Mode:          cp.Mode,
					HoursPerLevel: cp.Hours,
					UpdatedBy:     cp.By,
					UpdatedAt:     cp.At,
				}, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn("policy cache read failed", zap.String("sector_id", sectorID), zap.Error(err))
		}
	}

	policy, err := c.repo.GetBySector(ctx, sectorID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		c.store(ctx, sectorID, cachedPolicy{Absent: true})
		return nil, err
	case err != nil:
		return nil, err
	}
	c.store(ctx, sectorID, cachedPolicy{Mode: policy.Mode, Hours: policy.HoursPerLevel, By: policy.UpdatedBy, At: policy.UpdatedAt})
	return policy, nil
}

func (c *PolicyCache) Upsert(ctx context.Context, policy *domain.SLAPolicy) error {
	if err := c.repo.Upsert(ctx, policy); err != nil {
		return err
	}
	c.Invalidate(ctx, policy.SectorID)
	return nil
}

func (c *PolicyCache) Delete(ctx context.Context, sectorID string) error {
	if err := c.repo.Delete(ctx, sectorID); err != nil {
		return err
	}
	c.Invalidate(ctx, sectorID)
	return nil
}

func (c *PolicyCache) List(ctx context.Context) ([]domain.SLAPolicy, error) {
	return c.repo.List(ctx)
}

// Invalidate drops the cached entry for sectorID.
func (c *PolicyCache) Invalidate(ctx context.Context, sectorID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, policyKeyPrefix+sectorID).Err(); err != nil {
		c.logger.Warn("policy cache invalidate failed", zap.String("sector_id", sectorID), zap.Error(err))
	}
}

func (c *PolicyCache) store(ctx context.Context, sectorID string, cp cachedPolicy) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(cp)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, policyKeyPrefix+sectorID, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("policy cache write failed", zap.String("sector_id", sectorID), zap.Error(err))
	}
}
