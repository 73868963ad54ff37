package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dias221467/Employee_Manager/internal/models"
	"github.com/Dias221467/Employee_Manager/pkg/logger"
)

// CachedStore wraps an ObjectiveStore with Redis-backed caching of owner
// objective lists. Every write evicts the owner's cached lists.
type CachedStore struct {
	ObjectiveStore
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedStore creates a caching wrapper using the provided Redis client and TTL.
func NewCachedStore(base ObjectiveStore, client *redis.Client, ttl time.Duration) *CachedStore {
	if base == nil {
		panic("repository.NewCachedStore: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CachedStore{ObjectiveStore: base, redis: client, ttl: ttl}
}

func listCacheKey(ownerID int64) string {
	return "objectives:" + strconv.FormatInt(ownerID, 10)
}

func listCacheField(filter ObjectiveFilter) string {
	return filter.Category + "|" + string(filter.Status)
}

func (c *CachedStore) ListObjectives(ctx context.Context, ownerID int64, filter ObjectiveFilter) ([]models.Objective, error) {
	if objectives, ok := c.loadList(ctx, ownerID, filter); ok {
		return objectives, nil
	}

	objectives, err := c.ObjectiveStore.ListObjectives(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}

	c.storeList(ctx, ownerID, filter, objectives)
	return objectives, nil
}

func (c *CachedStore) CreateObjective(ctx context.Context, objective *models.Objective) (*models.Objective, error) {
	created, err := c.ObjectiveStore.CreateObjective(ctx, objective)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, created.OwnerID)
	return created, nil
}

func (c *CachedStore) UpdateObjective(ctx context.Context, objective *models.Objective, expectedVersion int) (*models.Objective, error) {
	updated, err := c.ObjectiveStore.UpdateObjective(ctx, objective, expectedVersion)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, updated.OwnerID)
	return updated, nil
}

func (c *CachedStore) DeleteObjective(ctx context.Context, id, ownerID int64) error {
	if err := c.ObjectiveStore.DeleteObjective(ctx, id, ownerID); err != nil {
		return err
	}
	c.evict(ctx, ownerID)
	return nil
}

func (c *CachedStore) AppendProgress(ctx context.Context, objective *models.Objective, expectedVersion int, entry *models.ProgressLogEntry) (*models.ProgressLogEntry, error) {
	// A partial write may still have changed what a list read returns.
	defer c.evict(ctx, objective.OwnerID)
	return c.ObjectiveStore.AppendProgress(ctx, objective, expectedVersion, entry)
}

func (c *CachedStore) loadList(ctx context.Context, ownerID int64, filter ObjectiveFilter) ([]models.Objective, bool) {
	if c.redis == nil || c.ttl == 0 {
		return nil, false
	}
	key := listCacheKey(ownerID)
	data, err := c.redis.HGet(ctx, key, listCacheField(filter)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var objectives []models.Objective
	if err := json.Unmarshal(data, &objectives); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return objectives, true
}

func (c *CachedStore) storeList(ctx context.Context, ownerID int64, filter ObjectiveFilter, objectives []models.Objective) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(objectives)
	if err != nil {
		return
	}
	key := listCacheKey(ownerID)
	pipe := c.redis.TxPipeline()
	pipe.HSet(ctx, key, listCacheField(filter), data)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.WithError(err).WithField("owner_id", ownerID).Warn("Failed to cache objective list")
	}
}

func (c *CachedStore) evict(ctx context.Context, ownerID int64) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, listCacheKey(ownerID)).Err(); err != nil {
		logger.Log.WithError(err).WithField("owner_id", ownerID).Warn("Failed to evict cached objective lists")
	}
}
