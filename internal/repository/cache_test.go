package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dias221467/Employee_Manager/internal/models"
)

type stubStore struct {
	ObjectiveStore
	listFn   func(ctx context.Context, ownerID int64, filter ObjectiveFilter) ([]models.Objective, error)
	updateFn func(ctx context.Context, objective *models.Objective, expectedVersion int) (*models.Objective, error)
	appendFn func(ctx context.Context, objective *models.Objective, expectedVersion int, entry *models.ProgressLogEntry) (*models.ProgressLogEntry, error)
}

func (s *stubStore) ListObjectives(ctx context.Context, ownerID int64, filter ObjectiveFilter) ([]models.Objective, error) {
	if s.listFn == nil {
		return nil, errors.New("unexpected ListObjectives call")
	}
	return s.listFn(ctx, ownerID, filter)
}

func (s *stubStore) UpdateObjective(ctx context.Context, objective *models.Objective, expectedVersion int) (*models.Objective, error) {
	if s.updateFn == nil {
		return nil, errors.New("unexpected UpdateObjective call")
	}
	return s.updateFn(ctx, objective, expectedVersion)
}

func (s *stubStore) AppendProgress(ctx context.Context, objective *models.Objective, expectedVersion int, entry *models.ProgressLogEntry) (*models.ProgressLogEntry, error) {
	if s.appendFn == nil {
		return nil, errors.New("unexpected AppendProgress call")
	}
	return s.appendFn(ctx, objective, expectedVersion, entry)
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedStoreListMissThenHit(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()

	var calls int
	cache := NewCachedStore(&stubStore{
		listFn: func(ctx context.Context, ownerID int64, filter ObjectiveFilter) ([]models.Objective, error) {
			calls++
			assert.Equal(t, int64(3), ownerID)
			return []models.Objective{{
				ID:        1,
				Objective: "Launch beta",
				OwnerID:   3,
				KeyResult: models.NewKeyResults(models.KeyResult{Title: "Write docs", Legacy: true}, models.KeyResult{ID: "k2", Title: "Ship code", Progress: 60}),
			}}, nil
		},
	}, client, time.Minute)

	first, err := cache.ListObjectives(ctx, 3, ObjectiveFilter{Category: "Eng"})
	require.NoError(t, err)
	second, err := cache.ListObjectives(ctx, 3, ObjectiveFilter{Category: "Eng"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].KeyResult, second[0].KeyResult)
	assert.True(t, second[0].KeyResult.Items[0].Legacy)

	ttl := mr.TTL(listCacheKey(3))
	assert.True(t, ttl > 0 && ttl <= time.Minute, "unexpected TTL %v", ttl)

	// A different filter is cached separately.
	_, err = cache.ListObjectives(ctx, 3, ObjectiveFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCachedStoreWritesEvictOwnerLists(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()

	var calls int
	cache := NewCachedStore(&stubStore{
		listFn: func(ctx context.Context, ownerID int64, filter ObjectiveFilter) ([]models.Objective, error) {
			calls++
			return []models.Objective{}, nil
		},
		updateFn: func(ctx context.Context, objective *models.Objective, expectedVersion int) (*models.Objective, error) {
			return objective, nil
		},
		appendFn: func(ctx context.Context, objective *models.Objective, expectedVersion int, entry *models.ProgressLogEntry) (*models.ProgressLogEntry, error) {
			return nil, ErrPartialWrite
		},
	}, client, time.Minute)

	_, err := cache.ListObjectives(ctx, 3, ObjectiveFilter{})
	require.NoError(t, err)
	require.True(t, mr.Exists(listCacheKey(3)))

	_, err = cache.UpdateObjective(ctx, &models.Objective{ID: 1, OwnerID: 3}, 1)
	require.NoError(t, err)
	assert.False(t, mr.Exists(listCacheKey(3)))

	_, err = cache.ListObjectives(ctx, 3, ObjectiveFilter{})
	require.NoError(t, err)
	require.True(t, mr.Exists(listCacheKey(3)))

	_, err = cache.AppendProgress(ctx, &models.Objective{ID: 1, OwnerID: 3}, 1, &models.ProgressLogEntry{})
	assert.ErrorIs(t, err, ErrPartialWrite)
	assert.False(t, mr.Exists(listCacheKey(3)))
	assert.Equal(t, 2, calls)
}

func TestCachedStoreFallsBackOnCorruptEntry(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()

	mr.HSet(listCacheKey(5), listCacheField(ObjectiveFilter{}), "not json")

	var calls int
	cache := NewCachedStore(&stubStore{
		listFn: func(ctx context.Context, ownerID int64, filter ObjectiveFilter) ([]models.Objective, error) {
			calls++
			return []models.Objective{{ID: 9}}, nil
		},
	}, client, time.Minute)

	got, err := cache.ListObjectives(ctx, 5, ObjectiveFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(9), got[0].ID)
}
