package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/festival-live-api/internal/models"
	appErrors "github.com/noah-isme/festival-live-api/pkg/errors"
)

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (r *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return r.getErr
	}
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = raw
	return nil
}

func (r *memoryCacheRepo) Incr(ctx context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var value int64
	if raw, ok := r.entries[key]; ok {
		if err := json.Unmarshal(raw, &value); err != nil {
			return 0, err
		}
	}
	value++
	raw, err := json.Marshal(value)
	if err != nil {
		return 0, err
	}
	r.entries[key] = raw
	return value, nil
}

func (r *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range r.entries {
		if strings.HasPrefix(key, prefix) {
			delete(r.entries, key)
		}
	}
	return nil
}

func TestLeaderboardServiceComputeFromResults(t *testing.T) {
	store := newMemoryStore()
	results := NewResultService(store, store, store, &recordingBus{}, nil, nil, nil, ResultServiceConfig{})
	lb := NewLeaderboardService(store, store, nil, 0, nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lb.now = func() time.Time { return fixed }

	_, err := results.Submit(context.Background(), scenarioRequest("E1"))
	require.NoError(t, err)
	live := scenarioRequest("E3")
	live.Placements[0].InstitutionID = "InstC"
	live.Placements[2].InstitutionID = "InstA"
	_, err = results.Submit(context.Background(), live)
	require.NoError(t, err)

	all, err := lb.Compute(context.Background(), 20, "")
	require.NoError(t, err)
	assert.Equal(t, fixed, all.UpdatedAt)
	require.Len(t, all.Entries, 3)
	// InstA and InstC tie on 15; GREEN sorts before RED.
	assert.Equal(t, "InstC", all.Entries[0].InstitutionID)
	assert.Equal(t, 15.0, all.Entries[0].TotalPoints)
	assert.Equal(t, "Green", all.Entries[0].DisplayName)
	assert.Equal(t, "InstA", all.Entries[1].InstitutionID)
	assert.Equal(t, 14.0, all.Entries[2].TotalPoints)

	upper, err := lb.Compute(context.Background(), 20, "higher_secondary")
	require.NoError(t, err)
	require.Len(t, upper.Entries, 3)
	assert.Equal(t, "InstC", upper.Entries[0].InstitutionID)
	assert.Equal(t, 10.0, upper.Entries[0].TotalPoints)

	top, err := lb.Compute(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Len(t, top.Entries, 1)
}

func TestLeaderboardServiceStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.listErr = errors.New("connection refused")
	lb := NewLeaderboardService(store, store, nil, 0, nil)

	_, err := lb.Compute(context.Background(), 20, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestLeaderboardCacheInvalidatedOnWrite(t *testing.T) {
	store := newMemoryStore()
	metrics := NewMetricsService()
	cache := NewCacheService(newMemoryCacheRepo(), metrics, time.Minute, nil, true)
	results := NewResultService(store, store, store, &recordingBus{}, cache, nil, nil, ResultServiceConfig{})
	lb := NewLeaderboardService(store, store, cache, time.Minute, nil)
	ctx := context.Background()

	first, err := results.Submit(ctx, scenarioRequest("E1"))
	require.NoError(t, err)

	before, err := lb.Compute(ctx, 20, "")
	require.NoError(t, err)
	again, err := lb.Compute(ctx, 20, "")
	require.NoError(t, err)
	assert.Equal(t, before.Entries, again.Entries)
	assert.InDelta(t, 0.5, metrics.Snapshot().CacheHitRatio, 1e-9)

	_, err = results.Delete(ctx, first.ID)
	require.NoError(t, err)

	after, err := lb.Compute(ctx, 20, "")
	require.NoError(t, err)
	assert.Empty(t, after.Entries)
}

// gatedStandings holds a standings read open until released.
type gatedStandings struct {
	*memoryStore
	read    chan struct{}
	release chan struct{}
}

func (g *gatedStandings) ListForStandings(ctx context.Context, level *models.EventLevel) ([]models.Result, error) {
	results, err := g.memoryStore.ListForStandings(ctx, level)
	close(g.read)
	<-g.release
	return results, err
}

func TestLeaderboardComputeRacingDeleteDoesNotCacheStaleTotals(t *testing.T) {
	store := newMemoryStore()
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	results := NewResultService(store, store, store, &recordingBus{}, cache, nil, nil, ResultServiceConfig{})
	ctx := context.Background()

	first, err := results.Submit(ctx, scenarioRequest("E1"))
	require.NoError(t, err)

	gated := &gatedStandings{memoryStore: store, read: make(chan struct{}), release: make(chan struct{})}
	slow := NewLeaderboardService(gated, store, cache, time.Minute, nil)
	done := make(chan *LeaderboardSnapshot)
	go func() {
		snapshot, err := slow.Compute(ctx, 20, "")
		assert.NoError(t, err)
		done <- snapshot
	}()

	<-gated.read
	_, err = results.Delete(ctx, first.ID)
	require.NoError(t, err)
	close(gated.release)
	stale := <-done
	assert.Len(t, stale.Entries, 3)

	lb := NewLeaderboardService(store, store, cache, time.Minute, nil)
	after, err := lb.Compute(ctx, 20, "")
	require.NoError(t, err)
	assert.Empty(t, after.Entries)
}

func TestLeaderboardCacheErrorFallsBackToStore(t *testing.T) {
	store := newMemoryStore()
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("redis timeout")
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	lb := NewLeaderboardService(store, store, cache, time.Minute, nil)

	snapshot, err := lb.Compute(context.Background(), 20, "")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Entries)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, 0, nil, false)

	require.NoError(t, cache.Set(context.Background(), "leaderboard:all:20", map[string]int{"a": 1}, 0))
	var dest map[string]int
	hit, err := cache.Get(context.Background(), "leaderboard:all:20", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, repo.entries)

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	assert.NoError(t, nilCache.Invalidate(context.Background(), leaderboardCachePattern))
}
