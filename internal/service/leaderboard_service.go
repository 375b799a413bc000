package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/festival-live-api/internal/models"
	appErrors "github.com/noah-isme/festival-live-api/pkg/errors"
)

type standingsSource interface {
	ListForStandings(ctx context.Context, level *models.EventLevel) ([]models.Result, error)
}

type institutionLister interface {
	List(ctx context.Context, activeOnly bool) ([]models.Institution, error)
}

type snapshotCache interface {
	Generation(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// LeaderboardSnapshot is a computed standings table stamped with its computation time.
type LeaderboardSnapshot struct {
	Entries   []models.StandingsEntry `json:"data"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

// LeaderboardService recomputes standings from stored results on every read.
type LeaderboardService struct {
	results      standingsSource
	institutions institutionLister
	cache        snapshotCache
	cacheTTL     time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewLeaderboardService constructs the service. cache may be nil.
func NewLeaderboardService(results standingsSource, institutions institutionLister, cache snapshotCache, cacheTTL time.Duration, logger *zap.Logger) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{
		results:      results,
		institutions: institutions,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger,
		now:          time.Now,
	}
}

// Compute returns the standings, optionally restricted to active events of a level.
func (s *LeaderboardService) Compute(ctx context.Context, limit int, level string) (*LeaderboardSnapshot, error) {
	if limit <= 0 {
		limit = DefaultStandingsLimit
	}
	lvl := models.ParseEventLevel(level)

	// The generation is read before the results so a write landing mid-compute
	// leaves this snapshot under a key no later reader uses.
	cache := s.cache
	var key string
	if cache != nil {
		gen, err := cache.Generation(ctx, leaderboardGenerationKey)
		if err != nil {
			s.logger.Warn("leaderboard cache generation", zap.Error(err))
			cache = nil
		}
		key = leaderboardKey(gen, lvl, limit)
	}

	if cache != nil {
		var cached LeaderboardSnapshot
		hit, err := cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("leaderboard cache read", zap.String("key", key), zap.Error(err))
		}
		if hit {
			return &cached, nil
		}
	}

	results, err := s.results.ListForStandings(ctx, lvl)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute leaderboard")
	}
	institutions, err := s.institutions.List(ctx, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institutions")
	}

	snapshot := &LeaderboardSnapshot{
		Entries:   ComputeStandings(results, institutions, limit),
		UpdatedAt: s.now().UTC(),
	}

	if cache != nil {
		if err := cache.Set(ctx, key, snapshot, s.cacheTTL); err != nil {
			s.logger.Warn("leaderboard cache write", zap.String("key", key), zap.Error(err))
		}
	}
	return snapshot, nil
}

func leaderboardKey(gen int64, level *models.EventLevel, limit int) string {
	scope := "all"
	if level != nil {
		scope = string(*level)
	}
	return fmt.Sprintf("leaderboard:%d:%s:%d", gen, scope, limit)
}
