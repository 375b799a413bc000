package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/festival-live-api/internal/broadcast"
	"github.com/noah-isme/festival-live-api/internal/dto"
	"github.com/noah-isme/festival-live-api/internal/models"
	"github.com/noah-isme/festival-live-api/internal/repository"
	appErrors "github.com/noah-isme/festival-live-api/pkg/errors"
)

const (
	// RecentResultsLimit caps the public results listing.
	RecentResultsLimit = 15

	leaderboardCachePattern  = "leaderboard:*"
	leaderboardGenerationKey = "leaderboard-gen"
	defaultTxTimeout         = 5 * time.Second
)

type resultStore interface {
	Commit(ctx context.Context, result *models.Result) error
	Delete(ctx context.Context, id string) (*models.Result, error)
	GetEnriched(ctx context.Context, id string) (*models.EnrichedResult, error)
	ListEnriched(ctx context.Context, filter models.ResultFilter) ([]models.EnrichedResult, error)
}

type eventReader interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

type eventBroadcaster interface {
	Broadcast(evt broadcast.Event) int
}

type cacheInvalidator interface {
	Bump(ctx context.Context, key string) error
	Invalidate(ctx context.Context, pattern string) error
}

type submissionMetrics interface {
	RecordSubmission(outcome string)
}

// ResultServiceConfig tunes the commit path.
type ResultServiceConfig struct {
	TxTimeout time.Duration
}

// ResultService accepts podium submissions and announces committed changes.
type ResultService struct {
	results      resultStore
	events       eventReader
	institutions institutionLister
	bus          eventBroadcaster
	cache        cacheInvalidator
	metrics      submissionMetrics
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          ResultServiceConfig
}

// NewResultService constructs the service. cache may be nil.
func NewResultService(results resultStore, events eventReader, institutions institutionLister, bus eventBroadcaster, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger, cfg ResultServiceConfig) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = defaultTxTimeout
	}
	return &ResultService{
		results:      results,
		events:       events,
		institutions: institutions,
		bus:          bus,
		cache:        cache,
		validator:    newValidator(validate),
		logger:       logger,
		cfg:          cfg,
	}
}

// WithMetrics attaches a submission outcome recorder.
func (s *ResultService) WithMetrics(metrics submissionMetrics) *ResultService {
	s.metrics = metrics
	return s
}

// Submit validates and commits a result, then broadcasts it exactly once.
func (s *ResultService) Submit(ctx context.Context, req dto.SubmitResultRequest) (*models.Result, error) {
	details := s.validateSubmission(req)
	unknown, err := s.unknownInstitutions(ctx, req.Placements)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institutions")
	}
	if details = append(details, unknown...); len(details) > 0 {
		s.record("invalid")
		return nil, appErrors.Validation(details)
	}

	eventID := strings.TrimSpace(req.EventID)
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.record("invalid")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	result := &models.Result{EventID: event.ID, Placements: toPlacements(req.Placements)}
	if by := strings.TrimSpace(req.SubmittedBy); by != "" {
		result.SubmittedBy = &by
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()
	if err := s.results.Commit(txCtx, result); err != nil {
		if errors.Is(err, repository.ErrResultExists) {
			s.record("duplicate")
			return nil, appErrors.Clone(appErrors.ErrResultSubmitted, "")
		}
		if errors.Is(err, repository.ErrUnknownInstitution) {
			// An institution removed after the lookup above.
			s.record("invalid")
			return nil, appErrors.Validation([]appErrors.FieldError{{Field: "placements", Message: "unknown institution"}})
		}
		s.record("failed")
		s.logger.Error("commit result", zap.String("event_id", event.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit result")
	}

	s.record("committed")
	s.invalidateLeaderboard(ctx)

	enriched, err := s.results.GetEnriched(ctx, result.ID)
	if err != nil {
		s.logger.Warn("enrich committed result", zap.String("result_id", result.ID), zap.Error(err))
		enriched = fallbackEnriched(result, event)
	}
	s.bus.Broadcast(broadcast.Event{Type: broadcast.EventResult, Payload: enriched})

	s.logger.Info("result committed", zap.String("result_id", result.ID), zap.String("event_id", event.ID))
	return result, nil
}

// Delete removes a result, compensates the points counter and announces the removal.
func (s *ResultService) Delete(ctx context.Context, id string) (*models.ResultDeleted, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.Validation([]appErrors.FieldError{{Field: "id", Message: "is required"}})
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()
	deleted, err := s.results.Delete(txCtx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		s.logger.Error("delete result", zap.String("result_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete result")
	}

	s.invalidateLeaderboard(ctx)

	payload := &models.ResultDeleted{ID: deleted.ID, EventID: deleted.EventID}
	s.bus.Broadcast(broadcast.Event{Type: broadcast.EventResultDeleted, Payload: payload})
	s.logger.Info("result deleted", zap.String("result_id", deleted.ID), zap.String("event_id", deleted.EventID))
	return payload, nil
}

// List returns the newest enriched results. Unknown levels are treated as no filter.
func (s *ResultService) List(ctx context.Context, level string) ([]models.EnrichedResult, error) {
	items, err := s.results.ListEnriched(ctx, models.ResultFilter{
		Level: models.ParseEventLevel(level),
		Limit: RecentResultsLimit,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return items, nil
}

func (s *ResultService) validateSubmission(req dto.SubmitResultRequest) []appErrors.FieldError {
	var details []appErrors.FieldError
	if err := s.validator.Struct(req); err != nil {
		details = append(details, fieldErrors(err)...)
	}

	if len(req.Placements) != len(models.PodiumRanks) {
		details = append(details, appErrors.FieldError{
			Field:   "placements",
			Message: fmt.Sprintf("must contain exactly %d placements", len(models.PodiumRanks)),
		})
	}

	seen := make(map[int]int, len(req.Placements))
	for i, p := range req.Placements {
		if math.IsInf(p.Points, 0) {
			details = append(details, appErrors.FieldError{
				Field:   fmt.Sprintf("placements[%d].points", i),
				Message: "must be a finite number",
			})
		}
		seen[p.Rank]++
	}
	for _, rank := range models.PodiumRanks {
		switch {
		case seen[rank] == 0:
			details = append(details, appErrors.FieldError{Field: "placements", Message: fmt.Sprintf("rank %d is missing", rank)})
		case seen[rank] > 1:
			details = append(details, appErrors.FieldError{Field: "placements", Message: fmt.Sprintf("rank %d is duplicated", rank)})
		}
	}
	return details
}

// unknownInstitutions reports placements whose institution id is not stored.
// Blank ids are left to struct validation.
func (s *ResultService) unknownInstitutions(ctx context.Context, placements []dto.PlacementInput) ([]appErrors.FieldError, error) {
	if len(placements) == 0 {
		return nil, nil
	}
	institutions, err := s.institutions.List(ctx, false)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(institutions))
	for _, inst := range institutions {
		known[inst.ID] = struct{}{}
	}

	var details []appErrors.FieldError
	for i, p := range placements {
		id := strings.TrimSpace(p.InstitutionID)
		if id == "" {
			continue
		}
		if _, ok := known[id]; !ok {
			details = append(details, appErrors.FieldError{
				Field:   fmt.Sprintf("placements[%d].institutionId", i),
				Message: "unknown institution",
			})
		}
	}
	return details, nil
}

func (s *ResultService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSubmission(outcome)
	}
}

func (s *ResultService) invalidateLeaderboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	// Readers that loaded results before this write cache under the old
	// generation, which is never read again.
	if err := s.cache.Bump(ctx, leaderboardGenerationKey); err != nil {
		s.logger.Warn("bump leaderboard generation", zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, leaderboardCachePattern); err != nil {
		s.logger.Warn("invalidate leaderboard cache", zap.Error(err))
	}
}

func toPlacements(inputs []dto.PlacementInput) []models.Placement {
	placements := make([]models.Placement, len(inputs))
	for i, in := range inputs {
		placements[i] = models.Placement{
			Rank:          in.Rank,
			StudentName:   strings.TrimSpace(in.StudentName),
			InstitutionID: strings.TrimSpace(in.InstitutionID),
			Points:        in.Points,
		}
	}
	sort.Slice(placements, func(i, j int) bool { return placements[i].Rank < placements[j].Rank })
	return placements
}

func fallbackEnriched(result *models.Result, event *models.Event) *models.EnrichedResult {
	level := event.Level
	enriched := &models.EnrichedResult{
		ID:          result.ID,
		EventID:     result.EventID,
		EventName:   event.Name,
		EventLevel:  &level,
		SubmittedAt: result.SubmittedAt,
		Placements:  make([]models.EnrichedPlacement, len(result.Placements)),
	}
	for i, p := range result.Placements {
		enriched.Placements[i] = models.EnrichedPlacement{
			Rank:          p.Rank,
			StudentName:   p.StudentName,
			InstitutionID: p.InstitutionID,
			Points:        p.Points,
		}
	}
	return enriched
}
