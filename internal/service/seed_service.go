package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/noah-isme/festival-live-api/internal/dto"
	"github.com/noah-isme/festival-live-api/internal/models"
	appErrors "github.com/noah-isme/festival-live-api/pkg/errors"
)

// DemoSubmitter tags results created by SeedDemo so Cleanup can find them.
const DemoSubmitter = "test-seed"

type institutionUpserter interface {
	UpsertByCode(ctx context.Context, inst *models.Institution) error
}

type eventCatalog interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	UpsertByName(ctx context.Context, event *models.Event) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type resultWriter interface {
	Submit(ctx context.Context, req dto.SubmitResultRequest) (*models.Result, error)
	Delete(ctx context.Context, id string) (*models.ResultDeleted, error)
}

type submitterIndex interface {
	ListBySubmitter(ctx context.Context, submittedBy string) ([]models.ResultDeleted, error)
}

var houses = []models.Institution{
	{Name: "Red House", DisplayName: "Red", Code: "RED", IsActive: true},
	{Name: "Blue House", DisplayName: "Blue", Code: "BLUE", IsActive: true},
	{Name: "Green House", DisplayName: "Green", Code: "GREEN", IsActive: true},
}

type seedEvent struct {
	name     string
	category string
	level    models.EventLevel
}

var baseEvents = []seedEvent{
	{name: "Solo Dance", category: "Dance", level: models.EventLevelHighSchool},
	{name: "Group Dance", category: "Dance", level: models.EventLevelHighSchool},
	{name: "Live Art", category: "Art", level: models.EventLevelHigherSecondary},
}

// demoEvents are removed again by Cleanup.
var demoEvents = []seedEvent{
	{name: "Debate Competition", category: "Academic", level: models.EventLevelHigherSecondary},
	{name: "Quiz Bowl", category: "Academic", level: models.EventLevelHighSchool},
	{name: "Singing Competition", category: "Academic", level: models.EventLevelHigherSecondary},
	{name: "Drama Performance", category: "Arts", level: models.EventLevelHighSchool},
	{name: "Poetry Recitation", category: "Arts", level: models.EventLevelHigherSecondary},
	{name: "Essay Writing", category: "Arts", level: models.EventLevelHighSchool},
	{name: "Photography Contest", category: "Arts", level: models.EventLevelHigherSecondary},
}

var demoStudents = []string{
	"Alex Johnson", "Sarah Williams", "Michael Brown", "Emily Davis", "James Wilson",
	"Olivia Martinez", "Daniel Anderson", "Sophia Taylor", "Matthew Thomas", "Isabella Jackson",
	"David White", "Emma Harris", "Christopher Martin", "Ava Thompson", "Andrew Garcia",
}

// SeedReport lists what a seed run created or refreshed.
type SeedReport struct {
	Institutions []models.Institution
	Events       []models.Event
	Results      []models.Result
	Skipped      []string
}

// CleanupReport counts what Cleanup removed.
type CleanupReport struct {
	ResultsDeleted int
	EventsDeleted  int64
}

// SeedService loads the fixed houses and sample events, and manages demo data.
type SeedService struct {
	institutions institutionUpserter
	events       eventCatalog
	results      resultWriter
	index        submitterIndex
	logger       *zap.Logger
	rng          *rand.Rand
}

// NewSeedService constructs the service. seed drives the demo randomness.
func NewSeedService(institutions institutionUpserter, events eventCatalog, results resultWriter, index submitterIndex, logger *zap.Logger, seed int64) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{
		institutions: institutions,
		events:       events,
		results:      results,
		index:        index,
		logger:       logger,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// Seed upserts the three houses and the base events. Re-running it is harmless.
func (s *SeedService) Seed(ctx context.Context) (*SeedReport, error) {
	report := &SeedReport{}
	for _, h := range houses {
		inst := h
		if err := s.institutions.UpsertByCode(ctx, &inst); err != nil {
			return nil, fmt.Errorf("seed house %s: %w", inst.Code, err)
		}
		report.Institutions = append(report.Institutions, inst)
	}

	events, err := s.upsertEvents(ctx, baseEvents, 0)
	if err != nil {
		return nil, err
	}
	report.Events = events
	s.logger.Info("seed complete", zap.Int("institutions", len(report.Institutions)), zap.Int("events", len(report.Events)))
	return report, nil
}

// SeedDemo runs Seed, adds the demo events and submits a random podium for
// every seeded event that has no result yet.
func (s *SeedService) SeedDemo(ctx context.Context) (*SeedReport, error) {
	report, err := s.Seed(ctx)
	if err != nil {
		return nil, err
	}
	extra, err := s.upsertEvents(ctx, demoEvents, len(baseEvents))
	if err != nil {
		return nil, err
	}
	report.Events = append(report.Events, extra...)

	for _, event := range report.Events {
		result, err := s.results.Submit(ctx, s.randomPodium(event.ID, report.Institutions))
		if err != nil {
			if errors.Is(err, appErrors.ErrResultSubmitted) {
				report.Skipped = append(report.Skipped, event.Name)
				continue
			}
			return report, fmt.Errorf("seed result for %s: %w", event.Name, err)
		}
		report.Results = append(report.Results, *result)
	}
	s.logger.Info("demo seed complete", zap.Int("results", len(report.Results)), zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// Cleanup deletes demo results through the normal delete path, so totals are
// compensated, then removes demo events that no longer carry results.
func (s *SeedService) Cleanup(ctx context.Context) (*CleanupReport, error) {
	report := &CleanupReport{}
	refs, err := s.index.ListBySubmitter(ctx, DemoSubmitter)
	if err != nil {
		return nil, fmt.Errorf("list demo results: %w", err)
	}
	for _, ref := range refs {
		if _, err := s.results.Delete(ctx, ref.ID); err != nil {
			if errors.Is(err, appErrors.ErrNotFound) {
				continue
			}
			return report, fmt.Errorf("delete demo result %s: %w", ref.ID, err)
		}
		report.ResultsDeleted++
	}

	all, err := s.events.List(ctx, models.EventFilter{})
	if err != nil {
		return report, fmt.Errorf("list events: %w", err)
	}
	names := make(map[string]struct{}, len(demoEvents))
	for _, e := range demoEvents {
		names[e.name] = struct{}{}
	}
	var ids []string
	for _, e := range all {
		if _, ok := names[e.Name]; ok {
			ids = append(ids, e.ID)
		}
	}
	deleted, err := s.events.DeleteByIDs(ctx, ids)
	if err != nil {
		return report, fmt.Errorf("delete demo events: %w", err)
	}
	report.EventsDeleted = deleted
	s.logger.Info("cleanup complete", zap.Int("results", report.ResultsDeleted), zap.Int64("events", deleted))
	return report, nil
}

func (s *SeedService) upsertEvents(ctx context.Context, defs []seedEvent, roomOffset int) ([]models.Event, error) {
	events := make([]models.Event, 0, len(defs))
	for i, def := range defs {
		category := def.category
		room := fmt.Sprintf("ROOM-%02d", roomOffset+i+1)
		event := models.Event{
			Name:     def.name,
			Category: &category,
			RoomCode: &room,
			Level:    def.level,
			IsActive: true,
		}
		if err := s.events.UpsertByName(ctx, &event); err != nil {
			return nil, fmt.Errorf("seed event %s: %w", def.name, err)
		}
		events = append(events, event)
	}
	return events, nil
}

// randomPodium picks three distinct houses and students. Points: 1st 8-12, 2nd 5-8, 3rd 3-6.
func (s *SeedService) randomPodium(eventID string, institutions []models.Institution) dto.SubmitResultRequest {
	order := s.rng.Perm(len(institutions))
	students := s.rng.Perm(len(demoStudents))
	points := []float64{
		float64(s.rng.Intn(5) + 8),
		float64(s.rng.Intn(4) + 5),
		float64(s.rng.Intn(4) + 3),
	}

	req := dto.SubmitResultRequest{EventID: eventID, SubmittedBy: DemoSubmitter}
	for i, rank := range models.PodiumRanks {
		req.Placements = append(req.Placements, dto.PlacementInput{
			Rank:          rank,
			StudentName:   demoStudents[students[i]],
			InstitutionID: institutions[order[i%len(order)]].ID,
			Points:        points[i],
		})
	}
	return req
}
