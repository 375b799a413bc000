package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/festival-live-api/internal/broadcast"
	"github.com/noah-isme/festival-live-api/internal/models"
	"github.com/noah-isme/festival-live-api/internal/repository"
)

// memoryStore mimics the transactional store: one mutex stands in for the row lock.
type memoryStore struct {
	mu           sync.Mutex
	events       map[string]models.Event
	institutions []models.Institution
	results      map[string]models.Result
	byEvent      map[string]string
	order        []string
	totals       map[string]float64
	commitErr    error
	enrichErr    error
	listErr      error
	nextID       int
	clock        time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		events: map[string]models.Event{
			"E1": {ID: "E1", Name: "Solo Dance", Level: models.EventLevelHighSchool, IsActive: true},
			"E2": {ID: "E2", Name: "Group Dance", Level: models.EventLevelHighSchool, IsActive: true},
			"E3": {ID: "E3", Name: "Live Art", Level: models.EventLevelHigherSecondary, IsActive: true},
		},
		institutions: []models.Institution{
			{ID: "InstA", Name: "Red House", DisplayName: "Red", Code: "RED", IsActive: true},
			{ID: "InstB", Name: "Blue House", DisplayName: "Blue", Code: "BLUE", IsActive: true},
			{ID: "InstC", Name: "Green House", DisplayName: "Green", Code: "GREEN", IsActive: true},
		},
		results: map[string]models.Result{},
		byEvent: map[string]string{},
		totals:  map[string]float64{},
		clock:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memoryStore) FindByID(ctx context.Context, id string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &event, nil
}

func (m *memoryStore) List(ctx context.Context, activeOnly bool) ([]models.Institution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Institution(nil), m.institutions...), nil
}

func (m *memoryStore) Commit(ctx context.Context, result *models.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	if _, exists := m.byEvent[result.EventID]; exists {
		return repository.ErrResultExists
	}
	m.nextID++
	m.clock = m.clock.Add(time.Minute)
	result.ID = fmt.Sprintf("result-%d", m.nextID)
	result.SubmittedAt = m.clock
	stored := *result
	stored.Placements = append([]models.Placement(nil), result.Placements...)
	for i := range stored.Placements {
		stored.Placements[i].ResultID = stored.ID
		m.totals[stored.Placements[i].InstitutionID] += stored.Placements[i].Points
	}
	m.results[stored.ID] = stored
	m.byEvent[stored.EventID] = stored.ID
	m.order = append(m.order, stored.ID)
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, id string) (*models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.results[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	delete(m.results, id)
	delete(m.byEvent, result.EventID)
	for i, rid := range m.order {
		if rid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	for _, p := range result.Placements {
		m.totals[p.InstitutionID] -= p.Points
	}
	return &result, nil
}

func (m *memoryStore) GetEnriched(ctx context.Context, id string) (*models.EnrichedResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enrichErr != nil {
		return nil, m.enrichErr
	}
	result, ok := m.results[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	enriched := m.enrich(result)
	return &enriched, nil
}

func (m *memoryStore) ListEnriched(ctx context.Context, filter models.ResultFilter) ([]models.EnrichedResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	items := []models.EnrichedResult{}
	for i := len(m.order) - 1; i >= 0; i-- {
		result := m.results[m.order[i]]
		event := m.events[result.EventID]
		if filter.Level != nil && (event.Level != *filter.Level || !event.IsActive) {
			continue
		}
		items = append(items, m.enrich(result))
		if filter.Limit > 0 && len(items) == filter.Limit {
			break
		}
	}
	return items, nil
}

func (m *memoryStore) ListForStandings(ctx context.Context, level *models.EventLevel) ([]models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Result
	for _, id := range m.order {
		result := m.results[id]
		event := m.events[result.EventID]
		if level != nil && (event.Level != *level || !event.IsActive) {
			continue
		}
		out = append(out, result)
	}
	return out, nil
}

func (m *memoryStore) resultCount(eventID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.results {
		if r.EventID == eventID {
			count++
		}
	}
	return count
}

func (m *memoryStore) enrich(result models.Result) models.EnrichedResult {
	event := m.events[result.EventID]
	level := event.Level
	enriched := models.EnrichedResult{
		ID:          result.ID,
		EventID:     result.EventID,
		EventName:   event.Name,
		EventLevel:  &level,
		SubmittedAt: result.SubmittedAt,
	}
	for _, p := range result.Placements {
		ep := models.EnrichedPlacement{Rank: p.Rank, StudentName: p.StudentName, InstitutionID: p.InstitutionID, Points: p.Points}
		for _, inst := range m.institutions {
			if inst.ID == p.InstitutionID {
				ep.InstitutionName = inst.DisplayName
				ep.InstitutionCode = inst.Code
			}
		}
		enriched.Placements = append(enriched.Placements, ep)
	}
	return enriched
}

type recordingBus struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (b *recordingBus) Broadcast(evt broadcast.Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
	return 1
}

func (b *recordingBus) recorded() []broadcast.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcast.Event(nil), b.events...)
}

type invalidationRecorder struct {
	mu       sync.Mutex
	patterns []string
	bumps    int
	err      error
}

func (c *invalidationRecorder) Bump(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bumps++
	return c.err
}

func (c *invalidationRecorder) Invalidate(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns = append(c.patterns, pattern)
	return c.err
}
