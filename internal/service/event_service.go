package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/festival-live-api/internal/dto"
	"github.com/noah-isme/festival-live-api/internal/models"
	appErrors "github.com/noah-isme/festival-live-api/pkg/errors"
)

type eventStore interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	Create(ctx context.Context, event *models.Event) error
}

// EventService manages competition items.
type EventService struct {
	repo      eventStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(repo eventStore, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, validator: newValidator(validate), logger: logger}
}

// ListActive returns active events, optionally of one level.
func (s *EventService) ListActive(ctx context.Context, level string) ([]models.Event, error) {
	events, err := s.repo.List(ctx, models.EventFilter{Level: models.ParseEventLevel(level), ActiveOnly: true})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// Create registers an active event. Missing or unknown levels default to high school.
func (s *EventService) Create(ctx context.Context, req dto.CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(fieldErrors(err))
	}
	if req.Schedule != nil && req.Schedule.Start != nil && req.Schedule.End != nil && req.Schedule.End.Before(*req.Schedule.Start) {
		return nil, appErrors.Validation([]appErrors.FieldError{{Field: "schedule.end", Message: "must not be before start"}})
	}

	level := models.EventLevelHighSchool
	if parsed := models.ParseEventLevel(strings.TrimSpace(req.Level)); parsed != nil {
		level = *parsed
	}

	event := &models.Event{
		Name:        strings.TrimSpace(req.Name),
		Description: optionalString(req.Description),
		Category:    optionalString(req.Category),
		RoomCode:    optionalString(req.RoomCode),
		Level:       level,
		IsActive:    true,
	}
	if req.Schedule != nil {
		event.ScheduleStart = req.Schedule.Start
		event.ScheduleEnd = req.Schedule.End
	}

	if err := s.repo.Create(ctx, event); err != nil {
		s.logger.Error("create event", zap.String("name", event.Name), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

func optionalString(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
