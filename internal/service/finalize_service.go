package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/festival-live-api/internal/broadcast"
	"github.com/noah-isme/festival-live-api/internal/dto"
	"github.com/noah-isme/festival-live-api/internal/models"
	"github.com/noah-isme/festival-live-api/internal/repository"
	appErrors "github.com/noah-isme/festival-live-api/pkg/errors"
)

type flagStore interface {
	GetFlag(ctx context.Context, key string) (bool, error)
	SetFlag(ctx context.Context, key string, value bool) error
}

// FinalizeService owns the festival concluded flag.
type FinalizeService struct {
	mu        sync.RWMutex
	finalized bool
	store     flagStore
	bus       eventBroadcaster
	logger    *zap.Logger
}

// NewFinalizeService constructs the service with the flag cleared. store may be nil
// for an in-memory flag.
func NewFinalizeService(store flagStore, bus eventBroadcaster, logger *zap.Logger) *FinalizeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinalizeService{store: store, bus: bus, logger: logger}
}

// Load restores the persisted flag.
func (s *FinalizeService) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	value, err := s.store.GetFlag(ctx, repository.FinalizedKey)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load finalize state")
	}
	s.mu.Lock()
	s.finalized = value
	s.mu.Unlock()
	return nil
}

// Get returns the current flag.
func (s *FinalizeService) Get() models.FinalizeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.FinalizeState{Finalized: s.finalized}
}

// Apply runs a finalize or undo action and announces the resulting state.
func (s *FinalizeService) Apply(ctx context.Context, action string) (models.FinalizeState, error) {
	var value bool
	switch strings.TrimSpace(action) {
	case dto.FinalizeActionFinalize:
		value = true
	case dto.FinalizeActionUndo:
		value = false
	default:
		return s.Get(), appErrors.Clone(appErrors.ErrValidation, "invalid action")
	}

	s.mu.Lock()
	if s.store != nil {
		if err := s.store.SetFlag(ctx, repository.FinalizedKey, value); err != nil {
			s.mu.Unlock()
			s.logger.Error("persist finalize state", zap.Bool("finalized", value), zap.Error(err))
			return s.Get(), appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update finalize state")
		}
	}
	s.finalized = value
	state := models.FinalizeState{Finalized: value}
	s.mu.Unlock()

	s.bus.Broadcast(broadcast.Event{Type: broadcast.EventFinalize, Payload: state})
	s.logger.Info("finalize state changed", zap.Bool("finalized", value))
	return state, nil
}
