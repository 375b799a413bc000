package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/festival-live-api/internal/broadcast"
	"github.com/noah-isme/festival-live-api/internal/models"
	appErrors "github.com/noah-isme/festival-live-api/pkg/errors"
)

type flagStoreStub struct {
	values map[string]bool
	getErr error
	setErr error
	sets   int
}

func (s *flagStoreStub) GetFlag(ctx context.Context, key string) (bool, error) {
	return s.values[key], s.getErr
}

func (s *flagStoreStub) SetFlag(ctx context.Context, key string, value bool) error {
	if s.setErr != nil {
		return s.setErr
	}
	if s.values == nil {
		s.values = map[string]bool{}
	}
	s.values[key] = value
	s.sets++
	return nil
}

func TestFinalizeServiceApply(t *testing.T) {
	store := &flagStoreStub{}
	bus := &recordingBus{}
	svc := NewFinalizeService(store, bus, nil)

	assert.False(t, svc.Get().Finalized)

	state, err := svc.Apply(context.Background(), "finalize")
	require.NoError(t, err)
	assert.True(t, state.Finalized)
	assert.True(t, svc.Get().Finalized)
	assert.True(t, store.values["finalized"])

	state, err = svc.Apply(context.Background(), "finalize")
	require.NoError(t, err)
	assert.True(t, state.Finalized)

	state, err = svc.Apply(context.Background(), "undo")
	require.NoError(t, err)
	assert.False(t, state.Finalized)

	events := bus.recorded()
	require.Len(t, events, 3)
	for _, evt := range events {
		assert.Equal(t, broadcast.EventFinalize, evt.Type)
	}
	assert.Equal(t, models.FinalizeState{Finalized: false}, events[2].Payload)
}

func TestFinalizeServiceInvalidAction(t *testing.T) {
	bus := &recordingBus{}
	svc := NewFinalizeService(nil, bus, nil)

	_, err := svc.Apply(context.Background(), "toggle")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, "invalid action", appErrors.FromError(err).Message)
	assert.Empty(t, bus.recorded())
}

func TestFinalizeServicePersistFailureKeepsState(t *testing.T) {
	bus := &recordingBus{}
	svc := NewFinalizeService(&flagStoreStub{setErr: errors.New("db down")}, bus, nil)

	state, err := svc.Apply(context.Background(), "finalize")
	require.Error(t, err)
	assert.False(t, state.Finalized)
	assert.False(t, svc.Get().Finalized)
	assert.Empty(t, bus.recorded())
}

func TestFinalizeServiceLoad(t *testing.T) {
	svc := NewFinalizeService(&flagStoreStub{values: map[string]bool{"finalized": true}}, &recordingBus{}, nil)
	require.NoError(t, svc.Load(context.Background()))
	assert.True(t, svc.Get().Finalized)

	failing := NewFinalizeService(&flagStoreStub{getErr: errors.New("boom")}, &recordingBus{}, nil)
	assert.Error(t, failing.Load(context.Background()))
	assert.False(t, failing.Get().Finalized)
}
