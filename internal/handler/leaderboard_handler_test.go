package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/festival-live-api/internal/models"
	"github.com/noah-isme/festival-live-api/internal/service"
	appErrors "github.com/noah-isme/festival-live-api/pkg/errors"
)

type leaderboardServiceMock struct {
	limit int
	level string
	err   error
}

func (m *leaderboardServiceMock) Compute(ctx context.Context, limit int, level string) (*service.LeaderboardSnapshot, error) {
	m.limit = limit
	m.level = level
	if m.err != nil {
		return nil, m.err
	}
	return &service.LeaderboardSnapshot{
		Entries: []models.StandingsEntry{
			{InstitutionID: "InstA", TotalPoints: 17, DisplayName: "Red", Code: "RED"},
			{InstitutionID: "InstB", TotalPoints: 10, DisplayName: "Blue", Code: "BLUE"},
		},
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

type exporterMock struct {
	format string
	err    error
}

func (m *exporterMock) ExportStandings(ctx context.Context, format, level string) (*service.ExportFile, error) {
	m.format = format
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportFile{Filename: "standings_overall.csv", ContentType: "text/csv", Content: []byte("Rank,House\n1,Red\n")}, nil
}

func TestLeaderboardHandlerGet(t *testing.T) {
	svc := &leaderboardServiceMock{}
	h := NewLeaderboardHandler(svc, &exporterMock{}, 20)

	w := performJSON(t, h.Get, http.MethodGet, "/api/leaderboard?level=higher_secondary", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, svc.limit)
	assert.Equal(t, "higher_secondary", svc.level)

	var body struct {
		Data      []models.StandingsEntry `json:"data"`
		UpdatedAt time.Time               `json:"updatedAt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "RED", body.Data[0].Code)
	assert.Equal(t, 2026, body.UpdatedAt.Year())
}

func TestLeaderboardHandlerGetFailure(t *testing.T) {
	h := NewLeaderboardHandler(&leaderboardServiceMock{err: appErrors.Clone(appErrors.ErrInternal, "failed to compute leaderboard")}, &exporterMock{}, 20)

	w := performJSON(t, h.Get, http.MethodGet, "/api/leaderboard", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLeaderboardHandlerExport(t *testing.T) {
	exporter := &exporterMock{}
	h := NewLeaderboardHandler(&leaderboardServiceMock{}, exporter, 20)

	w := performJSON(t, h.Export, http.MethodGet, "/api/leaderboard/export", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="standings_overall.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Rank,House\n1,Red\n", w.Body.String())
}

func TestLeaderboardHandlerExportBadFormat(t *testing.T) {
	exporter := &exporterMock{err: appErrors.Validation([]appErrors.FieldError{{Field: "format", Message: "must be one of csv, pdf"}})}
	h := NewLeaderboardHandler(&leaderboardServiceMock{}, exporter, 20)

	w := performJSON(t, h.Export, http.MethodGet, "/api/leaderboard/export?format=xlsx", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "xlsx", exporter.format)
}
