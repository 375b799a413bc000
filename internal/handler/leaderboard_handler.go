package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/festival-live-api/internal/service"
	"github.com/noah-isme/festival-live-api/pkg/response"
)

type leaderboardService interface {
	Compute(ctx context.Context, limit int, level string) (*service.LeaderboardSnapshot, error)
}

type standingsExporter interface {
	ExportStandings(ctx context.Context, format, level string) (*service.ExportFile, error)
}

// LeaderboardHandler serves the house standings.
type LeaderboardHandler struct {
	service  leaderboardService
	exporter standingsExporter
	limit    int
}

// NewLeaderboardHandler builds a new handler. limit is the number of rows served.
func NewLeaderboardHandler(service leaderboardService, exporter standingsExporter, limit int) *LeaderboardHandler {
	return &LeaderboardHandler{service: service, exporter: exporter, limit: limit}
}

// Get godoc
// @Summary Current standings
// @Tags Leaderboard
// @Produce json
// @Param level query string false "high_school or higher_secondary"
// @Success 200 {object} service.LeaderboardSnapshot
// @Router /leaderboard [get]
func (h *LeaderboardHandler) Get(c *gin.Context) {
	snapshot, err := h.service.Compute(c.Request.Context(), h.limit, c.Query("level"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Snapshot(c, snapshot.Entries, snapshot.UpdatedAt)
}

// Export godoc
// @Summary Download standings
// @Tags Leaderboard
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param level query string false "high_school or higher_secondary"
// @Success 200 {file} file
// @Router /leaderboard/export [get]
func (h *LeaderboardHandler) Export(c *gin.Context) {
	file, err := h.exporter.ExportStandings(c.Request.Context(), c.DefaultQuery("format", "csv"), c.Query("level"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
