package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/festival-live-api/internal/models"
	"github.com/noah-isme/festival-live-api/pkg/export"
	appErrors "github.com/noah-isme/festival-live-api/pkg/errors"
)

// Export formats accepted by the standings download.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var standingsHeaders = []string{"Rank", "House", "Code", "Points"}

type standingsComputer interface {
	Compute(ctx context.Context, limit int, level string) (*LeaderboardSnapshot, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders the standings table as CSV or PDF.
type ExportService struct {
	leaderboard standingsComputer
	csv         csvRenderer
	pdf         pdfRenderer
	limit       int
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to pkg/export defaults.
func NewExportService(leaderboard standingsComputer, limit int, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{leaderboard: leaderboard, csv: csv, pdf: pdf, limit: limit, logger: logger, now: time.Now}
}

// ExportStandings renders the current standings in the requested format.
func (s *ExportService) ExportStandings(ctx context.Context, format, level string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Validation([]appErrors.FieldError{{Field: "format", Message: "must be one of csv, pdf"}})
	}

	snapshot, err := s.leaderboard.Compute(ctx, s.limit, level)
	if err != nil {
		return nil, err
	}

	dataset := standingsDataset(snapshot.Entries)
	var content []byte
	switch format {
	case ExportFormatPDF:
		content, err = s.pdf.Render(dataset, standingsTitle(level))
	default:
		content, err = s.csv.Render(dataset)
	}
	if err != nil {
		s.logger.Error("render standings export", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportFile{
		Filename:    s.filename(format, level),
		ContentType: contentTypeFor(format),
		Content:     content,
	}, nil
}

func standingsDataset(entries []models.StandingsEntry) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, map[string]string{
			"Rank":   strconv.Itoa(i + 1),
			"House":  entry.DisplayName,
			"Code":   entry.Code,
			"Points": strconv.FormatFloat(entry.TotalPoints, 'f', -1, 64),
		})
	}
	return export.Dataset{Headers: standingsHeaders, Rows: rows, Numeric: []string{"Rank", "Points"}}
}

func standingsTitle(level string) string {
	if lvl := models.ParseEventLevel(level); lvl != nil {
		return "Festival Standings - " + strings.ReplaceAll(string(*lvl), "_", " ")
	}
	return "Festival Standings"
}

func (s *ExportService) filename(format, level string) string {
	scope := "overall"
	if lvl := models.ParseEventLevel(level); lvl != nil {
		scope = string(*lvl)
	}
	return fmt.Sprintf("standings_%s_%s.%s", scope, s.now().UTC().Format("20060102_150405"), format)
}

func contentTypeFor(format string) string {
	if format == ExportFormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}
