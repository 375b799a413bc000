package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/festival-live-api/internal/models"
)

func newResultRepoMock(t *testing.T) (*ResultRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
	}
	return NewResultRepository(sqlxDB), mock, cleanup
}

func samplePlacements() []models.Placement {
	return []models.Placement{
		{Rank: 1, StudentName: "Asha", InstitutionID: "inst-red", Points: 10},
		{Rank: 2, StudentName: "Ben", InstitutionID: "inst-blue", Points: 7},
		{Rank: 3, StudentName: "Cara", InstitutionID: "inst-red", Points: 5},
	}
}

func TestResultRepositoryCommit(t *testing.T) {
	repo, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM results WHERE event_id = $1 FOR UPDATE`)).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO results (id, event_id, submitted_by, submitted_at)`)).
		WithArgs(sqlmock.AnyArg(), "event-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	for _, p := range samplePlacements() {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO result_placements`)).
			WithArgs(sqlmock.AnyArg(), p.Rank, p.StudentName, p.InstitutionID, p.Points).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO institution_totals`)).
			WithArgs(p.InstitutionID, p.Points, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	result := &models.Result{EventID: "event-1", Placements: samplePlacements()}
	err := repo.Commit(context.Background(), result)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.SubmittedAt.IsZero())
	for _, p := range result.Placements {
		assert.Equal(t, result.ID, p.ResultID)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryCommitDuplicateEvent(t *testing.T) {
	repo, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM results WHERE event_id = $1 FOR UPDATE`)).
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("result-0"))
	mock.ExpectRollback()

	err := repo.Commit(context.Background(), &models.Result{EventID: "event-1", Placements: samplePlacements()})
	assert.ErrorIs(t, err, ErrResultExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryCommitUniqueViolationMapsToExists(t *testing.T) {
	repo, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM results`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO results`)).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Commit(context.Background(), &models.Result{EventID: "event-1", Placements: samplePlacements()})
	assert.ErrorIs(t, err, ErrResultExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryCommitRollsBackOnPlacementFailure(t *testing.T) {
	repo, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM results`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO results`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO result_placements`)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Commit(context.Background(), &models.Result{EventID: "event-1", Placements: samplePlacements()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrResultExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryCommitForeignKeyViolationMapsToUnknownInstitution(t *testing.T) {
	repo, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM results`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO results`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO result_placements`)).
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	err := repo.Commit(context.Background(), &models.Result{EventID: "event-1", Placements: samplePlacements()})
	assert.ErrorIs(t, err, ErrUnknownInstitution)
	assert.Contains(t, err.Error(), "inst-red")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryDelete(t *testing.T) {
	repo, mock, cleanup := newResultRepoMock(t)
	defer cleanup()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, event_id, submitted_by, submitted_at FROM results WHERE id = $1 FOR UPDATE`)).
		WithArgs("result-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "submitted_by", "submitted_at"}).
			AddRow("result-1", "event-1", nil, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT result_id, rank, student_name, institution_id, points`)).
		WithArgs("result-1").
		WillReturnRows(sqlmock.NewRows([]string{"result_id", "rank", "student_name", "institution_id", "points"}).
			AddRow("result-1", 1, "Asha", "inst-red", 10.0).
			AddRow("result-1", 2, "Ben", "inst-blue", 7.0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM results WHERE id = $1`)).
		WithArgs("result-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE institution_totals SET total_points = total_points - $1`)).
		WithArgs(10.0, sqlmock.AnyArg(), "inst-red").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE institution_totals SET total_points = total_points - $1`)).
		WithArgs(7.0, sqlmock.AnyArg(), "inst-blue").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.Delete(context.Background(), "result-1")
	require.NoError(t, err)
	assert.Equal(t, "event-1", deleted.EventID)
	assert.Len(t, deleted.Placements, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryDeleteMissing(t *testing.T) {
	repo, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM results WHERE id = $1 FOR UPDATE`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "submitted_by", "submitted_at"}))
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryListEnrichedByLevel(t *testing.T) {
	repo, mock, cleanup := newResultRepoMock(t)
	defer cleanup()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE e.level = $1 AND e.is_active = TRUE ORDER BY r.submitted_at DESC, r.id LIMIT 15`)).
		WithArgs("high_school").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "event_name", "event_level", "submitted_at"}).
			AddRow("result-2", "event-2", "Group Dance", "high_school", now).
			AddRow("result-1", "event-1", "Solo Dance", "high_school", now.Add(-time.Minute)))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE rp.result_id = ANY($1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"result_id", "rank", "student_name", "institution_id", "institution_name", "institution_code", "points"}).
			AddRow("result-1", 1, "Asha", "inst-red", "Red House", "RED", 10.0).
			AddRow("result-2", 1, "Dev", "inst-blue", "Blue House", "BLUE", 10.0).
			AddRow("result-2", 2, "Eli", "inst-green", "Green House", "GREEN", 7.0))

	level := models.EventLevelHighSchool
	items, err := repo.ListEnriched(context.Background(), models.ResultFilter{Level: &level, Limit: 15})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "result-2", items[0].ID)
	require.NotNil(t, items[0].EventLevel)
	assert.Equal(t, models.EventLevelHighSchool, *items[0].EventLevel)
	assert.Len(t, items[0].Placements, 2)
	assert.Equal(t, "BLUE", items[0].Placements[0].InstitutionCode)
	assert.Len(t, items[1].Placements, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryListEnrichedEmptySkipsPlacements(t *testing.T) {
	repo, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM results r`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "event_name", "event_level", "submitted_at"}))

	items, err := repo.ListEnriched(context.Background(), models.ResultFilter{})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryListForStandingsGroupsByResult(t *testing.T) {
	repo, mock, cleanup := newResultRepoMock(t)
	defer cleanup()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY r.submitted_at, r.id, rp.rank`)).
		WillReturnRows(sqlmock.NewRows([]string{"result_id", "rank", "student_name", "institution_id", "points", "event_id", "submitted_at"}).
			AddRow("result-1", 1, "Asha", "inst-red", 10.0, "event-1", now).
			AddRow("result-1", 2, "Ben", "inst-blue", 7.0, "event-1", now).
			AddRow("result-2", 1, "Dev", "inst-green", 10.0, "event-2", now))

	results, err := repo.ListForStandings(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "result-1", results[0].ID)
	assert.Len(t, results[0].Placements, 2)
	assert.Equal(t, "event-2", results[1].EventID)
	require.NoError(t, mock.ExpectationsWereMet())
}
