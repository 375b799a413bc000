package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/festival-live-api/internal/models"
)

var (
	// ErrResultExists signals that the event already has a committed result.
	ErrResultExists = errors.New("result already exists for event")
	// ErrUnknownInstitution signals a placement naming no stored institution.
	ErrUnknownInstitution = errors.New("unknown institution")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// ResultRepository persists results, their placements and the points counter.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs the repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Commit stores the result, its placements and the per-institution increments
// in one transaction. An existing result for the same event aborts everything.
func (r *ResultRepository) Commit(ctx context.Context, result *models.Result) (err error) {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.SubmittedAt.IsZero() {
		result.SubmittedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin result transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existingID string
	const dupQuery = `SELECT id FROM results WHERE event_id = $1 FOR UPDATE`
	err = tx.GetContext(ctx, &existingID, dupQuery, result.EventID)
	switch {
	case err == nil:
		err = ErrResultExists
		return err
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("check existing result: %w", err)
	}
	err = nil

	const insertResult = `INSERT INTO results (id, event_id, submitted_by, submitted_at)
	VALUES (:id, :event_id, :submitted_by, :submitted_at)`
	if _, err = tx.NamedExecContext(ctx, insertResult, result); err != nil {
		if isUniqueViolation(err) {
			err = ErrResultExists
			return err
		}
		return fmt.Errorf("insert result: %w", err)
	}

	const insertPlacement = `INSERT INTO result_placements (result_id, rank, student_name, institution_id, points)
	VALUES (:result_id, :rank, :student_name, :institution_id, :points)`
	const incrementTotal = `INSERT INTO institution_totals (institution_id, total_points, last_update)
	VALUES ($1, $2, $3)
	ON CONFLICT (institution_id)
	DO UPDATE SET total_points = institution_totals.total_points + EXCLUDED.total_points, last_update = EXCLUDED.last_update`
	for i := range result.Placements {
		result.Placements[i].ResultID = result.ID
		if _, err = tx.NamedExecContext(ctx, insertPlacement, result.Placements[i]); err != nil {
			if isForeignKeyViolation(err) {
				err = fmt.Errorf("%w: %s", ErrUnknownInstitution, result.Placements[i].InstitutionID)
				return err
			}
			return fmt.Errorf("insert placement rank %d: %w", result.Placements[i].Rank, err)
		}
		p := result.Placements[i]
		if _, err = tx.ExecContext(ctx, incrementTotal, p.InstitutionID, p.Points, result.SubmittedAt); err != nil {
			return fmt.Errorf("increment institution total: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			err = ErrResultExists
			return err
		}
		return fmt.Errorf("commit result: %w", err)
	}
	return nil
}

// FindByID loads a raw result with its placements.
func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.Result, error) {
	const query = `SELECT id, event_id, submitted_by, submitted_at FROM results WHERE id = $1`
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		return nil, err
	}
	const placementsQuery = `SELECT result_id, rank, student_name, institution_id, points
	FROM result_placements WHERE result_id = $1 ORDER BY rank`
	if err := r.db.SelectContext(ctx, &result.Placements, placementsQuery, id); err != nil {
		return nil, fmt.Errorf("load placements: %w", err)
	}
	return &result, nil
}

// Delete removes a result and reverses its contribution to the points counter.
// It returns sql.ErrNoRows when the result does not exist.
func (r *ResultRepository) Delete(ctx context.Context, id string) (deleted *models.Result, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var result models.Result
	const lockQuery = `SELECT id, event_id, submitted_by, submitted_at FROM results WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &result, lockQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock result: %w", err)
	}

	const placementsQuery = `SELECT result_id, rank, student_name, institution_id, points
	FROM result_placements WHERE result_id = $1 ORDER BY rank`
	if err = tx.SelectContext(ctx, &result.Placements, placementsQuery, id); err != nil {
		return nil, fmt.Errorf("load placements: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM results WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete result: %w", err)
	}

	now := time.Now().UTC()
	const decrementTotal = `UPDATE institution_totals SET total_points = total_points - $1, last_update = $2
	WHERE institution_id = $3`
	for _, p := range result.Placements {
		if _, err = tx.ExecContext(ctx, decrementTotal, p.Points, now, p.InstitutionID); err != nil {
			return nil, fmt.Errorf("decrement institution total: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}
	return &result, nil
}

// GetEnriched returns a single result joined with event and institution display data.
func (r *ResultRepository) GetEnriched(ctx context.Context, id string) (*models.EnrichedResult, error) {
	const query = `SELECT r.id, r.event_id, COALESCE(e.name, '') AS event_name, e.level AS event_level, r.submitted_at
	FROM results r
	LEFT JOIN events e ON e.id = r.event_id
	WHERE r.id = $1`
	var result models.EnrichedResult
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		return nil, err
	}
	items := []models.EnrichedResult{result}
	if err := r.attachPlacements(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ListEnriched returns the newest results first, optionally restricted to active events of a level.
func (r *ResultRepository) ListEnriched(ctx context.Context, filter models.ResultFilter) ([]models.EnrichedResult, error) {
	query := `SELECT r.id, r.event_id, COALESCE(e.name, '') AS event_name, e.level AS event_level, r.submitted_at
	FROM results r
	LEFT JOIN events e ON e.id = r.event_id`
	args := make([]interface{}, 0, 2)
	if filter.Level != nil {
		args = append(args, string(*filter.Level))
		query += fmt.Sprintf(" WHERE e.level = $%d AND e.is_active = TRUE", len(args))
	}
	query += " ORDER BY r.submitted_at DESC, r.id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	results := []models.EnrichedResult{}
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	if err := r.attachPlacements(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}

// ListForStandings returns every result with its placements in submission order.
// With a level only results of active events at that level are included.
func (r *ResultRepository) ListForStandings(ctx context.Context, level *models.EventLevel) ([]models.Result, error) {
	query := `SELECT rp.result_id, rp.rank, rp.student_name, rp.institution_id, rp.points, r.event_id, r.submitted_at
	FROM result_placements rp
	JOIN results r ON r.id = rp.result_id`
	args := make([]interface{}, 0, 1)
	if level != nil {
		args = append(args, string(*level))
		query += fmt.Sprintf(" JOIN events e ON e.id = r.event_id WHERE e.level = $%d AND e.is_active = TRUE", len(args))
	}
	query += " ORDER BY r.submitted_at, r.id, rp.rank"

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list standings placements: %w", err)
	}
	defer rows.Close()

	var (
		results []models.Result
		index   = make(map[string]int)
	)
	for rows.Next() {
		var row struct {
			models.Placement
			EventID     string    `db:"event_id"`
			SubmittedAt time.Time `db:"submitted_at"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan standings placement: %w", err)
		}
		pos, ok := index[row.ResultID]
		if !ok {
			pos = len(results)
			index[row.ResultID] = pos
			results = append(results, models.Result{ID: row.ResultID, EventID: row.EventID, SubmittedAt: row.SubmittedAt})
		}
		results[pos].Placements = append(results[pos].Placements, row.Placement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate standings placements: %w", err)
	}
	return results, nil
}

func (r *ResultRepository) attachPlacements(ctx context.Context, results []models.EnrichedResult) error {
	if len(results) == 0 {
		return nil
	}
	ids := make([]string, len(results))
	index := make(map[string]int, len(results))
	for i, res := range results {
		ids[i] = res.ID
		index[res.ID] = i
		results[i].Placements = []models.EnrichedPlacement{}
	}

	const query = `SELECT rp.result_id, rp.rank, rp.student_name, rp.institution_id,
	       COALESCE(i.display_name, '') AS institution_name, COALESCE(i.code, '') AS institution_code, rp.points
	FROM result_placements rp
	LEFT JOIN institutions i ON i.id = rp.institution_id
	WHERE rp.result_id = ANY($1)
	ORDER BY rp.result_id, rp.rank`
	rows, err := r.db.QueryxContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load enriched placements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var row struct {
			ResultID string `db:"result_id"`
			models.EnrichedPlacement
		}
		if err := rows.StructScan(&row); err != nil {
			return fmt.Errorf("scan enriched placement: %w", err)
		}
		if pos, ok := index[row.ResultID]; ok {
			results[pos].Placements = append(results[pos].Placements, row.EnrichedPlacement)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate enriched placements: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}

// ListBySubmitter returns the ids and event ids of results tagged with the given submitter.
func (r *ResultRepository) ListBySubmitter(ctx context.Context, submittedBy string) ([]models.ResultDeleted, error) {
	const query = `SELECT id, event_id FROM results WHERE submitted_by = $1 ORDER BY submitted_at`
	var rows []struct {
		ID      string `db:"id"`
		EventID string `db:"event_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, submittedBy); err != nil {
		return nil, fmt.Errorf("list results by submitter: %w", err)
	}
	refs := make([]models.ResultDeleted, len(rows))
	for i, row := range rows {
		refs[i] = models.ResultDeleted{ID: row.ID, EventID: row.EventID}
	}
	return refs, nil
}
