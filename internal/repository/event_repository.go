package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/festival-live-api/internal/models"
)

const eventColumns = `id, name, description, category, room_code, schedule_start, schedule_end, level, is_active, created_at, updated_at`

// EventRepository handles persistence for competition events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events ordered by schedule then name.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filter.Level != nil {
		args = append(args, string(*filter.Level))
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)))
	}

	query := "SELECT " + eventColumns + " FROM events"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY schedule_start NULLS LAST, name"

	events := []models.Event{}
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// FindByID fetches one event. It returns sql.ErrNoRows when missing.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	query := "SELECT " + eventColumns + " FROM events WHERE id = $1"
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	const query = `INSERT INTO events (` + eventColumns + `)
	VALUES (:id, :name, :description, :category, :room_code, :schedule_start, :schedule_end, :level, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// UpsertByName inserts the event or refreshes an existing one with the same name and level.
// The returned event carries the persisted id.
func (r *EventRepository) UpsertByName(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	const query = `INSERT INTO events (` + eventColumns + `)
	VALUES (:id, :name, :description, :category, :room_code, :schedule_start, :schedule_end, :level, :is_active, :created_at, :updated_at)
	ON CONFLICT (name, level) DO UPDATE SET
		description = EXCLUDED.description,
		category = EXCLUDED.category,
		room_code = EXCLUDED.room_code,
		is_active = EXCLUDED.is_active,
		updated_at = EXCLUDED.updated_at
	RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&event.ID); err != nil {
			return fmt.Errorf("scan upserted event id: %w", err)
		}
	}
	return rows.Err()
}

// DeleteByIDs removes events that no longer have results attached.
func (r *EventRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM events WHERE id IN (?) AND NOT EXISTS (SELECT 1 FROM results WHERE results.event_id = events.id)`, ids)
	if err != nil {
		return 0, fmt.Errorf("build delete events query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete events rows affected: %w", err)
	}
	return affected, nil
}
