package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// FinalizedKey is the festival_state row holding the concluded flag.
const FinalizedKey = "finalized"

// FestivalStateRepository stores process-wide boolean flags.
type FestivalStateRepository struct {
	db *sqlx.DB
}

// NewFestivalStateRepository constructs the repository.
func NewFestivalStateRepository(db *sqlx.DB) *FestivalStateRepository {
	return &FestivalStateRepository{db: db}
}

// GetFlag reads a flag, treating a missing row as false.
func (r *FestivalStateRepository) GetFlag(ctx context.Context, key string) (bool, error) {
	var value bool
	err := r.db.GetContext(ctx, &value, `SELECT value FROM festival_state WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get festival flag %s: %w", key, err)
	}
	return value, nil
}

// SetFlag upserts a flag value.
func (r *FestivalStateRepository) SetFlag(ctx context.Context, key string, value bool) error {
	const query = `INSERT INTO festival_state (key, value, updated_at) VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set festival flag %s: %w", key, err)
	}
	return nil
}
