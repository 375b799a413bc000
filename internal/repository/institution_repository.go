package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/festival-live-api/internal/models"
)

// InstitutionRepository reads and seeds competing houses.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository constructs the repository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// List returns institutions sorted by display name.
func (r *InstitutionRepository) List(ctx context.Context, activeOnly bool) ([]models.Institution, error) {
	query := `SELECT id, name, display_name, code, is_active, logo_url, created_at, updated_at FROM institutions`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY display_name, code`

	institutions := []models.Institution{}
	if err := r.db.SelectContext(ctx, &institutions, query); err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	return institutions, nil
}

// UpsertByCode creates the institution or refreshes the row that already owns the code.
func (r *InstitutionRepository) UpsertByCode(ctx context.Context, inst *models.Institution) error {
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now

	const query = `INSERT INTO institutions (id, name, display_name, code, is_active, logo_url, created_at, updated_at)
	VALUES (:id, :name, :display_name, :code, :is_active, :logo_url, :created_at, :updated_at)
	ON CONFLICT (code) DO UPDATE SET
		name = EXCLUDED.name,
		display_name = EXCLUDED.display_name,
		is_active = EXCLUDED.is_active,
		logo_url = COALESCE(EXCLUDED.logo_url, institutions.logo_url),
		updated_at = EXCLUDED.updated_at
	RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, inst)
	if err != nil {
		return fmt.Errorf("upsert institution %s: %w", inst.Code, err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&inst.ID); err != nil {
			return fmt.Errorf("scan institution id: %w", err)
		}
	}
	return rows.Err()
}

// Totals returns the incrementally maintained counters. Only diagnostics read them.
func (r *InstitutionRepository) Totals(ctx context.Context) ([]models.InstitutionTotal, error) {
	const query = `SELECT institution_id, total_points, last_update FROM institution_totals ORDER BY institution_id`
	totals := []models.InstitutionTotal{}
	if err := r.db.SelectContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("list institution totals: %w", err)
	}
	return totals, nil
}
