package models

import "time"

// Institution is a competing house that accumulates points across events.
type Institution struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	DisplayName string    `db:"display_name" json:"displayName"`
	Code        string    `db:"code" json:"code"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	LogoURL     *string   `db:"logo_url" json:"logoUrl,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// InstitutionTotal is the incrementally maintained points counter. The
// leaderboard never reads it; standings are recomputed from results.
type InstitutionTotal struct {
	InstitutionID string    `db:"institution_id" json:"institutionId"`
	TotalPoints   float64   `db:"total_points" json:"totalPoints"`
	LastUpdate    time.Time `db:"last_update" json:"lastUpdate"`
}
