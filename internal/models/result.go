package models

import "time"

// Ranks every result must contain exactly once.
var PodiumRanks = []int{1, 2, 3}

// Placement is one ranked outcome nested inside a result.
type Placement struct {
	ResultID      string  `db:"result_id" json:"-"`
	Rank          int     `db:"rank" json:"rank"`
	StudentName   string  `db:"student_name" json:"studentName"`
	InstitutionID string  `db:"institution_id" json:"institutionId"`
	Points        float64 `db:"points" json:"points"`
}

// Result is the committed outcome for a single event.
type Result struct {
	ID          string      `db:"id" json:"id"`
	EventID     string      `db:"event_id" json:"eventId"`
	SubmittedBy *string     `db:"submitted_by" json:"submittedBy,omitempty"`
	SubmittedAt time.Time   `db:"submitted_at" json:"submittedAt"`
	Placements  []Placement `db:"-" json:"placements"`
}

// EnrichedPlacement carries institution display data alongside the placement.
type EnrichedPlacement struct {
	Rank            int     `db:"rank" json:"rank"`
	StudentName     string  `db:"student_name" json:"studentName"`
	InstitutionID   string  `db:"institution_id" json:"institutionId"`
	InstitutionName string  `db:"institution_name" json:"institutionName"`
	InstitutionCode string  `db:"institution_code" json:"institutionCode"`
	Points          float64 `db:"points" json:"points"`
}

// EnrichedResult is the display-facing shape of a result.
type EnrichedResult struct {
	ID          string              `db:"id" json:"id"`
	EventID     string              `db:"event_id" json:"eventId"`
	EventName   string              `db:"event_name" json:"eventName"`
	EventLevel  *EventLevel         `db:"event_level" json:"eventLevel"`
	SubmittedAt time.Time           `db:"submitted_at" json:"submittedAt"`
	Placements  []EnrichedPlacement `db:"-" json:"placements"`
}

// ResultFilter narrows result listings.
type ResultFilter struct {
	Level *EventLevel
	Limit int
}

// ResultDeleted is the payload announced when a result is removed.
type ResultDeleted struct {
	ID      string `json:"id"`
	EventID string `json:"eventId"`
}

// FinalizeState is the payload announced when the festival is concluded or reopened.
type FinalizeState struct {
	Finalized bool `json:"finalized"`
}
