package models

import "time"

// EventLevel is the division an event belongs to.
type EventLevel string

const (
	EventLevelHighSchool      EventLevel = "high_school"
	EventLevelHigherSecondary EventLevel = "higher_secondary"
)

// Valid reports whether the level is one of the known divisions.
func (l EventLevel) Valid() bool {
	return l == EventLevelHighSchool || l == EventLevelHigherSecondary
}

// ParseEventLevel normalises an optional level query value. Unknown values yield nil.
func ParseEventLevel(raw string) *EventLevel {
	level := EventLevel(raw)
	if !level.Valid() {
		return nil
	}
	return &level
}

// Event is a judged competition item that yields at most one result.
type Event struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Description   *string    `db:"description" json:"description,omitempty"`
	Category      *string    `db:"category" json:"category,omitempty"`
	RoomCode      *string    `db:"room_code" json:"roomCode,omitempty"`
	ScheduleStart *time.Time `db:"schedule_start" json:"scheduleStart,omitempty"`
	ScheduleEnd   *time.Time `db:"schedule_end" json:"scheduleEnd,omitempty"`
	Level         EventLevel `db:"level" json:"level"`
	IsActive      bool       `db:"is_active" json:"isActive"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// EventFilter narrows event listings.
type EventFilter struct {
	Level      *EventLevel
	ActiveOnly bool
}
