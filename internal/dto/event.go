package dto

import "time"

// EventSchedule is the optional time window of an event.
type EventSchedule struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// CreateEventRequest is the payload for registering a competition item.
type CreateEventRequest struct {
	Name        string         `json:"name" validate:"notblank"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	RoomCode    string         `json:"roomCode"`
	Level       string         `json:"level"`
	Schedule    *EventSchedule `json:"schedule"`
}
