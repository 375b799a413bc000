package display

import "github.com/noah-isme/festival-live-api/internal/models"

// State is the display's presentation mode.
type State string

const (
	StateIdleLive           State = "idle-live"
	StateTransitioning      State = "transitioning"
	StateFinalizedScrolling State = "finalized-scrolling"
	StateFinalizedWinner    State = "finalized-winner"
)

// TrackView is one scrolling lane during the finale.
type TrackView struct {
	Label    string
	Current  *models.EnrichedResult
	Position int
	Total    int
	Finished bool
}

// View is an immutable copy of what the screen should show.
type View struct {
	State       State
	Finalized   bool
	Headline    string
	Pending     *models.EnrichedResult
	Latest      *models.EnrichedResult
	Recent      []models.EnrichedResult
	Leaderboard []models.StandingsEntry
	Tracks      []TrackView
	Winner      *models.StandingsEntry
}
