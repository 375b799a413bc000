package models

// StandingsEntry is a derived leaderboard row.
type StandingsEntry struct {
	InstitutionID string  `json:"institutionId"`
	TotalPoints   float64 `json:"totalPoints"`
	DisplayName   string  `json:"displayName"`
	LogoURL       *string `json:"logoUrl"`
	Code          string  `json:"code"`
}
