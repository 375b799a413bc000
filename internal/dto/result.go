package dto

// PlacementInput is one podium entry in a submission.
type PlacementInput struct {
	Rank          int     `json:"rank" validate:"oneof=1 2 3"`
	StudentName   string  `json:"studentName" validate:"notblank"`
	InstitutionID string  `json:"institutionId" validate:"notblank"`
	Points        float64 `json:"points" validate:"gt=0"`
}

// SubmitResultRequest is the payload for committing an event result.
type SubmitResultRequest struct {
	EventID     string           `json:"eventId" validate:"notblank"`
	Placements  []PlacementInput `json:"placements" validate:"dive"`
	SubmittedBy string           `json:"submittedBy"`
}

// ResultQuery filters the recent results listing.
type ResultQuery struct {
	Level string `form:"level"`
}
