package dto

// Finalize actions accepted by the finalize endpoint.
const (
	FinalizeActionFinalize = "finalize"
	FinalizeActionUndo     = "undo"
)

// FinalizeRequest toggles the festival concluded mode.
type FinalizeRequest struct {
	Action string `json:"action"`
}
