package models

// Screening run states. A run moves idle -> running -> {completed, error}.
const (
	RunStateIdle      = "idle"
	RunStateRunning   = "running"
	RunStateCompleted = "completed"
	RunStateError     = "error"
)

// -----------------------------------------------------------------------------

// MRunStatus is a point-in-time snapshot of one screening run, served over
// /progress and pushed to websocket clients.
type MRunStatus struct {
	Status       string       `json:"status"`
	Progress     int          `json:"progress"`
	Message      string       `json:"message"`
	TargetDate   string       `json:"target_date"`
	Evaluated    int          `json:"evaluated"`
	Matched      int          `json:"matched"`
	Skipped      int          `json:"skipped"`
	Failed       int          `json:"failed"`
	Results      []MCandidate `json:"results,omitempty"`
	Summary      *MRunSummary `json:"summary,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
}
