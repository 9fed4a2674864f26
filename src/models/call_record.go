package models

import "time"

// Call record statuses. A record is created as Calling and finalized exactly
// once with one of the terminal statuses.
const (
	CallStatusCalling = "calling"
	CallStatusSuccess = "success"
	CallStatusWarning = "warning"
	CallStatusError   = "error"
)

// -----------------------------------------------------------------------------

// MCallRecord is one entry in the gateway's append-only call log.
type MCallRecord struct {
	SequenceID  int64     `json:"sequence_id"`
	Operation   string    `json:"operation"`
	Description string    `json:"description"`
	IssuedAt    time.Time `json:"issued_at"`
	Status      string    `json:"status"`
	CompletedAt time.Time `json:"completed_at"`
	Detail      string    `json:"detail"`
}

// -----------------------------------------------------------------------------

// MCallStats is derived from the call log on demand. Verified means at least
// one call has succeeded since startup.
type MCallStats struct {
	TotalCalls      int           `json:"total_calls"`
	SuccessfulCalls int           `json:"successful_calls"`
	FailedCalls     int           `json:"failed_calls"`
	WarningCalls    int           `json:"warning_calls"`
	SuccessRate     float64       `json:"success_rate"`
	Verified        bool          `json:"verified"`
	LastCallTime    time.Time     `json:"last_call_time"`
	RecentLog       []MCallRecord `json:"recent_log"`
}
