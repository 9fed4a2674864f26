package screener

import (
	"sync"

	"rescue-screener/src/analysis"
	"rescue-screener/src/models"
)

// -----------------------------------------------------------------------------
// Run is the owned state of one screening pass: idle -> running ->
// {completed, error}. One run value per invocation; callers hold it and poll
// Status(), so concurrent or repeated runs can never share state.
// -----------------------------------------------------------------------------

type Run struct {
	mu         sync.RWMutex
	state      string
	progress   int
	message    string
	targetDate string

	evaluated int
	matched   int
	skipped   int
	failed    int

	results []models.MCandidate
	summary *models.MRunSummary
	errMsg  string
}

// -----------------------------------------------------------------------------

func NewRun(targetDate string) *Run {
	return &Run{
		state:      models.RunStateIdle,
		targetDate: targetDate,
	}
}

// -----------------------------------------------------------------------------

func (r *Run) start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = models.RunStateRunning
	r.message = "initializing"
}

// -----------------------------------------------------------------------------

// setProgress updates the progress percentage. Progress is monotonically
// non-decreasing within a run; a stale lower value is ignored.
func (r *Run) setProgress(percent int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if percent > r.progress && percent < 100 {
		r.progress = percent
	}
	r.message = message
}

// -----------------------------------------------------------------------------

func (r *Run) count(outcome analysis.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluated++
	switch outcome {
	case analysis.OutcomeMatched:
		r.matched++
	case analysis.OutcomeSkipped:
		r.skipped++
	case analysis.OutcomeFailed:
		r.failed++
	}
}

// -----------------------------------------------------------------------------

func (r *Run) addCandidate(c models.MCandidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, c)
}

// -----------------------------------------------------------------------------

// complete is terminal: the result set is frozen and progress reaches 100.
// A run cancelled between symbols completes with its partial result set.
func (r *Run) complete(summary models.MRunSummary, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = models.RunStateCompleted
	r.progress = 100
	r.summary = &summary
	r.message = message
}

// -----------------------------------------------------------------------------

// fail is terminal: no result set, only a surfaced error message.
func (r *Run) fail(errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = models.RunStateError
	r.errMsg = errMsg
	r.message = errMsg
	r.results = nil
	r.summary = nil
}

// -----------------------------------------------------------------------------

// State returns the current lifecycle state.
func (r *Run) State() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// -----------------------------------------------------------------------------

// Results returns the accumulated result set (nil until completion).
func (r *Run) Results() []models.MCandidate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != models.RunStateCompleted {
		return nil
	}
	return append([]models.MCandidate(nil), r.results...)
}

// -----------------------------------------------------------------------------

// Status captures a point-in-time snapshot for the serving layer. Results and
// summary are populated only once the run has completed.
func (r *Run) Status() models.MRunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := models.MRunStatus{
		Status:       r.state,
		Progress:     r.progress,
		Message:      r.message,
		TargetDate:   r.targetDate,
		Evaluated:    r.evaluated,
		Matched:      r.matched,
		Skipped:      r.skipped,
		Failed:       r.failed,
		ErrorMessage: r.errMsg,
	}

	if r.state == models.RunStateCompleted {
		status.Results = append([]models.MCandidate(nil), r.results...)
		status.Summary = r.summary
	}
	return status
}
