package helpers

import (
	"fmt"
	"time"

	"rescue-screener/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ScreenerError struct {
	Message string
	Cause   error
}

func (e *ScreenerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ScreenerError) Unwrap() error {
	return e.Cause
}

// DataUnavailableError means the universe snapshot could not be retrieved.
// It is fatal to a full screening run.
type DataUnavailableError struct{ ScreenerError }

// SourceCallError means one gateway call against the data source failed.
// Snapshot failures escalate to the run; history failures stay symbol-local.
type SourceCallError struct{ ScreenerError }

// EvaluationError wraps an unexpected fault while classifying one symbol.
// It is absorbed as a non-match and never aborts the run.
type EvaluationError struct{ ScreenerError }

// ConfigurationError flags an invalid or unloadable configuration.
type ConfigurationError struct{ ScreenerError }

// -----------------------------------------------------------------------------

func NewDataUnavailable(msg string, cause error) *DataUnavailableError {
	return &DataUnavailableError{ScreenerError{Message: msg, Cause: cause}}
}

func NewSourceCallError(msg string, cause error) *SourceCallError {
	return &SourceCallError{ScreenerError{Message: msg, Cause: cause}}
}

func NewEvaluationError(msg string, cause error) *EvaluationError {
	return &EvaluationError{ScreenerError{Message: msg, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts the operation up to maxRetries times with
// exponential backoff between attempts.
func RetryWithBackoff(operation string, maxRetries int, baseDelay time.Duration, log *logger.Logger, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, lastErr, delay)
		time.Sleep(delay)
	}

	return &ScreenerError{Message: fmt.Sprintf("%s failed after %d attempts", operation, maxRetries), Cause: lastErr}
}
