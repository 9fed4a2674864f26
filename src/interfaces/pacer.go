package interfaces

import "context"

// -----------------------------------------------------------------------------
// IPacer throttles external calls to the data source's rate limits. It is
// injected into the gateway so tests can substitute a no-op pacer.
// -----------------------------------------------------------------------------

type IPacer interface {

	// Wait blocks until the next call is allowed, or until ctx is done.
	// It must be called before every outbound source call, not just the first.
	Wait(ctx context.Context) error
}
