package interfaces

import (
	"context"
	"time"

	"rescue-screener/src/models"
)

// -----------------------------------------------------------------------------
// IMarketDataSource interface for the external market data provider.
// -----------------------------------------------------------------------------

type IMarketDataSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchSpot retrieves the full exchange snapshot, one row per tradable
	// symbol. Row ordering is whatever the provider returns.
	FetchSpot(ctx context.Context) ([]models.MSymbolSnapshot, error)

	// -----------------------------------------------------------------------------

	// FetchDailyBars retrieves daily bars for one symbol over [start, end].
	// Bars may arrive unordered; callers sort ascending by date.
	FetchDailyBars(ctx context.Context, code string, start, end time.Time) ([]models.MDailyBar, error)
}
