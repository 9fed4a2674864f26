package interfaces

import (
	"context"

	"rescue-screener/src/models"
)

// -----------------------------------------------------------------------------
// IMarketGateway is the screening engine's only boundary to market data.
// -----------------------------------------------------------------------------

type IMarketGateway interface {

	// FetchUniverse retrieves the filtered main-board snapshot. A source
	// failure surfaces as an error; everything else is a symbol-local concern.
	FetchUniverse(ctx context.Context) ([]models.MSymbolSnapshot, error)

	// -----------------------------------------------------------------------------

	// FetchHistory returns the last minDays daily bars for code, ascending by
	// date, or nil when fewer than minDays bars exist (new listing,
	// suspension, source gap).
	FetchHistory(ctx context.Context, code string, minDays int) ([]models.MDailyBar, error)

	// -----------------------------------------------------------------------------

	// BasicInfo is a read-only lookup against the last cached universe
	// snapshot. Never triggers a network call.
	BasicInfo(code string) (models.MSymbolSnapshot, bool)

	// -----------------------------------------------------------------------------

	// CallStatistics derives success-rate statistics from the call log.
	CallStatistics() models.MCallStats
}
