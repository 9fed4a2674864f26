package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"rescue-screener/src/helpers"
	"rescue-screener/src/interfaces"
	"rescue-screener/src/logger"
	"rescue-screener/src/models"
	"rescue-screener/src/utils"
)

// -----------------------------------------------------------------------------
// MarketDataGateway wraps the external data source: universe filtering,
// call pacing, and an append-only call log for observability. Snapshot cache
// and log are single-writer behind the mutex, so one gateway instance can be
// shared across handlers.
// -----------------------------------------------------------------------------

type MarketDataGateway struct {
	Source   interfaces.IMarketDataSource
	Pacer    interfaces.IPacer
	Logger   *logger.Logger
	Universe models.MUniverseConfig
	SpanDays int

	mu       sync.Mutex
	seq      int64
	callLog  []models.MCallRecord
	snapshot map[string]models.MSymbolSnapshot
}

// -----------------------------------------------------------------------------

func NewMarketDataGateway(source interfaces.IMarketDataSource, pacer interfaces.IPacer, universe models.MUniverseConfig, spanDays int, log *logger.Logger) *MarketDataGateway {
	return &MarketDataGateway{
		Source:   source,
		Pacer:    pacer,
		Logger:   log,
		Universe: universe,
		SpanDays: spanDays,
	}
}

// -----------------------------------------------------------------------------
// Call Log
// -----------------------------------------------------------------------------

// beginCall appends a new record in "calling" state and returns its index.
func (g *MarketDataGateway) beginCall(operation, description string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	g.callLog = append(g.callLog, models.MCallRecord{
		SequenceID:  g.seq,
		Operation:   operation,
		Description: description,
		IssuedAt:    time.Now(),
		Status:      models.CallStatusCalling,
	})
	return len(g.callLog) - 1
}

// -----------------------------------------------------------------------------

// completeCall finalizes a record exactly once; records are never mutated
// afterwards.
func (g *MarketDataGateway) completeCall(idx int, status, detail string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if idx < 0 || idx >= len(g.callLog) {
		return
	}
	rec := &g.callLog[idx]
	if rec.Status != models.CallStatusCalling {
		return
	}
	rec.Status = status
	rec.Detail = detail
	rec.CompletedAt = time.Now()
}

// -----------------------------------------------------------------------------

// CallStatistics recomputes derived statistics from the call log.
func (g *MarketDataGateway) CallStatistics() models.MCallStats {
	g.mu.Lock()
	defer g.mu.Unlock()

	stats := models.MCallStats{TotalCalls: len(g.callLog)}
	for _, rec := range g.callLog {
		switch rec.Status {
		case models.CallStatusSuccess:
			stats.SuccessfulCalls++
		case models.CallStatusWarning:
			stats.WarningCalls++
		case models.CallStatusError:
			stats.FailedCalls++
		}
	}

	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(stats.SuccessfulCalls) / float64(stats.TotalCalls) * 100
		stats.LastCallTime = g.callLog[len(g.callLog)-1].IssuedAt
	}
	stats.Verified = stats.SuccessfulCalls > 0

	recent := 10
	if len(g.callLog) < recent {
		recent = len(g.callLog)
	}
	stats.RecentLog = append([]models.MCallRecord(nil), g.callLog[len(g.callLog)-recent:]...)

	return stats
}

// -----------------------------------------------------------------------------
// Universe
// -----------------------------------------------------------------------------

// FetchUniverse retrieves the spot table and filters it to screenable
// main-board symbols. The filtered snapshot is cached for BasicInfo lookups.
func (g *MarketDataGateway) FetchUniverse(ctx context.Context) ([]models.MSymbolSnapshot, error) {
	if err := g.Pacer.Wait(ctx); err != nil {
		return nil, err
	}

	idx := g.beginCall("fetch_universe", "fetch full exchange spot table")

	rows, err := g.Source.FetchSpot(ctx)
	if err != nil {
		g.completeCall(idx, models.CallStatusError, err.Error())
		g.Logger.Error("Universe fetch failed: %v", err)
		return nil, helpers.NewDataUnavailable("universe snapshot unavailable", err)
	}

	filtered := make([]models.MSymbolSnapshot, 0, len(rows))
	cache := make(map[string]models.MSymbolSnapshot, len(rows))

	for _, row := range rows {
		if !g.isMainBoard(row.Code) || g.isExcluded(row.Name) {
			continue
		}
		filtered = append(filtered, row)
		cache[row.Code] = row
	}

	g.mu.Lock()
	g.snapshot = cache
	g.mu.Unlock()

	g.completeCall(idx, models.CallStatusSuccess, fmt.Sprintf("%d screenable of %d total", len(filtered), len(rows)))
	g.Logger.Info("Universe: %d screenable symbols (of %d in spot table)", len(filtered), len(rows))
	return filtered, nil
}

// -----------------------------------------------------------------------------

func (g *MarketDataGateway) isMainBoard(code string) bool {
	for _, prefix := range g.Universe.MainBoardPrefixes {
		if strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

func (g *MarketDataGateway) isExcluded(name string) bool {
	for _, marker := range g.Universe.ExcludeMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// History
// -----------------------------------------------------------------------------

// FetchHistory requests the trailing trading-day span for code and returns
// the last minDays bars ascending by date, or nil when the source has fewer
// bars than required. The span is fixed by config, independent of minDays.
func (g *MarketDataGateway) FetchHistory(ctx context.Context, code string, minDays int) ([]models.MDailyBar, error) {
	if err := g.Pacer.Wait(ctx); err != nil {
		return nil, err
	}

	idx := g.beginCall("fetch_history", fmt.Sprintf("daily bars for %s (min %d)", code, minDays))

	end := time.Now()
	start := utils.GetCalendar(code).WindowStart(end, g.SpanDays)

	bars, err := g.Source.FetchDailyBars(ctx, code, start, end)
	if err != nil {
		g.completeCall(idx, models.CallStatusError, err.Error())
		g.Logger.Warning("History fetch failed for %s: %v", code, err)
		return nil, helpers.NewSourceCallError(fmt.Sprintf("history for %s", code), err)
	}

	bars = sanitizeBars(bars)

	if len(bars) < minDays {
		g.completeCall(idx, models.CallStatusWarning, fmt.Sprintf("%d bars, need %d", len(bars), minDays))
		return nil, nil
	}

	g.completeCall(idx, models.CallStatusSuccess, fmt.Sprintf("%d bars", len(bars)))
	return bars[len(bars)-minDays:], nil
}

// -----------------------------------------------------------------------------

// sanitizeBars drops malformed bars and duplicate dates. Input is already
// sorted ascending by the source; the later row wins on a duplicate date.
func sanitizeBars(bars []models.MDailyBar) []models.MDailyBar {
	out := bars[:0]
	for _, bar := range bars {
		if !bar.IsWellFormed() {
			continue
		}
		if len(out) > 0 && !out[len(out)-1].Date.Before(bar.Date) {
			out[len(out)-1] = bar
			continue
		}
		out = append(out, bar)
	}
	return out
}

// -----------------------------------------------------------------------------
// Cached lookups
// -----------------------------------------------------------------------------

// BasicInfo looks up a symbol in the last cached universe snapshot without
// touching the network.
func (g *MarketDataGateway) BasicInfo(code string) (models.MSymbolSnapshot, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.snapshot == nil {
		return models.MSymbolSnapshot{}, false
	}
	row, ok := g.snapshot[code]
	return row, ok
}
