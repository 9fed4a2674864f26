package core

import (
	"math"
	"strings"

	"rescue-screener/src/models"
)

// Limit-move thresholds, held slightly inside the regulatory 10%/20% caps so
// floating-point rounding at the boundary still registers as a limit move.
const (
	mainBoardLimitPct   = 9.5
	growthBoardLimitPct = 19.5
)

// Small bullish candle bounds: percent move range and minimum body share of
// the full high-low range.
const (
	smallLineMinPct   = 1.0
	smallLineMaxPct   = 6.0
	smallLineMinRatio = 0.5
)

// -----------------------------------------------------------------------------

// limitThreshold picks the daily cap for a code: growth/innovation boards
// (300/688 prefixes) move within 20%, the main board within 10%.
func limitThreshold(code string) float64 {
	if strings.HasPrefix(code, "300") || strings.HasPrefix(code, "688") {
		return growthBoardLimitPct
	}
	return mainBoardLimitPct
}

// -----------------------------------------------------------------------------

// IsLimitUp reports whether the open-to-close move reaches the board's
// limit-up threshold. Missing or non-positive prices classify as false.
func IsLimitUp(open, close float64, code string) bool {
	if math.IsNaN(open) || math.IsNaN(close) || open <= 0 {
		return false
	}

	pctChange := (close - open) / open * 100
	return pctChange >= limitThreshold(code)
}

// -----------------------------------------------------------------------------

// IsLimitDown is the symmetric check against the limit-down threshold.
func IsLimitDown(open, close float64, code string) bool {
	if math.IsNaN(open) || math.IsNaN(close) || open <= 0 {
		return false
	}

	pctChange := (close - open) / open * 100
	return pctChange <= -limitThreshold(code)
}

// -----------------------------------------------------------------------------

// IsSmallPositiveLine reports whether a session closed modestly above its
// open with a body dominating the high-low range: close > open, move within
// [1%, 6%], and body at least half the range. Degenerate ranges (high == low)
// and missing inputs classify as false.
func IsSmallPositiveLine(open, close, high, low float64) bool {
	if math.IsNaN(open) || math.IsNaN(close) || math.IsNaN(high) || math.IsNaN(low) {
		return false
	}
	if open <= 0 || close <= open {
		return false
	}

	pctChange := (close - open) / open * 100
	if pctChange < smallLineMinPct || pctChange > smallLineMaxPct {
		return false
	}

	totalRange := high - low
	if totalRange <= 0 {
		return false
	}

	bodyRatio := (close - open) / totalRange
	return bodyRatio >= smallLineMinRatio
}

// -----------------------------------------------------------------------------

// FirstLimitUpInLookback reports whether the most recent bar of history is a
// limit-up not preceded by another limit-up within the trailing lookback
// window ("first board"). Only the last `lookback` bars are inspected; older
// limit-ups are irrelevant. Fewer than `lookback` bars classify as false.
func FirstLimitUpInLookback(history []models.MDailyBar, code string, lookback int) bool {
	if lookback < 1 || len(history) < lookback {
		return false
	}

	tail := history[len(history)-lookback:]
	latest := tail[len(tail)-1]
	if !IsLimitUp(latest.Open, latest.Close, code) {
		return false
	}

	for _, bar := range tail[:len(tail)-1] {
		if IsLimitUp(bar.Open, bar.Close, code) {
			return false
		}
	}
	return true
}
