package models

import "time"

// MDailyBar represents one (symbol, trading date) OHLCV row.
type MDailyBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// -----------------------------------------------------------------------------

// IsWellFormed checks the OHLC invariant: low <= min(open, close) and
// max(open, close) <= high, with non-negative fields. A bar violating this
// must be treated as "no data", never evaluated.
func (b MDailyBar) IsWellFormed() bool {
	if b.Open < 0 || b.High < 0 || b.Low < 0 || b.Close < 0 || b.Volume < 0 {
		return false
	}

	lo, hi := b.Open, b.Close
	if lo > hi {
		lo, hi = hi, lo
	}
	return b.Low <= lo && hi <= b.High
}
