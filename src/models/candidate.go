package models

// MCandidate is one symbol that satisfied every rescue condition.
type MCandidate struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
	ChangePct    float64 `json:"change_pct"`
	Volume       float64 `json:"volume"`
	Turnover     float64 `json:"turnover"`
	MarketCap    float64 `json:"market_cap"`
}

// -----------------------------------------------------------------------------

// MRunSummary aggregates a result set. All fields are zero when the result
// set is empty.
type MRunSummary struct {
	TotalCount     int     `json:"total_count"`
	AvgChangePct   float64 `json:"avg_change_pct"`
	AvgVolume      float64 `json:"avg_volume"`
	TotalMarketCap float64 `json:"total_market_cap"`
	MaxChangePct   float64 `json:"max_change_pct"`
	MinChangePct   float64 `json:"min_change_pct"`
}

// -----------------------------------------------------------------------------

// MBatchResult is the outcome of one windowed screening call. ProcessedCount
// is the absolute index reached (offset + number processed in this window),
// so a caller can resume at that offset on the next call.
type MBatchResult struct {
	Results        []MCandidate `json:"results"`
	TotalSymbols   int          `json:"total_symbols"`
	ProcessedCount int          `json:"processed_count"`
	HasMore        bool         `json:"has_more"`
}
