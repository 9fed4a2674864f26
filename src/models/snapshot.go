package models

// MSymbolSnapshot represents one tradable instrument in the exchange spot table
// at evaluation time. Immutable once read by the screener.
type MSymbolSnapshot struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	LastPrice     float64 `json:"last_price"`
	PercentChange float64 `json:"percent_change"`
	Volume        float64 `json:"volume"`
	Turnover      float64 `json:"turnover"`
	MarketCap     float64 `json:"market_cap"`
}
