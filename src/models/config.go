package models

// MConfig Structure
type MConfig struct {
	Name      string          `yaml:"name"`
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	LogLevel  string          `yaml:"log_level"`
	Network   MNetworkConfig  `yaml:"network"`
	Universe  MUniverseConfig `yaml:"universe"`
	Screener  MScreenerConfig `yaml:"screener"`
	ExportDir string          `yaml:"export_dir"`
}

type MNetworkConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout"`
	MaxRetries     int      `yaml:"retries"`
	UserAgent      string   `yaml:"user_agent"`
}

// MUniverseConfig controls which rows of the spot table are screenable.
// Prefixes select the main-board segments; ExcludeMarkers drops
// special-treatment and delisting-flagged names.
type MUniverseConfig struct {
	MainBoardPrefixes []string `yaml:"main_board_prefixes"`
	ExcludeMarkers    []string `yaml:"exclude_markers"`
}

// MScreenerConfig drives pacing and window sizes. HistorySpanDays is the
// trailing trading-day span requested from the source; PrimaryMinDays and
// ExtendedMinDays are the minimum bar counts for the two evaluator fetches.
type MScreenerConfig struct {
	CallIntervalMs     int `yaml:"call_interval_ms"`
	MaxSymbols         int `yaml:"max_symbols"`
	PaceEvery          int `yaml:"pace_every"`
	PaceDelayMs        int `yaml:"pace_delay_ms"`
	BatchPaceEvery     int `yaml:"batch_pace_every"`
	BatchPaceDelayMs   int `yaml:"batch_pace_delay_ms"`
	HistorySpanDays    int `yaml:"history_span_days"`
	PrimaryMinDays     int `yaml:"primary_min_days"`
	ExtendedMinDays    int `yaml:"extended_min_days"`
	FirstBoardLookback int `yaml:"first_board_lookback"`
}
