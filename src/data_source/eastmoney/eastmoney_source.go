package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"rescue-screener/src/interfaces"
	"rescue-screener/src/logger"
	"rescue-screener/src/models"
)

const (
	spotURL  = "https://82.push2.eastmoney.com/api/qt/clist/get"
	klineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"

	// Spot table pagination size; the endpoint caps pages around 200 rows.
	spotPageSize = 200
)

// -----------------------------------------------------------------------------

// EastMoneySource pulls the A-share spot table and per-symbol daily klines
// from the push2 quote endpoints.
type EastMoneySource struct {
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewEastMoneySource(network interfaces.INetworkManager, log *logger.Logger) *EastMoneySource {
	return &EastMoneySource{
		Network: network,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

func (s *EastMoneySource) Name() string {
	return "eastmoney"
}

// -----------------------------------------------------------------------------

type spotResponse struct {
	Data *struct {
		Total int                      `json:"total"`
		Diff  []map[string]interface{} `json:"diff"`
	} `json:"data"`
}

// -----------------------------------------------------------------------------

// FetchSpot retrieves the full A-share spot table, walking pages until the
// reported total is covered.
func (s *EastMoneySource) FetchSpot(ctx context.Context) ([]models.MSymbolSnapshot, error) {
	var snapshots []models.MSymbolSnapshot

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params := map[string]string{
			"pn":     strconv.Itoa(page),
			"pz":     strconv.Itoa(spotPageSize),
			"po":     "1",
			"np":     "1",
			"fltt":   "2",
			"invt":   "2",
			"fid":    "f3",
			"fs":     "m:0 t:6,m:0 t:80,m:1 t:2,m:1 t:23",
			"fields": "f2,f3,f5,f6,f12,f14,f20",
		}

		respBytes, err := s.Network.Get(spotURL, params)
		if err != nil {
			return nil, fmt.Errorf("spot page %d: %w", page, err)
		}

		var resp spotResponse
		if err := json.Unmarshal(respBytes, &resp); err != nil {
			return nil, fmt.Errorf("spot page %d: json unmarshal failed: %w", page, err)
		}

		if resp.Data == nil || len(resp.Data.Diff) == 0 {
			break
		}

		for _, row := range resp.Data.Diff {
			code := safeString(row, "f12")
			name := safeString(row, "f14")
			if code == "" {
				continue
			}

			// Halted symbols report "-" for numeric fields; they decode to 0.
			snapshots = append(snapshots, models.MSymbolSnapshot{
				Code:          code,
				Name:          name,
				LastPrice:     safeFloat64(row, "f2"),
				PercentChange: safeFloat64(row, "f3"),
				Volume:        safeFloat64(row, "f5"),
				Turnover:      safeFloat64(row, "f6"),
				MarketCap:     safeFloat64(row, "f20"),
			})
		}

		if len(snapshots) >= resp.Data.Total {
			break
		}
	}

	if len(snapshots) == 0 {
		return nil, fmt.Errorf("spot table returned no rows")
	}

	s.Logger.Info("EastMoney: fetched spot table, %d symbols", len(snapshots))
	return snapshots, nil
}

// -----------------------------------------------------------------------------

type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// -----------------------------------------------------------------------------

// FetchDailyBars retrieves forward-adjusted daily bars for one symbol over
// [start, end]. Malformed rows are skipped, the rest sorted ascending by date.
func (s *EastMoneySource) FetchDailyBars(ctx context.Context, code string, start, end time.Time) ([]models.MDailyBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := map[string]string{
		"secid":   secID(code),
		"fields1": "f1,f2,f3,f4,f5,f6",
		"fields2": "f51,f52,f53,f54,f55,f56,f57",
		"klt":     "101", // daily
		"fqt":     "1",   // forward adjusted
		"beg":     start.Format("20060102"),
		"end":     end.Format("20060102"),
	}

	respBytes, err := s.Network.Get(klineURL, params)
	if err != nil {
		return nil, fmt.Errorf("kline for %s: %w", code, err)
	}

	var resp klineResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("kline for %s: json unmarshal failed: %w", code, err)
	}

	if resp.Data == nil {
		return nil, fmt.Errorf("no kline data in response for %s", code)
	}

	bars := make([]models.MDailyBar, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		bar, ok := parseKline(line)
		if !ok {
			s.Logger.Debug("Skipping malformed kline row for %s: %q", code, line)
			continue
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	return bars, nil
}

// -----------------------------------------------------------------------------

// parseKline decodes one "date,open,close,high,low,volume,amount" row.
func parseKline(line string) (models.MDailyBar, bool) {
	fields := strings.Split(line, ",")
	if len(fields) < 6 {
		return models.MDailyBar{}, false
	}

	date, err := time.Parse("2006-01-02", fields[0])
	if err != nil {
		return models.MDailyBar{}, false
	}

	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return models.MDailyBar{}, false
		}
		vals[i] = v
	}

	return models.MDailyBar{
		Date:   date,
		Open:   vals[0],
		Close:  vals[1],
		High:   vals[2],
		Low:    vals[3],
		Volume: vals[4],
	}, true
}

// -----------------------------------------------------------------------------

// secID prefixes the code with its market id: 1 for Shanghai, 0 for Shenzhen.
func secID(code string) string {
	if strings.HasPrefix(code, "6") {
		return "1." + code
	}
	return "0." + code
}

// -----------------------------------------------------------------------------
// Field coercion: the quote host mixes numbers and "-" placeholders in the
// same column, so rows are decoded generically and coerced here.
// -----------------------------------------------------------------------------

func safeFloat64(row map[string]interface{}, key string) float64 {
	if val, ok := row[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0.0
}

// -----------------------------------------------------------------------------

func safeString(row map[string]interface{}, key string) string {
	if val, ok := row[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
