package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rescue-screener/src/logger"
	"rescue-screener/src/models"
)

// -----------------------------------------------------------------------------
// CSVExporter writes a screening result set to a timestamped CSV file so a
// run's candidates can be handed off to spreadsheets or downstream tooling.
// -----------------------------------------------------------------------------

type CSVExporter struct {
	Dir    string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCSVExporter(dir string, log *logger.Logger) *CSVExporter {
	return &CSVExporter{
		Dir:    dir,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Export writes the candidates to <dir>/rescue_stocks_<timestamp>.csv and
// returns the path of the file it created. Prices and percentages are rounded
// to two decimals; volume, turnover and market cap are written as integers.
func (e *CSVExporter) Export(results []models.MCandidate) (string, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory %s: %w", e.Dir, err)
	}

	filename := fmt.Sprintf("rescue_stocks_%s.csv", time.Now().Format("20060102_150405"))
	path := filepath.Join(e.Dir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"code", "name", "current_price", "change_pct", "volume", "turnover", "market_cap"}
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range results {
		record := []string{
			r.Code,
			r.Name,
			fmt.Sprintf("%.2f", r.CurrentPrice),
			fmt.Sprintf("%.2f", r.ChangePct),
			fmt.Sprintf("%.0f", r.Volume),
			fmt.Sprintf("%.0f", r.Turnover),
			fmt.Sprintf("%.0f", r.MarketCap),
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("failed to write CSV row for %s: %w", r.Code, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV file %s: %w", path, err)
	}

	e.Logger.Info("Exported %d candidates to %s", len(results), path)
	return path, nil
}
