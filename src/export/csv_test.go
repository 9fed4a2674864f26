package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rescue-screener/src/logger"
	"rescue-screener/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportWritesRoundedRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exporter := NewCSVExporter(dir, logger.NewLogger("ERROR", "test"))

	path, err := exporter.Export([]models.MCandidate{
		{Code: "600000", Name: "浦发银行", CurrentPrice: 8.456, ChangePct: 2.344, Volume: 1234, Turnover: 10440.9, MarketCap: 2.5e10},
		{Code: "000001", Name: "平安银行", CurrentPrice: 11.0, ChangePct: -0.5, Volume: 200, Turnover: 2200, MarketCap: 2.1e10},
	})
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "rescue_stocks_"))
	assert.True(t, strings.HasSuffix(base, ".csv"))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"code", "name", "current_price", "change_pct", "volume", "turnover", "market_cap"}, rows[0])
	assert.Equal(t, []string{"600000", "浦发银行", "8.46", "2.34", "1234", "10441", "25000000000"}, rows[1])
	assert.Equal(t, []string{"000001", "平安银行", "11.00", "-0.50", "200", "2200", "21000000000"}, rows[2])
}

func TestExportEmptyResultSet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exporter := NewCSVExporter(dir, logger.NewLogger("ERROR", "test"))

	path, err := exporter.Export(nil)
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	// Header only.
	require.Len(t, rows, 1)
}

func TestExportCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "results")
	exporter := NewCSVExporter(dir, logger.NewLogger("ERROR", "test"))

	path, err := exporter.Export(nil)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
}
