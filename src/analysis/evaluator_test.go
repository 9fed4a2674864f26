package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"rescue-screener/src/logger"
	"rescue-screener/src/models"

	"github.com/stretchr/testify/assert"
)

// fakeGateway serves canned histories keyed on the requested minimum bar
// count so the primary and extended lookups can differ.
type fakeGateway struct {
	primary     []models.MDailyBar
	primaryErr  error
	extended    []models.MDailyBar
	extendedErr error
	primaryMin  int
}

func (f *fakeGateway) FetchUniverse(ctx context.Context) ([]models.MSymbolSnapshot, error) {
	return nil, nil
}

func (f *fakeGateway) FetchHistory(ctx context.Context, code string, minDays int) ([]models.MDailyBar, error) {
	if minDays == f.primaryMin {
		return f.primary, f.primaryErr
	}
	return f.extended, f.extendedErr
}

func (f *fakeGateway) BasicInfo(code string) (models.MSymbolSnapshot, bool) {
	return models.MSymbolSnapshot{}, false
}

func (f *fakeGateway) CallStatistics() models.MCallStats {
	return models.MCallStats{}
}

func testCfg() models.MScreenerConfig {
	return models.MScreenerConfig{
		PrimaryMinDays:     5,
		ExtendedMinDays:    10,
		FirstBoardLookback: 3,
	}
}

func dayBar(open, high, low, close, volume float64) models.MDailyBar {
	return models.MDailyBar{
		Date:   time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}
}

// A primary window whose last two sessions satisfy every local condition:
// yesterday a normal session, today a small bullish candle on lower volume.
func matchingPrimary() []models.MDailyBar {
	return []models.MDailyBar{
		dayBar(100, 101, 98, 99, 3000),
		dayBar(99, 100, 97, 98, 2000),
		dayBar(98, 101.5, 97.5, 100.5, 1000),
	}
}

// An extended window whose trailing 3 bars show exactly one limit-up, on the
// most recent bar.
func matchingExtended() []models.MDailyBar {
	return []models.MDailyBar{
		dayBar(100, 101, 98, 99, 3000),
		dayBar(99, 100, 97, 98, 2000),
		dayBar(98, 108.5, 98, 108.2, 5000),
	}
}

func newTestEvaluator(gw *fakeGateway) *Evaluator {
	gw.primaryMin = 5
	return NewEvaluator(gw, testCfg(), logger.NewLogger("ERROR", "test"))
}

func snap(code string) models.MSymbolSnapshot {
	return models.MSymbolSnapshot{Code: code, Name: "测试"}
}

func TestEvaluateMatched(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{primary: matchingPrimary(), extended: matchingExtended()}
	e := newTestEvaluator(gw)

	assert.Equal(t, OutcomeMatched, e.Evaluate(context.Background(), snap("600000")))
}

func TestEvaluatePrimaryLookupFails(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{primaryErr: errors.New("source down")}
	e := newTestEvaluator(gw)

	assert.Equal(t, OutcomeFailed, e.Evaluate(context.Background(), snap("600000")))
}

func TestEvaluateInsufficientPrimaryHistory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		primary []models.MDailyBar
	}{
		{"nil history", nil},
		{"single bar", []models.MDailyBar{dayBar(100, 101, 99, 100.5, 1000)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gw := &fakeGateway{primary: tt.primary}
			e := newTestEvaluator(gw)
			assert.Equal(t, OutcomeSkipped, e.Evaluate(context.Background(), snap("600000")))
		})
	}
}

func TestEvaluateRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(p []models.MDailyBar) []models.MDailyBar
		changed string
	}{
		{
			name: "today already limit up",
			mutate: func(p []models.MDailyBar) []models.MDailyBar {
				p[2] = dayBar(98, 108.5, 98, 108.2, 1000)
				return p
			},
		},
		{
			name: "today not a small bullish candle",
			mutate: func(p []models.MDailyBar) []models.MDailyBar {
				p[2] = dayBar(98, 99, 96, 97, 1000)
				return p
			},
		},
		{
			name: "volume did not contract",
			mutate: func(p []models.MDailyBar) []models.MDailyBar {
				p[2].Volume = 2000
				return p
			},
		},
		{
			name: "yesterday was a limit up",
			mutate: func(p []models.MDailyBar) []models.MDailyBar {
				p[1] = dayBar(90, 99.5, 90, 99, 2000)
				return p
			},
		},
		{
			name: "yesterday was a limit down",
			mutate: func(p []models.MDailyBar) []models.MDailyBar {
				p[1] = dayBar(110, 110, 98, 99, 2000)
				return p
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gw := &fakeGateway{primary: tt.mutate(matchingPrimary()), extended: matchingExtended()}
			e := newTestEvaluator(gw)
			assert.Equal(t, OutcomeRejected, e.Evaluate(context.Background(), snap("600000")))
		})
	}
}

func TestEvaluateExtendedLookup(t *testing.T) {
	t.Parallel()

	t.Run("lookup fails", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{primary: matchingPrimary(), extendedErr: errors.New("source down")}
		e := newTestEvaluator(gw)
		assert.Equal(t, OutcomeFailed, e.Evaluate(context.Background(), snap("600000")))
	})

	t.Run("window too short", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{primary: matchingPrimary(), extended: nil}
		e := newTestEvaluator(gw)
		assert.Equal(t, OutcomeSkipped, e.Evaluate(context.Background(), snap("600000")))
	})

	t.Run("no fresh limit up in lookback", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{primary: matchingPrimary(), extended: matchingPrimary()}
		e := newTestEvaluator(gw)
		assert.Equal(t, OutcomeRejected, e.Evaluate(context.Background(), snap("600000")))
	})
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rejected", OutcomeRejected.String())
	assert.Equal(t, "matched", OutcomeMatched.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}
