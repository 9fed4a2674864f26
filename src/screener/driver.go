package screener

import (
	"context"
	"time"

	"rescue-screener/src/analysis"
	"rescue-screener/src/analysis/core"
	"rescue-screener/src/interfaces"
	"rescue-screener/src/logger"
	"rescue-screener/src/models"
)

// -----------------------------------------------------------------------------
// Screener walks the screenable universe sequentially and collects the symbols
// whose recent sessions match the rescue pattern. Two entry points: Run caps
// the universe and reports progress, RunBatch evaluates one offset window so a
// caller can page through the full universe across requests.
// -----------------------------------------------------------------------------

// ProgressFunc receives the percentage completed and a short status line.
type ProgressFunc func(percent int, message string)

type Screener struct {
	Gateway   interfaces.IMarketGateway
	Evaluator *analysis.Evaluator
	Logger    *logger.Logger
	Cfg       models.MScreenerConfig
}

// -----------------------------------------------------------------------------

func NewScreener(gw interfaces.IMarketGateway, cfg models.MScreenerConfig, log *logger.Logger) *Screener {
	return &Screener{
		Gateway:   gw,
		Evaluator: analysis.NewEvaluator(gw, cfg, log),
		Logger:    log,
		Cfg:       cfg,
	}
}

// -----------------------------------------------------------------------------

// Run screens up to maxSymbols symbols from the current universe, driving the
// supplied run through its lifecycle. Progress is reported per symbol against
// the capped count. Cancellation between symbols ends the run early; the
// partial result set still completes normally. The only run-fatal condition
// is failing to fetch the universe itself.
func (s *Screener) Run(ctx context.Context, run *Run, maxSymbols int, onProgress ProgressFunc) ([]models.MCandidate, error) {
	run.start()

	universe, err := s.Gateway.FetchUniverse(ctx)
	if err != nil {
		s.Logger.Error("Universe fetch failed: %v", err)
		run.fail(err.Error())
		return nil, err
	}

	if maxSymbols <= 0 {
		maxSymbols = s.Cfg.MaxSymbols
	}
	if len(universe) > maxSymbols {
		universe = universe[:maxSymbols]
	}
	total := len(universe)
	s.Logger.Info("Screening %d symbols for %s", total, run.targetDate)

	results := make([]models.MCandidate, 0)
	for i, snap := range universe {
		if ctx.Err() != nil {
			s.Logger.Warning("Run cancelled after %d of %d symbols", i, total)
			break
		}

		outcome := s.Evaluator.Evaluate(ctx, snap)
		run.count(outcome)
		if outcome == analysis.OutcomeMatched {
			c := candidateFrom(snap)
			results = append(results, c)
			run.addCandidate(c)
			s.Logger.Info("Match: %s %s (%.2f%%)", c.Code, c.Name, c.ChangePct)
		}

		percent := (i + 1) * 100 / total
		message := "analyzing " + snap.Code + " " + snap.Name
		run.setProgress(percent, message)
		if onProgress != nil {
			onProgress(percent, message)
		}

		if s.Cfg.PaceEvery > 0 && (i+1)%s.Cfg.PaceEvery == 0 {
			s.sleep(ctx, time.Duration(s.Cfg.PaceDelayMs)*time.Millisecond)
		}
	}

	summary := s.Summary(results)
	run.complete(summary, "screening finished")
	s.Logger.Info("Screening finished: %d candidates", len(results))
	return results, nil
}

// -----------------------------------------------------------------------------

// RunBatch evaluates one [offset, offset+size) window of the uncapped
// universe. ProcessedCount is absolute so a paging caller can show cumulative
// progress, and HasMore tells it whether another window remains.
func (s *Screener) RunBatch(ctx context.Context, offset, size int) (models.MBatchResult, error) {
	universe, err := s.Gateway.FetchUniverse(ctx)
	if err != nil {
		s.Logger.Error("Universe fetch failed: %v", err)
		return models.MBatchResult{}, err
	}
	total := len(universe)

	if offset < 0 {
		offset = 0
	}
	if size <= 0 {
		size = s.Cfg.MaxSymbols
	}
	end := offset + size
	if end > total {
		end = total
	}
	if offset > total {
		offset = total
	}

	results := make([]models.MCandidate, 0)
	processed := 0
	for i, snap := range universe[offset:end] {
		if ctx.Err() != nil {
			break
		}
		if s.Evaluator.Evaluate(ctx, snap) == analysis.OutcomeMatched {
			results = append(results, candidateFrom(snap))
		}
		processed++

		if s.Cfg.BatchPaceEvery > 0 && (i+1)%s.Cfg.BatchPaceEvery == 0 {
			s.sleep(ctx, time.Duration(s.Cfg.BatchPaceDelayMs)*time.Millisecond)
		}
	}

	return models.MBatchResult{
		Results:        results,
		TotalSymbols:   total,
		ProcessedCount: offset + processed,
		HasMore:        end < total,
	}, nil
}

// -----------------------------------------------------------------------------

// Summary aggregates a result set. An empty set yields all zeroes.
func (s *Screener) Summary(results []models.MCandidate) models.MRunSummary {
	if len(results) == 0 {
		return models.MRunSummary{}
	}

	changes := make([]float64, len(results))
	volumes := make([]float64, len(results))
	caps := make([]float64, len(results))
	for i, r := range results {
		changes[i] = r.ChangePct
		volumes[i] = r.Volume
		caps[i] = r.MarketCap
	}

	minChange, maxChange := core.MinMax(changes)
	return models.MRunSummary{
		TotalCount:     len(results),
		AvgChangePct:   core.Mean(changes),
		AvgVolume:      core.Mean(volumes),
		TotalMarketCap: core.Sum(caps),
		MaxChangePct:   maxChange,
		MinChangePct:   minChange,
	}
}

// -----------------------------------------------------------------------------

func (s *Screener) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// -----------------------------------------------------------------------------

func candidateFrom(snap models.MSymbolSnapshot) models.MCandidate {
	return models.MCandidate{
		Code:         snap.Code,
		Name:         snap.Name,
		CurrentPrice: snap.LastPrice,
		ChangePct:    snap.PercentChange,
		Volume:       snap.Volume,
		Turnover:     snap.Turnover,
		MarketCap:    snap.MarketCap,
	}
}
