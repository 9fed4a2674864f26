package analysis

import (
	"context"

	"rescue-screener/src/analysis/core"
	"rescue-screener/src/interfaces"
	"rescue-screener/src/logger"
	"rescue-screener/src/models"
)

// -----------------------------------------------------------------------------
// Per-symbol evaluation outcome. Skips (insufficient history) and failures
// (absorbed faults) are distinct from plain rejections so the driver can
// report them.
// -----------------------------------------------------------------------------

type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeMatched
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "rejected"
	}
}

// -----------------------------------------------------------------------------
// Evaluator applies the rescue-pattern conditions to one symbol's two most
// recent sessions plus an extended lookback.
// -----------------------------------------------------------------------------

type Evaluator struct {
	Gateway interfaces.IMarketGateway
	Logger  *logger.Logger
	Cfg     models.MScreenerConfig
}

// -----------------------------------------------------------------------------

func NewEvaluator(gw interfaces.IMarketGateway, cfg models.MScreenerConfig, log *logger.Logger) *Evaluator {
	return &Evaluator{
		Gateway: gw,
		Logger:  log,
		Cfg:     cfg,
	}
}

// -----------------------------------------------------------------------------

// Evaluate decides whether one symbol matches every rescue condition. All
// conditions are mandatory; they short-circuit in cost order. A fault while
// evaluating one symbol is absorbed as OutcomeFailed and never aborts the run.
func (e *Evaluator) Evaluate(ctx context.Context, snap models.MSymbolSnapshot) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Warning("Evaluation panic for %s: %v", snap.Code, r)
			outcome = OutcomeFailed
		}
	}()

	code := snap.Code

	// Condition source: the two most recent sessions.
	hist, err := e.Gateway.FetchHistory(ctx, code, e.Cfg.PrimaryMinDays)
	if err != nil {
		e.Logger.Warning("History lookup failed for %s: %v", code, err)
		return OutcomeFailed
	}
	if len(hist) < 2 {
		return OutcomeSkipped
	}

	today := hist[len(hist)-1]
	yesterday := hist[len(hist)-2]

	// Already locked at the cap: not a rescue setup.
	if core.IsLimitUp(today.Open, today.Close, code) {
		return OutcomeRejected
	}

	// Today must be a small bullish candle.
	if !core.IsSmallPositiveLine(today.Open, today.Close, today.High, today.Low) {
		return OutcomeRejected
	}

	// Volume contraction against yesterday.
	if today.Volume >= yesterday.Volume {
		return OutcomeRejected
	}

	// Yesterday must have been a normal session.
	if core.IsLimitUp(yesterday.Open, yesterday.Close, code) ||
		core.IsLimitDown(yesterday.Open, yesterday.Close, code) {
		return OutcomeRejected
	}

	// Historical precursor: a fresh limit-up in the extended lookback.
	extended, err := e.Gateway.FetchHistory(ctx, code, e.Cfg.ExtendedMinDays)
	if err != nil {
		e.Logger.Warning("Extended history lookup failed for %s: %v", code, err)
		return OutcomeFailed
	}
	if extended == nil {
		return OutcomeSkipped
	}
	if !core.FirstLimitUpInLookback(extended, code, e.Cfg.FirstBoardLookback) {
		return OutcomeRejected
	}

	return OutcomeMatched
}
