// Package pipeline orchestrates the batch chain: ledger ingest → FIFO lot
// matching → behavioral features → rule evaluation → label matrices. The
// pipeline is single-threaded and synchronous; each stage fully
// materializes its output before the next starts, and runs share no
// state, so callers may shard runs (e.g. per user) however they like.
package pipeline

import (
	"context"

	"github.com/google/uuid"

	"tradegist/internal/features"
	"tradegist/internal/interfaces"
	"tradegist/internal/labels"
	"tradegist/internal/ledger"
	"tradegist/internal/logger"
	"tradegist/internal/match"
	"tradegist/internal/rules"
	"tradegist/internal/store"
	"tradegist/internal/taglog"
	"tradegist/internal/types"
)

// Runner is the concrete pipeline. One Runner may serve many runs; all
// tunables come from the config it was built with.
type Runner struct {
	cfg *store.Config
}

var _ interfaces.Pipeline = (*Runner)(nil)

func NewRunner(cfg *store.Config) *Runner {
	return &Runner{cfg: cfg}
}

// RunLedger ingests a raw ledger file for one user and runs the full
// chain. An empty ledger (or one with no completed round-trips) is not an
// error: the result carries empty tables with their full column sets.
func (r *Runner) RunLedger(ctx context.Context, path, userID string) (*interfaces.Result, error) {
	res := &interfaces.Result{RunID: uuid.NewString()}
	op := logger.StartOperation(ctx, "pipeline.run_ledger")
	ctx = op.GetContext()
	logger.Info(ctx, "Pipeline run starting", "run_id", res.RunID, "ledger", path, "user_id", userID)

	execs, cash, err := ledger.Load(ctx, path, userID)
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}
	res.Executions, res.CashEvents = execs, cash
	logger.Stage(ctx, res.RunID, "ingest", len(execs), "cash_events", len(cash))

	res.Trades = match.Match(execs)
	logger.Stage(ctx, res.RunID, "match", len(res.Trades))

	r.analyze(ctx, res)
	op.End()
	return res, nil
}

// RunTrades runs features, rules, and labels over an already-matched
// trades table, e.g. one handed in by the API layer or re-loaded from a
// previous export.
func (r *Runner) RunTrades(ctx context.Context, trades []types.Trade) (*interfaces.Result, error) {
	res := &interfaces.Result{RunID: uuid.NewString(), Trades: trades}
	op := logger.StartOperation(ctx, "pipeline.run_trades")
	ctx = op.GetContext()
	logger.Info(ctx, "Pipeline run starting", "run_id", res.RunID, "trades", len(trades))

	r.analyze(ctx, res)
	op.End()
	return res, nil
}

// analyze runs the stages downstream of lot matching.
func (r *Runner) analyze(ctx context.Context, res *interfaces.Result) {
	op := logger.StartOperation(ctx, "pipeline.features")
	res.Features = features.Compute(res.Trades, r.cfg)
	op.End()
	logger.Stage(ctx, res.RunID, "features", len(res.Features))

	op = logger.StartOperation(ctx, "pipeline.rules")
	res.Tags = rules.Evaluate(res.Features, r.cfg)
	op.End()
	logger.Stage(ctx, res.RunID, "rules", len(res.Tags))

	// The audit trail is best-effort: a full disk must not fail the run.
	if err := taglog.Append(res.RunID, res.Tags); err != nil {
		logger.Warn(ctx, "Tag audit log write failed", "run_id", res.RunID, "error", err)
	}

	op = logger.StartOperation(ctx, "pipeline.labels")
	res.TradeScores, res.DayScores, res.TradeScoresWithDay =
		labels.Build(res.Trades, res.Tags, r.cfg.Labels.PropagateDayToTrades)
	op.End()
	logger.Stage(ctx, res.RunID, "labels", len(res.TradeScores), "day_rows", len(res.DayScores))
}
