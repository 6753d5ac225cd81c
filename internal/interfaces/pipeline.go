package interfaces

import (
	"context"

	"tradegist/internal/labels"
	"tradegist/internal/types"
)

// Result is everything one pipeline run materializes. Collaborators (the
// API layer, the report renderer, the chat assistant) consume these four
// tables; their schema is the pipeline's only contract toward them.
type Result struct {
	RunID string

	Executions []types.Execution
	CashEvents []types.CashEvent
	Trades     []types.Trade
	Features   []types.FeatureRow
	Tags       []types.Tag

	TradeScores        []labels.TradeScoreRow
	DayScores          []labels.DayScoreRow
	TradeScoresWithDay []labels.TradeScoreRow
}

// Pipeline runs the batch analytics chain: ledger → round-trips →
// features → rules → labels. Each stage fully materializes before the
// next starts; a run owns its input for the duration of the call and
// keeps no state across runs.
type Pipeline interface {
	// RunLedger ingests a raw ledger file (CSV/XLSX) for one user and runs
	// the full chain.
	RunLedger(ctx context.Context, path, userID string) (*Result, error)

	// RunTrades runs features, rules, and labels over an already-matched
	// round-trip trades table.
	RunTrades(ctx context.Context, trades []types.Trade) (*Result, error)
}
