// Package features annotates round-trip trades with the derived columns
// the rule engine consumes: outcome classification, notional size and its
// robust z-score, same-day sequencing context, day-level aggregates, and
// per-user extreme-outcome flags.
package features

import (
	"sort"

	"tradegist/internal/stats"
	"tradegist/internal/store"
	"tradegist/internal/types"
)

// Compute derives one feature row per trade. Rows come back in the
// canonical (user_id, trade_date, trade_id) order; every same-day
// sequencing feature is defined relative to that order. The computation is
// deterministic: running it twice on the same trades yields identical
// rows.
//
// Input schema validation happens at the table boundary (ledger package);
// by the time trades are typed structs every required column exists.
func Compute(trades []types.Trade, cfg *store.Config) []types.FeatureRow {
	rows := make([]types.FeatureRow, len(trades))
	for i, t := range trades {
		rows[i] = types.FeatureRow{Trade: t}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		if !a.TradeDate.Equal(b.TradeDate) {
			return a.TradeDate.Before(b.TradeDate)
		}
		return a.TradeID < b.TradeID
	})

	eps := cfg.Features.BreakevenEpsilon
	for i := range rows {
		rows[i].Outcome = classify(rows[i].RealizedPnL, eps)
		rows[i].Notional = rows[i].Qty * rows[i].EntryPrice
	}

	forEachUser(rows, func(user []types.FeatureRow) {
		sizeZ(user)
		extremes(user, cfg)
	})
	sameDay(rows)
	dayAggregates(rows)
	return rows
}

// classify buckets realized PnL against the breakeven tolerance. The
// breakeven band is the closed interval [-eps, eps].
func classify(pnl, eps float64) types.Outcome {
	switch {
	case pnl > eps:
		return types.OutcomeWin
	case pnl < -eps:
		return types.OutcomeLoss
	default:
		return types.OutcomeBreakeven
	}
}

// forEachUser invokes fn on each contiguous per-user slice. Rows must
// already be sorted by user.
func forEachUser(rows []types.FeatureRow, fn func([]types.FeatureRow)) {
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i == len(rows) || rows[i].UserID != rows[start].UserID {
			fn(rows[start:i])
			start = i
		}
	}
}

func sizeZ(user []types.FeatureRow) {
	notionals := make([]float64, len(user))
	for i, r := range user {
		notionals[i] = r.Notional
	}
	for i, z := range stats.RobustZ(notionals) {
		user[i].SizeZ = z
	}
}

// sameDay fills the sequencing context within each (user, trade_date)
// group: the previous row's outcome and ticker, and whether this row is
// the immediate successor of the previous one. With the canonical stable
// sort, "immediate" is simply "not the first row of its group".
func sameDay(rows []types.FeatureRow) {
	for i := range rows {
		first := i == 0 ||
			rows[i].UserID != rows[i-1].UserID ||
			!rows[i].TradeDate.Equal(rows[i-1].TradeDate)
		if first {
			continue
		}
		rows[i].PrevOutcomeDay = rows[i-1].Outcome
		rows[i].SameTickerAsPrev = rows[i].Ticker == rows[i-1].Ticker
		rows[i].ImmediateAfterPrev = true
	}
}

func dayAggregates(rows []types.FeatureRow) {
	start := 0
	for i := 1; i <= len(rows); i++ {
		boundary := i == len(rows) ||
			rows[i].UserID != rows[start].UserID ||
			!rows[i].TradeDate.Equal(rows[start].TradeDate)
		if !boundary {
			continue
		}
		pnl := 0.0
		for _, r := range rows[start:i] {
			pnl += r.RealizedPnL
		}
		for j := start; j < i; j++ {
			rows[j].DayTradeCount = i - start
			rows[j].DayPnL = pnl
		}
		start = i
	}
}

// extremes flags top-decile wins and worst-decile losses (by |PnL|) per
// user. The quantile base is the user's full trade history with non-wins
// (resp. non-losses) contributing zero, and the thresholds are computed
// once over all data available now: "large" is retrospective, not
// rolling.
func extremes(user []types.FeatureRow, cfg *store.Config) {
	wins := make([]float64, len(user))
	lossAbs := make([]float64, len(user))
	for i, r := range user {
		if r.RealizedPnL > 0 {
			wins[i] = r.RealizedPnL
		}
		if r.RealizedPnL < 0 {
			lossAbs[i] = -r.RealizedPnL
		}
	}
	winThr := stats.Quantile(wins, cfg.Features.LargeWinPct)
	lossThr := stats.Quantile(lossAbs, cfg.Features.LargeLossPct)
	for i := range user {
		pnl := user[i].RealizedPnL
		user[i].LargeWin = pnl > 0 && pnl >= winThr
		user[i].LargeLoss = pnl < 0 && -pnl >= lossThr
	}
}
