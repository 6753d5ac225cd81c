package rules

import (
	"fmt"
	"math"

	"tradegist/internal/store"
	"tradegist/internal/types"
)

// ruleOvertradingDay flags days with too many trades.
func ruleOvertradingDay(f []types.FeatureRow, cfg *store.Config) []types.Tag {
	var tags []types.Tag
	for _, g := range dayGroups(f) {
		if len(g.Rows) < cfg.Rules.OvertradingMinTrades {
			continue
		}
		tags = append(tags, dayTag(g.UserID, g.Date, "overtrading_day", 0.8,
			fmt.Sprintf("%d trades; day PnL $%.2f", len(g.Rows), g.pnl())))
	}
	return tags
}

// ruleRevengeDay flags a day when it contains an immediate re-entry after
// a loss, or as a fallback when a losing trade coincides with high
// activity.
func ruleRevengeDay(f []types.FeatureRow, cfg *store.Config) []types.Tag {
	var tags []types.Tag
	eps := cfg.Features.BreakevenEpsilon
	for _, g := range dayGroups(f) {
		revImm := false
		hasLoss := false
		for _, r := range g.Rows {
			if r.PrevOutcomeDay == types.OutcomeLoss && r.ImmediateAfterPrev {
				revImm = true
			}
			if r.RealizedPnL < -eps {
				hasLoss = true
			}
		}
		manyTrades := len(g.Rows) >= cfg.Rules.OvertradingMinTrades
		if !revImm && !(hasLoss && manyTrades) {
			continue
		}
		tags = append(tags, dayTag(g.UserID, g.Date, "revenge_day", 0.75,
			"Loss-anchored high-activity episode"))
	}
	return tags
}

// ruleChopDay flags high-activity days that end roughly flat.
func ruleChopDay(f []types.FeatureRow, cfg *store.Config) []types.Tag {
	var tags []types.Tag
	for _, g := range dayGroups(f) {
		pnl := g.pnl()
		if len(g.Rows) < cfg.Rules.OvertradingMinTrades || math.Abs(pnl) > cfg.Rules.ChopAbsPnLMax {
			continue
		}
		tags = append(tags, dayTag(g.UserID, g.Date, "chop_day", 0.6,
			fmt.Sprintf("High activity (%d) with flat PnL $%.2f", len(g.Rows), pnl)))
	}
	return tags
}

// ruleFocusedDay scores ticker concentration. A single-ticker day is
// focused with confidence tiered on profitability and trade count; a
// multi-ticker day only counts when one ticker dominates. The confidence
// breakpoints are literal, inherited thresholds.
func ruleFocusedDay(f []types.FeatureRow, cfg *store.Config) []types.Tag {
	var tags []types.Tag
	for _, g := range dayGroups(f) {
		counts := map[string]int{}
		top := 0
		for _, r := range g.Rows {
			counts[r.Ticker]++
			if counts[r.Ticker] > top {
				top = counts[r.Ticker]
			}
		}
		pnl := g.pnl()
		n := len(g.Rows)

		var conf float64
		if len(counts) == 1 {
			switch {
			case pnl > 0 && n <= cfg.Rules.FocusedDaySingleMax:
				conf = 1.0
			case pnl > 0:
				conf = 0.85
			default:
				conf = 0.6
			}
		} else if float64(top)/float64(n) >= cfg.Rules.FocusedDayDominance {
			conf = 0.5
		}
		if conf == 0 {
			continue
		}
		tags = append(tags, dayTag(g.UserID, g.Date, "focused_day", conf,
			fmt.Sprintf("%d tickers, PnL %.2f, trades=%d", len(counts), pnl, n)))
	}
	return tags
}

// ruleGreenDay rewards quiet profitable days: few trades, positive PnL,
// confidence tiered on the day's profit.
func ruleGreenDay(f []types.FeatureRow, cfg *store.Config) []types.Tag {
	var tags []types.Tag
	for _, g := range dayGroups(f) {
		pnl := g.pnl()
		if len(g.Rows) > cfg.Rules.GreenDayMaxTrades || pnl <= 0 {
			continue
		}
		conf := 0.6
		switch {
		case pnl >= cfg.Rules.GreenDayStrongPnL:
			conf = 1.0
		case pnl >= cfg.Rules.GreenDayModeratePnL:
			conf = 0.8
		}
		tags = append(tags, dayTag(g.UserID, g.Date, "green_day_low_activity", conf,
			fmt.Sprintf("%d trades, PnL %.2f", len(g.Rows), pnl)))
	}
	return tags
}
