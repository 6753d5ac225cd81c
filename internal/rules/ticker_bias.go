package rules

import (
	"fmt"

	"tradegist/internal/stats"
	"tradegist/internal/store"
	"tradegist/internal/types"
)

type userTicker struct {
	user   string
	ticker string
}

// ruleTickerBias emits day-scope tags for tickers a user persistently
// loses on. Two independent signals (lifetime expectancy and the mean of
// the most recent K trades) are emitted separately when both fire, never
// merged. Each flagged (user, ticker) tags every trade date touching that
// ticker.
func ruleTickerBias(f []types.FeatureRow, cfg *store.Config) []types.Tag {
	// Collect per-(user,ticker) PnL series in canonical order. The feature
	// ordering is (user, date, id), so each series ends with the most
	// recent trades.
	series := map[userTicker][]float64{}
	var order []userTicker
	for _, r := range f {
		k := userTicker{r.UserID, r.Ticker}
		if _, ok := series[k]; !ok {
			order = append(order, k)
		}
		series[k] = append(series[k], r.RealizedPnL)
	}

	lifetime := map[userTicker]bool{}
	recentMean := map[userTicker]float64{}
	recent := map[userTicker]bool{}
	for _, k := range order {
		s := series[k]
		if len(s) >= cfg.Rules.TickerBiasMinTrades && stats.Mean(s) <= cfg.Rules.TickerBiasMeanPnLMax {
			lifetime[k] = true
		}
		tail := s
		if len(tail) > cfg.Rules.TickerBiasRecentK {
			tail = tail[len(tail)-cfg.Rules.TickerBiasRecentK:]
		}
		m := stats.Mean(tail)
		if m <= cfg.Rules.TickerBiasRecentMeanMax {
			recent[k] = true
			recentMean[k] = m
		}
	}

	var tags []types.Tag
	tags = append(tags, emitPerTickerDay(f, lifetime, "ticker_bias_lifetime", 0.8, func(k userTicker) string {
		s := series[k]
		return fmt.Sprintf("Ticker %s negative expectancy (n=%d, avg $%.2f, total $%.2f)",
			k.ticker, len(s), stats.Mean(s), stats.Sum(s))
	})...)
	tags = append(tags, emitPerTickerDay(f, recent, "ticker_bias_recent", 0.7, func(k userTicker) string {
		return fmt.Sprintf("Ticker %s: last %d trades mean $%.2f",
			k.ticker, cfg.Rules.TickerBiasRecentK, recentMean[k])
	})...)
	return tags
}

// emitPerTickerDay walks the feature table in order and emits one tag per
// distinct (user, ticker, trade date) whose (user, ticker) is flagged.
func emitPerTickerDay(f []types.FeatureRow, flagged map[userTicker]bool, tag string, conf float64, describe func(userTicker) string) []types.Tag {
	type tickerDay struct {
		userTicker
		day string
	}
	seen := map[tickerDay]struct{}{}
	var tags []types.Tag
	for _, r := range f {
		k := userTicker{r.UserID, r.Ticker}
		if !flagged[k] {
			continue
		}
		td := tickerDay{k, r.Day()}
		if _, ok := seen[td]; ok {
			continue
		}
		seen[td] = struct{}{}
		tags = append(tags, dayTag(r.UserID, r.TradeDate, tag, conf, describe(k)))
	}
	return tags
}
