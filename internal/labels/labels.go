// Package labels pivots the tall tag table into wide per-trade and
// per-day confidence-score matrices.
package labels

import (
	"time"

	"tradegist/internal/types"
)

// TradeTags and DayTags are the versioned tag vocabularies, shared with
// the rule engine. The slice order is the output column order. A rule tag
// missing from its list is silently dropped from the pivoted output, so
// any new rule must be added here.
var TradeTags = []string{
	"outcome_win",
	"outcome_loss",
	"outcome_breakeven",
	"large_win",
	"large_loss",
	"revenge_immediate",
	"size_inconsistency",
	"follow_through_win_immediate",
	"disciplined_after_loss_immediate",
	"consistent_size",
}

var DayTags = []string{
	"overtrading_day",
	"revenge_day",
	"chop_day",
	"ticker_bias_lifetime",
	"ticker_bias_recent",
	"focused_day",
	"green_day_low_activity",
}

// TradeScoreRow is one trade's confidence vector. Scores holds every
// vocabulary tag explicitly, 0.0 where no tag fired.
type TradeScoreRow struct {
	UserID    string
	TradeID   int64
	TradeDate time.Time
	Ticker    string
	Scores    map[string]float64
}

// DayScoreRow is one (user, trading day) confidence vector.
type DayScoreRow struct {
	UserID    string
	TradeDate time.Time
	Scores    map[string]float64
}

// Build pivots tags into the score matrices. Every trade gets a row even
// with all-zero scores, and every distinct (user, date) in trades gets a
// day row. Duplicate (entity, tag) pairs aggregate by max confidence.
// When propagateDayToTrades is set, the third return value is the trade
// matrix enriched with that date's day-tag columns; otherwise it equals
// the trade matrix.
func Build(trades []types.Trade, tags []types.Tag, propagateDayToTrades bool) (tradeScores []TradeScoreRow, dayScores []DayScoreRow, tradeScoresWithDay []TradeScoreRow) {
	tradeVocab := vocabSet(TradeTags)
	dayVocab := vocabSet(DayTags)

	type tradeKey struct {
		user string
		id   int64
	}
	type dayKey struct {
		user string
		day  string
	}
	tradeConf := map[tradeKey]map[string]float64{}
	dayConf := map[dayKey]map[string]float64{}
	for _, t := range tags {
		switch t.Scope {
		case types.ScopeTrade:
			if !tradeVocab[t.Tag] {
				continue
			}
			k := tradeKey{t.UserID, t.TradeID}
			maxInto(tradeConf, k, t.Tag, t.Confidence)
		case types.ScopeDay:
			if !dayVocab[t.Tag] {
				continue
			}
			k := dayKey{t.UserID, t.Day()}
			maxInto(dayConf, k, t.Tag, t.Confidence)
		}
	}

	// Trade roster: one row per trade, in input order.
	tradeScores = make([]TradeScoreRow, 0, len(trades))
	for _, t := range trades {
		row := TradeScoreRow{
			UserID:    t.UserID,
			TradeID:   t.TradeID,
			TradeDate: t.TradeDate,
			Ticker:    t.Ticker,
			Scores:    zeroScores(TradeTags),
		}
		for tag, conf := range tradeConf[tradeKey{t.UserID, t.TradeID}] {
			row.Scores[tag] = conf
		}
		tradeScores = append(tradeScores, row)
	}

	// Day roster: every distinct (user, date), first-appearance order.
	seenDay := map[dayKey]struct{}{}
	for _, t := range trades {
		k := dayKey{t.UserID, t.Day()}
		if _, ok := seenDay[k]; ok {
			continue
		}
		seenDay[k] = struct{}{}
		row := DayScoreRow{
			UserID:    t.UserID,
			TradeDate: t.TradeDate,
			Scores:    zeroScores(DayTags),
		}
		for tag, conf := range dayConf[k] {
			row.Scores[tag] = conf
		}
		dayScores = append(dayScores, row)
	}

	if !propagateDayToTrades {
		tradeScoresWithDay = tradeScores
		return tradeScores, dayScores, tradeScoresWithDay
	}

	dayRows := make(map[dayKey]DayScoreRow, len(dayScores))
	for _, d := range dayScores {
		dayRows[dayKey{d.UserID, d.TradeDate.Format(types.DateLayout)}] = d
	}
	tradeScoresWithDay = make([]TradeScoreRow, 0, len(tradeScores))
	for _, row := range tradeScores {
		merged := TradeScoreRow{
			UserID:    row.UserID,
			TradeID:   row.TradeID,
			TradeDate: row.TradeDate,
			Ticker:    row.Ticker,
			Scores:    make(map[string]float64, len(TradeTags)+len(DayTags)),
		}
		for tag, conf := range row.Scores {
			merged.Scores[tag] = conf
		}
		for _, tag := range DayTags {
			merged.Scores[tag] = 0.0
		}
		if d, ok := dayRows[dayKey{row.UserID, row.TradeDate.Format(types.DateLayout)}]; ok {
			for tag, conf := range d.Scores {
				merged.Scores[tag] = conf
			}
		}
		tradeScoresWithDay = append(tradeScoresWithDay, merged)
	}
	return tradeScores, dayScores, tradeScoresWithDay
}

// Score returns the row's confidence for a tag, 0.0 when absent.
func (r TradeScoreRow) Score(tag string) float64 { return r.Scores[tag] }

// Score returns the row's confidence for a tag, 0.0 when absent.
func (r DayScoreRow) Score(tag string) float64 { return r.Scores[tag] }

func vocabSet(tags []string) map[string]bool {
	s := make(map[string]bool, len(tags))
	for _, t := range tags {
		s[t] = true
	}
	return s
}

func zeroScores(tags []string) map[string]float64 {
	m := make(map[string]float64, len(tags))
	for _, t := range tags {
		m[t] = 0.0
	}
	return m
}

func maxInto[K comparable](m map[K]map[string]float64, k K, tag string, conf float64) {
	inner := m[k]
	if inner == nil {
		inner = map[string]float64{}
		m[k] = inner
	}
	if conf > inner[tag] {
		inner[tag] = conf
	}
}
