// Package rules is a fixed catalogue of independent behavioral
// classifiers. Each rule is a pure function over an immutable feature
// snapshot and emits zero or more tags; the engine concatenates every
// rule's partial table and deduplicates. Adding or removing a rule only
// touches the catalogue, never the orchestration.
package rules

import (
	"time"

	"tradegist/internal/store"
	"tradegist/internal/types"
)

// Rule pairs a name with its classifier function. Rules read the feature
// table and shared config only; no rule mutates the snapshot or sees
// another rule's output.
type Rule struct {
	Name string
	Eval func(f []types.FeatureRow, cfg *store.Config) []types.Tag
}

// Catalogue returns the fixed, ordered rule set. The order is part of the
// contract: dedup keeps first occurrence, and downstream audit logs
// preserve emission order.
func Catalogue() []Rule {
	return []Rule{
		{Name: "outcome", Eval: ruleOutcome},
		{Name: "large_win_loss", Eval: ruleLargeWinLoss},
		{Name: "revenge_immediate", Eval: ruleRevengeImmediate},
		{Name: "size_inconsistency", Eval: ruleSizeInconsistency},
		{Name: "overtrading_day", Eval: ruleOvertradingDay},
		{Name: "revenge_day", Eval: ruleRevengeDay},
		{Name: "chop_day", Eval: ruleChopDay},
		{Name: "ticker_bias", Eval: ruleTickerBias},
		{Name: "follow_through_win_immediate", Eval: ruleFollowThrough},
		{Name: "disciplined_after_loss_immediate", Eval: ruleDisciplinedAfterLoss},
		{Name: "consistent_size", Eval: ruleConsistentSize},
		{Name: "focused_day", Eval: ruleFocusedDay},
		{Name: "green_day_low_activity", Eval: ruleGreenDay},
	}
}

// Evaluate runs every rule in the catalogue over the feature table and
// returns the concatenated, deduplicated tag table. Features must be in
// the canonical (user_id, trade_date, trade_id) order produced by the
// feature engine.
func Evaluate(features []types.FeatureRow, cfg *store.Config) []types.Tag {
	var tags []types.Tag
	for _, r := range Catalogue() {
		tags = append(tags, r.Eval(features, cfg)...)
	}
	return dedupe(tags)
}

type tagKey struct {
	user      string
	tradeID   int64
	day       string
	tag       string
	rationale string
	scope     types.Scope
}

// dedupe drops exact repeats on (user, trade, day, tag, rationale, scope),
// keeping the first occurrence.
func dedupe(tags []types.Tag) []types.Tag {
	seen := make(map[tagKey]struct{}, len(tags))
	out := tags[:0:0]
	for _, t := range tags {
		k := tagKey{t.UserID, t.TradeID, t.Day(), t.Tag, t.Rationale, t.Scope}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}

func tradeTag(r types.FeatureRow, tag string, conf float64, rationale string) types.Tag {
	return types.Tag{
		UserID:     r.UserID,
		TradeID:    r.TradeID,
		TradeDate:  r.TradeDate,
		Tag:        tag,
		Confidence: conf,
		Rationale:  rationale,
		Scope:      types.ScopeTrade,
		Source:     types.SourceRule,
	}
}

func dayTag(user string, date time.Time, tag string, conf float64, rationale string) types.Tag {
	return types.Tag{
		UserID:     user,
		TradeDate:  date,
		Tag:        tag,
		Confidence: conf,
		Rationale:  rationale,
		Scope:      types.ScopeDay,
		Source:     types.SourceRule,
	}
}

// dayGroup is one contiguous (user, trade_date) slice of the canonical
// feature ordering.
type dayGroup struct {
	UserID string
	Date   time.Time
	Rows   []types.FeatureRow
}

func dayGroups(f []types.FeatureRow) []dayGroup {
	var groups []dayGroup
	start := 0
	for i := 1; i <= len(f); i++ {
		boundary := i == len(f) ||
			f[i].UserID != f[start].UserID ||
			!f[i].TradeDate.Equal(f[start].TradeDate)
		if !boundary {
			continue
		}
		groups = append(groups, dayGroup{
			UserID: f[start].UserID,
			Date:   f[start].TradeDate,
			Rows:   f[start:i],
		})
		start = i
	}
	return groups
}

func (g dayGroup) pnl() float64 {
	sum := 0.0
	for _, r := range g.Rows {
		sum += r.RealizedPnL
	}
	return sum
}
