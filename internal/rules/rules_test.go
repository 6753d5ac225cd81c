package rules

import (
	"strings"
	"testing"
	"time"

	"tradegist/internal/features"
	"tradegist/internal/store"
	"tradegist/internal/types"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func trade(id int64, user string, d int, ticker string, qty, entry, pnl float64) types.Trade {
	return types.Trade{
		TradeID: id, UserID: user, TradeDate: day(d), Ticker: ticker,
		Side: types.SideLong, Qty: qty, EntryPrice: entry,
		ExitPrice: entry + pnl/qty, RealizedPnL: pnl,
	}
}

func evaluate(t *testing.T, trades []types.Trade) []types.Tag {
	t.Helper()
	cfg := store.DefaultConfig()
	return Evaluate(features.Compute(trades, cfg), cfg)
}

func tradeTags(tags []types.Tag, tradeID int64, name string) []types.Tag {
	var out []types.Tag
	for _, tg := range tags {
		if tg.Scope == types.ScopeTrade && tg.TradeID == tradeID && tg.Tag == name {
			out = append(out, tg)
		}
	}
	return out
}

func dayTags(tags []types.Tag, user string, d int, name string) []types.Tag {
	var out []types.Tag
	for _, tg := range tags {
		if tg.Scope == types.ScopeDay && tg.UserID == user && tg.TradeDate.Equal(day(d)) && tg.Tag == name {
			out = append(out, tg)
		}
	}
	return out
}

func TestRevengeAndFollowThrough(t *testing.T) {
	tags := evaluate(t, []types.Trade{
		trade(1, "u1", 1, "ABC", 1, 10, -20),
		trade(2, "u1", 1, "ABC", 1, 10, 5),
		trade(3, "u1", 1, "XYZ", 1, 10, 3),
	})

	rev := tradeTags(tags, 2, "revenge_immediate")
	if len(rev) != 1 {
		t.Fatalf("expected one revenge_immediate on trade 2, got %d", len(rev))
	}
	if rev[0].Confidence != 0.9 {
		t.Errorf("same-ticker revenge confidence = %g, want 0.9", rev[0].Confidence)
	}
	if rev[0].Rationale != "Immediate re-entry after loss (same ticker)" {
		t.Errorf("revenge rationale = %q", rev[0].Rationale)
	}

	ft := tradeTags(tags, 3, "follow_through_win_immediate")
	if len(ft) != 1 {
		t.Fatalf("expected one follow_through on trade 3, got %d", len(ft))
	}
	if ft[0].Confidence != 0.7 {
		t.Errorf("cross-ticker follow-through confidence = %g, want 0.7", ft[0].Confidence)
	}

	if got := tradeTags(tags, 1, "revenge_immediate"); len(got) != 0 {
		t.Errorf("first trade of day must not be tagged revenge_immediate")
	}
}

func TestOutcomeTags(t *testing.T) {
	tags := evaluate(t, []types.Trade{
		trade(1, "u1", 1, "ABC", 1, 10, 25),
		trade(2, "u1", 2, "ABC", 1, 10, -25),
		trade(3, "u1", 3, "ABC", 1, 10, 0.5),
	})
	cases := []struct {
		id   int64
		tag  string
		conf float64
	}{
		{1, "outcome_win", 0.9},
		{2, "outcome_loss", 0.9},
		{3, "outcome_breakeven", 0.8},
	}
	for _, c := range cases {
		got := tradeTags(tags, c.id, c.tag)
		if len(got) != 1 {
			t.Errorf("trade %d: expected one %s tag, got %d", c.id, c.tag, len(got))
			continue
		}
		if got[0].Confidence != c.conf {
			t.Errorf("trade %d %s confidence = %g, want %g", c.id, c.tag, got[0].Confidence, c.conf)
		}
	}
}

func TestTickerBiasLifetimePerDay(t *testing.T) {
	// 6 trades on ABC across 3 days averaging -$15: lifetime bias fires
	// once per trading day, and the recent-window rule fires as well.
	var trades []types.Trade
	for i := 0; i < 6; i++ {
		trades = append(trades, trade(int64(i+1), "u1", i/2+1, "ABC", 1, 10, -15))
	}
	tags := evaluate(t, trades)

	for d := 1; d <= 3; d++ {
		got := dayTags(tags, "u1", d, "ticker_bias_lifetime")
		if len(got) != 1 {
			t.Errorf("day %d: expected one ticker_bias_lifetime, got %d", d, len(got))
			continue
		}
		if got[0].Confidence != 0.8 {
			t.Errorf("day %d lifetime confidence = %g, want 0.8", d, got[0].Confidence)
		}
	}
	if got := dayTags(tags, "u1", 1, "ticker_bias_recent"); len(got) != 1 {
		t.Errorf("expected ticker_bias_recent alongside lifetime, got %d", len(got))
	}
}

func TestTickerBiasNeedsHistory(t *testing.T) {
	// Only 4 lifetime trades: below the minimum, so no lifetime tag even
	// with clearly negative expectancy.
	var trades []types.Trade
	for i := 0; i < 4; i++ {
		trades = append(trades, trade(int64(i+1), "u1", i+1, "ABC", 1, 10, -50))
	}
	tags := evaluate(t, trades)
	for d := 1; d <= 4; d++ {
		if got := dayTags(tags, "u1", d, "ticker_bias_lifetime"); len(got) != 0 {
			t.Errorf("day %d: lifetime bias should need 5 trades of history", d)
		}
	}
}

func TestOvertradingAndChopBothEmitted(t *testing.T) {
	var trades []types.Trade
	pnls := []float64{20, -15, 10, -12, 7} // sums to +10, inside the chop band
	for i, p := range pnls {
		trades = append(trades, trade(int64(i+1), "u1", 1, "ABC", 1, 10, p))
	}
	tags := evaluate(t, trades)

	over := dayTags(tags, "u1", 1, "overtrading_day")
	if len(over) != 1 || over[0].Confidence != 0.8 {
		t.Fatalf("overtrading_day = %+v, want one tag at 0.8", over)
	}
	chop := dayTags(tags, "u1", 1, "chop_day")
	if len(chop) != 1 || chop[0].Confidence != 0.6 {
		t.Fatalf("chop_day = %+v, want one tag at 0.6", chop)
	}
	// A losing trade plus high activity also marks the day as revenge.
	if rev := dayTags(tags, "u1", 1, "revenge_day"); len(rev) != 1 {
		t.Errorf("expected revenge_day on loss + high activity, got %d", len(rev))
	}
}

func TestGreenDayTiers(t *testing.T) {
	tags := evaluate(t, []types.Trade{
		trade(1, "u1", 1, "ABC", 1, 10, 250),
		trade(2, "u1", 2, "ABC", 1, 10, 100),
		trade(3, "u1", 3, "ABC", 1, 10, 20),
	})
	want := map[int]float64{1: 1.0, 2: 0.8, 3: 0.6}
	for d, conf := range want {
		got := dayTags(tags, "u1", d, "green_day_low_activity")
		if len(got) != 1 {
			t.Errorf("day %d: expected one green_day tag, got %d", d, len(got))
			continue
		}
		if got[0].Confidence != conf {
			t.Errorf("day %d green_day confidence = %g, want %g", d, got[0].Confidence, conf)
		}
	}
}

func TestGreenDaySkipsBusyOrRedDays(t *testing.T) {
	tags := evaluate(t, []types.Trade{
		trade(1, "u1", 1, "ABC", 1, 10, 100),
		trade(2, "u1", 1, "ABC", 1, 10, 100),
		trade(3, "u1", 1, "ABC", 1, 10, 100),
		trade(4, "u1", 2, "ABC", 1, 10, -40),
	})
	if got := dayTags(tags, "u1", 1, "green_day_low_activity"); len(got) != 0 {
		t.Errorf("3-trade day should not be green_day_low_activity")
	}
	if got := dayTags(tags, "u1", 2, "green_day_low_activity"); len(got) != 0 {
		t.Errorf("losing day should not be green_day_low_activity")
	}
}

func TestFocusedDayTiers(t *testing.T) {
	// Profitable single-ticker day with few trades.
	tags := evaluate(t, []types.Trade{
		trade(1, "u1", 1, "ABC", 1, 10, 30),
		trade(2, "u1", 1, "ABC", 1, 10, 30),
	})
	got := dayTags(tags, "u1", 1, "focused_day")
	if len(got) != 1 || got[0].Confidence != 1.0 {
		t.Fatalf("focused single-ticker profitable day = %+v, want conf 1.0", got)
	}

	// Unprofitable single-ticker day drops to the low tier.
	tags = evaluate(t, []types.Trade{
		trade(1, "u2", 1, "ABC", 1, 10, -30),
	})
	got = dayTags(tags, "u2", 1, "focused_day")
	if len(got) != 1 || got[0].Confidence != 0.6 {
		t.Fatalf("unprofitable single-ticker day = %+v, want conf 0.6", got)
	}

	// Multi-ticker day with 80% dominance.
	tags = evaluate(t, []types.Trade{
		trade(1, "u3", 1, "ABC", 1, 10, 10),
		trade(2, "u3", 1, "ABC", 1, 10, 10),
		trade(3, "u3", 1, "ABC", 1, 10, 10),
		trade(4, "u3", 1, "ABC", 1, 10, 10),
		trade(5, "u3", 1, "XYZ", 1, 10, 10),
	})
	got = dayTags(tags, "u3", 1, "focused_day")
	if len(got) != 1 || got[0].Confidence != 0.5 {
		t.Fatalf("dominant multi-ticker day = %+v, want conf 0.5", got)
	}

	// Even split: no focus.
	tags = evaluate(t, []types.Trade{
		trade(1, "u4", 1, "ABC", 1, 10, 10),
		trade(2, "u4", 1, "XYZ", 1, 10, 10),
	})
	if got = dayTags(tags, "u4", 1, "focused_day"); len(got) != 0 {
		t.Fatalf("even two-ticker day should not be focused, got %+v", got)
	}
}

func TestDisciplinedAfterLoss(t *testing.T) {
	// Equal notionals keep size z at 0, inside the discipline band.
	tags := evaluate(t, []types.Trade{
		trade(1, "u1", 1, "ABC", 1, 10, -20),
		trade(2, "u1", 1, "XYZ", 1, 10, 5),
	})
	got := tradeTags(tags, 2, "disciplined_after_loss_immediate")
	if len(got) != 1 || got[0].Confidence != 0.8 {
		t.Fatalf("disciplined_after_loss = %+v, want one tag at 0.8", got)
	}
	// Revenge and discipline are not mutually exclusive: both describe the
	// same re-entry from different angles.
	if rev := tradeTags(tags, 2, "revenge_immediate"); len(rev) != 1 {
		t.Errorf("expected revenge_immediate alongside disciplined tag")
	}
}

func TestSizeInconsistency(t *testing.T) {
	// Notionals 10, 12, 14, 16, 1000: median 14, MAD 2, so the last trade
	// sits hundreds of sigma out and the rest stay within ~1.4σ.
	qtys := []float64{1.0, 1.2, 1.4, 1.6, 100}
	var trades []types.Trade
	for i, q := range qtys {
		trades = append(trades, trade(int64(i+1), "u1", i+1, "ABC", q, 10, 10))
	}
	tags := evaluate(t, trades)

	got := tradeTags(tags, 5, "size_inconsistency")
	if len(got) != 1 {
		t.Fatalf("expected one size_inconsistency on the outlier, got %d", len(got))
	}
	if got[0].Confidence != 0.75 {
		t.Errorf("size_inconsistency confidence = %g, want 0.75", got[0].Confidence)
	}
	if !strings.Contains(got[0].Rationale, "above median") {
		t.Errorf("size_inconsistency rationale = %q", got[0].Rationale)
	}
	for id := int64(1); id <= 4; id++ {
		if tgs := tradeTags(tags, id, "size_inconsistency"); len(tgs) != 0 {
			t.Errorf("trade %d within the normal band should not flag size_inconsistency", id)
		}
	}
}

func TestConsistentSize(t *testing.T) {
	qtys := []float64{1.0, 1.2, 1.4, 1.6, 100}
	var trades []types.Trade
	for i, q := range qtys {
		trades = append(trades, trade(int64(i+1), "u1", i+1, "ABC", q, 10, 10))
	}
	tags := evaluate(t, trades)

	// Only the median-notional trade has |z| <= 0.5; its neighbors sit at
	// ~0.67σ and the outlier far beyond.
	got := tradeTags(tags, 3, "consistent_size")
	if len(got) != 1 {
		t.Fatalf("expected one consistent_size on the median trade, got %d", len(got))
	}
	if got[0].Confidence != 0.6 {
		t.Errorf("consistent_size confidence = %g, want 0.6", got[0].Confidence)
	}
	for _, id := range []int64{1, 2, 4, 5} {
		if tgs := tradeTags(tags, id, "consistent_size"); len(tgs) != 0 {
			t.Errorf("trade %d outside the consistency band should not flag consistent_size", id)
		}
	}
}

func TestConsistentSizeDegenerateNotionals(t *testing.T) {
	// Identical notionals make MAD zero, every z collapses to 0, and the
	// whole group reads as consistent.
	var trades []types.Trade
	for i := 0; i < 3; i++ {
		trades = append(trades, trade(int64(i+1), "u1", i+1, "ABC", 1, 10, 10))
	}
	tags := evaluate(t, trades)
	for id := int64(1); id <= 3; id++ {
		got := tradeTags(tags, id, "consistent_size")
		if len(got) != 1 || got[0].Confidence != 0.6 {
			t.Errorf("trade %d: consistent_size = %+v, want one tag at 0.6", id, got)
		}
		if tgs := tradeTags(tags, id, "size_inconsistency"); len(tgs) != 0 {
			t.Errorf("trade %d: size_inconsistency must not fire when MAD is zero", id)
		}
	}
}

func TestEvaluateHasNoDuplicates(t *testing.T) {
	var trades []types.Trade
	for i := 0; i < 8; i++ {
		trades = append(trades, trade(int64(i+1), "u1", i/4+1, "ABC", 1, 10, -15))
	}
	tags := evaluate(t, trades)
	seen := map[tagKey]bool{}
	for _, tg := range tags {
		k := tagKey{tg.UserID, tg.TradeID, tg.Day(), tg.Tag, tg.Rationale, tg.Scope}
		if seen[k] {
			t.Errorf("duplicate tag after dedupe: %+v", tg)
		}
		seen[k] = true
	}
}
