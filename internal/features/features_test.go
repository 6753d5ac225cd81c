package features

import (
	"math"
	"reflect"
	"testing"
	"time"

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

func TestOutcomeBreakevenBandInclusive(t *testing.T) {
	cfg := store.DefaultConfig()
	trades := []types.Trade{
		trade(1, "u1", 1, "ABC", 1, 10, 1.00),
		trade(2, "u1", 1, "ABC", 1, 10, -1.00),
		trade(3, "u1", 1, "ABC", 1, 10, 1.01),
		trade(4, "u1", 1, "ABC", 1, 10, -1.01),
		trade(5, "u1", 1, "ABC", 1, 10, 0),
	}
	rows := Compute(trades, cfg)
	want := []types.Outcome{
		types.OutcomeBreakeven,
		types.OutcomeBreakeven,
		types.OutcomeWin,
		types.OutcomeLoss,
		types.OutcomeBreakeven,
	}
	for i, w := range want {
		if rows[i].Outcome != w {
			t.Errorf("trade %d outcome = %s, want %s (pnl %g)", rows[i].TradeID, rows[i].Outcome, w, rows[i].RealizedPnL)
		}
	}
}

func TestComputeIdempotent(t *testing.T) {
	cfg := store.DefaultConfig()
	trades := []types.Trade{
		trade(2, "u1", 2, "XYZ", 3, 20, -30),
		trade(1, "u1", 1, "ABC", 10, 10, 50),
		trade(3, "u2", 1, "ABC", 1, 5, 8),
	}
	first := Compute(trades, cfg)
	second := Compute(trades, cfg)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Compute is not deterministic across runs on the same input")
	}
	// Canonical order regardless of input order.
	if first[0].TradeID != 1 || first[1].TradeID != 2 || first[2].UserID != "u2" {
		t.Errorf("rows not in (user, date, id) order: %v %v %v", first[0].TradeID, first[1].TradeID, first[2].UserID)
	}
}

func TestSizeZZeroWhenMADZero(t *testing.T) {
	cfg := store.DefaultConfig()
	trades := []types.Trade{
		trade(1, "u1", 1, "ABC", 10, 10, 5),
		trade(2, "u1", 1, "ABC", 10, 10, -5),
		trade(3, "u1", 2, "ABC", 10, 10, 5),
	}
	for _, r := range Compute(trades, cfg) {
		if r.SizeZ != 0 {
			t.Errorf("trade %d size z = %g, want 0 for identical notionals", r.TradeID, r.SizeZ)
		}
	}
}

func TestSameDaySequencing(t *testing.T) {
	cfg := store.DefaultConfig()
	trades := []types.Trade{
		trade(1, "u1", 1, "ABC", 1, 10, -20),
		trade(2, "u1", 1, "ABC", 1, 10, 5),
		trade(3, "u1", 1, "XYZ", 1, 10, 3),
		trade(4, "u1", 2, "ABC", 1, 10, 2),
	}
	rows := Compute(trades, cfg)

	if rows[0].ImmediateAfterPrev || rows[0].PrevOutcomeDay != "" {
		t.Errorf("first trade of day should carry no sequencing context: %+v", rows[0])
	}
	if !rows[1].ImmediateAfterPrev || rows[1].PrevOutcomeDay != types.OutcomeLoss || !rows[1].SameTickerAsPrev {
		t.Errorf("trade 2: immediate=%v prev=%s sameTicker=%v, want true/loss/true",
			rows[1].ImmediateAfterPrev, rows[1].PrevOutcomeDay, rows[1].SameTickerAsPrev)
	}
	if !rows[2].ImmediateAfterPrev || rows[2].PrevOutcomeDay != types.OutcomeWin || rows[2].SameTickerAsPrev {
		t.Errorf("trade 3: immediate=%v prev=%s sameTicker=%v, want true/win/false",
			rows[2].ImmediateAfterPrev, rows[2].PrevOutcomeDay, rows[2].SameTickerAsPrev)
	}
	// Day boundary resets the context.
	if rows[3].ImmediateAfterPrev || rows[3].PrevOutcomeDay != "" {
		t.Errorf("first trade of next day should reset context: %+v", rows[3])
	}
}

func TestDayAggregates(t *testing.T) {
	cfg := store.DefaultConfig()
	trades := []types.Trade{
		trade(1, "u1", 1, "ABC", 1, 10, 10),
		trade(2, "u1", 1, "XYZ", 1, 10, -4),
		trade(3, "u1", 2, "ABC", 1, 10, 7),
	}
	rows := Compute(trades, cfg)
	for _, r := range rows[:2] {
		if r.DayTradeCount != 2 || math.Abs(r.DayPnL-6) > 1e-9 {
			t.Errorf("trade %d day aggregates = count %d pnl %g, want 2/6", r.TradeID, r.DayTradeCount, r.DayPnL)
		}
	}
	if rows[2].DayTradeCount != 1 || rows[2].DayPnL != 7 {
		t.Errorf("day 2 aggregates = count %d pnl %g, want 1/7", rows[2].DayTradeCount, rows[2].DayPnL)
	}
}

func TestExtremeFlagsZeroPaddedQuantile(t *testing.T) {
	cfg := store.DefaultConfig()
	var trades []types.Trade
	for i := 1; i <= 10; i++ {
		trades = append(trades, trade(int64(i), "u1", i, "ABC", 1, 10, float64(i)+1))
	}
	rows := Compute(trades, cfg)
	// Win vector is 2..11; q90 threshold = 10 + 0.1 = 10.1, so only the
	// largest win is flagged.
	for _, r := range rows {
		wantLarge := r.RealizedPnL == 11
		if r.LargeWin != wantLarge {
			t.Errorf("pnl %g: large_win = %v, want %v", r.RealizedPnL, r.LargeWin, wantLarge)
		}
		if r.LargeLoss {
			t.Errorf("pnl %g: large_loss should never flag without losses", r.RealizedPnL)
		}
	}
}

func TestExtremeFlagsLossSide(t *testing.T) {
	cfg := store.DefaultConfig()
	trades := []types.Trade{
		trade(1, "u1", 1, "ABC", 1, 10, -100),
		trade(2, "u1", 2, "ABC", 1, 10, -5),
		trade(3, "u1", 3, "ABC", 1, 10, 20),
	}
	rows := Compute(trades, cfg)
	// |loss| vector is [100, 5, 0]; q90 = 81 -> only the -100 flags.
	if !rows[0].LargeLoss {
		t.Error("-100 should be a worst-decile loss")
	}
	if rows[1].LargeLoss {
		t.Error("-5 should not be a worst-decile loss")
	}
	if rows[2].LargeLoss || rows[2].LargeWin == false {
		t.Errorf("sole win of 20 should flag large_win: %+v", rows[2])
	}
}

func TestExtremesPerUser(t *testing.T) {
	cfg := store.DefaultConfig()
	trades := []types.Trade{
		trade(1, "u1", 1, "ABC", 1, 10, 5),
		trade(2, "u2", 1, "ABC", 1, 10, 500),
	}
	rows := Compute(trades, cfg)
	// Each user's only win is their own top decile.
	for _, r := range rows {
		if !r.LargeWin {
			t.Errorf("user %s sole win pnl %g should flag large_win", r.UserID, r.RealizedPnL)
		}
	}
}
