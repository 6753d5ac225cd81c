// Package match reconstructs round-trip trades from signed executions via
// per-(user,ticker) FIFO lot matching.
package match

import (
	"sort"
	"time"

	"tradegist/internal/types"
)

// QtyTol is the matching tolerance: lot and execution remainders at or
// below it are treated as fully consumed.
const QtyTol = 1e-9

// lot is an open inventory position. Qty is always positive here; the
// queue it sits in (long vs short) carries the direction.
type lot struct {
	qty   float64
	price float64
	date  time.Time
}

// group holds the two FIFO queues for one (user,ticker) while its
// executions are consumed. The state is scoped to a single Match call and
// discarded when the group ends.
type group struct {
	longLots  []lot
	shortLots []lot
}

// Match converts executions into closed round-trip trades. Executions are
// grouped by (user, ticker) and processed in (date, original ledger order)
// order within the group; this ordering drives FIFO consumption and is
// load-bearing for correctness.
//
// A buy/cover consumes short lots oldest-first, emitting one trade per
// (execution portion, lot portion) pair; leftover quantity opens or
// extends a long lot. Sell/short is symmetric against long lots. Residual
// open lots at end of data are silently dropped, and zero-quantity
// executions contribute nothing.
//
// Trade IDs are assigned only after all groups are matched, ascending
// (user, trade date, ticker) starting at 1; downstream joins depend on
// this ordering being reproduced exactly.
func Match(executions []types.Execution) []types.Trade {
	execs := make([]types.Execution, len(executions))
	copy(execs, executions)
	sort.SliceStable(execs, func(i, j int) bool {
		a, b := execs[i], execs[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Seq < b.Seq
	})

	var trades []types.Trade
	var g group
	for i, e := range execs {
		if i == 0 || e.UserID != execs[i-1].UserID || e.Ticker != execs[i-1].Ticker {
			g = group{}
		}
		trades = append(trades, g.consume(e)...)
	}

	assignIDs(trades)
	return trades
}

func (g *group) consume(e types.Execution) []types.Trade {
	var out []types.Trade
	remaining := e.AbsQty()

	switch e.Dir {
	case types.DirBuy, types.DirCover:
		// Close shorts first, oldest first.
		for remaining > QtyTol && len(g.shortLots) > 0 {
			l := &g.shortLots[0]
			used := min(remaining, l.qty)
			out = append(out, types.Trade{
				UserID:      e.UserID,
				TradeDate:   e.Date,
				Ticker:      e.Ticker,
				Side:        types.SideShort,
				Qty:         used,
				EntryPrice:  l.price,
				ExitPrice:   e.Price,
				RealizedPnL: (l.price - e.Price) * used,
			})
			remaining -= used
			l.qty -= used
			if l.qty <= QtyTol {
				g.shortLots = g.shortLots[1:]
			}
		}
		if remaining > QtyTol {
			g.longLots = append(g.longLots, lot{qty: remaining, price: e.Price, date: e.Date})
		}

	case types.DirSell, types.DirShort:
		// Close longs first, oldest first.
		for remaining > QtyTol && len(g.longLots) > 0 {
			l := &g.longLots[0]
			used := min(remaining, l.qty)
			out = append(out, types.Trade{
				UserID:      e.UserID,
				TradeDate:   e.Date,
				Ticker:      e.Ticker,
				Side:        types.SideLong,
				Qty:         used,
				EntryPrice:  l.price,
				ExitPrice:   e.Price,
				RealizedPnL: (e.Price - l.price) * used,
			})
			remaining -= used
			l.qty -= used
			if l.qty <= QtyTol {
				g.longLots = g.longLots[1:]
			}
		}
		if remaining > QtyTol {
			g.shortLots = append(g.shortLots, lot{qty: remaining, price: e.Price, date: e.Date})
		}
	}
	return out
}

// assignIDs numbers trades 1..n in ascending (user, trade date, ticker)
// order, stable within ties so emission order is preserved.
func assignIDs(trades []types.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		a, b := trades[i], trades[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		if !a.TradeDate.Equal(b.TradeDate) {
			return a.TradeDate.Before(b.TradeDate)
		}
		return a.Ticker < b.Ticker
	})
	for i := range trades {
		trades[i].TradeID = int64(i + 1)
	}
}
