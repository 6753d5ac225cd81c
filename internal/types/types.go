package types

import "time"

// DateLayout is the canonical calendar-day format used everywhere a day
// becomes a map key or a CSV cell.
const DateLayout = "2006-01-02"

// Direction of a raw brokerage execution.
type Direction string

const (
	DirBuy   Direction = "buy"
	DirSell  Direction = "sell"
	DirShort Direction = "short"
	DirCover Direction = "cover"
)

// Side of a closed round-trip trade.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// EventType classifies a non-trade ledger row.
type EventType string

const (
	EventDeposit  EventType = "deposit"
	EventWithdraw EventType = "withdraw"
	EventFee      EventType = "fee"
	EventInterest EventType = "interest"
)

// Outcome of a round-trip trade relative to the breakeven tolerance.
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeLoss      Outcome = "loss"
	OutcomeBreakeven Outcome = "breakeven"
)

// Scope says whether a tag applies to a single trade or to a whole
// trading day for a user.
type Scope string

const (
	ScopeTrade Scope = "trade"
	ScopeDay   Scope = "day"
)

// SourceRule marks tags produced by the rule engine (as opposed to manual
// tags a user may attach elsewhere).
const SourceRule = "rule"

// Execution is one brokerage fill after ledger classification. Qty is
// signed: buy/cover positive, sell/short negative. Seq preserves the
// original ledger row order and breaks date ties during FIFO matching.
type Execution struct {
	UserID string
	Ticker string
	Dir    Direction
	Qty    float64
	Price  float64
	Date   time.Time
	Seq    int
}

// AbsQty returns the unsigned execution quantity.
func (e Execution) AbsQty() float64 {
	if e.Qty < 0 {
		return -e.Qty
	}
	return e.Qty
}

// CashEvent is a non-trade ledger row (deposit, withdrawal, fee, interest).
// Fees live here, not on trades.
type CashEvent struct {
	EventID int64
	UserID  string
	Date    time.Time
	Type    EventType
	Amount  float64
	Note    string
}

// Trade is a closed round-trip: the closure of all or part of a lot
// against an opposing execution. Immutable once built; TradeID is assigned
// after all groups are matched, ascending (user, trade date, ticker).
type Trade struct {
	TradeID     int64
	UserID      string
	TradeDate   time.Time
	Ticker      string
	Side        Side
	Qty         float64
	EntryPrice  float64
	ExitPrice   float64
	Fees        float64
	RealizedPnL float64
}

// Day returns the trade date formatted as a day key.
func (t Trade) Day() string { return t.TradeDate.Format(DateLayout) }

// FeatureRow is a Trade annotated with the derived behavioral features the
// rule engine consumes. Derived once per pipeline run; never mutated.
type FeatureRow struct {
	Trade

	Outcome  Outcome
	Notional float64
	SizeZ    float64

	// Same-day sequencing context, in canonical (user, date, trade id)
	// order. PrevOutcomeDay is empty for the first trade of a day.
	PrevOutcomeDay     Outcome
	SameTickerAsPrev   bool
	ImmediateAfterPrev bool

	DayTradeCount int
	DayPnL        float64

	LargeWin  bool
	LargeLoss bool
}

// Tag is one emitted classification. TradeID is 0 for day-scope tags.
type Tag struct {
	UserID     string
	TradeID    int64
	TradeDate  time.Time
	Tag        string
	Confidence float64
	Rationale  string
	Scope      Scope
	Source     string
}

// Day returns the tag date formatted as a day key.
func (t Tag) Day() string { return t.TradeDate.Format(DateLayout) }
