package ledger

import (
	"strings"

	"tradegist/internal/types"
)

// RowType is the ledger row class an action string resolves to.
type RowType string

const (
	RowTrade    RowType = "trade"
	RowDeposit  RowType = "deposit"
	RowWithdraw RowType = "withdraw"
	RowFee      RowType = "fee"
	RowInterest RowType = "interest"
	RowIgnore   RowType = "ignore"
)

// ClassifyAction classifies raw broker action text into a row type and,
// for trades, a direction. Cash events are checked first. Unknown text
// resolves to RowIgnore: the row is silently dropped from both streams.
// This is a lossy default; callers needing completeness must pre-validate
// action text against this vocabulary.
func ClassifyAction(action string) (RowType, types.Direction) {
	a := strings.ToLower(strings.TrimSpace(action))

	switch {
	case strings.Contains(a, "deposit"):
		return RowDeposit, ""
	case strings.Contains(a, "withdraw"): // also matches "withdrawal"
		return RowWithdraw, ""
	case strings.Contains(a, "interest"):
		return RowInterest, ""
	case strings.Contains(a, "fee"), strings.Contains(a, "commission"):
		return RowFee, ""
	}

	switch {
	case strings.Contains(a, "sell short"),
		strings.Contains(a, "short") && !strings.Contains(a, "cover"):
		return RowTrade, types.DirShort
	case strings.Contains(a, "buy to cover"), strings.Contains(a, "cover"):
		return RowTrade, types.DirCover
	case strings.Contains(a, "buy"):
		return RowTrade, types.DirBuy
	case strings.Contains(a, "sell"):
		return RowTrade, types.DirSell
	}

	return RowIgnore, ""
}

// eventType maps a cash row type to its event type. Callers must not pass
// RowTrade or RowIgnore.
func eventType(rt RowType) types.EventType {
	switch rt {
	case RowDeposit:
		return types.EventDeposit
	case RowWithdraw:
		return types.EventWithdraw
	case RowFee:
		return types.EventFee
	default:
		return types.EventInterest
	}
}
