package rules

import (
	"fmt"

	"tradegist/internal/store"
	"tradegist/internal/types"
)

// ruleOutcome tags every trade with its outcome class.
func ruleOutcome(f []types.FeatureRow, _ *store.Config) []types.Tag {
	var tags []types.Tag
	for _, r := range f {
		switch r.Outcome {
		case types.OutcomeWin:
			tags = append(tags, tradeTag(r, "outcome_win", 0.9,
				fmt.Sprintf("Win: PnL $%.2f", r.RealizedPnL)))
		case types.OutcomeLoss:
			tags = append(tags, tradeTag(r, "outcome_loss", 0.9,
				fmt.Sprintf("Loss: PnL $%.2f", r.RealizedPnL)))
		default:
			tags = append(tags, tradeTag(r, "outcome_breakeven", 0.8,
				"Breakeven within tolerance"))
		}
	}
	return tags
}

// ruleLargeWinLoss tags the per-user extreme outcomes.
func ruleLargeWinLoss(f []types.FeatureRow, _ *store.Config) []types.Tag {
	var tags []types.Tag
	for _, r := range f {
		if r.LargeWin {
			tags = append(tags, tradeTag(r, "large_win", 0.75,
				fmt.Sprintf("Top-decile win (PnL $%.2f)", r.RealizedPnL)))
		}
		if r.LargeLoss {
			tags = append(tags, tradeTag(r, "large_loss", 0.85,
				fmt.Sprintf("Worst-decile loss (PnL $%.2f)", r.RealizedPnL)))
		}
	}
	return tags
}

// ruleRevengeImmediate fires on an immediate same-day re-entry after a
// loss; confidence is higher when the re-entry is on the same ticker.
func ruleRevengeImmediate(f []types.FeatureRow, _ *store.Config) []types.Tag {
	var tags []types.Tag
	for _, r := range f {
		if r.PrevOutcomeDay != types.OutcomeLoss || !r.ImmediateAfterPrev {
			continue
		}
		conf, rationale := 0.75, "Immediate re-entry after loss"
		if r.SameTickerAsPrev {
			conf, rationale = 0.9, "Immediate re-entry after loss (same ticker)"
		}
		tags = append(tags, tradeTag(r, "revenge_immediate", conf, rationale))
	}
	return tags
}

// ruleSizeInconsistency fires when notional size sits far above the
// user's typical size.
func ruleSizeInconsistency(f []types.FeatureRow, cfg *store.Config) []types.Tag {
	var tags []types.Tag
	for _, r := range f {
		if r.SizeZ < cfg.Rules.SizeZThreshold {
			continue
		}
		tags = append(tags, tradeTag(r, "size_inconsistency", 0.75,
			fmt.Sprintf("Size %.1fσ above median (notional $%.0f)", r.SizeZ, r.Notional)))
	}
	return tags
}

// ruleFollowThrough is the positive mirror of revenge_immediate: an
// immediate re-entry after a win.
func ruleFollowThrough(f []types.FeatureRow, _ *store.Config) []types.Tag {
	var tags []types.Tag
	for _, r := range f {
		if r.PrevOutcomeDay != types.OutcomeWin || !r.ImmediateAfterPrev {
			continue
		}
		conf, rationale := 0.7, "Immediate follow-through after win"
		if r.SameTickerAsPrev {
			conf, rationale = 0.85, "Immediate follow-through after win (same ticker)"
		}
		tags = append(tags, tradeTag(r, "follow_through_win_immediate", conf, rationale))
	}
	return tags
}

// ruleDisciplinedAfterLoss rewards an immediate re-entry after a loss that
// keeps position size inside the discipline band.
func ruleDisciplinedAfterLoss(f []types.FeatureRow, cfg *store.Config) []types.Tag {
	var tags []types.Tag
	for _, r := range f {
		if r.PrevOutcomeDay != types.OutcomeLoss || !r.ImmediateAfterPrev {
			continue
		}
		if r.SizeZ > cfg.Rules.DisciplinedSizeZMax {
			continue
		}
		tags = append(tags, tradeTag(r, "disciplined_after_loss_immediate", 0.8,
			fmt.Sprintf("Composed re-entry after loss (size %.1fσ, within discipline)", r.SizeZ)))
	}
	return tags
}

// ruleConsistentSize tags trades whose size stays within the consistency
// band around the user's typical notional.
func ruleConsistentSize(f []types.FeatureRow, cfg *store.Config) []types.Tag {
	var tags []types.Tag
	for _, r := range f {
		z := r.SizeZ
		if z < 0 {
			z = -z
		}
		if z > cfg.Rules.ConsistentSizeZAbsMax {
			continue
		}
		tags = append(tags, tradeTag(r, "consistent_size", 0.6,
			fmt.Sprintf("Consistent position sizing (%.1fσ from typical)", r.SizeZ)))
	}
	return tags
}
