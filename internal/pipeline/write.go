package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"tradegist/internal/interfaces"
	"tradegist/internal/labels"
	"tradegist/internal/ledger"
	"tradegist/internal/types"
)

// Output file names, stable across runs so downstream collaborators can
// pick them up by convention.
const (
	FileTrades             = "trades_roundtrips.csv"
	FileCashEvents         = "cash_events.csv"
	FileFeatures           = "trade_features.csv"
	FileTags               = "tags.csv"
	FileTradeScores        = "trade_scores.csv"
	FileDayScores          = "day_scores.csv"
	FileTradeScoresWithDay = "trade_scores_with_day.csv"
)

// WriteOutputs exports every result table as CSV under dir.
func WriteOutputs(dir string, res *interfaces.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := ledger.WriteTradesCSV(filepath.Join(dir, FileTrades), res.Trades); err != nil {
		return err
	}
	if err := writeCashEvents(filepath.Join(dir, FileCashEvents), res.CashEvents); err != nil {
		return err
	}
	if err := writeFeatures(filepath.Join(dir, FileFeatures), res.Features); err != nil {
		return err
	}
	if err := writeTags(filepath.Join(dir, FileTags), res.Tags); err != nil {
		return err
	}
	if err := writeTradeScores(filepath.Join(dir, FileTradeScores), res.TradeScores, false); err != nil {
		return err
	}
	if err := writeDayScores(filepath.Join(dir, FileDayScores), res.DayScores); err != nil {
		return err
	}
	return writeTradeScores(filepath.Join(dir, FileTradeScoresWithDay), res.TradeScoresWithDay, true)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write(header); err != nil {
		return err
	}
	for _, rec := range rows {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeCashEvents(path string, events []types.CashEvent) error {
	header := []string{"event_id", "user_id", "date", "event_type", "amount", "note"}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			strconv.FormatInt(e.EventID, 10),
			e.UserID,
			e.Date.Format(types.DateLayout),
			string(e.Type),
			fmt.Sprintf("%.2f", e.Amount),
			e.Note,
		})
	}
	return writeCSV(path, header, rows)
}

func writeFeatures(path string, feats []types.FeatureRow) error {
	header := []string{
		"trade_id", "user_id", "trade_date", "ticker", "side", "qty",
		"entry_price", "exit_price", "fees", "realized_pnl",
		"ft_outcome", "ft_notional", "ft_size_z",
		"ft_prev_outcome_day", "ft_same_ticker_as_prev_day", "ft_immediate_after_prev",
		"ft_day_trades_count", "ft_day_pnl", "ft_large_win", "ft_large_loss",
	}
	rows := make([][]string, 0, len(feats))
	for _, r := range feats {
		rows = append(rows, []string{
			strconv.FormatInt(r.TradeID, 10),
			r.UserID,
			r.Day(),
			r.Ticker,
			string(r.Side),
			formatFloat(r.Qty),
			fmt.Sprintf("%.4f", r.EntryPrice),
			fmt.Sprintf("%.4f", r.ExitPrice),
			fmt.Sprintf("%.2f", r.Fees),
			fmt.Sprintf("%.2f", r.RealizedPnL),
			string(r.Outcome),
			fmt.Sprintf("%.2f", r.Notional),
			formatFloat(r.SizeZ),
			string(r.PrevOutcomeDay),
			strconv.FormatBool(r.SameTickerAsPrev),
			strconv.FormatBool(r.ImmediateAfterPrev),
			strconv.Itoa(r.DayTradeCount),
			fmt.Sprintf("%.2f", r.DayPnL),
			strconv.FormatBool(r.LargeWin),
			strconv.FormatBool(r.LargeLoss),
		})
	}
	return writeCSV(path, header, rows)
}

func writeTags(path string, tags []types.Tag) error {
	header := []string{"user_id", "trade_id", "trade_date", "tag", "confidence", "rationale", "scope", "source"}
	rows := make([][]string, 0, len(tags))
	for _, t := range tags {
		id := ""
		if t.Scope == types.ScopeTrade {
			id = strconv.FormatInt(t.TradeID, 10)
		}
		rows = append(rows, []string{
			t.UserID,
			id,
			t.Day(),
			t.Tag,
			formatFloat(t.Confidence),
			t.Rationale,
			string(t.Scope),
			t.Source,
		})
	}
	return writeCSV(path, header, rows)
}

func writeTradeScores(path string, scores []labels.TradeScoreRow, withDay bool) error {
	header := []string{"user_id", "trade_id", "trade_date", "ticker"}
	header = append(header, labels.TradeTags...)
	if withDay {
		header = append(header, labels.DayTags...)
	}
	rows := make([][]string, 0, len(scores))
	for _, r := range scores {
		rec := []string{r.UserID, strconv.FormatInt(r.TradeID, 10), r.TradeDate.Format(types.DateLayout), r.Ticker}
		for _, tag := range labels.TradeTags {
			rec = append(rec, formatFloat(r.Score(tag)))
		}
		if withDay {
			for _, tag := range labels.DayTags {
				rec = append(rec, formatFloat(r.Score(tag)))
			}
		}
		rows = append(rows, rec)
	}
	return writeCSV(path, header, rows)
}

func writeDayScores(path string, scores []labels.DayScoreRow) error {
	header := []string{"user_id", "trade_date"}
	header = append(header, labels.DayTags...)
	rows := make([][]string, 0, len(scores))
	for _, r := range scores {
		rec := []string{r.UserID, r.TradeDate.Format(types.DateLayout)}
		for _, tag := range labels.DayTags {
			rec = append(rec, formatFloat(r.Score(tag)))
		}
		rows = append(rows, rec)
	}
	return writeCSV(path, header, rows)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
