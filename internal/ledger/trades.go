package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tradegist/internal/logger"
	"tradegist/internal/types"
)

// Columns the feature engine requires on a round-trip trades table.
var tradeColumns = map[string][]string{
	"trade_id":     {"trade_id"},
	"user_id":      {"user_id"},
	"trade_date":   {"trade_date", "date"},
	"ticker":       {"ticker", "symbol"},
	"qty":          {"qty", "quantity", "shares", "contracts"},
	"entry_price":  {"entry_price"},
	"realized_pnl": {"realized_pnl"},
}

var tradeOptionalColumns = map[string][]string{
	"side":       {"side"},
	"exit_price": {"exit_price"},
	"fees":       {"fees"},
}

// LoadTrades reads an already-matched round-trip trades table (CSV or
// XLSX) for callers that skip the lot matcher, e.g. re-running features
// over a previously exported trades file. Schema validation happens here,
// once, at the table boundary: every missing required column is reported
// in one SchemaError before any row is parsed.
func LoadTrades(ctx context.Context, path string) ([]types.Trade, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	return parseTrades(ctx, rows)
}

// LoadTradesReader is LoadTrades for an already-open CSV stream.
func LoadTradesReader(ctx context.Context, r io.Reader) ([]types.Trade, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return parseTrades(ctx, rows)
}

func parseTrades(ctx context.Context, rows [][]string) ([]types.Trade, error) {
	if len(rows) == 0 {
		return nil, &types.SchemaError{Table: "trades", Missing: sortedKeys(tradeColumns)}
	}
	idx, err := resolveHeader(rows[0], tradeColumns, "trades")
	if err != nil {
		return nil, err
	}
	opt, _ := resolveHeader(rows[0], tradeOptionalColumns, "trades")

	trades := make([]types.Trade, 0, len(rows)-1)
	for n, row := range rows[1:] {
		date, ok := parseDate(cell(row, idx["trade_date"]))
		if !ok {
			logger.Warn(ctx, "Skipping trade row with unparseable date", "row", n+2, "value", cell(row, idx["trade_date"]))
			continue
		}
		id, _ := strconv.ParseInt(strings.TrimSpace(cell(row, idx["trade_id"])), 10, 64)
		t := types.Trade{
			TradeID:     id,
			UserID:      strings.TrimSpace(cell(row, idx["user_id"])),
			TradeDate:   date,
			Ticker:      strings.ToUpper(strings.TrimSpace(cell(row, idx["ticker"]))),
			Qty:         parseNumber(cell(row, idx["qty"])),
			EntryPrice:  parseNumber(cell(row, idx["entry_price"])),
			RealizedPnL: parseNumber(cell(row, idx["realized_pnl"])),
		}
		if i, ok := opt["side"]; ok {
			t.Side = types.Side(strings.ToLower(strings.TrimSpace(cell(row, i))))
		}
		if i, ok := opt["exit_price"]; ok {
			t.ExitPrice = parseNumber(cell(row, i))
		}
		if i, ok := opt["fees"]; ok {
			t.Fees = parseNumber(cell(row, i))
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// TradeColumns is the canonical trades table column order shared with
// downstream collaborators (store, API, report renderer). The journal
// columns after realized_pnl are carried empty by this pipeline; they are
// filled in by the journaling surface.
var TradeColumns = []string{
	"trade_id", "user_id", "trade_date", "trade_time", "ticker", "side", "qty",
	"entry_price", "exit_price", "fees", "realized_pnl",
	"strategy", "hold_time_sec", "note", "mood", "manual_tags", "screenshot_url",
}

// WriteTradesCSV exports round-trip trades in the canonical column order.
func WriteTradesCSV(path string, trades []types.Trade) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write(TradeColumns); err != nil {
		return err
	}
	for _, t := range trades {
		rec := []string{
			strconv.FormatInt(t.TradeID, 10),
			t.UserID,
			t.Day(),
			"", // trade_time: ledgers carry no intraday time
			t.Ticker,
			string(t.Side),
			formatQty(t.Qty),
			fmt.Sprintf("%.4f", t.EntryPrice),
			fmt.Sprintf("%.4f", t.ExitPrice),
			fmt.Sprintf("%.2f", t.Fees),
			fmt.Sprintf("%.2f", t.RealizedPnL),
			"", "", "", "", "", "",
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// formatQty prints whole-share quantities without a decimal tail.
func formatQty(q float64) string {
	if q == float64(int64(q)) {
		return strconv.FormatInt(int64(q), 10)
	}
	return strconv.FormatFloat(q, 'f', -1, 64)
}
