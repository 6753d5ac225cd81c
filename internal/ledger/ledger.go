// Package ledger ingests raw brokerage ledger files and splits them into
// an execution stream (consumed by the lot matcher) and a cash-event
// stream. Column names are matched case-insensitively against a small
// synonym table, and every missing required column is reported at once.
package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"tradegist/internal/logger"
	"tradegist/internal/types"
)

// Synonyms accepted for each required ledger column, tried in order.
var ledgerColumns = map[string][]string{
	"date":     {"date"},
	"ticker":   {"ticker", "symbol"},
	"action":   {"action", "description"},
	"quantity": {"quantity", "qty", "shares", "contracts"},
	"price":    {"price"},
	"amount":   {"amount", "cash", "net"},
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	time.RFC3339,
}

// Load reads a delimited ledger file (CSV or XLSX by extension) and
// returns the classified executions and cash events for the given user.
// Executions come back sorted by (user, ticker, date), original ledger
// order breaking ties, which is the order the lot matcher consumes them in.
func Load(ctx context.Context, path, userID string) ([]types.Execution, []types.CashEvent, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, nil, err
	}
	return parse(ctx, rows, userID)
}

// LoadReader is Load for an already-open CSV stream.
func LoadReader(ctx context.Context, r io.Reader, userID string) ([]types.Execution, []types.CashEvent, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, nil, err
	}
	return parse(ctx, rows, userID)
}

func readRows(path string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("xlsx %s: no sheets", path)
	}
	return f.GetRows(sheet)
}

// resolveHeader maps each canonical column name to its index in the header
// row. All missing columns are collected into a single SchemaError.
func resolveHeader(header []string, wanted map[string][]string, table string) (map[string]int, error) {
	lower := make(map[string]int, len(header))
	for i, h := range header {
		lower[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idx := make(map[string]int, len(wanted))
	var missing []string
	for canonical, synonyms := range wanted {
		found := false
		for _, s := range synonyms {
			if i, ok := lower[s]; ok {
				idx[canonical] = i
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, canonical)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &types.SchemaError{Table: table, Missing: missing}
	}
	return idx, nil
}

func parse(ctx context.Context, rows [][]string, userID string) ([]types.Execution, []types.CashEvent, error) {
	if len(rows) == 0 {
		return nil, nil, &types.SchemaError{Table: "ledger", Missing: sortedKeys(ledgerColumns)}
	}
	idx, err := resolveHeader(rows[0], ledgerColumns, "ledger")
	if err != nil {
		return nil, nil, err
	}

	var execs []types.Execution
	var cash []types.CashEvent
	for n, row := range rows[1:] {
		date, ok := parseDate(cell(row, idx["date"]))
		if !ok {
			logger.Warn(ctx, "Skipping ledger row with unparseable date", "row", n+2, "value", cell(row, idx["date"]))
			continue
		}
		action := cell(row, idx["action"])
		rt, dir := ClassifyAction(action)
		switch rt {
		case RowIgnore:
			continue
		case RowTrade:
			qty := parseNumber(cell(row, idx["quantity"]))
			price := parseNumber(cell(row, idx["price"]))
			sign := 1.0
			if dir == types.DirSell || dir == types.DirShort {
				sign = -1.0
			}
			execs = append(execs, types.Execution{
				UserID: userID,
				Ticker: strings.ToUpper(strings.TrimSpace(cell(row, idx["ticker"]))),
				Dir:    dir,
				Qty:    sign * qty,
				Price:  price,
				Date:   date,
				Seq:    n,
			})
		default:
			cash = append(cash, types.CashEvent{
				EventID: int64(len(cash) + 1),
				UserID:  userID,
				Date:    date,
				Type:    eventType(rt),
				Amount:  parseNumber(cell(row, idx["amount"])),
				Note:    strings.TrimSpace(action),
			})
		}
	}

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
	return execs, cash, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseNumber parses a currency-ish cell ("$1,234.50", "(25.00)"), falling
// back to 0 for blanks and junk, matching the ingest convention that
// non-trade rows may leave quantity/price empty.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if neg {
		v = -v
	}
	return v
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
