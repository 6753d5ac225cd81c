// Package taglog keeps an append-only JSONL audit trail of emitted tags,
// one line per tag with the run that produced it. Rationale strings are
// part of the audit contract: they carry the numeric evidence a reviewer
// needs without re-running the pipeline.
package taglog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tradegist/internal/types"
)

var mu sync.Mutex

// Entry is one audited tag emission.
type Entry struct {
	Time       string  `json:"time"`
	RunID      string  `json:"run_id"`
	UserID     string  `json:"user_id"`
	TradeID    int64   `json:"trade_id,omitempty"`
	TradeDate  string  `json:"trade_date"`
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
	Scope      string  `json:"scope"`
	Source     string  `json:"source"`
}

func logDir() string {
	if v := os.Getenv("TRADEGIST_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(logDir(), "tags", t.Format("2006-01-02")+".jsonl")
}

// Append writes every tag of one pipeline run to today's audit file.
func Append(runID string, tags []types.Tag) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	p := dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	stamp := now.Format("2006-01-02 15:04:05")
	for _, t := range tags {
		e := Entry{
			Time:       stamp,
			RunID:      runID,
			UserID:     t.UserID,
			TradeID:    t.TradeID,
			TradeDate:  t.Day(),
			Tag:        t.Tag,
			Confidence: t.Confidence,
			Rationale:  t.Rationale,
			Scope:      string(t.Scope),
			Source:     t.Source,
		}
		b, _ := json.Marshal(e)
		if _, err := fmt.Fprintln(f, string(b)); err != nil {
			return err
		}
	}
	return nil
}

// CompressOlder gzips audit files older than retentionDays.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(logDir(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, e := os.Stat(gz); e == nil {
			return os.Remove(p)
		}
		in, e := os.Open(p)
		if e != nil {
			return nil
		}
		defer in.Close()
		out, e := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e := io.Copy(gw, in); e != nil {
			_ = gw.Close()
			_ = out.Close()
			return nil
		}
		_ = gw.Close()
		_ = out.Close()
		return os.Remove(p)
	})
}
