package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"tradegist/internal/logger"
	"tradegist/internal/pipeline"
	"tradegist/internal/store"
	"tradegist/internal/taglog"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional; defaults apply)")
	ledgerPath := flag.String("ledger", "", "path to raw ledger CSV/XLSX (required)")
	user := flag.String("user", "demo_user", "user_id to attach to ledger rows")
	outDir := flag.String("outdir", "", "output directory (default: config output.dir)")
	propagate := flag.Bool("propagate-day", true, "propagate day scores onto trade rows")
	flag.Parse()

	if *ledgerPath == "" {
		fmt.Println("Error: -ledger is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg := store.DefaultConfig()
	if *configPath != "" {
		loaded, err := store.LoadConfig(*configPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.Labels.PropagateDayToTrades = *propagate
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	if err := logger.Init(); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	defer logger.Shutdown(ctx)

	if v := os.Getenv("TRADEGIST_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		_ = taglog.CompressOlder(n)
	}

	runner := pipeline.NewRunner(cfg)
	res, err := runner.RunLedger(ctx, *ledgerPath, *user)
	if err != nil {
		fmt.Printf("Pipeline failed: %v\n", err)
		os.Exit(1)
	}

	if err := pipeline.WriteOutputs(cfg.Output.Dir, res); err != nil {
		fmt.Printf("Error writing outputs: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Run %s complete\n", res.RunID)
	fmt.Println("─────────────────────────────────────────────")
	fmt.Printf("  Executions:  %d\n", len(res.Executions))
	fmt.Printf("  Cash events: %d\n", len(res.CashEvents))
	fmt.Printf("  Trades:      %d\n", len(res.Trades))
	fmt.Printf("  Tags:        %d\n", len(res.Tags))
	fmt.Printf("  Trade rows:  %d  Day rows: %d\n", len(res.TradeScores), len(res.DayScores))
	fmt.Printf("Outputs written to %s\n", cfg.Output.Dir)

	if len(res.Trades) == 0 {
		fmt.Println("No completed round-trip trades found in this ledger.")
		return
	}

	fmt.Println("\nFirst trades:")
	limit := len(res.Trades)
	if limit > 5 {
		limit = 5
	}
	for _, t := range res.Trades[:limit] {
		fmt.Printf("  #%d %s %s %s qty=%g entry=%.2f exit=%.2f pnl=%.2f\n",
			t.TradeID, t.Day(), t.Ticker, t.Side, t.Qty, t.EntryPrice, t.ExitPrice, t.RealizedPnL)
	}
}
