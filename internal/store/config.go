package store

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the pipeline in one named place. The
// thresholds below are the canonical set; rules must read them from here
// rather than carrying their own constants.
type Config struct {
	Features struct {
		// BreakevenEpsilon is the PnL tolerance in dollars: trades with
		// |PnL| <= epsilon (closed interval) are breakeven.
		BreakevenEpsilon float64 `yaml:"breakeven_epsilon"`
		// LargeWinPct / LargeLossPct are the per-user quantile cutoffs for
		// the extreme-outcome flags (0.90 = top decile).
		LargeWinPct  float64 `yaml:"large_win_pct"`
		LargeLossPct float64 `yaml:"large_loss_pct"`
	} `yaml:"features"`

	Rules struct {
		OvertradingMinTrades    int     `yaml:"overtrading_min_trades"`
		ChopAbsPnLMax           float64 `yaml:"chop_abs_pnl_max"`
		SizeZThreshold          float64 `yaml:"size_z_threshold"`
		DisciplinedSizeZMax     float64 `yaml:"disciplined_size_z_max"`
		ConsistentSizeZAbsMax   float64 `yaml:"consistent_size_z_abs_max"`
		TickerBiasMinTrades     int     `yaml:"ticker_bias_min_trades"`
		TickerBiasMeanPnLMax    float64 `yaml:"ticker_bias_mean_pnl_max"`
		TickerBiasRecentK       int     `yaml:"ticker_bias_recent_k"`
		TickerBiasRecentMeanMax float64 `yaml:"ticker_bias_recent_mean_max"`
		FocusedDaySingleMax     int     `yaml:"focused_day_single_max"`
		FocusedDayDominance     float64 `yaml:"focused_day_dominance"`
		GreenDayMaxTrades       int     `yaml:"green_day_max_trades"`
		GreenDayStrongPnL       float64 `yaml:"green_day_strong_pnl"`
		GreenDayModeratePnL     float64 `yaml:"green_day_moderate_pnl"`
	} `yaml:"rules"`

	Labels struct {
		PropagateDayToTrades bool `yaml:"propagate_day_to_trades"`
	} `yaml:"labels"`

	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
}

// DefaultConfig returns the canonical tunable set.
func DefaultConfig() *Config {
	c := &Config{}
	c.Features.BreakevenEpsilon = 1.00
	c.Features.LargeWinPct = 0.90
	c.Features.LargeLossPct = 0.90

	c.Rules.OvertradingMinTrades = 5
	c.Rules.ChopAbsPnLMax = 50.0
	c.Rules.SizeZThreshold = 2.0
	c.Rules.DisciplinedSizeZMax = 0.5
	c.Rules.ConsistentSizeZAbsMax = 0.5
	c.Rules.TickerBiasMinTrades = 5
	c.Rules.TickerBiasMeanPnLMax = -10.0
	c.Rules.TickerBiasRecentK = 5
	c.Rules.TickerBiasRecentMeanMax = -5.0
	c.Rules.FocusedDaySingleMax = 5
	c.Rules.FocusedDayDominance = 0.8
	c.Rules.GreenDayMaxTrades = 2
	c.Rules.GreenDayStrongPnL = 200.0
	c.Rules.GreenDayModeratePnL = 50.0

	c.Labels.PropagateDayToTrades = true
	c.Output.Dir = "data"
	return c
}

func (c *Config) Validate() error {
	if c.Features.BreakevenEpsilon < 0 {
		return fmt.Errorf("features.breakeven_epsilon must be >= 0, got %.2f", c.Features.BreakevenEpsilon)
	}
	if c.Features.LargeWinPct <= 0 || c.Features.LargeWinPct >= 1 {
		return fmt.Errorf("features.large_win_pct must be in (0,1), got %.2f", c.Features.LargeWinPct)
	}
	if c.Features.LargeLossPct <= 0 || c.Features.LargeLossPct >= 1 {
		return fmt.Errorf("features.large_loss_pct must be in (0,1), got %.2f", c.Features.LargeLossPct)
	}
	if c.Rules.OvertradingMinTrades < 1 {
		return fmt.Errorf("rules.overtrading_min_trades must be >= 1, got %d", c.Rules.OvertradingMinTrades)
	}
	if c.Rules.SizeZThreshold <= 0 {
		return fmt.Errorf("rules.size_z_threshold must be > 0, got %.2f", c.Rules.SizeZThreshold)
	}
	if c.Rules.TickerBiasRecentK < 1 {
		return fmt.Errorf("rules.ticker_bias_recent_k must be >= 1, got %d", c.Rules.TickerBiasRecentK)
	}
	if c.Rules.FocusedDayDominance <= 0 || c.Rules.FocusedDayDominance > 1 {
		return fmt.Errorf("rules.focused_day_dominance must be in (0,1], got %.2f", c.Rules.FocusedDayDominance)
	}
	if c.Rules.GreenDayMaxTrades < 1 {
		return fmt.Errorf("rules.green_day_max_trades must be >= 1, got %d", c.Rules.GreenDayMaxTrades)
	}
	return nil
}

// LoadConfig reads a yaml config file on top of the defaults. A .env file
// next to the working directory is loaded first (silently ignored when
// missing) so deployments can keep paths and log settings out of the yaml.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
