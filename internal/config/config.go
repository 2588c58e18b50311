package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete, strongly-typed configuration surface of the risk
// engine. Every recognized option is explicit and defaulted; unknown keys in
// a config file are rejected at load time rather than silently ignored.
// The engine treats the struct as immutable after construction.
type Config struct {
	Risk        RiskLimits        `json:"risk" yaml:"risk"`
	Drawdown    DrawdownConfig    `json:"drawdown" yaml:"drawdown"`
	Correlation CorrelationConfig `json:"correlation" yaml:"correlation"`
	Stops       StopConfig        `json:"stops" yaml:"stops"`
	Journal     JournalConfig     `json:"journal" yaml:"journal"`
	Monitoring  MonitoringConfig  `json:"monitoring" yaml:"monitoring"`
}

// RiskLimits bounds per-trade risk, confidence scaling, leverage and margin.
type RiskLimits struct {
	RiskPctBase       float64 `json:"risk_pct_base" yaml:"risk_pct_base"`             // base risk per trade, % of equity
	MinRiskPct        float64 `json:"min_risk_pct" yaml:"min_risk_pct"`               // absolute floor, % of equity
	MaxRiskPct        float64 `json:"max_risk_pct" yaml:"max_risk_pct"`               // absolute ceiling, % of equity
	ConfidenceMinMult float64 `json:"confidence_min_mult" yaml:"confidence_min_mult"` // multiplier at confidence 0.0
	ConfidenceMaxMult float64 `json:"confidence_max_mult" yaml:"confidence_max_mult"` // multiplier at confidence 1.0
	MaxLeverage       float64 `json:"max_leverage" yaml:"max_leverage"`
	DefaultLeverage   float64 `json:"default_leverage" yaml:"default_leverage"`
	MarginCeiling     float64 `json:"margin_ceiling" yaml:"margin_ceiling"` // max margin utilization, fraction of equity
}

// DrawdownConfig holds the safety state machine thresholds (percentages)
// and the de-escalation cooldown.
type DrawdownConfig struct {
	CautionDailyPct     float64 `json:"caution_daily_pct" yaml:"caution_daily_pct"`
	CautionMonthlyPct   float64 `json:"caution_monthly_pct" yaml:"caution_monthly_pct"`
	SafeModeDailyPct    float64 `json:"safe_mode_daily_pct" yaml:"safe_mode_daily_pct"`
	SafeModeMonthlyPct  float64 `json:"safe_mode_monthly_pct" yaml:"safe_mode_monthly_pct"`
	EmergencyDailyPct   float64 `json:"emergency_daily_pct" yaml:"emergency_daily_pct"`
	EmergencyMonthlyPct float64 `json:"emergency_monthly_pct" yaml:"emergency_monthly_pct"`
	CooldownMinutes     int     `json:"cooldown_minutes" yaml:"cooldown_minutes"`
}

// Cooldown returns the de-escalation cooldown as a duration.
func (d DrawdownConfig) Cooldown() time.Duration {
	return time.Duration(d.CooldownMinutes) * time.Minute
}

// CorrelationConfig bounds correlated concentration.
type CorrelationConfig struct {
	Threshold         float64 `json:"threshold" yaml:"threshold"`                     // |corr| at or above which two symbols cluster
	ExposureCapPct    float64 `json:"exposure_cap_pct" yaml:"exposure_cap_pct"`       // cap on a correlated cluster, % of equity
	ClusterCapPct     float64 `json:"cluster_cap_pct" yaml:"cluster_cap_pct"`         // tighter cap for explicitly marked clusters
	UseTighterCluster bool    `json:"use_tighter_cluster" yaml:"use_tighter_cluster"` // apply ClusterCapPct instead of ExposureCapPct
}

// StopConfig holds stop-loss activation thresholds and multiplier ranges.
type StopConfig struct {
	ATRMultiplier          float64 `json:"atr_multiplier" yaml:"atr_multiplier"`
	ATRMultiplierMin       float64 `json:"atr_multiplier_min" yaml:"atr_multiplier_min"`
	ATRMultiplierMax       float64 `json:"atr_multiplier_max" yaml:"atr_multiplier_max"`
	BreakevenActivationPct float64 `json:"breakeven_activation_pct" yaml:"breakeven_activation_pct"`
	TrailingActivationPct  float64 `json:"trailing_activation_pct" yaml:"trailing_activation_pct"`
	TrailingATRDistance    float64 `json:"trailing_atr_distance" yaml:"trailing_atr_distance"`
}

// JournalConfig selects the decision journal sink.
type JournalConfig struct {
	Type string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	Path string `json:"path" yaml:"path"`
}

// MonitoringConfig holds the metrics endpoint settings.
type MonitoringConfig struct {
	PrometheusPort int `json:"prometheus_port" yaml:"prometheus_port"`
}

// Default returns a Config populated with the engine defaults.
func Default() *Config {
	return &Config{
		Risk: RiskLimits{
			RiskPctBase:       1.0,
			MinRiskPct:        0.25,
			MaxRiskPct:        2.0,
			ConfidenceMinMult: 0.25,
			ConfidenceMaxMult: 2.0,
			MaxLeverage:       10.0,
			DefaultLeverage:   1.0,
			MarginCeiling:     0.90,
		},
		Drawdown: DrawdownConfig{
			CautionDailyPct:     5.0,
			CautionMonthlyPct:   12.0,
			SafeModeDailyPct:    8.0,
			SafeModeMonthlyPct:  20.0,
			EmergencyDailyPct:   12.0,
			EmergencyMonthlyPct: 30.0,
			CooldownMinutes:     60,
		},
		Correlation: CorrelationConfig{
			Threshold:      0.7,
			ExposureCapPct: 20.0,
			ClusterCapPct:  15.0,
		},
		Stops: StopConfig{
			ATRMultiplier:          2.0,
			ATRMultiplierMin:       1.5,
			ATRMultiplierMax:       3.0,
			BreakevenActivationPct: 1.5,
			TrailingActivationPct:  2.0,
			TrailingATRDistance:    1.5,
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Monitoring: MonitoringConfig{
			PrometheusPort: 8080,
		},
	}
}

// Load reads a config file (JSON or YAML based on extension), layered over
// the defaults, then applies environment overrides. Unknown keys fail the
// load.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse json config: %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides selected options from environment variables. Callers
// that want .env support load it first (godotenv) and then call Load.
func (c *Config) ApplyEnv() {
	c.Risk.RiskPctBase = getEnvFloat("RISK_PCT_BASE", c.Risk.RiskPctBase)
	c.Risk.MaxLeverage = getEnvFloat("MAX_LEVERAGE", c.Risk.MaxLeverage)
	c.Drawdown.CooldownMinutes = getEnvInt("DRAWDOWN_COOLDOWN_MINUTES", c.Drawdown.CooldownMinutes)
	c.Correlation.Threshold = getEnvFloat("CORRELATION_THRESHOLD", c.Correlation.Threshold)
	c.Journal.Type = getEnv("JOURNAL_TYPE", c.Journal.Type)
	c.Journal.Path = getEnv("JOURNAL_PATH", c.Journal.Path)
	c.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", c.Monitoring.PrometheusPort)
}

// Validate checks internal consistency of the configuration.
func (c *Config) Validate() error {
	r := c.Risk
	if r.MinRiskPct <= 0 || r.MaxRiskPct <= 0 || r.MinRiskPct > r.MaxRiskPct {
		return fmt.Errorf("risk bounds invalid: min=%.2f max=%.2f", r.MinRiskPct, r.MaxRiskPct)
	}
	if r.ConfidenceMinMult <= 0 || r.ConfidenceMaxMult < r.ConfidenceMinMult {
		return fmt.Errorf("confidence multiplier range invalid: [%.2f, %.2f]", r.ConfidenceMinMult, r.ConfidenceMaxMult)
	}
	if r.MaxLeverage < 1.0 {
		return fmt.Errorf("max leverage must be >= 1.0, got %.2f", r.MaxLeverage)
	}
	if r.MarginCeiling <= 0 || r.MarginCeiling > 1.0 {
		return fmt.Errorf("margin ceiling must be in (0, 1], got %.2f", r.MarginCeiling)
	}

	d := c.Drawdown
	if !(d.CautionDailyPct < d.SafeModeDailyPct && d.SafeModeDailyPct < d.EmergencyDailyPct) {
		return fmt.Errorf("daily drawdown thresholds must be strictly increasing")
	}
	if !(d.CautionMonthlyPct < d.SafeModeMonthlyPct && d.SafeModeMonthlyPct < d.EmergencyMonthlyPct) {
		return fmt.Errorf("monthly drawdown thresholds must be strictly increasing")
	}
	if d.CooldownMinutes < 0 {
		return fmt.Errorf("cooldown minutes must be non-negative, got %d", d.CooldownMinutes)
	}

	co := c.Correlation
	if co.Threshold < 0 || co.Threshold > 1 {
		return fmt.Errorf("correlation threshold must be in [0, 1], got %.2f", co.Threshold)
	}
	if co.ExposureCapPct <= 0 || co.ClusterCapPct <= 0 {
		return fmt.Errorf("correlation exposure caps must be positive")
	}

	s := c.Stops
	if s.ATRMultiplierMin > s.ATRMultiplierMax {
		return fmt.Errorf("ATR multiplier range invalid: [%.2f, %.2f]", s.ATRMultiplierMin, s.ATRMultiplierMax)
	}
	if s.BreakevenActivationPct <= 0 || s.TrailingActivationPct <= 0 {
		return fmt.Errorf("stop activation thresholds must be positive")
	}

	switch c.Journal.Type {
	case "sqlite", "csv", "none", "":
	default:
		return fmt.Errorf("unknown journal type %q", c.Journal.Type)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
