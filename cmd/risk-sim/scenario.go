package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/quantaris/risk-engine/internal/portfolio"
	"github.com/quantaris/risk-engine/internal/risk"
)

// Scenario is one simulation input: a portfolio snapshot, the correlation
// pairs to preload and the trade requests to assess in order.
type Scenario struct {
	Name         string              `json:"name"`
	Equity       float64             `json:"equity"`
	PeakEquity   float64             `json:"peak_equity"`
	DayStart     float64             `json:"day_start_equity"`
	MonthStart   float64             `json:"month_start_equity"`
	MarginUsed   float64             `json:"margin_used"`
	Positions    []ScenarioPosition  `json:"positions"`
	Correlations []CorrelationInput  `json:"correlations"`
	Requests     []risk.TradeRequest `json:"requests"`
}

// ScenarioPosition describes an open position in the scenario file.
type ScenarioPosition struct {
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	EntryPrice float64 `json:"entry_price"`
	Quantity   float64 `json:"quantity"`
	Leverage   float64 `json:"leverage"`
	StopLevel  float64 `json:"stop_level"`
}

// CorrelationInput is one preloaded correlation pair.
type CorrelationInput struct {
	SymbolA     string  `json:"symbol_a"`
	SymbolB     string  `json:"symbol_b"`
	Coefficient float64 `json:"coefficient"`
}

// loadScenario reads and validates a scenario file.
func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var sc Scenario
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if sc.Equity <= 0 {
		return nil, fmt.Errorf("scenario equity must be positive, got %.2f", sc.Equity)
	}
	if sc.PeakEquity == 0 {
		sc.PeakEquity = sc.Equity
	}
	if sc.DayStart == 0 {
		sc.DayStart = sc.Equity
	}
	if sc.MonthStart == 0 {
		sc.MonthStart = sc.Equity
	}
	if len(sc.Requests) == 0 {
		return nil, fmt.Errorf("scenario has no trade requests")
	}
	return &sc, nil
}

// snapshot converts the scenario into a portfolio snapshot with derived
// drawdown percentages.
func (sc *Scenario) snapshot() portfolio.Snapshot {
	snap := portfolio.Snapshot{
		Equity:           sc.Equity,
		PeakEquity:       sc.PeakEquity,
		DayStartEquity:   sc.DayStart,
		MonthStartEquity: sc.MonthStart,
		MarginUsed:       sc.MarginUsed,
	}
	if sc.DayStart > 0 {
		snap.DailyDrawdownPct = (sc.DayStart - sc.Equity) / sc.DayStart * 100
	}
	if sc.MonthStart > 0 {
		snap.MonthlyDrawdownPct = (sc.MonthStart - sc.Equity) / sc.MonthStart * 100
	}
	if snap.DailyDrawdownPct < 0 {
		snap.DailyDrawdownPct = 0
	}
	if snap.MonthlyDrawdownPct < 0 {
		snap.MonthlyDrawdownPct = 0
	}

	for _, p := range sc.Positions {
		snap.Positions = append(snap.Positions, portfolio.Position{
			Symbol:     p.Symbol,
			Direction:  portfolio.Direction(p.Direction),
			EntryPrice: p.EntryPrice,
			Quantity:   p.Quantity,
			Leverage:   p.Leverage,
			StopLevel:  p.StopLevel,
		})
	}
	return snap
}
