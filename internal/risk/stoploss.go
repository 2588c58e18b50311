package risk

import (
	"fmt"

	"github.com/quantaris/risk-engine/internal/config"
	"github.com/quantaris/risk-engine/internal/monitoring"
	"github.com/quantaris/risk-engine/internal/portfolio"
)

// StopLossCalculator computes initial protective stop levels and advances
// them as price moves. All methods are pure with respect to the calculator;
// position stop state lives on the Position itself.
type StopLossCalculator struct {
	cfg config.StopConfig
}

// NewStopLossCalculator creates a calculator bound to the configured stop
// parameters.
func NewStopLossCalculator(cfg config.StopConfig) *StopLossCalculator {
	return &StopLossCalculator{cfg: cfg}
}

// Initial computes the stop price for a freshly opened position.
//
// ATR stops sit entry -/+ (atr x multiplier) for long/short, with the
// multiplier clamped into the configured range. Fixed, breakeven and
// trailing stops start from an explicit stop distance in percent of entry.
func (c *StopLossCalculator) Initial(stopType portfolio.StopType, entryPrice float64, direction portfolio.Direction, atr, atrMultiplier, stopDistancePct float64) (float64, error) {
	if entryPrice <= 0 {
		return 0, fmt.Errorf("entry price must be positive, got %.4f", entryPrice)
	}

	switch stopType {
	case portfolio.StopATR:
		if atr <= 0 {
			return 0, fmt.Errorf("ATR stop requires a positive ATR, got %.6f", atr)
		}
		mult := c.clampMultiplier(atrMultiplier)
		if direction == portfolio.Short {
			return entryPrice + atr*mult, nil
		}
		return entryPrice - atr*mult, nil

	case portfolio.StopFixed, portfolio.StopBreakeven, portfolio.StopTrailing:
		if stopDistancePct <= 0 {
			return 0, ErrInvalidStop
		}
		distance := entryPrice * stopDistancePct / 100
		if direction == portfolio.Short {
			return entryPrice + distance, nil
		}
		return entryPrice - distance, nil

	default:
		return 0, fmt.Errorf("unknown stop type %q", stopType)
	}
}

// Update advances the stop of an open position for the current price. It
// returns the new stop level and whether it moved. Fixed and ATR stops
// never move after initialization; breakeven fires exactly once; trailing
// stops only tighten.
func (c *StopLossCalculator) Update(pos *portfolio.Position, currentPrice, currentATR float64) (float64, bool) {
	switch pos.StopType {
	case portfolio.StopBreakeven:
		return c.updateBreakeven(pos, currentPrice)
	case portfolio.StopTrailing:
		return c.updateTrailing(pos, currentPrice, currentATR)
	default:
		return pos.StopLevel, false
	}
}

// updateBreakeven moves the stop to the entry price once unrealized profit
// reaches the activation threshold. It never reverts.
func (c *StopLossCalculator) updateBreakeven(pos *portfolio.Position, currentPrice float64) (float64, bool) {
	if pos.BreakevenSet {
		return pos.StopLevel, false
	}
	if pos.UnrealizedProfitPct(currentPrice) < c.cfg.BreakevenActivationPct {
		return pos.StopLevel, false
	}
	pos.StopLevel = pos.EntryPrice
	pos.BreakevenSet = true
	monitoring.RecordStopAdjustment(string(portfolio.StopBreakeven))
	return pos.StopLevel, true
}

// updateTrailing recomputes the trailing stop from the current price and
// ATR once activated, but keeps the monotonic tightening invariant: a
// candidate less protective than the existing stop is discarded. Tightening
// means increasing for longs and decreasing for shorts.
func (c *StopLossCalculator) updateTrailing(pos *portfolio.Position, currentPrice, currentATR float64) (float64, bool) {
	if currentATR <= 0 {
		return pos.StopLevel, false
	}
	if pos.UnrealizedProfitPct(currentPrice) < c.cfg.TrailingActivationPct {
		return pos.StopLevel, false
	}

	distance := currentATR * c.cfg.TrailingATRDistance
	if pos.Direction == portfolio.Short {
		candidate := currentPrice + distance
		if candidate < pos.StopLevel {
			pos.StopLevel = candidate
			monitoring.RecordStopAdjustment(string(portfolio.StopTrailing))
			return candidate, true
		}
		return pos.StopLevel, false
	}

	candidate := currentPrice - distance
	if candidate > pos.StopLevel {
		pos.StopLevel = candidate
		monitoring.RecordStopAdjustment(string(portfolio.StopTrailing))
		return candidate, true
	}
	return pos.StopLevel, false
}

func (c *StopLossCalculator) clampMultiplier(mult float64) float64 {
	if mult <= 0 {
		mult = c.cfg.ATRMultiplier
	}
	if mult < c.cfg.ATRMultiplierMin {
		return c.cfg.ATRMultiplierMin
	}
	if mult > c.cfg.ATRMultiplierMax {
		return c.cfg.ATRMultiplierMax
	}
	return mult
}
