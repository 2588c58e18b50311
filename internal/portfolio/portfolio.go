package portfolio

import (
	"time"
)

// Direction of a position or a candidate trade.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Valid reports whether the direction is one of the two recognized values.
func (d Direction) Valid() bool {
	return d == Long || d == Short
}

// StopType identifies the protective stop style attached to a position.
type StopType string

const (
	StopFixed     StopType = "FIXED"
	StopATR       StopType = "ATR"
	StopBreakeven StopType = "BREAKEVEN"
	StopTrailing  StopType = "TRAILING"
)

// Position is one open position. Created by the caller when an approved
// trade executes; the stop fields are mutated by stop-loss updates as price
// moves.
type Position struct {
	Symbol     string
	Direction  Direction
	EntryPrice float64
	Quantity   float64
	Leverage   float64
	StopLevel  float64
	StopType   StopType
	OpenedAt   time.Time

	// BreakevenSet records that the breakeven stop already fired; it never
	// reverts.
	BreakevenSet bool
}

// Notional returns the position's notional value in quote currency.
func (p Position) Notional() float64 {
	return p.Quantity * p.EntryPrice
}

// ExposurePct returns the position's notional as a percentage of equity.
func (p Position) ExposurePct(equity float64) float64 {
	if equity <= 0 {
		return 0
	}
	return p.Notional() / equity * 100
}

// UnrealizedProfitPct returns the profit at the given price as a percentage
// of the entry price, mirrored for shorts.
func (p Position) UnrealizedProfitPct(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	if p.Direction == Short {
		return (p.EntryPrice - price) / p.EntryPrice * 100
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100
}

// Snapshot is a read-only view of portfolio state at assessment time. The
// engine never mutates it; opening and closing positions is the caller's
// responsibility once a decision is acted upon.
type Snapshot struct {
	Positions []Position

	Equity             float64
	PeakEquity         float64
	DayStartEquity     float64
	MonthStartEquity   float64
	MarginUsed         float64
	DailyDrawdownPct   float64
	MonthlyDrawdownPct float64
}

// MarginUtilization returns margin used as a fraction of equity.
func (s Snapshot) MarginUtilization() float64 {
	if s.Equity <= 0 {
		return 0
	}
	return s.MarginUsed / s.Equity
}

// ExposurePct returns the combined exposure of all open positions in the
// given symbol as a percentage of equity.
func (s Snapshot) ExposurePct(symbol string) float64 {
	total := 0.0
	for _, p := range s.Positions {
		if p.Symbol == symbol {
			total += p.ExposurePct(s.Equity)
		}
	}
	return total
}
