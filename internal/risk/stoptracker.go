package risk

import (
	"fmt"
	"sync"

	"github.com/quantaris/risk-engine/internal/portfolio"
)

// StopTracker manages the lifecycle of protective stops after entry: it
// keeps one tracked position per symbol, advances its stop on each price
// update and reports when the stop is hit.
type StopTracker struct {
	mu        sync.RWMutex
	calc      *StopLossCalculator
	positions map[string]*portfolio.Position
}

// StopEvent is the outcome of one price update for a tracked position.
type StopEvent struct {
	Symbol    string
	Triggered bool
	Moved     bool
	StopLevel float64
	Reason    string
}

// NewStopTracker creates an empty tracker.
func NewStopTracker(calc *StopLossCalculator) *StopTracker {
	return &StopTracker{
		calc:      calc,
		positions: make(map[string]*portfolio.Position),
	}
}

// Track starts managing the stop of an open position. An existing entry for
// the same symbol is replaced; stops are owned exclusively by the position
// they protect and never shared.
func (t *StopTracker) Track(pos portfolio.Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := pos
	t.positions[pos.Symbol] = &p
}

// Release stops tracking a symbol, typically after the position closes.
func (t *StopTracker) Release(symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.positions, symbol)
}

// Position returns a copy of the tracked position, if any.
func (t *StopTracker) Position(symbol string) (portfolio.Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pos, ok := t.positions[symbol]
	if !ok {
		return portfolio.Position{}, false
	}
	return *pos, true
}

// UpdatePrice advances the stop for the symbol at the current price and ATR
// and checks whether the stop is hit. Returns nil for untracked symbols.
func (t *StopTracker) UpdatePrice(symbol string, currentPrice, currentATR float64) *StopEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos, ok := t.positions[symbol]
	if !ok {
		return nil
	}

	level, moved := t.calc.Update(pos, currentPrice, currentATR)

	if stopHit(pos, currentPrice) {
		return &StopEvent{
			Symbol:    symbol,
			Triggered: true,
			Moved:     moved,
			StopLevel: level,
			Reason:    fmt.Sprintf("stop %.4f hit at price %.4f", level, currentPrice),
		}
	}

	return &StopEvent{
		Symbol:    symbol,
		Moved:     moved,
		StopLevel: level,
	}
}

// stopHit mirrors the comparison for shorts: a long stop sits below price
// and triggers when price falls to it, a short stop sits above and triggers
// when price rises to it.
func stopHit(pos *portfolio.Position, price float64) bool {
	if pos.StopLevel <= 0 {
		return false
	}
	if pos.Direction == portfolio.Short {
		return price >= pos.StopLevel
	}
	return price <= pos.StopLevel
}
