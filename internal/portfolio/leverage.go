package portfolio

import "fmt"

// LeverageCalculator performs leverage and margin arithmetic within
// configured bounds.
type LeverageCalculator struct {
	minLeverage float64
	maxLeverage float64
}

// NewLeverageCalculator creates a leverage calculator with custom limits.
func NewLeverageCalculator(minLev, maxLev float64) *LeverageCalculator {
	return &LeverageCalculator{
		minLeverage: minLev,
		maxLeverage: maxLev,
	}
}

// RequiredMargin calculates the margin required for a position with given
// leverage.
// Formula: Required Margin = Position Value / Leverage
//
// Example: $100 position with 10x leverage = $10 margin required
func (c *LeverageCalculator) RequiredMargin(positionValue, leverage float64) float64 {
	if leverage <= 0 {
		return positionValue // no leverage specified, require full amount
	}
	leverage = c.Clamp(leverage)
	return positionValue / leverage
}

// MaxPositionValue calculates the maximum position value for given available
// margin and leverage.
// Formula: Max Position = Available Margin x Leverage
func (c *LeverageCalculator) MaxPositionValue(availableMargin, leverage float64) float64 {
	if availableMargin <= 0 || leverage <= 0 {
		return 0
	}
	return availableMargin * c.Clamp(leverage)
}

// Validate checks the leverage value against the configured bounds.
func (c *LeverageCalculator) Validate(leverage float64) error {
	if leverage <= 0 {
		return fmt.Errorf("leverage must be greater than 0, got: %.2f", leverage)
	}
	if leverage < c.minLeverage {
		return fmt.Errorf("leverage %.2f is below minimum allowed %.2f", leverage, c.minLeverage)
	}
	if leverage > c.maxLeverage {
		return fmt.Errorf("leverage %.2f exceeds maximum allowed %.2f", leverage, c.maxLeverage)
	}
	return nil
}

// Clamp forces the leverage into the configured [min, max] range.
func (c *LeverageCalculator) Clamp(leverage float64) float64 {
	if leverage > c.maxLeverage {
		return c.maxLeverage
	}
	if leverage < c.minLeverage {
		return c.minLeverage
	}
	return leverage
}
