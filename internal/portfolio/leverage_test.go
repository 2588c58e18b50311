package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeverageCalculator_RequiredMargin(t *testing.T) {
	c := NewLeverageCalculator(1, 10)

	assert.InDelta(t, 10.0, c.RequiredMargin(100, 10), 1e-9)
	assert.InDelta(t, 100.0, c.RequiredMargin(100, 0), 1e-9)
	// 20x clamps to the 10x maximum, 0.5x to the 1x minimum.
	assert.InDelta(t, 10.0, c.RequiredMargin(100, 20), 1e-9)
	assert.InDelta(t, 100.0, c.RequiredMargin(100, 0.5), 1e-9)
}

func TestLeverageCalculator_Clamp(t *testing.T) {
	c := NewLeverageCalculator(1, 10)

	assert.InDelta(t, 1.0, c.Clamp(0.5), 1e-9)
	assert.InDelta(t, 5.0, c.Clamp(5), 1e-9)
	assert.InDelta(t, 10.0, c.Clamp(20), 1e-9)
}

func TestLeverageCalculator_MaxPositionValue(t *testing.T) {
	c := NewLeverageCalculator(1, 10)

	assert.InDelta(t, 1000.0, c.MaxPositionValue(100, 10), 1e-9)
	assert.Zero(t, c.MaxPositionValue(0, 10))
	assert.Zero(t, c.MaxPositionValue(100, 0))
}

func TestLeverageCalculator_Validate(t *testing.T) {
	c := NewLeverageCalculator(1, 10)

	assert.NoError(t, c.Validate(5))
	assert.NoError(t, c.Validate(10))
	assert.Error(t, c.Validate(0))
	assert.Error(t, c.Validate(0.5))
	assert.Error(t, c.Validate(11))
}
