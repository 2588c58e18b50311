package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantaris/risk-engine/internal/config"
)

func testRiskLimits() config.RiskLimits {
	return config.Default().Risk
}

func TestPositionSizer_Size_BaselineScenario(t *testing.T) {
	s := NewPositionSizer(testRiskLimits())

	// $100k equity, full confidence doubles 1% base to the 2% ceiling.
	// Risk amount $2000 over a 2% stop distance gives $100k notional.
	res, factors, err := s.Size(SizeInput{
		Equity:           100_000,
		RiskPctBase:      1.0,
		Confidence:       1.0,
		StopDistancePct:  2.0,
		SafetyMultiplier: 1.0,
		EntryPrice:       50_000,
		Leverage:         5,
	})
	require.NoError(t, err)
	assert.Empty(t, factors)

	assert.InDelta(t, 2.0, res.EffectiveRiskPct, 1e-9)
	assert.InDelta(t, 100_000, res.Notional, 1e-6)
	assert.InDelta(t, 2.0, res.Quantity, 1e-9)
	assert.InDelta(t, 20_000, res.MarginRequired, 1e-6)
}

func TestPositionSizer_Size_InvalidStopDistance(t *testing.T) {
	s := NewPositionSizer(testRiskLimits())

	for _, dist := range []float64{0, -1.5} {
		_, _, err := s.Size(SizeInput{
			Equity:           100_000,
			RiskPctBase:      1.0,
			Confidence:       0.5,
			StopDistancePct:  dist,
			SafetyMultiplier: 1.0,
			EntryPrice:       50_000,
		})
		assert.ErrorIs(t, err, ErrInvalidStop)
	}
}

func TestPositionSizer_Size_ClampsBaseRisk(t *testing.T) {
	s := NewPositionSizer(testRiskLimits())

	res, factors, err := s.Size(SizeInput{
		Equity:           100_000,
		RiskPctBase:      5.0, // above the 2% ceiling
		Confidence:       1.0,
		StopDistancePct:  2.0,
		SafetyMultiplier: 1.0,
		EntryPrice:       50_000,
		Leverage:         1,
	})
	require.NoError(t, err)
	require.Len(t, factors, 1)
	assert.Equal(t, "RISK_PCT_CLAMPED", factors[0].Code)
	assert.Equal(t, SeverityWarning, factors[0].Severity)
	assert.InDelta(t, 2.0, res.EffectiveRiskPct, 1e-9)
}

func TestPositionSizer_Size_ClampsConfidence(t *testing.T) {
	s := NewPositionSizer(testRiskLimits())

	over, factors, err := s.Size(SizeInput{
		Equity:           100_000,
		RiskPctBase:      1.0,
		Confidence:       1.5, // out of [0, 1]
		StopDistancePct:  2.0,
		SafetyMultiplier: 1.0,
		EntryPrice:       50_000,
		Leverage:         1,
	})
	require.NoError(t, err)
	require.Len(t, factors, 1)
	assert.Equal(t, "CONFIDENCE_CLAMPED", factors[0].Code)

	exact, _, err := s.Size(SizeInput{
		Equity:           100_000,
		RiskPctBase:      1.0,
		Confidence:       1.0,
		StopDistancePct:  2.0,
		SafetyMultiplier: 1.0,
		EntryPrice:       50_000,
		Leverage:         1,
	})
	require.NoError(t, err)
	assert.InDelta(t, exact.Quantity, over.Quantity, 1e-9)
}

func TestPositionSizer_EffectiveRiskPct_ConfidenceScaling(t *testing.T) {
	s := NewPositionSizer(testRiskLimits())

	tests := []struct {
		name       string
		confidence float64
		want       float64
	}{
		{"zero confidence floors at min risk", 0.0, 0.25},
		{"mid confidence", 0.5, 1.125}, // 1.0 x (0.25 + 0.5 x 1.75)
		{"full confidence caps at max risk", 1.0, 2.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.EffectiveRiskPct(1.0, tt.confidence, 1.0)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPositionSizer_EffectiveRiskPct_SafetyMultiplierAppliedLast(t *testing.T) {
	s := NewPositionSizer(testRiskLimits())

	// Full confidence hits the 2% cap first; the safety multiplier then
	// scales the capped value rather than being capped itself.
	got := s.EffectiveRiskPct(1.0, 1.0, 0.5)
	assert.InDelta(t, 1.0, got, 1e-9)

	// Emergency multiplier zeroes the risk outright.
	assert.Zero(t, s.EffectiveRiskPct(1.0, 1.0, 0.0))
}

func TestPositionSizer_Size_LeverageOnlyAffectsMargin(t *testing.T) {
	s := NewPositionSizer(testRiskLimits())

	in := SizeInput{
		Equity:           100_000,
		RiskPctBase:      1.0,
		Confidence:       1.0,
		StopDistancePct:  2.0,
		SafetyMultiplier: 1.0,
		EntryPrice:       50_000,
		Leverage:         2,
	}
	lowLev, _, err := s.Size(in)
	require.NoError(t, err)

	in.Leverage = 10
	highLev, _, err := s.Size(in)
	require.NoError(t, err)

	assert.InDelta(t, lowLev.Quantity, highLev.Quantity, 1e-9)
	assert.InDelta(t, lowLev.MarginRequired/5, highLev.MarginRequired, 1e-6)
}
