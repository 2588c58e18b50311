package risk

import (
	"fmt"

	"github.com/quantaris/risk-engine/internal/config"
	"github.com/quantaris/risk-engine/internal/portfolio"
)

// PositionSizer converts a risk budget, confidence score, stop distance and
// safety multiplier into a concrete position size and required margin. Pure
// computation, no state.
type PositionSizer struct {
	limits config.RiskLimits
	lev    *portfolio.LeverageCalculator
}

// NewPositionSizer creates a sizer bound to the configured risk limits.
func NewPositionSizer(limits config.RiskLimits) *PositionSizer {
	return &PositionSizer{
		limits: limits,
		lev:    portfolio.NewLeverageCalculator(1, limits.MaxLeverage),
	}
}

// SizeInput carries everything the sizer needs for one computation.
type SizeInput struct {
	Equity           float64
	RiskPctBase      float64 // requested base risk, % of equity; clamped to configured bounds
	Confidence       float64 // signal confidence in [0, 1]; clamped with a warning
	StopDistancePct  float64 // stop distance, % of entry price
	SafetyMultiplier float64 // from the drawdown safety level, applied last
	EntryPrice       float64
	Leverage         float64
}

// SizeResult is the computed position size and margin.
type SizeResult struct {
	Quantity         float64 // instrument units
	Notional         float64 // quote currency
	MarginRequired   float64
	EffectiveRiskPct float64 // final risk, % of equity, after confidence and safety scaling
}

// Size computes quantity and required margin.
//
// Effective risk % = clamp(base) x confidence multiplier, capped at the
// absolute ceiling, then scaled by the safety multiplier. The safety
// multiplier is always applied last and never compounded. Leverage affects
// only margin, never the risk-based quantity.
func (s *PositionSizer) Size(in SizeInput) (SizeResult, []RiskFactor, error) {
	var factors []RiskFactor

	if in.StopDistancePct <= 0 {
		return SizeResult{}, nil, ErrInvalidStop
	}

	base := in.RiskPctBase
	if base < s.limits.MinRiskPct {
		factors = append(factors, RiskFactor{
			Code:     "RISK_PCT_CLAMPED",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("base risk %.2f%% raised to floor %.2f%%", base, s.limits.MinRiskPct),
		})
		base = s.limits.MinRiskPct
	}
	if base > s.limits.MaxRiskPct {
		factors = append(factors, RiskFactor{
			Code:     "RISK_PCT_CLAMPED",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("base risk %.2f%% lowered to ceiling %.2f%%", base, s.limits.MaxRiskPct),
		})
		base = s.limits.MaxRiskPct
	}

	confidence := in.Confidence
	if confidence < 0 || confidence > 1 {
		clamped := confidence
		if clamped < 0 {
			clamped = 0
		}
		if clamped > 1 {
			clamped = 1
		}
		factors = append(factors, RiskFactor{
			Code:     "CONFIDENCE_CLAMPED",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("confidence %.2f outside [0, 1], clamped to %.2f", confidence, clamped),
		})
		confidence = clamped
	}

	effective := s.EffectiveRiskPct(base, confidence, in.SafetyMultiplier)

	riskAmount := in.Equity * effective / 100
	notional := 0.0
	if in.StopDistancePct > 0 {
		notional = riskAmount / (in.StopDistancePct / 100)
	}

	quantity := 0.0
	if in.EntryPrice > 0 {
		quantity = notional / in.EntryPrice
	}

	leverage := in.Leverage
	if leverage <= 0 {
		leverage = s.limits.DefaultLeverage
	}

	return SizeResult{
		Quantity:         quantity,
		Notional:         notional,
		MarginRequired:   s.lev.RequiredMargin(notional, leverage),
		EffectiveRiskPct: effective,
	}, factors, nil
}

// EffectiveRiskPct returns the final risk percentage for a given (already
// clamped) base, confidence and safety multiplier: scale by confidence,
// clamp back into the absolute band, then apply the safety multiplier. The
// cap comes after scaling, so confidence can never push the pre-safety risk
// past the 2% ceiling or below the 0.25% floor.
func (s *PositionSizer) EffectiveRiskPct(basePct, confidence, safetyMultiplier float64) float64 {
	mult := s.limits.ConfidenceMinMult + confidence*(s.limits.ConfidenceMaxMult-s.limits.ConfidenceMinMult)
	effective := basePct * mult
	if effective > s.limits.MaxRiskPct {
		effective = s.limits.MaxRiskPct
	}
	if effective < s.limits.MinRiskPct {
		effective = s.limits.MinRiskPct
	}
	return effective * safetyMultiplier
}
