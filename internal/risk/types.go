package risk

import (
	"math"
	"time"

	"github.com/quantaris/risk-engine/internal/portfolio"
	"github.com/quantaris/risk-engine/internal/riskerr"
)

// RejectReason identifies why a trade request was not approved. A rejection
// is a normal, expected outcome carried as data in the Decision, never an
// error.
type RejectReason string

const (
	ReasonNone             RejectReason = ""
	ReasonInvalidStop      RejectReason = "INVALID_STOP"
	ReasonLeverageExceeded RejectReason = "LEVERAGE_EXCEEDED"
	ReasonEmergencyHalt    RejectReason = "EMERGENCY_HALT"
	ReasonCorrelationLimit RejectReason = "CORRELATION_LIMIT"
	ReasonMarginLimit      RejectReason = "MARGIN_LIMIT"
)

// Severity grades a RiskFactor.
type Severity string

const (
	SeverityWarning   Severity = "WARNING"
	SeverityViolation Severity = "VIOLATION"
)

// RiskFactor is one warning or violation noted during assessment. Clamped
// inputs produce warnings; rejections produce violations.
type RiskFactor struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// TradeRequest is a candidate trade produced by signal generation. ATR is
// supplied by the indicator layer alongside the request so the assessment
// stays a pure synchronous computation.
type TradeRequest struct {
	Symbol          string              `json:"symbol"`
	Direction       portfolio.Direction `json:"direction"`
	EntryPrice      float64             `json:"entry_price"`
	StopDistancePct float64             `json:"stop_distance_pct"` // proposed stop distance, % of entry price
	Confidence      float64             `json:"confidence"`        // signal confidence in [0, 1]
	Leverage        float64             `json:"leverage"`
	ATR             float64             `json:"atr"` // current ATR for the symbol; 0 means unavailable
}

// Validate fails fast on malformed input: missing fields or non-finite
// numbers indicate a caller contract violation, not a business rejection.
func (r TradeRequest) Validate() error {
	if r.Symbol == "" {
		return riskerr.New(riskerr.ErrorCategoryValidation, "risk", "validate", "symbol is required")
	}
	if !r.Direction.Valid() {
		return riskerr.Newf(riskerr.ErrorCategoryValidation, "risk", "validate", "unknown direction %q", r.Direction)
	}
	for name, v := range map[string]float64{
		"entry_price":       r.EntryPrice,
		"stop_distance_pct": r.StopDistancePct,
		"confidence":        r.Confidence,
		"leverage":          r.Leverage,
		"atr":               r.ATR,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return riskerr.Newf(riskerr.ErrorCategoryValidation, "risk", "validate", "%s is not a finite number", name)
		}
	}
	if r.EntryPrice <= 0 {
		return riskerr.Newf(riskerr.ErrorCategoryValidation, "risk", "validate", "entry price must be positive, got %.4f", r.EntryPrice)
	}
	return nil
}

// Decision is the outcome of one assessment. If Approved is false, Quantity
// is zero and StopPrice is undefined.
type Decision struct {
	Approved  bool               `json:"approved"`
	Reason    RejectReason       `json:"reason,omitempty"`
	Quantity  float64            `json:"quantity"`
	Leverage  float64            `json:"leverage"`
	Margin    float64            `json:"margin"`
	StopPrice float64            `json:"stop_price"`
	StopType  portfolio.StopType `json:"stop_type,omitempty"`

	// Score is a 0-100 blend of leverage headroom, correlation proximity to
	// the cap and drawdown severity; higher means riskier.
	Score float64 `json:"score"`

	SafetyLevel SafetyLevel  `json:"safety_level"`
	Factors     []RiskFactor `json:"factors,omitempty"`

	// ConflictingSymbols lists the open positions that formed the correlated
	// cluster on a CORRELATION_LIMIT rejection.
	ConflictingSymbols []string `json:"conflicting_symbols,omitempty"`
}

// DecisionEvent is the immutable record handed to the audit sink for every
// decision, approved or rejected. The sink assigns the event ID.
type DecisionEvent struct {
	Time     time.Time
	Request  TradeRequest
	Decision Decision
}

// DecisionSink receives every decision for tamper-evident journaling. Sink
// failures never affect the returned Decision.
type DecisionSink interface {
	Record(event DecisionEvent) error
}
