package risk

import (
	"errors"
	"fmt"
	"time"

	"github.com/quantaris/risk-engine/internal/config"
	"github.com/quantaris/risk-engine/internal/monitoring"
	"github.com/quantaris/risk-engine/internal/portfolio"
)

// Score weights: drawdown severity dominates, leverage and correlation
// split the remainder.
const (
	scoreWeightLeverage    = 0.30
	scoreWeightCorrelation = 0.30
	scoreWeightDrawdown    = 0.40
)

// Manager composes the sizer, correlation monitor, drawdown protection and
// stop calculator into a single Assess call, the sole entry point used by
// the rest of the system. Assess is deterministic, synchronous and performs
// no blocking I/O; it may be invoked concurrently against the same
// portfolio snapshot.
type Manager struct {
	cfg      *config.Config
	sizer    *PositionSizer
	corr     *CorrelationMonitor
	drawdown *DrawdownProtection
	stops    *StopLossCalculator
	lev      *portfolio.LeverageCalculator
	sink     DecisionSink
	nowFn    func() time.Time
}

// NewManager wires a risk manager from an immutable configuration.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg:      cfg,
		sizer:    NewPositionSizer(cfg.Risk),
		corr:     NewCorrelationMonitor(cfg.Correlation),
		drawdown: NewDrawdownProtection(cfg.Drawdown),
		stops:    NewStopLossCalculator(cfg.Stops),
		lev:      portfolio.NewLeverageCalculator(1, cfg.Risk.MaxLeverage),
		nowFn:    time.Now,
	}
}

// SetSink installs the audit sink that receives every decision. Sink
// failures are counted but never change a decision.
func (m *Manager) SetSink(sink DecisionSink) {
	m.sink = sink
}

// Correlation exposes the correlation monitor for external calibration.
func (m *Manager) Correlation() *CorrelationMonitor {
	return m.corr
}

// Drawdown exposes the safety state machine.
func (m *Manager) Drawdown() *DrawdownProtection {
	return m.drawdown
}

// Stops exposes the stop-loss calculator, for the stop lifecycle tracker.
func (m *Manager) Stops() *StopLossCalculator {
	return m.stops
}

// Assess evaluates a candidate trade against the portfolio snapshot and
// returns the risk decision. Stage order is fixed: drawdown evaluation, then
// the leverage bound, emergency halt, sizing, correlation, margin and stop
// initialization, so each stage can short-circuit the more expensive ones.
// A business rejection is returned as a Decision; only malformed input
// produces an error.
func (m *Manager) Assess(req TradeRequest, snap portfolio.Snapshot) (Decision, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return Decision{}, err
	}

	// 1. Drawdown safety level. Evaluated up front so every decision,
	// rejections included, reports the level actually in force.
	level := m.drawdown.Evaluate(snap.DailyDrawdownPct, snap.MonthlyDrawdownPct)

	leverage := req.Leverage
	if leverage <= 0 {
		leverage = m.cfg.Risk.DefaultLeverage
	}

	// 2. Leverage bounds: above the maximum rejects, below the 1x floor
	// clamps up with a warning.
	var factors []RiskFactor
	if err := m.lev.Validate(leverage); err != nil {
		if leverage > m.cfg.Risk.MaxLeverage {
			return m.reject(req, start, ReasonLeverageExceeded, level, nil, nil,
				fmt.Sprintf("requested leverage %.1fx exceeds maximum %.1fx", leverage, m.cfg.Risk.MaxLeverage)), nil
		}
		clamped := m.lev.Clamp(leverage)
		factors = append(factors, RiskFactor{
			Code:     "LEVERAGE_CLAMPED",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("leverage %.2fx below the 1.0x minimum, raised to %.2fx", leverage, clamped),
		})
		leverage = clamped
	}

	// 3. A zero multiplier blocks all new positions without running
	// correlation or sizing.
	if level.Multiplier() == 0 {
		return m.reject(req, start, ReasonEmergencyHalt, level, factors, nil,
			fmt.Sprintf("safety level %s halts all new positions", level)), nil
	}

	// 4. Position sizing. The notional also feeds the correlation check as
	// the proposed exposure.
	sizeRes, sizeFactors, err := m.sizer.Size(SizeInput{
		Equity:           snap.Equity,
		RiskPctBase:      m.cfg.Risk.RiskPctBase,
		Confidence:       req.Confidence,
		StopDistancePct:  req.StopDistancePct,
		SafetyMultiplier: level.Multiplier(),
		EntryPrice:       req.EntryPrice,
		Leverage:         leverage,
	})
	factors = append(factors, sizeFactors...)
	if err != nil {
		if errors.Is(err, ErrInvalidStop) {
			return m.reject(req, start, ReasonInvalidStop, level, factors, nil,
				fmt.Sprintf("stop distance %.4f%% is not positive", req.StopDistancePct)), nil
		}
		return Decision{}, err
	}

	// 5. Correlated concentration.
	proposedPct := 0.0
	if snap.Equity > 0 {
		proposedPct = sizeRes.Notional / snap.Equity * 100
	}
	corrRes := m.corr.Check(req.Symbol, proposedPct, snap)
	monitoring.SetClusterExposure(req.Symbol, corrRes.ClusterExposurePct)
	if !corrRes.Allowed {
		return m.reject(req, start, ReasonCorrelationLimit, level, factors, corrRes.ConflictingSymbols,
			fmt.Sprintf("correlated cluster exposure %.1f%% exceeds cap %.1f%%",
				corrRes.ClusterExposurePct, corrRes.CapPct)), nil
	}

	// 6. Margin utilization ceiling.
	if snap.Equity > 0 && (snap.MarginUsed+sizeRes.MarginRequired) > snap.Equity*m.cfg.Risk.MarginCeiling {
		return m.reject(req, start, ReasonMarginLimit, level, factors, nil,
			fmt.Sprintf("margin %.2f + required %.2f exceeds %.0f%% of equity %.2f",
				snap.MarginUsed, sizeRes.MarginRequired, m.cfg.Risk.MarginCeiling*100, snap.Equity)), nil
	}

	// 7. Initial stop and risk score.
	stopType := portfolio.StopFixed
	if req.ATR > 0 {
		stopType = portfolio.StopATR
	}
	stopPrice, err := m.stops.Initial(stopType, req.EntryPrice, req.Direction, req.ATR, m.cfg.Stops.ATRMultiplier, req.StopDistancePct)
	if err != nil {
		if errors.Is(err, ErrInvalidStop) {
			return m.reject(req, start, ReasonInvalidStop, level, factors, nil, err.Error()), nil
		}
		return Decision{}, err
	}

	decision := Decision{
		Approved:    true,
		Quantity:    sizeRes.Quantity,
		Leverage:    leverage,
		Margin:      sizeRes.MarginRequired,
		StopPrice:   stopPrice,
		StopType:    stopType,
		Score:       m.score(leverage, corrRes, level),
		SafetyLevel: level,
		Factors:     factors,
	}
	m.finish(req, decision, start)
	return decision, nil
}

// score blends leverage headroom, correlation proximity to the cap and
// drawdown severity into 0-100, higher = riskier.
func (m *Manager) score(leverage float64, corrRes CheckResult, level SafetyLevel) float64 {
	levUtil := 0.0
	if m.cfg.Risk.MaxLeverage > 0 {
		levUtil = clamp01(leverage / m.cfg.Risk.MaxLeverage)
	}
	corrProx := 0.0
	if corrRes.CapPct > 0 {
		corrProx = clamp01(corrRes.ClusterExposurePct / corrRes.CapPct)
	}
	ddSev := clamp01(float64(level) / float64(SafetyEmergency))

	return 100 * (scoreWeightLeverage*levUtil + scoreWeightCorrelation*corrProx + scoreWeightDrawdown*ddSev)
}

func (m *Manager) reject(req TradeRequest, start time.Time, reason RejectReason, level SafetyLevel, factors []RiskFactor, conflicting []string, message string) Decision {
	decision := Decision{
		Approved: false,
		Reason:   reason,
		// A hard violation saturates the score.
		Score:              100,
		SafetyLevel:        level,
		ConflictingSymbols: conflicting,
		Factors: append(factors, RiskFactor{
			Code:     string(reason),
			Severity: SeverityViolation,
			Message:  message,
		}),
	}
	m.finish(req, decision, start)
	return decision
}

// finish records metrics and hands the decision to the audit sink. Runs for
// every decision, approved or rejected.
func (m *Manager) finish(req TradeRequest, decision Decision, start time.Time) {
	monitoring.RecordDecision(decision.Approved, string(decision.Reason), decision.Score, time.Since(start))

	if m.sink == nil {
		return
	}
	event := DecisionEvent{
		Time:     m.nowFn(),
		Request:  req,
		Decision: decision,
	}
	if err := m.sink.Record(event); err != nil {
		monitoring.RecordJournalFailure()
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
