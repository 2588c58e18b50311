package risk

import (
	"sync"
	"time"

	"github.com/quantaris/risk-engine/internal/config"
	"github.com/quantaris/risk-engine/internal/monitoring"
)

// SafetyLevel is the drawdown-driven state gating how much size scaling is
// permitted. Exactly one level is active at any time.
type SafetyLevel int

const (
	SafetyNormal SafetyLevel = iota
	SafetyCaution
	SafetySafeMode
	SafetyEmergency
)

// String returns the level name.
func (l SafetyLevel) String() string {
	switch l {
	case SafetyNormal:
		return "NORMAL"
	case SafetyCaution:
		return "CAUTION"
	case SafetySafeMode:
		return "SAFE_MODE"
	case SafetyEmergency:
		return "EMERGENCY"
	default:
		return "UNKNOWN"
	}
}

// Multiplier returns the position-size multiplier for the level.
func (l SafetyLevel) Multiplier() float64 {
	switch l {
	case SafetyNormal:
		return 1.0
	case SafetyCaution:
		return 0.75
	case SafetySafeMode:
		return 0.5
	case SafetyEmergency:
		return 0.0
	default:
		return 0.0
	}
}

// DrawdownProtection tracks portfolio drawdown and emits the safety level
// that scales all subsequent sizing. The level is recomputed from the
// current drawdown percentages on every call, so the machine always
// reflects present conditions, except that de-escalation is held back by a
// cooldown once a more severe state was entered.
//
// This is the only engine component holding mutable state across calls:
// concurrent reads with serialized writes behind one mutex, so two
// concurrent assessments cannot race the cooldown timer or double-count a
// transition.
type DrawdownProtection struct {
	mu        sync.Mutex
	cfg       config.DrawdownConfig
	level     SafetyLevel
	changedAt time.Time // last transition time, anchors the cooldown
	nowFn     func() time.Time
}

// NewDrawdownProtection starts the machine at NORMAL.
func NewDrawdownProtection(cfg config.DrawdownConfig) *DrawdownProtection {
	return &DrawdownProtection{
		cfg:   cfg,
		level: SafetyNormal,
		nowFn: time.Now,
	}
}

// SetNowFunc overrides the time provider (useful for tests).
func (d *DrawdownProtection) SetNowFunc(fn func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if fn == nil {
		fn = time.Now
	}
	d.nowFn = fn
}

// levelFor maps drawdown percentages onto the severest level whose
// threshold they meet.
func (d *DrawdownProtection) levelFor(dailyPct, monthlyPct float64) SafetyLevel {
	switch {
	case dailyPct >= d.cfg.EmergencyDailyPct || monthlyPct >= d.cfg.EmergencyMonthlyPct:
		return SafetyEmergency
	case dailyPct >= d.cfg.SafeModeDailyPct || monthlyPct >= d.cfg.SafeModeMonthlyPct:
		return SafetySafeMode
	case dailyPct >= d.cfg.CautionDailyPct || monthlyPct >= d.cfg.CautionMonthlyPct:
		return SafetyCaution
	default:
		return SafetyNormal
	}
}

// Evaluate recomputes the safety level from the current daily and monthly
// drawdown percentages and returns the active level.
//
// Escalation is immediate and never blocked by cooldown. De-escalation
// happens one step at a time: only after the cooldown has elapsed since the
// last transition, and only when the drawdown qualifies for a less severe
// level than the current one. EMERGENCY is not terminal and de-escalates
// through the same path once conditions recover.
func (d *DrawdownProtection) Evaluate(dailyPct, monthlyPct float64) SafetyLevel {
	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.levelFor(dailyPct, monthlyPct)
	now := d.nowFn()

	switch {
	case target > d.level:
		d.level = target
		d.changedAt = now
		monitoring.RecordSafetyTransition(target.String())
	case target < d.level:
		if now.Sub(d.changedAt) >= d.cfg.Cooldown() {
			// Step down one level per cooldown window; the next step waits
			// for its own cooldown.
			d.level--
			d.changedAt = now
			monitoring.RecordSafetyTransition(d.level.String())
		}
	}

	monitoring.SetSafetyLevel(int(d.level))
	return d.level
}

// Level returns the currently active safety level without re-evaluating.
func (d *DrawdownProtection) Level() SafetyLevel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.level
}
