package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantaris/risk-engine/internal/config"
	"github.com/quantaris/risk-engine/internal/portfolio"
)

func newTestManager() *Manager {
	return NewManager(config.Default())
}

func baseSnapshot() portfolio.Snapshot {
	return portfolio.Snapshot{
		Equity:           100_000,
		PeakEquity:       100_000,
		DayStartEquity:   100_000,
		MonthStartEquity: 100_000,
	}
}

func baseRequest() TradeRequest {
	return TradeRequest{
		Symbol:          "BTCUSDT",
		Direction:       portfolio.Long,
		EntryPrice:      50_000,
		StopDistancePct: 2.0,
		Confidence:      1.0,
		Leverage:        5,
	}
}

func TestManager_Assess_ApprovedBaseline(t *testing.T) {
	m := newTestManager()

	// Full confidence doubles 1% base to the 2% ceiling. $2000 risk over a
	// 2% stop distance gives $100k notional, 2 BTC, $20k margin at 5x.
	d, err := m.Assess(baseRequest(), baseSnapshot())
	require.NoError(t, err)

	assert.True(t, d.Approved)
	assert.Equal(t, ReasonNone, d.Reason)
	assert.InDelta(t, 2.0, d.Quantity, 1e-9)
	assert.InDelta(t, 20_000, d.Margin, 1e-6)
	assert.InDelta(t, 49_000, d.StopPrice, 1e-9)
	assert.Equal(t, portfolio.StopFixed, d.StopType)
	assert.Equal(t, SafetyNormal, d.SafetyLevel)
}

func TestManager_Assess_Deterministic(t *testing.T) {
	m := newTestManager()

	first, err := m.Assess(baseRequest(), baseSnapshot())
	require.NoError(t, err)
	second, err := m.Assess(baseRequest(), baseSnapshot())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestManager_Assess_ValidationError(t *testing.T) {
	m := newTestManager()

	req := baseRequest()
	req.Symbol = ""
	_, err := m.Assess(req, baseSnapshot())
	assert.Error(t, err)

	req = baseRequest()
	req.Direction = "SIDEWAYS"
	_, err = m.Assess(req, baseSnapshot())
	assert.Error(t, err)
}

func TestManager_Assess_RejectsInvalidStop(t *testing.T) {
	m := newTestManager()

	req := baseRequest()
	req.StopDistancePct = 0

	d, err := m.Assess(req, baseSnapshot())
	require.NoError(t, err)
	assert.False(t, d.Approved)
	assert.Equal(t, ReasonInvalidStop, d.Reason)
	assert.Zero(t, d.Quantity)
	assert.InDelta(t, 100, d.Score, 1e-9)
}

func TestManager_Assess_RejectsLeverage(t *testing.T) {
	m := newTestManager()

	req := baseRequest()
	req.Leverage = 15

	d, err := m.Assess(req, baseSnapshot())
	require.NoError(t, err)
	assert.False(t, d.Approved)
	assert.Equal(t, ReasonLeverageExceeded, d.Reason)
	require.Len(t, d.Factors, 1)
	assert.Equal(t, SeverityViolation, d.Factors[0].Severity)
}

func TestManager_Assess_ClampsSubMinimumLeverage(t *testing.T) {
	m := newTestManager()

	req := baseRequest()
	req.Leverage = 0.5
	req.StopDistancePct = 10.0 // $20k notional keeps 1x margin under the ceiling

	d, err := m.Assess(req, baseSnapshot())
	require.NoError(t, err)
	assert.True(t, d.Approved)
	assert.GreaterOrEqual(t, d.Leverage, 1.0)
	// Clamped to the 1x floor, so margin equals the full notional.
	assert.InDelta(t, 20_000, d.Margin, 1e-6)
	require.NotEmpty(t, d.Factors)
	assert.Equal(t, "LEVERAGE_CLAMPED", d.Factors[0].Code)
	assert.Equal(t, SeverityWarning, d.Factors[0].Severity)
}

func TestManager_Assess_LeverageRejectionReportsSafetyLevel(t *testing.T) {
	m := newTestManager()

	req := baseRequest()
	req.Leverage = 15
	snap := baseSnapshot()
	snap.DailyDrawdownPct = 9.0 // SAFE_MODE

	d, err := m.Assess(req, snap)
	require.NoError(t, err)
	assert.False(t, d.Approved)
	assert.Equal(t, ReasonLeverageExceeded, d.Reason)
	assert.Equal(t, SafetySafeMode, d.SafetyLevel)
}

func TestManager_Assess_RejectsEmergencyHalt(t *testing.T) {
	m := newTestManager()

	snap := baseSnapshot()
	snap.DailyDrawdownPct = 12.5

	d, err := m.Assess(baseRequest(), snap)
	require.NoError(t, err)
	assert.False(t, d.Approved)
	assert.Equal(t, ReasonEmergencyHalt, d.Reason)
	assert.Equal(t, SafetyEmergency, d.SafetyLevel)
}

func TestManager_Assess_RejectsCorrelatedCluster(t *testing.T) {
	m := newTestManager()
	m.Correlation().SetPair("BTCUSDT", "ETHUSDT", 0.85)

	snap := baseSnapshot()
	snap.Positions = []portfolio.Position{
		// 12% of equity in a strongly correlated symbol.
		{Symbol: "ETHUSDT", Direction: portfolio.Long, EntryPrice: 3000, Quantity: 4},
	}

	req := baseRequest()
	req.StopDistancePct = 20.0 // 2% risk over 20% stop = 10% proposed exposure

	d, err := m.Assess(req, snap)
	require.NoError(t, err)
	assert.False(t, d.Approved)
	assert.Equal(t, ReasonCorrelationLimit, d.Reason)
	assert.Equal(t, []string{"ETHUSDT"}, d.ConflictingSymbols)
}

func TestManager_Assess_RejectsMarginCeiling(t *testing.T) {
	m := newTestManager()

	snap := baseSnapshot()
	snap.MarginUsed = 75_000 // $15k headroom under the 90% ceiling

	// The baseline trade needs $20k margin.
	d, err := m.Assess(baseRequest(), snap)
	require.NoError(t, err)
	assert.False(t, d.Approved)
	assert.Equal(t, ReasonMarginLimit, d.Reason)
}

func TestManager_Assess_StageOrder(t *testing.T) {
	m := newTestManager()

	// Both the leverage bound and the emergency halt are violated; the
	// leverage gate rejects first, but the decision still carries the
	// evaluated safety level.
	req := baseRequest()
	req.Leverage = 15
	snap := baseSnapshot()
	snap.DailyDrawdownPct = 15

	d, err := m.Assess(req, snap)
	require.NoError(t, err)
	assert.Equal(t, ReasonLeverageExceeded, d.Reason)
	assert.Equal(t, SafetyEmergency, d.SafetyLevel)

	// Invalid stop is detected before correlation on a fresh manager.
	m2 := newTestManager()
	m2.Correlation().SetPair("BTCUSDT", "ETHUSDT", 0.9)
	req2 := baseRequest()
	req2.StopDistancePct = 0
	snap2 := baseSnapshot()
	snap2.Positions = []portfolio.Position{
		{Symbol: "ETHUSDT", Direction: portfolio.Long, EntryPrice: 3000, Quantity: 10},
	}

	d2, err := m2.Assess(req2, snap2)
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalidStop, d2.Reason)
}

func TestManager_Assess_SafetyLevelScalesSize(t *testing.T) {
	m := newTestManager()

	snap := baseSnapshot()
	snap.DailyDrawdownPct = 9.0 // SAFE_MODE, 0.5x multiplier

	d, err := m.Assess(baseRequest(), snap)
	require.NoError(t, err)
	assert.True(t, d.Approved)
	assert.Equal(t, SafetySafeMode, d.SafetyLevel)
	// Half of the baseline 2.0 quantity.
	assert.InDelta(t, 1.0, d.Quantity, 1e-9)
}

func TestManager_Assess_ATRStopWhenAvailable(t *testing.T) {
	m := newTestManager()

	req := baseRequest()
	req.ATR = 1000

	d, err := m.Assess(req, baseSnapshot())
	require.NoError(t, err)
	assert.True(t, d.Approved)
	assert.Equal(t, portfolio.StopATR, d.StopType)
	assert.InDelta(t, 48_000, d.StopPrice, 1e-9)
}

func TestManager_Assess_DefaultLeverage(t *testing.T) {
	m := newTestManager()

	req := baseRequest()
	req.Leverage = 0
	req.StopDistancePct = 10.0 // $20k notional keeps 1x margin under the ceiling

	d, err := m.Assess(req, baseSnapshot())
	require.NoError(t, err)
	assert.True(t, d.Approved)
	assert.InDelta(t, 1.0, d.Leverage, 1e-9)
	// 1x leverage requires margin equal to the full notional.
	assert.InDelta(t, 20_000, d.Margin, 1e-6)
}

// recordingSink captures events, optionally failing every Record call.
type recordingSink struct {
	events []DecisionEvent
	fail   bool
}

func (s *recordingSink) Record(event DecisionEvent) error {
	if s.fail {
		return errors.New("sink unavailable")
	}
	s.events = append(s.events, event)
	return nil
}

func TestManager_Assess_RecordsToSink(t *testing.T) {
	m := newTestManager()
	sink := &recordingSink{}
	m.SetSink(sink)

	_, err := m.Assess(baseRequest(), baseSnapshot())
	require.NoError(t, err)

	req := baseRequest()
	req.Leverage = 15
	_, err = m.Assess(req, baseSnapshot())
	require.NoError(t, err)

	// Approvals and rejections are both journaled.
	require.Len(t, sink.events, 2)
	assert.True(t, sink.events[0].Decision.Approved)
	assert.Equal(t, ReasonLeverageExceeded, sink.events[1].Decision.Reason)
	assert.False(t, sink.events[0].Time.IsZero())
}

func TestManager_Assess_SinkFailureDoesNotAffectDecision(t *testing.T) {
	m := newTestManager()
	m.SetSink(&recordingSink{fail: true})

	d, err := m.Assess(baseRequest(), baseSnapshot())
	require.NoError(t, err)
	assert.True(t, d.Approved)
}

func TestManager_Assess_ScoreComposition(t *testing.T) {
	m := newTestManager()

	// Baseline: leverage 5/10 = 0.5, cluster proximity saturates at 1.0,
	// drawdown 0. Score = 100 x (0.3 x 0.5 + 0.3 x 1.0 + 0.4 x 0) = 45.
	d, err := m.Assess(baseRequest(), baseSnapshot())
	require.NoError(t, err)
	assert.InDelta(t, 45.0, d.Score, 1e-9)
}

func BenchmarkManager_Assess(b *testing.B) {
	m := newTestManager()
	for i := 0; i < 9; i++ {
		m.Correlation().SetPair("BTCUSDT", symbols[i], 0.5+float64(i)*0.05)
	}

	snap := baseSnapshot()
	for i := 0; i < 10; i++ {
		snap.Positions = append(snap.Positions, portfolio.Position{
			Symbol:     symbols[i%len(symbols)],
			Direction:  portfolio.Long,
			EntryPrice: 100,
			Quantity:   5,
		})
	}
	req := baseRequest()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Assess(req, snap); err != nil {
			b.Fatal(err)
		}
	}
}

var symbols = []string{
	"ETHUSDT", "SOLUSDT", "XRPUSDT", "ADAUSDT", "DOGEUSDT",
	"DOTUSDT", "LINKUSDT", "AVAXUSDT", "MATICUSDT", "LTCUSDT",
}
