package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantaris/risk-engine/internal/risk"
)

func decisionEvent(approved bool, reason risk.RejectReason, score, quantity, entry, margin float64) risk.DecisionEvent {
	return risk.DecisionEvent{
		Request: risk.TradeRequest{Symbol: "BTCUSDT", EntryPrice: entry},
		Decision: risk.Decision{
			Approved: approved,
			Reason:   reason,
			Score:    score,
			Quantity: quantity,
			Margin:   margin,
		},
	}
}

func TestSummarize(t *testing.T) {
	events := []risk.DecisionEvent{
		decisionEvent(true, risk.ReasonNone, 40, 0.5, 50_000, 5000),
		decisionEvent(true, risk.ReasonNone, 20, 0.2, 50_000, 2000),
		decisionEvent(false, risk.ReasonCorrelationLimit, 100, 0, 50_000, 0),
		decisionEvent(false, risk.ReasonMarginLimit, 100, 0, 50_000, 0),
	}

	s := Summarize(events)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Approved)
	assert.Equal(t, 2, s.Rejected)
	assert.Equal(t, 1, s.ByReason[risk.ReasonCorrelationLimit])
	assert.Equal(t, 1, s.ByReason[risk.ReasonMarginLimit])
	assert.InDelta(t, 65.0, s.AvgScore, 1e-9)
	assert.InDelta(t, 100.0, s.MaxScore, 1e-9)
	assert.InDelta(t, 7000.0, s.TotalMargin, 1e-9)
	assert.InDelta(t, 35_000.0, s.TotalNotional, 1e-9)
	assert.InDelta(t, 50.0, s.ApprovalRate(), 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.Zero(t, s.Total)
	assert.Zero(t, s.AvgScore)
	assert.Zero(t, s.ApprovalRate())
}
