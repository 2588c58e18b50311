// Package reporting provides console and Excel output for assessment runs.
package reporting

import (
	"github.com/quantaris/risk-engine/internal/risk"
)

// Summary aggregates one batch of decisions for reporting.
type Summary struct {
	Total         int
	Approved      int
	Rejected      int
	ByReason      map[risk.RejectReason]int
	AvgScore      float64
	MaxScore      float64
	TotalMargin   float64 // margin committed by approved decisions
	TotalNotional float64
}

// Summarize computes the aggregate view of a decision batch.
func Summarize(events []risk.DecisionEvent) Summary {
	s := Summary{ByReason: make(map[risk.RejectReason]int)}
	scoreSum := 0.0

	for _, ev := range events {
		s.Total++
		scoreSum += ev.Decision.Score
		if ev.Decision.Score > s.MaxScore {
			s.MaxScore = ev.Decision.Score
		}
		if ev.Decision.Approved {
			s.Approved++
			s.TotalMargin += ev.Decision.Margin
			s.TotalNotional += ev.Decision.Quantity * ev.Request.EntryPrice
			continue
		}
		s.Rejected++
		s.ByReason[ev.Decision.Reason]++
	}

	if s.Total > 0 {
		s.AvgScore = scoreSum / float64(s.Total)
	}
	return s
}

// ApprovalRate returns the share of approved decisions in percent.
func (s Summary) ApprovalRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Approved) / float64(s.Total) * 100
}
