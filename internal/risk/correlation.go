package risk

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/quantaris/risk-engine/internal/config"
	"github.com/quantaris/risk-engine/internal/portfolio"
)

// CorrelationEntry is one stored pair coefficient.
type CorrelationEntry struct {
	Coefficient float64
	UpdatedAt   time.Time
}

// pairKey stores a symbol pair in canonical order, so a pair is stored once
// regardless of which symbol is queried first.
type pairKey struct {
	a, b string
}

func newPairKey(x, y string) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

type matrix map[pairKey]CorrelationEntry

// CorrelationMonitor maintains a symmetric correlation matrix between
// instruments and evaluates whether a new exposure would create a
// disallowed correlated concentration.
//
// The matrix is read-mostly during assessment and updated only by an
// external calibration process; updates publish a whole new snapshot via
// atomic swap, so concurrent readers never take a lock.
type CorrelationMonitor struct {
	cfg      config.CorrelationConfig
	snapshot atomic.Value // matrix
}

// NewCorrelationMonitor creates a monitor with an empty matrix.
func NewCorrelationMonitor(cfg config.CorrelationConfig) *CorrelationMonitor {
	m := &CorrelationMonitor{cfg: cfg}
	m.snapshot.Store(matrix{})
	return m
}

// SetPair records the correlation coefficient for a symbol pair, clamped to
// [-1, 1]. Copy-on-write: the calibration path pays for the copy so the
// assessment path stays lock-free.
func (m *CorrelationMonitor) SetPair(x, y string, coefficient float64) {
	if coefficient > 1 {
		coefficient = 1
	}
	if coefficient < -1 {
		coefficient = -1
	}

	old := m.snapshot.Load().(matrix)
	next := make(matrix, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[newPairKey(x, y)] = CorrelationEntry{Coefficient: coefficient, UpdatedAt: time.Now()}
	m.snapshot.Store(next)
}

// Lookup returns the stored correlation between two symbols. A missing pair
// is treated as uncorrelated.
func (m *CorrelationMonitor) Lookup(x, y string) float64 {
	if x == y {
		return 1
	}
	entry, ok := m.snapshot.Load().(matrix)[newPairKey(x, y)]
	if !ok {
		return 0
	}
	return entry.Coefficient
}

// CheckResult reports whether a proposed exposure is allowed and, if not,
// which open positions formed the offending cluster.
type CheckResult struct {
	Allowed            bool
	ConflictingSymbols []string
	ClusterExposurePct float64 // proposed exposure plus correlated open exposure
	CapPct             float64
}

// Check sums the proposed exposure with the exposure of every open position
// whose |correlation| with symbol meets the threshold, and rejects the
// trade when that cluster exceeds the cap. A proposal with no correlated
// open positions never forms a cluster, so the cap does not apply to it.
// Symmetric by construction of the pair key.
func (m *CorrelationMonitor) Check(symbol string, proposedExposurePct float64, snap portfolio.Snapshot) CheckResult {
	cap := m.cfg.ExposureCapPct
	if m.cfg.UseTighterCluster {
		cap = m.cfg.ClusterCapPct
	}

	cluster := proposedExposurePct
	conflicting := make([]string, 0)
	seen := make(map[string]bool)

	for _, pos := range snap.Positions {
		var corr float64
		if pos.Symbol == symbol {
			// Same-symbol exposure always belongs to the cluster.
			corr = 1
		} else {
			corr = m.Lookup(symbol, pos.Symbol)
		}
		if abs(corr) < m.cfg.Threshold {
			continue
		}
		cluster += pos.ExposurePct(snap.Equity)
		if !seen[pos.Symbol] {
			seen[pos.Symbol] = true
			conflicting = append(conflicting, pos.Symbol)
		}
	}
	sort.Strings(conflicting)

	if len(conflicting) > 0 && cluster > cap {
		return CheckResult{
			Allowed:            false,
			ConflictingSymbols: conflicting,
			ClusterExposurePct: cluster,
			CapPct:             cap,
		}
	}
	return CheckResult{Allowed: true, ClusterExposurePct: cluster, CapPct: cap}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
