// Package journal persists every risk decision to an append-only audit
// trail. Sinks implement risk.DecisionSink; a sink failure is reported to
// the caller but must never change a decision.
package journal

import (
	"io"

	"github.com/quantaris/risk-engine/internal/config"
	"github.com/quantaris/risk-engine/internal/risk"
	"github.com/quantaris/risk-engine/internal/riskerr"
)

// Journal is a decision sink that owns an underlying resource.
type Journal interface {
	risk.DecisionSink
	io.Closer
}

// Open constructs the journal selected by the configuration. Type "none"
// (or empty) returns a nil Journal: the engine simply runs without a sink.
func Open(cfg config.JournalConfig) (Journal, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "csv":
		return NewCSV(cfg.Path)
	case "none", "":
		return nil, nil
	default:
		return nil, riskerr.Newf(riskerr.ErrorCategoryJournal, "journal", "open", "unknown journal type %q", cfg.Type)
	}
}
