package journal

import (
	"database/sql"
	"encoding/json"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quantaris/risk-engine/internal/portfolio"
	"github.com/quantaris/risk-engine/internal/risk"
	"github.com/quantaris/risk-engine/internal/riskerr"
	"github.com/quantaris/risk-engine/pkg/id"
)

// SQLiteJournal appends decisions to a SQLite database, one row per
// decision, keyed by ULID so rows sort in assessment order.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the journal database and ensures the schema.
func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, riskerr.Wrap(err, riskerr.ErrorCategoryJournal, "journal", "open sqlite")
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, riskerr.Wrap(err, riskerr.ErrorCategoryJournal, "journal", "create schema")
	}

	return &SQLiteJournal{db: db}, nil
}

// Record inserts one decision event.
func (j *SQLiteJournal) Record(event risk.DecisionEvent) error {
	factors, err := json.Marshal(event.Decision.Factors)
	if err != nil {
		return riskerr.Wrap(err, riskerr.ErrorCategoryJournal, "journal", "encode factors")
	}

	_, err = j.db.Exec(`
		INSERT INTO decisions
		(decision_id, decided_at, symbol, direction, entry_price, stop_distance_pct,
		 confidence, requested_leverage, approved, reason, quantity, leverage, margin,
		 stop_price, stop_type, score, safety_level, factors, conflicting)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.New(), event.Time, event.Request.Symbol, string(event.Request.Direction),
		event.Request.EntryPrice, event.Request.StopDistancePct,
		event.Request.Confidence, event.Request.Leverage,
		event.Decision.Approved, string(event.Decision.Reason),
		event.Decision.Quantity, event.Decision.Leverage, event.Decision.Margin,
		event.Decision.StopPrice, string(event.Decision.StopType),
		event.Decision.Score, event.Decision.SafetyLevel.String(),
		string(factors), strings.Join(event.Decision.ConflictingSymbols, ","),
	)
	if err != nil {
		return riskerr.Wrap(err, riskerr.ErrorCategoryJournal, "journal", "insert decision")
	}
	return nil
}

// Recent returns the most recent n decisions, newest first. Used by the
// reporting layer.
func (j *SQLiteJournal) Recent(n int) ([]risk.DecisionEvent, error) {
	rows, err := j.db.Query(`
		SELECT decided_at, symbol, direction, entry_price, stop_distance_pct,
		       confidence, requested_leverage, approved, reason, quantity,
		       leverage, margin, stop_price, stop_type, score
		FROM decisions ORDER BY decision_id DESC LIMIT ?`, n)
	if err != nil {
		return nil, riskerr.Wrap(err, riskerr.ErrorCategoryJournal, "journal", "query decisions")
	}
	defer rows.Close()

	var events []risk.DecisionEvent
	for rows.Next() {
		var ev risk.DecisionEvent
		var direction, reason, stopType string
		if err := rows.Scan(&ev.Time, &ev.Request.Symbol, &direction,
			&ev.Request.EntryPrice, &ev.Request.StopDistancePct,
			&ev.Request.Confidence, &ev.Request.Leverage,
			&ev.Decision.Approved, &reason, &ev.Decision.Quantity,
			&ev.Decision.Leverage, &ev.Decision.Margin,
			&ev.Decision.StopPrice, &stopType, &ev.Decision.Score,
		); err != nil {
			return nil, riskerr.Wrap(err, riskerr.ErrorCategoryJournal, "journal", "scan decision")
		}
		ev.Request.Direction = portfolio.Direction(direction)
		ev.Decision.Reason = risk.RejectReason(reason)
		ev.Decision.StopType = portfolio.StopType(stopType)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close releases the database handle.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
