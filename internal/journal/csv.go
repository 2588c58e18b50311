package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quantaris/risk-engine/internal/risk"
	"github.com/quantaris/risk-engine/internal/riskerr"
	"github.com/quantaris/risk-engine/pkg/id"
)

// CSVJournal appends decisions to a CSV file, flushed per record so the
// trail survives a crash.
type CSVJournal struct {
	w *csv.Writer
	f *os.File
}

// NewCSV creates the journal file and writes the header row.
func NewCSV(path string) (*CSVJournal, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, riskerr.Wrap(err, riskerr.ErrorCategoryJournal, "journal", "create csv")
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"decision_id", "decided_at", "symbol", "direction", "entry_price",
		"stop_distance_pct", "confidence", "requested_leverage", "approved",
		"reason", "quantity", "leverage", "margin", "stop_price", "stop_type",
		"score", "safety_level", "conflicting",
	}); err != nil {
		f.Close()
		return nil, riskerr.Wrap(err, riskerr.ErrorCategoryJournal, "journal", "write csv header")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, riskerr.Wrap(err, riskerr.ErrorCategoryJournal, "journal", "flush csv header")
	}

	return &CSVJournal{w: w, f: f}, nil
}

// Record appends one decision row.
func (j *CSVJournal) Record(event risk.DecisionEvent) error {
	err := j.w.Write([]string{
		id.New(),
		event.Time.Format(time.RFC3339),
		event.Request.Symbol,
		string(event.Request.Direction),
		f(event.Request.EntryPrice),
		f(event.Request.StopDistancePct),
		f(event.Request.Confidence),
		f(event.Request.Leverage),
		strconv.FormatBool(event.Decision.Approved),
		string(event.Decision.Reason),
		f(event.Decision.Quantity),
		f(event.Decision.Leverage),
		f(event.Decision.Margin),
		f(event.Decision.StopPrice),
		string(event.Decision.StopType),
		f(event.Decision.Score),
		event.Decision.SafetyLevel.String(),
		strings.Join(event.Decision.ConflictingSymbols, "|"),
	})
	if err != nil {
		return riskerr.Wrap(err, riskerr.ErrorCategoryJournal, "journal", "write csv row")
	}

	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return riskerr.Wrap(err, riskerr.ErrorCategoryJournal, "journal", "flush csv row")
	}
	return nil
}

// Close flushes and closes the underlying file.
func (j *CSVJournal) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
