package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minjae-dev/quantpipe/internal/contracts"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// Writer persists the raw-rank results of a run as a single JSON document.
// The file is fully replaced every run; there is no append or versioning.
type Writer struct {
	path         string
	momentumTopN int
	reversalTopN int
	logger       *logger.Logger
}

// NewWriter creates a snapshot writer for the given path and per-family
// truncation limits.
func NewWriter(path string, momentumTopN, reversalTopN int, log *logger.Logger) *Writer {
	return &Writer{
		path:         path,
		momentumTopN: momentumTopN,
		reversalTopN: reversalTopN,
		logger:       log,
	}
}

// Path returns the snapshot file path.
func (w *Writer) Path() string {
	return w.path
}

// row is one flattened snapshot record. The composite (symbol, date) key is
// promoted into plain leading fields; the date and the decimal score are
// stringified. Lossy on purpose: this is a debug/audit record, not a
// round-trippable persistence format.
type row struct {
	Symbol      string  `json:"symbol"`
	Date        string  `json:"date"`
	SignalType  string  `json:"signal_type"`
	Score       string  `json:"score"`
	RSI         float64 `json:"rsi"`
	MACDHist    float64 `json:"macd_hist"`
	Return20D   float64 `json:"return_20d"`
}

// document is the persisted layout. A family whose raw set was empty or
// absent has its section omitted entirely.
type document struct {
	MomentumSignals []row `json:"rank_momentum_signals,omitempty"`
	ReversalSignals []row `json:"rank_reversal_signals,omitempty"`
}

// Write serializes the two raw-rank sets. When both are empty or absent no
// file is touched and (false, nil) is returned: a prior snapshot stays as it
// was. Truncation takes the first N rows in the sets' existing order.
func (w *Writer) Write(momentum, reversal *contracts.RankedSignalSet) (bool, error) {
	doc := document{}

	if !momentum.Empty() {
		doc.MomentumSignals = flatten(momentum.Head(w.momentumTopN))
		w.logger.Infof("Prepared top %d raw momentum signals for snapshot", len(doc.MomentumSignals))
	} else {
		w.logger.Info("No raw momentum results for snapshot")
	}

	if !reversal.Empty() {
		doc.ReversalSignals = flatten(reversal.Head(w.reversalTopN))
		w.logger.Infof("Prepared top %d raw reversal signals for snapshot", len(doc.ReversalSignals))
	} else {
		w.logger.Info("No raw reversal results for snapshot")
	}

	if len(doc.MomentumSignals) == 0 && len(doc.ReversalSignals) == 0 {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return false, fmt.Errorf("create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return false, fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return false, fmt.Errorf("write snapshot: %w", err)
	}

	w.logger.WithField("path", w.path).Info("Snapshot written")
	return true, nil
}

// flatten converts ranked signals into flat records. Only raw-path fields are
// persisted; enrichment fields belong to the display path and never reach the
// snapshot.
func flatten(set *contracts.RankedSignalSet) []row {
	rows := make([]row, 0, set.Len())
	for _, sig := range set.Signals {
		rows = append(rows, row{
			Symbol:     sig.Symbol,
			Date:       sig.Date.Format("2006-01-02"),
			SignalType: sig.SignalType,
			Score:      sig.Score.String(),
			RSI:        sig.RSI,
			MACDHist:   sig.MACDHist,
			Return20D:  sig.Return20D,
		})
	}
	return rows
}
