package pipeline

import "time"

// Stage names recorded in the run report.
const (
	StagePanel           = "panel"
	StageStats           = "stats"
	StageMomentumDisplay = "momentum_display"
	StageReversalDisplay = "reversal_display"
	StagePresent         = "present"
	StageRawRerank       = "raw_rerank"
	StageSnapshot        = "snapshot"
)

// StageOutcome is the explicit result of one stage boundary: either the stage
// succeeded with some number of rows, or it failed and the run continued on
// an empty substitute. Failure never propagates past a boundary as an error.
type StageOutcome struct {
	Stage string
	OK    bool
	Rows  int
	Err   error
}

// RunReport is what the entry point hands back. The run itself communicates
// through logs and the snapshot file; the report exists so callers and tests
// can observe what happened without parsing either.
type RunReport struct {
	StartedAt       time.Time
	FinishedAt      time.Time
	Aborted         bool
	SnapshotWritten bool
	Stages          []StageOutcome
}

func (r *RunReport) record(stage string, ok bool, rows int, err error) {
	r.Stages = append(r.Stages, StageOutcome{Stage: stage, OK: ok, Rows: rows, Err: err})
}

// Outcome returns the recorded outcome for a stage.
func (r *RunReport) Outcome(stage string) (StageOutcome, bool) {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageOutcome{}, false
}

// Duration returns the wall time of the run.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
