package jobs

import (
	"context"
	"fmt"

	"github.com/minjae-dev/quantpipe/internal/pipeline"
)

// PipelineJob runs the ranking pipeline on a schedule. The pipeline reports
// failures through its run report instead of errors, so the job only fails
// when a run aborts — which is what the scheduler's retry is for.
type PipelineJob struct {
	orchestrator *pipeline.Orchestrator
	schedule     string
}

// NewPipelineJob creates a scheduled pipeline job.
func NewPipelineJob(orchestrator *pipeline.Orchestrator, schedule string) *PipelineJob {
	return &PipelineJob{orchestrator: orchestrator, schedule: schedule}
}

func (j *PipelineJob) Name() string     { return "ranking_pipeline" }
func (j *PipelineJob) Schedule() string { return j.schedule }

func (j *PipelineJob) Run(ctx context.Context) error {
	report := j.orchestrator.Run(ctx)
	if report.Aborted {
		return fmt.Errorf("pipeline run aborted after %s", report.Duration())
	}
	return nil
}
