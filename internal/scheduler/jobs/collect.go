package jobs

import (
	"context"
	"fmt"

	"github.com/minjae-dev/quantpipe/internal/collector"
)

// CollectJob refreshes the price store on a schedule, ahead of the pipeline
// job.
type CollectJob struct {
	collector *collector.Collector
	config    collector.Config
	schedule  string
}

// NewCollectJob creates a scheduled collection job.
func NewCollectJob(c *collector.Collector, cfg collector.Config, schedule string) *CollectJob {
	return &CollectJob{collector: c, config: cfg, schedule: schedule}
}

func (j *CollectJob) Name() string     { return "price_collection" }
func (j *CollectJob) Schedule() string { return j.schedule }

func (j *CollectJob) Run(ctx context.Context) error {
	results, err := j.collector.Run(ctx, j.config)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	// Partial failures are tolerated; a fully failed run is not.
	if len(results) > 0 && failed == len(results) {
		return fmt.Errorf("all %d symbols failed to collect", failed)
	}
	return nil
}
