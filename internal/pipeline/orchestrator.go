package pipeline

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/minjae-dev/quantpipe/internal/contracts"
	"github.com/minjae-dev/quantpipe/internal/snapshot"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// Config holds the static per-run parameters of the orchestration. It is
// constructed once at process start and never changes mid-run.
type Config struct {
	MomentumTopN     int
	ReversalTopN     int
	Horizons         []int
	SuccessThreshold float64
}

// Orchestrator drives the ranking pipeline end to end: fetch indicators,
// fetch outcome stats, rank both families for display, present, recompute
// raw rankings, snapshot. Each stage is isolated so one failure degrades to
// an empty result instead of aborting the stages that do not depend on it.
// Stages run strictly in sequence; this is a batch job, not a service.
type Orchestrator struct {
	panels    contracts.PanelSource
	stats     contracts.StatsSource
	momentum  contracts.SignalRanker
	reversal  contracts.SignalRanker
	presenter contracts.Presenter
	writer    *snapshot.Writer
	config    Config
	logger    *logger.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(
	panels contracts.PanelSource,
	stats contracts.StatsSource,
	momentum contracts.SignalRanker,
	reversal contracts.SignalRanker,
	presenter contracts.Presenter,
	writer *snapshot.Writer,
	config Config,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		panels:    panels,
		stats:     stats,
		momentum:  momentum,
		reversal:  reversal,
		presenter: presenter,
		writer:    writer,
		config:    config,
		logger:    log,
	}
}

// Run executes the whole pipeline. It never returns an error and never
// panics past its own boundary: outcome is observable through logs, the
// snapshot file, and the returned report. A hang in a collaborator hangs the
// run; there is no timeout layer here beyond what the caller puts in ctx.
func (o *Orchestrator) Run(ctx context.Context) (report *RunReport) {
	report = &RunReport{StartedAt: time.Now()}

	defer func() {
		if rec := recover(); rec != nil {
			o.logger.WithFields(map[string]interface{}{
				"panic": rec,
				"stack": string(debug.Stack()),
			}).Error("Unanticipated failure during orchestration")
			report.Aborted = true
		}
		report.FinishedAt = time.Now()
	}()

	o.logger.Info("Starting signal ranking orchestration")

	// 1. Indicator panel. Hard precondition: nothing downstream is
	// meaningful without it.
	panel := o.fetchPanel(ctx, report)
	if panel == nil {
		report.Aborted = true
		return report
	}

	// 2. Outcome stats. Purely enrichment; failure degrades to an empty
	// report and the run continues.
	statsReport := o.fetchStats(ctx, report)

	// 3-4. Processed rankings for display. Each family has its own boundary
	// and its own top-N; one failing does not stop the other.
	momentumDisplay := o.rankProcessed(o.momentum, panel, statsReport, o.config.MomentumTopN, StageMomentumDisplay, report)
	reversalDisplay := o.rankProcessed(o.reversal, panel, statsReport, o.config.ReversalTopN, StageReversalDisplay, report)

	// 5. Display. A presenter failure is terminal: it is not substituted,
	// only caught by the outer boundary semantics (run ends cleanly, no
	// snapshot).
	if !o.present(momentumDisplay, report) || !o.present(reversalDisplay, report) {
		report.Aborted = true
		return report
	}

	// 6. Raw rankings recomputed for the snapshot. Deliberately a second
	// computation over the same panel: the processed sets above went through
	// different transformations and must not leak into the snapshot.
	momentumRaw, reversalRaw := o.rerankRaw(panel, report)

	// 7. Snapshot.
	o.writeSnapshot(momentumRaw, reversalRaw, report)

	o.logger.Info("Signal ranking orchestration finished")
	return report
}

// fetchPanel returns nil when the run must stop: fetch error, empty panel,
// or a panel that fails composite-key validation.
func (o *Orchestrator) fetchPanel(ctx context.Context, report *RunReport) *contracts.IndicatorPanel {
	o.logger.Info("Fetching indicator panel")

	panel, err := o.panels.FetchPanel(ctx)
	if err != nil {
		o.logger.WithError(err).Error("Indicator panel fetch failed. Stopping.")
		report.record(StagePanel, false, 0, err)
		return nil
	}
	if panel.Empty() {
		o.logger.Warn("Indicator panel is empty. Stopping.")
		report.record(StagePanel, false, 0, nil)
		return nil
	}
	if err := panel.Validate(); err != nil {
		o.logger.WithError(err).Error("Indicator panel does not have the expected composite key. Stopping.")
		report.record(StagePanel, false, 0, err)
		return nil
	}

	report.record(StagePanel, true, len(panel.Rows), nil)
	o.logger.WithField("rows", len(panel.Rows)).Info("Indicator panel ready")
	return panel
}

// fetchStats never fails the run: any error or empty result becomes an empty
// report.
func (o *Orchestrator) fetchStats(ctx context.Context, report *RunReport) *contracts.OutcomeStatsReport {
	o.logger.Info("Generating outcome statistics report")

	statsReport, err := o.stats.GenerateReport(ctx, contracts.StatsConfig{
		Horizons:         o.config.Horizons,
		SuccessThreshold: o.config.SuccessThreshold,
	})
	if err != nil {
		o.logger.WithError(err).Error("Outcome stats generation failed, continuing without enrichment")
		report.record(StageStats, false, 0, err)
		return &contracts.OutcomeStatsReport{}
	}
	if statsReport.Empty() {
		o.logger.Warn("Outcome stats report is empty, continuing without enrichment")
		report.record(StageStats, true, 0, nil)
		return &contracts.OutcomeStatsReport{}
	}

	report.record(StageStats, true, len(statsReport.Stats), nil)
	o.logger.WithField("entries", len(statsReport.Stats)).Info("Outcome stats report generated")
	return statsReport
}

// rankProcessed runs one family's display ranking inside its own boundary.
// On failure the family degrades to an empty set.
func (o *Orchestrator) rankProcessed(
	ranker contracts.SignalRanker,
	panel *contracts.IndicatorPanel,
	stats *contracts.OutcomeStatsReport,
	topN int,
	stage string,
	report *RunReport,
) *contracts.RankedSignalSet {
	o.logger.WithFields(map[string]interface{}{
		"family": ranker.Family(),
		"top_n":  topN,
	}).Info("Processing signals for display")

	set, err := ranker.RankProcessed(panel, stats, topN)
	if err != nil {
		o.logger.WithError(err).WithField("family", ranker.Family()).Error("Processed ranking failed")
		report.record(stage, false, 0, err)
		return &contracts.RankedSignalSet{Family: ranker.Family()}
	}
	if set == nil {
		set = &contracts.RankedSignalSet{Family: ranker.Family()}
	}

	if set.Empty() {
		o.logger.WithField("family", ranker.Family()).Warn("Processing returned no displayable results")
	}
	report.record(stage, true, set.Len(), nil)
	return set
}

// present renders one set. Empty sets are logged and skipped; a renderer
// error ends the run (returns false).
func (o *Orchestrator) present(set *contracts.RankedSignalSet, report *RunReport) bool {
	if set.Empty() {
		o.logger.Infof("No %s results to display", set.Family)
		return true
	}

	o.logger.WithField("family", set.Family).Info("Displaying ranking results")
	if err := o.presenter.Present(set); err != nil {
		o.logger.WithError(err).WithField("family", set.Family).Error("Display failed")
		report.record(StagePresent, false, 0, err)
		return false
	}
	return true
}

// rerankRaw recomputes both raw rankings inside a single boundary: if either
// call fails, both results are dropped and the snapshot stage sees nothing.
// The processed results are never used as a fallback.
func (o *Orchestrator) rerankRaw(panel *contracts.IndicatorPanel, report *RunReport) (*contracts.RankedSignalSet, *contracts.RankedSignalSet) {
	o.logger.Info("Recomputing raw rankings for snapshot")

	momentumRaw, err := o.momentum.RankRaw(panel)
	if err == nil {
		var reversalRaw *contracts.RankedSignalSet
		reversalRaw, err = o.reversal.RankRaw(panel)
		if err == nil {
			report.record(StageRawRerank, true, momentumRaw.Len()+reversalRaw.Len(), nil)
			return momentumRaw, reversalRaw
		}
	}

	o.logger.WithError(err).Error("Raw reranking for snapshot failed")
	report.record(StageRawRerank, false, 0, err)
	return &contracts.RankedSignalSet{Family: contracts.FamilyMomentum},
		&contracts.RankedSignalSet{Family: contracts.FamilyReversal}
}

// writeSnapshot persists the raw sets. A write failure is logged and
// swallowed; the run still counts as complete.
func (o *Orchestrator) writeSnapshot(momentumRaw, reversalRaw *contracts.RankedSignalSet, report *RunReport) {
	if momentumRaw.Empty() && reversalRaw.Empty() {
		o.logger.Info("No raw ranking data was generated. Skipping snapshot.")
		return
	}

	o.logger.WithField("path", o.writer.Path()).Info("Saving raw ranking snapshot")

	written, err := o.writer.Write(momentumRaw, reversalRaw)
	if err != nil {
		o.logger.WithError(err).Error("Failed to save snapshot")
		report.record(StageSnapshot, false, 0, err)
		return
	}

	report.record(StageSnapshot, true, momentumRaw.Len()+reversalRaw.Len(), nil)
	report.SnapshotWritten = written
}
