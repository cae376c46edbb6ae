package contracts

import "context"

// PanelSource produces the indicator panel for a run.
type PanelSource interface {
	FetchPanel(ctx context.Context) (*IndicatorPanel, error)
}

// StatsConfig parameterizes outcome-stats generation.
type StatsConfig struct {
	Horizons         []int
	SuccessThreshold float64
}

// StatsSource produces the historical outcome-stats report.
type StatsSource interface {
	GenerateReport(ctx context.Context, cfg StatsConfig) (*OutcomeStatsReport, error)
}

// SignalRanker ranks one signal family. RankRaw must be a pure function of
// the panel: the orchestrator recomputes it for the snapshot and relies on two
// calls over the same panel producing identical output. RankProcessed merges
// outcome stats, filters, and truncates for display.
type SignalRanker interface {
	Family() string
	RankRaw(panel *IndicatorPanel) (*RankedSignalSet, error)
	RankProcessed(panel *IndicatorPanel, stats *OutcomeStatsReport, topN int) (*RankedSignalSet, error)
}

// Presenter renders a ranked result set for human consumption.
type Presenter interface {
	Present(set *RankedSignalSet) error
}
