package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjae-dev/quantpipe/internal/contracts"
	"github.com/minjae-dev/quantpipe/internal/snapshot"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// --- fakes ---

type fakePanelSource struct {
	panel *contracts.IndicatorPanel
	err   error
}

func (f *fakePanelSource) FetchPanel(ctx context.Context) (*contracts.IndicatorPanel, error) {
	return f.panel, f.err
}

type fakeStatsSource struct {
	report *contracts.OutcomeStatsReport
	err    error
	calls  int
}

func (f *fakeStatsSource) GenerateReport(ctx context.Context, cfg contracts.StatsConfig) (*contracts.OutcomeStatsReport, error) {
	f.calls++
	return f.report, f.err
}

type fakeRanker struct {
	family        string
	raw           *contracts.RankedSignalSet
	processed     *contracts.RankedSignalSet
	rawErr        error
	processedErr  error
	rawCalls      int
	processedTopN []int
}

func (f *fakeRanker) Family() string { return f.family }

func (f *fakeRanker) RankRaw(panel *contracts.IndicatorPanel) (*contracts.RankedSignalSet, error) {
	f.rawCalls++
	return f.raw, f.rawErr
}

func (f *fakeRanker) RankProcessed(panel *contracts.IndicatorPanel, stats *contracts.OutcomeStatsReport, topN int) (*contracts.RankedSignalSet, error) {
	f.processedTopN = append(f.processedTopN, topN)
	return f.processed, f.processedErr
}

type fakePresenter struct {
	err       error
	presented []string
}

func (f *fakePresenter) Present(set *contracts.RankedSignalSet) error {
	f.presented = append(f.presented, set.Family)
	return f.err
}

// --- fixtures ---

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "error")
}

func validPanel() *contracts.IndicatorPanel {
	return &contracts.IndicatorPanel{
		AsOf: time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
		Rows: []contracts.IndicatorRow{
			{Symbol: "005930", Date: time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC), RSI: 65, MACDHist: 1},
		},
	}
}

func rankedSet(family string, symbols ...string) *contracts.RankedSignalSet {
	set := &contracts.RankedSignalSet{Family: family}
	for i, symbol := range symbols {
		set.Signals = append(set.Signals, contracts.RankedSignal{
			Symbol:     symbol,
			Date:       time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
			SignalType: contracts.SignalMomentumBreakout,
			Score:      decimal.NewFromInt(int64(9 - i)),
		})
	}
	return set
}

type fixture struct {
	panels    *fakePanelSource
	stats     *fakeStatsSource
	momentum  *fakeRanker
	reversal  *fakeRanker
	presenter *fakePresenter
	path      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		panels: &fakePanelSource{panel: validPanel()},
		stats:  &fakeStatsSource{report: &contracts.OutcomeStatsReport{Stats: []contracts.OutcomeStat{{SignalType: contracts.SignalMomentumBreakout, Horizon: 5, Matches: 20}}}},
		momentum: &fakeRanker{
			family:    contracts.FamilyMomentum,
			raw:       rankedSet(contracts.FamilyMomentum, "005930", "000660"),
			processed: rankedSet(contracts.FamilyMomentum, "005930"),
		},
		reversal: &fakeRanker{
			family:    contracts.FamilyReversal,
			raw:       rankedSet(contracts.FamilyReversal, "035420"),
			processed: rankedSet(contracts.FamilyReversal, "035420"),
		},
		presenter: &fakePresenter{},
		path:      filepath.Join(t.TempDir(), "snapshot.json"),
	}
}

func (f *fixture) orchestrator() *Orchestrator {
	log := testLogger()
	writer := snapshot.NewWriter(f.path, 10, 5, log)
	return NewOrchestrator(f.panels, f.stats, f.momentum, f.reversal, f.presenter, writer, Config{
		MomentumTopN:     10,
		ReversalTopN:     5,
		Horizons:         []int{3, 5, 10, 14},
		SuccessThreshold: 0.04,
	}, log)
}

func (f *fixture) snapshotExists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// --- tests ---

func TestOrchestrator_Run_Success(t *testing.T) {
	f := newFixture(t)
	report := f.orchestrator().Run(context.Background())

	assert.False(t, report.Aborted)
	assert.True(t, report.SnapshotWritten)
	assert.True(t, f.snapshotExists())

	// Both families displayed, in order.
	assert.Equal(t, []string{contracts.FamilyMomentum, contracts.FamilyReversal}, f.presenter.presented)

	// Per-family top-N reaches the rankers.
	assert.Equal(t, []int{10}, f.momentum.processedTopN)
	assert.Equal(t, []int{5}, f.reversal.processedTopN)

	// Raw rankings are recomputed, not reused from the display path.
	assert.Equal(t, 1, f.momentum.rawCalls)
	assert.Equal(t, 1, f.reversal.rawCalls)

	for _, stage := range []string{StagePanel, StageStats, StageMomentumDisplay, StageReversalDisplay, StageRawRerank, StageSnapshot} {
		outcome, ok := report.Outcome(stage)
		require.True(t, ok, "stage %s not recorded", stage)
		assert.True(t, outcome.OK, "stage %s", stage)
	}
}

func TestOrchestrator_Run_EmptyPanelAborts(t *testing.T) {
	f := newFixture(t)
	f.panels.panel = &contracts.IndicatorPanel{}

	report := f.orchestrator().Run(context.Background())

	assert.True(t, report.Aborted)
	assert.False(t, report.SnapshotWritten)
	assert.False(t, f.snapshotExists())
	assert.Zero(t, f.stats.calls, "nothing downstream runs without a panel")
	assert.Empty(t, f.presenter.presented)
}

func TestOrchestrator_Run_PanelFetchErrorAborts(t *testing.T) {
	f := newFixture(t)
	f.panels.panel = nil
	f.panels.err = errors.New("store unavailable")

	report := f.orchestrator().Run(context.Background())

	assert.True(t, report.Aborted)
	outcome, ok := report.Outcome(StagePanel)
	require.True(t, ok)
	assert.False(t, outcome.OK)
	assert.Error(t, outcome.Err)
}

func TestOrchestrator_Run_MalformedPanelAborts(t *testing.T) {
	f := newFixture(t)
	d := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)
	f.panels.panel = &contracts.IndicatorPanel{Rows: []contracts.IndicatorRow{
		{Symbol: "005930", Date: d},
		{Symbol: "005930", Date: d}, // duplicate key
	}}

	report := f.orchestrator().Run(context.Background())
	assert.True(t, report.Aborted)
	assert.False(t, f.snapshotExists())
}

func TestOrchestrator_Run_StatsFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.stats.report = nil
	f.stats.err = errors.New("stats backend down")

	report := f.orchestrator().Run(context.Background())

	// The run continues all the way to the snapshot.
	assert.False(t, report.Aborted)
	assert.True(t, report.SnapshotWritten)
	assert.Len(t, f.presenter.presented, 2)

	outcome, ok := report.Outcome(StageStats)
	require.True(t, ok)
	assert.False(t, outcome.OK)
}

func TestOrchestrator_Run_OneFamilyDisplayFailureIsolated(t *testing.T) {
	f := newFixture(t)
	f.momentum.processed = nil
	f.momentum.processedErr = errors.New("momentum ranking blew up")

	report := f.orchestrator().Run(context.Background())

	// Reversal still displays; momentum is skipped as empty.
	assert.False(t, report.Aborted)
	assert.Equal(t, []string{contracts.FamilyReversal}, f.presenter.presented)
	assert.True(t, report.SnapshotWritten, "raw reranking is independent of display failures")

	outcome, ok := report.Outcome(StageMomentumDisplay)
	require.True(t, ok)
	assert.False(t, outcome.OK)

	outcome, ok = report.Outcome(StageReversalDisplay)
	require.True(t, ok)
	assert.True(t, outcome.OK)
}

func TestOrchestrator_Run_PresenterFailureEndsRun(t *testing.T) {
	f := newFixture(t)
	f.presenter.err = errors.New("terminal gone")

	report := f.orchestrator().Run(context.Background())

	assert.True(t, report.Aborted)
	assert.False(t, report.SnapshotWritten)
	assert.False(t, f.snapshotExists(), "no snapshot after a display failure")
	assert.Zero(t, f.momentum.rawCalls, "reranking never starts")
}

func TestOrchestrator_Run_RawRerankFailureSkipsSnapshot(t *testing.T) {
	f := newFixture(t)
	f.momentum.raw = nil
	f.momentum.rawErr = errors.New("rerank failed")

	report := f.orchestrator().Run(context.Background())

	// Degraded, not aborted: display already happened.
	assert.False(t, report.Aborted)
	assert.False(t, report.SnapshotWritten)
	assert.False(t, f.snapshotExists())

	outcome, ok := report.Outcome(StageRawRerank)
	require.True(t, ok)
	assert.False(t, outcome.OK)
}

func TestOrchestrator_Run_RerankFailurePreservesPriorSnapshot(t *testing.T) {
	f := newFixture(t)

	// First run writes a snapshot.
	report := f.orchestrator().Run(context.Background())
	require.True(t, report.SnapshotWritten)
	before, err := os.ReadFile(f.path)
	require.NoError(t, err)

	// Second run fails reranking; the prior file must survive untouched.
	f.reversal.raw = nil
	f.reversal.rawErr = errors.New("rerank failed")
	report = f.orchestrator().Run(context.Background())
	assert.False(t, report.SnapshotWritten)

	after, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestOrchestrator_Run_SnapshotWriteFailureDegrades(t *testing.T) {
	f := newFixture(t)
	// A directory at the snapshot path makes the write fail.
	require.NoError(t, os.MkdirAll(f.path, 0o755))

	report := f.orchestrator().Run(context.Background())

	assert.False(t, report.Aborted, "a snapshot write failure does not abort the run")
	assert.False(t, report.SnapshotWritten)

	outcome, ok := report.Outcome(StageSnapshot)
	require.True(t, ok)
	assert.False(t, outcome.OK)
}

func TestOrchestrator_Run_Idempotent(t *testing.T) {
	f := newFixture(t)
	orch := f.orchestrator()

	orch.Run(context.Background())
	first, err := os.ReadFile(f.path)
	require.NoError(t, err)

	orch.Run(context.Background())
	second, err := os.ReadFile(f.path)
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-running over unchanged inputs rewrites an identical snapshot")
}

func TestOrchestrator_Run_PanicRecovered(t *testing.T) {
	f := newFixture(t)
	f.momentum.processed = nil // fakeRanker returns nil set, nil error

	panicking := &panickingRanker{fakeRanker: f.momentum}
	log := testLogger()
	writer := snapshot.NewWriter(f.path, 10, 5, log)
	orch := NewOrchestrator(f.panels, f.stats, panicking, f.reversal, f.presenter, writer, Config{
		MomentumTopN: 10, ReversalTopN: 5, Horizons: []int{5}, SuccessThreshold: 0.04,
	}, log)

	report := orch.Run(context.Background())
	assert.True(t, report.Aborted)
	assert.NotZero(t, report.FinishedAt)
}

type panickingRanker struct {
	*fakeRanker
}

func (p *panickingRanker) RankProcessed(panel *contracts.IndicatorPanel, stats *contracts.OutcomeStatsReport, topN int) (*contracts.RankedSignalSet, error) {
	panic("unexpected state")
}
