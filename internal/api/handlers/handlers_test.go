package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjae-dev/quantpipe/internal/contracts"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "error")
}

func TestSnapshotHandler_GetSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	content := `{"rank_momentum_signals": [{"symbol": "005930", "score": "8.5"}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	h := NewSnapshotHandler(path, testLogger())

	rec := httptest.NewRecorder()
	h.GetSnapshot(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc, "rank_momentum_signals")
}

func TestSnapshotHandler_GetSnapshot_Missing(t *testing.T) {
	h := NewSnapshotHandler(filepath.Join(t.TempDir(), "missing.json"), testLogger())

	rec := httptest.NewRecorder()
	h.GetSnapshot(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSnapshotHandler_GetSnapshot_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{torn"), 0o644))

	h := NewSnapshotHandler(path, testLogger())

	rec := httptest.NewRecorder()
	h.GetSnapshot(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type stubPanelSource struct {
	panel *contracts.IndicatorPanel
	err   error
}

func (s *stubPanelSource) FetchPanel(ctx context.Context) (*contracts.IndicatorPanel, error) {
	return s.panel, s.err
}

type stubRanker struct {
	family string
	set    *contracts.RankedSignalSet
	err    error
}

func (s *stubRanker) Family() string { return s.family }

func (s *stubRanker) RankRaw(panel *contracts.IndicatorPanel) (*contracts.RankedSignalSet, error) {
	return s.set, s.err
}

func (s *stubRanker) RankProcessed(panel *contracts.IndicatorPanel, stats *contracts.OutcomeStatsReport, topN int) (*contracts.RankedSignalSet, error) {
	return s.set, s.err
}

func rankingRouter(h *RankingHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/rankings/{family}", h.GetRanking).Methods("GET")
	return r
}

func newRankingHandler(signals ...contracts.RankedSignal) *RankingHandler {
	ranker := &stubRanker{
		family: contracts.FamilyMomentum,
		set:    &contracts.RankedSignalSet{Family: contracts.FamilyMomentum, Signals: signals},
	}
	return NewRankingHandler(&stubPanelSource{panel: &contracts.IndicatorPanel{}}, []contracts.SignalRanker{ranker}, testLogger())
}

func someSignal(symbol string, score float64) contracts.RankedSignal {
	return contracts.RankedSignal{
		Symbol:     symbol,
		Date:       time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
		SignalType: contracts.SignalMomentumBreakout,
		Score:      decimal.NewFromFloat(score),
	}
}

func TestRankingHandler_GetRanking(t *testing.T) {
	h := newRankingHandler(someSignal("005930", 8.5), someSignal("000660", 7.0))

	rec := httptest.NewRecorder()
	rankingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rankings/momentum", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Family  string        `json:"family"`
		Count   int           `json:"count"`
		Signals []RankingItem `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "momentum", body.Family)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, 1, body.Signals[0].Rank)
	assert.Equal(t, "005930", body.Signals[0].Symbol)
	assert.Equal(t, "8.5", body.Signals[0].Score)
	assert.Equal(t, "2026-08-14", body.Signals[0].Date)
}

func TestRankingHandler_GetRanking_TopParam(t *testing.T) {
	h := newRankingHandler(someSignal("A", 9), someSignal("B", 8), someSignal("C", 7))

	rec := httptest.NewRecorder()
	rankingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rankings/momentum?top=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}

func TestRankingHandler_GetRanking_BadInputs(t *testing.T) {
	h := newRankingHandler(someSignal("A", 9))

	rec := httptest.NewRecorder()
	rankingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rankings/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	rankingRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rankings/momentum?top=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
