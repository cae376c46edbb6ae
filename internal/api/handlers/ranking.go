package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/minjae-dev/quantpipe/internal/contracts"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// RankingHandler computes a fresh raw ranking on request. It serves the same
// numbers the snapshot would contain, without waiting for a pipeline run.
type RankingHandler struct {
	panels  contracts.PanelSource
	rankers map[string]contracts.SignalRanker
	logger  *logger.Logger
}

// NewRankingHandler creates a ranking handler over the given rankers.
func NewRankingHandler(panels contracts.PanelSource, rankers []contracts.SignalRanker, log *logger.Logger) *RankingHandler {
	byFamily := make(map[string]contracts.SignalRanker, len(rankers))
	for _, ranker := range rankers {
		byFamily[ranker.Family()] = ranker
	}
	return &RankingHandler{panels: panels, rankers: byFamily, logger: log}
}

// RankingItem is one row of the ranking response.
type RankingItem struct {
	Rank       int     `json:"rank"`
	Symbol     string  `json:"symbol"`
	Date       string  `json:"date"`
	SignalType string  `json:"signal_type"`
	Score      string  `json:"score"`
	RSI        float64 `json:"rsi"`
	MACDHist   float64 `json:"macd_hist"`
	Return20D  float64 `json:"return_20d"`
}

// GetRanking returns the current raw ranking for one signal family.
// GET /api/rankings/{family}?top=N
func (h *RankingHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	family := mux.Vars(r)["family"]

	ranker, ok := h.rankers[family]
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown signal family: "+family)
		return
	}

	top := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "top must be a non-negative integer")
			return
		}
		top = n
	}

	panel, err := h.panels.FetchPanel(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch indicator panel")
		respondError(w, http.StatusInternalServerError, "Failed to fetch indicator panel")
		return
	}

	set, err := ranker.RankRaw(panel)
	if err != nil {
		h.logger.WithError(err).WithField("family", family).Error("Ranking failed")
		respondError(w, http.StatusInternalServerError, "Ranking failed")
		return
	}
	if top > 0 {
		set = set.Head(top)
	}

	items := make([]RankingItem, 0, set.Len())
	for i, sig := range set.Signals {
		items = append(items, RankingItem{
			Rank:       i + 1,
			Symbol:     sig.Symbol,
			Date:       sig.Date.Format("2006-01-02"),
			SignalType: sig.SignalType,
			Score:      sig.Score.String(),
			RSI:        sig.RSI,
			MACDHist:   sig.MACDHist,
			Return20D:  sig.Return20D,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"family":  family,
		"count":   len(items),
		"signals": items,
	})
}
