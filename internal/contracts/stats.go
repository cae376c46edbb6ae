package contracts

import "time"

// OutcomeStat is the measured historical outcome for one (signal type,
// horizon) grouping: how often the signal reached the configured success
// threshold within the horizon.
type OutcomeStat struct {
	SignalType  string  `json:"signal_type"`
	Horizon     int     `json:"horizon"` // trading days forward
	Matches     int     `json:"matches"` // historical occurrences measured
	SuccessRate float64 `json:"success_rate"`
	AvgReturn   float64 `json:"avg_return"`
}

// OutcomeStatsReport holds the full historical outcome table for a run. An
// empty report is legitimate: enrichment degrades, ranking does not.
type OutcomeStatsReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Stats       []OutcomeStat `json:"stats"`
}

// Empty reports whether the report carries no stats.
func (r *OutcomeStatsReport) Empty() bool {
	return r == nil || len(r.Stats) == 0
}

// Lookup returns the stat for a (signal type, horizon) pair.
func (r *OutcomeStatsReport) Lookup(signalType string, horizon int) (OutcomeStat, bool) {
	if r == nil {
		return OutcomeStat{}, false
	}
	for _, s := range r.Stats {
		if s.SignalType == signalType && s.Horizon == horizon {
			return s, true
		}
	}
	return OutcomeStat{}, false
}
