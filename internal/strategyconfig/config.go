package strategyconfig

// Config is the full ranking strategy configuration. Weights and filter
// thresholds live here, not in code, so a strategy change is a config change.
type Config struct {
	Meta     Meta         `yaml:"meta" json:"meta"`
	Momentum FamilyConfig `yaml:"momentum" json:"momentum"`
	Reversal FamilyConfig `yaml:"reversal" json:"reversal"`
}

// Meta holds strategy identification.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// FamilyConfig holds the scoring weights and display filters for one signal
// family.
type FamilyConfig struct {
	Weights Weights `yaml:"weights" json:"weights"`
	Filters Filters `yaml:"filters" json:"filters"`
}

// Weights are the composite-score components. They must sum to 1.0.
type Weights struct {
	Trend      float64 `yaml:"trend" json:"trend"`
	Oscillator float64 `yaml:"oscillator" json:"oscillator"`
	Volume     float64 `yaml:"volume" json:"volume"`
	Divergence float64 `yaml:"divergence" json:"divergence"`
}

// Sum returns the total of all weight components.
func (w Weights) Sum() float64 {
	return w.Trend + w.Oscillator + w.Volume + w.Divergence
}

// Filters are applied on the processed (display) path only. The raw path is
// never filtered.
type Filters struct {
	MinScore         float64 `yaml:"min_score" json:"min_score"`
	MinMatches       int     `yaml:"min_matches" json:"min_matches"`
	PreferredHorizon int     `yaml:"preferred_horizon" json:"preferred_horizon"`
}

// Default returns the built-in strategy used when no YAML file is configured.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "quantpipe_default",
			Version:    "v1",
		},
		Momentum: FamilyConfig{
			Weights: Weights{
				Trend:      0.45,
				Oscillator: 0.30,
				Volume:     0.15,
				Divergence: 0.10,
			},
			Filters: Filters{
				MinScore:         6.0,
				MinMatches:       10,
				PreferredHorizon: 5,
			},
		},
		Reversal: FamilyConfig{
			Weights: Weights{
				Trend:      0.25,
				Oscillator: 0.35,
				Volume:     0.10,
				Divergence: 0.30,
			},
			Filters: Filters{
				MinScore:         5.0,
				MinMatches:       10,
				PreferredHorizon: 5,
			},
		},
	}
}
