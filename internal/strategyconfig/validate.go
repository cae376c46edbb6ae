package strategyconfig

import (
	"fmt"
	"math"
)

// ValidationError is a hard constraint violation. The program stops on it.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints.
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	if err := validateFamily("momentum", cfg.Momentum); err != nil {
		return err
	}
	if err := validateFamily("reversal", cfg.Reversal); err != nil {
		return err
	}

	return nil
}

func validateFamily(name string, fc FamilyConfig) error {
	if math.Abs(fc.Weights.Sum()-1.0) > 1e-6 {
		return ValidationError{name + ".weights", fmt.Sprintf("must sum to 1.0, got %.4f", fc.Weights.Sum())}
	}
	if fc.Filters.MinScore < 0 {
		return ValidationError{name + ".filters.min_score", "must be >= 0"}
	}
	if fc.Filters.MinMatches < 0 {
		return ValidationError{name + ".filters.min_matches", "must be >= 0"}
	}
	if fc.Filters.PreferredHorizon <= 0 {
		return ValidationError{name + ".filters.preferred_horizon", "must be > 0"}
	}
	return nil
}
