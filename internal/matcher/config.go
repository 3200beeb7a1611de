// Package matcher implements the reconciliation matching engine.
//
// The engine pairs ledger entries with bank statement rows in three tiers
// of decreasing strictness:
//  1. Exact matching on the enabled fields (date, reference, amount)
//  2. Fuzzy matching scored by payee name similarity
//  3. Split matching, where one entry is settled by several rows on the
//     opposite side
//
// Each tier only sees records left unmatched by the tiers before it, and a
// record claimed in one tier is never revisited. Candidate lookups go
// through an index built once per run so that matching cost stays close to
// linear in the input size.
//
// Example usage:
//
//	config := matcher.DefaultMatchConfig()
//	config.FuzzyThreshold = 80
//
//	engine, err := matcher.NewEngine(config)
//	if err != nil {
//		return err
//	}
//	result, err := engine.Reconcile(ctx, ledger, statement)
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchConfig holds the parameters for a reconciliation run. The three
// MatchX flags select which fields participate in exact matching; at least
// one must be enabled. Tolerances widen the exact tier, and the fuzzy and
// split sections control the later tiers.
//
// Use the factory functions for common setups:
//   - DefaultMatchConfig(): balanced settings for day-to-day runs
//   - StrictMatchConfig(): exact-only matching with zero tolerances
//   - RelaxedMatchConfig(): wide tolerances for exploratory runs
type MatchConfig struct {
	// MatchDates requires transaction dates to agree (within tolerance)
	MatchDates bool `json:"match_dates"`

	// MatchReferences requires extracted reference codes to agree
	MatchReferences bool `json:"match_references"`

	// MatchAmounts requires amounts to agree (within tolerance)
	MatchAmounts bool `json:"match_amounts"`

	// DateToleranceDays is the allowed day difference for date matching
	DateToleranceDays int `json:"date_tolerance_days"`

	// AmountTolerance is the absolute amount difference allowed
	AmountTolerance decimal.Decimal `json:"amount_tolerance"`

	// AmountTolerancePercent is a percentage tolerance (0.0 to 100.0)
	// applied relative to the larger of the two amounts. The effective
	// tolerance is the greater of the absolute and percentage values.
	AmountTolerancePercent float64 `json:"amount_tolerance_percent"`

	// EnableFuzzyMatching enables the payee-similarity tier
	EnableFuzzyMatching bool `json:"enable_fuzzy_matching"`

	// FuzzyThreshold is the minimum payee similarity (0-100) for a
	// fuzzy match and for a row to enter split candidate selection
	FuzzyThreshold int `json:"fuzzy_threshold"`

	// EnableSplitMatching enables the split-settlement tier
	EnableSplitMatching bool `json:"enable_split_matching"`

	// MaxSplitComponents caps how many rows a split may combine
	MaxSplitComponents int `json:"max_split_components"`

	// MaxSplitEvaluations caps the subset-sum search per anchor; when
	// the cap is hit the best combination found so far is reported as
	// truncated
	MaxSplitEvaluations int `json:"max_split_evaluations"`

	// MaxWorkers bounds the scoring goroutines; zero means GOMAXPROCS
	MaxWorkers int `json:"max_workers"`
}

// DefaultMatchConfig returns a configuration with sensible defaults
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		MatchDates:             true,
		MatchReferences:        true,
		MatchAmounts:           true,
		DateToleranceDays:      1,
		AmountTolerance:        decimal.Zero,
		AmountTolerancePercent: 0.0,
		EnableFuzzyMatching:    true,
		FuzzyThreshold:         85,
		EnableSplitMatching:    true,
		MaxSplitComponents:     4,
		MaxSplitEvaluations:    200000,
		MaxWorkers:             0,
	}
}

// StrictMatchConfig returns a configuration for exact-only matching
func StrictMatchConfig() *MatchConfig {
	return &MatchConfig{
		MatchDates:             true,
		MatchReferences:        true,
		MatchAmounts:           true,
		DateToleranceDays:      0,
		AmountTolerance:        decimal.Zero,
		AmountTolerancePercent: 0.0,
		EnableFuzzyMatching:    false,
		FuzzyThreshold:         95,
		EnableSplitMatching:    false,
		MaxSplitComponents:     2,
		MaxSplitEvaluations:    50000,
		MaxWorkers:             0,
	}
}

// RelaxedMatchConfig returns a configuration for exploratory matching
func RelaxedMatchConfig() *MatchConfig {
	return &MatchConfig{
		MatchDates:             true,
		MatchReferences:        false,
		MatchAmounts:           true,
		DateToleranceDays:      3,
		AmountTolerance:        decimal.NewFromFloat(0.05),
		AmountTolerancePercent: 1.0,
		EnableFuzzyMatching:    true,
		FuzzyThreshold:         70,
		EnableSplitMatching:    true,
		MaxSplitComponents:     4,
		MaxSplitEvaluations:    200000,
		MaxWorkers:             0,
	}
}

// Validate checks if the matching configuration is valid
func (mc *MatchConfig) Validate() error {
	if !mc.MatchDates && !mc.MatchReferences && !mc.MatchAmounts {
		return fmt.Errorf("at least one of dates, references or amounts must be enabled for matching")
	}

	if mc.DateToleranceDays < 0 {
		return fmt.Errorf("date tolerance days cannot be negative: %d", mc.DateToleranceDays)
	}

	if mc.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative: %s", mc.AmountTolerance)
	}

	if mc.AmountTolerancePercent < 0.0 || mc.AmountTolerancePercent > 100.0 {
		return fmt.Errorf("amount tolerance percent must be between 0.0 and 100.0: %f", mc.AmountTolerancePercent)
	}

	if mc.FuzzyThreshold < 0 || mc.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy threshold must be between 0 and 100: %d", mc.FuzzyThreshold)
	}

	if mc.EnableSplitMatching {
		if mc.MaxSplitComponents < 2 {
			return fmt.Errorf("max split components must be at least 2: %d", mc.MaxSplitComponents)
		}
		if mc.MaxSplitEvaluations <= 0 {
			return fmt.Errorf("max split evaluations must be positive: %d", mc.MaxSplitEvaluations)
		}
	}

	if mc.MaxWorkers < 0 {
		return fmt.Errorf("max workers cannot be negative: %d", mc.MaxWorkers)
	}

	return nil
}

// Clone creates a deep copy of the matching configuration
func (mc *MatchConfig) Clone() *MatchConfig {
	if mc == nil {
		return nil
	}

	clone := *mc
	return &clone
}

// AmountToleranceFor calculates the effective tolerance for comparing
// against the given amount. The percentage tolerance is taken of the
// amount's absolute value and the larger of the two tolerances wins.
func (mc *MatchConfig) AmountToleranceFor(amount decimal.Decimal) decimal.Decimal {
	tolerance := mc.AmountTolerance

	if mc.AmountTolerancePercent > 0.0 {
		percentage := decimal.NewFromFloat(mc.AmountTolerancePercent / 100.0)
		relative := amount.Abs().Mul(percentage)
		if relative.GreaterThan(tolerance) {
			tolerance = relative
		}
	}

	return tolerance
}

// AmountsAgree reports whether two amounts match within the configured
// tolerance.
func (mc *MatchConfig) AmountsAgree(a, b decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	return diff.LessThanOrEqual(mc.AmountToleranceFor(a))
}

// String returns a human-readable description of the configuration
func (mc *MatchConfig) String() string {
	return fmt.Sprintf("MatchConfig{Dates: %t, References: %t, Amounts: %t, DateTolerance: %d days, AmountTolerance: %s (%.2f%%), FuzzyThreshold: %d}",
		mc.MatchDates, mc.MatchReferences, mc.MatchAmounts, mc.DateToleranceDays, mc.AmountTolerance, mc.AmountTolerancePercent, mc.FuzzyThreshold)
}
