package matcher

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMatchConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*MatchConfig)
		wantErr bool
	}{
		{
			name:    "default config is valid",
			modify:  func(mc *MatchConfig) {},
			wantErr: false,
		},
		{
			name:    "strict config is valid",
			modify:  func(mc *MatchConfig) { *mc = *StrictMatchConfig() },
			wantErr: false,
		},
		{
			name:    "relaxed config is valid",
			modify:  func(mc *MatchConfig) { *mc = *RelaxedMatchConfig() },
			wantErr: false,
		},
		{
			name: "all match fields disabled",
			modify: func(mc *MatchConfig) {
				mc.MatchDates = false
				mc.MatchReferences = false
				mc.MatchAmounts = false
			},
			wantErr: true,
		},
		{
			name:    "negative date tolerance",
			modify:  func(mc *MatchConfig) { mc.DateToleranceDays = -1 },
			wantErr: true,
		},
		{
			name:    "negative amount tolerance",
			modify:  func(mc *MatchConfig) { mc.AmountTolerance = decimal.NewFromFloat(-0.01) },
			wantErr: true,
		},
		{
			name:    "tolerance percent above 100",
			modify:  func(mc *MatchConfig) { mc.AmountTolerancePercent = 150.0 },
			wantErr: true,
		},
		{
			name:    "fuzzy threshold above 100",
			modify:  func(mc *MatchConfig) { mc.FuzzyThreshold = 101 },
			wantErr: true,
		},
		{
			name:    "split components below two",
			modify:  func(mc *MatchConfig) { mc.MaxSplitComponents = 1 },
			wantErr: true,
		},
		{
			name:    "zero split evaluations",
			modify:  func(mc *MatchConfig) { mc.MaxSplitEvaluations = 0 },
			wantErr: true,
		},
		{
			name: "split limits ignored when splits disabled",
			modify: func(mc *MatchConfig) {
				mc.EnableSplitMatching = false
				mc.MaxSplitComponents = 0
			},
			wantErr: false,
		},
		{
			name:    "negative workers",
			modify:  func(mc *MatchConfig) { mc.MaxWorkers = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultMatchConfig()
			tt.modify(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMatchConfigClone(t *testing.T) {
	original := DefaultMatchConfig()
	clone := original.Clone()

	clone.FuzzyThreshold = 50
	clone.MatchDates = false

	if original.FuzzyThreshold != 85 {
		t.Errorf("modifying clone changed original FuzzyThreshold: %d", original.FuzzyThreshold)
	}
	if !original.MatchDates {
		t.Error("modifying clone changed original MatchDates")
	}

	var nilConfig *MatchConfig
	if nilConfig.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestAmountToleranceFor(t *testing.T) {
	config := DefaultMatchConfig()
	config.AmountTolerance = decimal.NewFromFloat(0.05)
	config.AmountTolerancePercent = 1.0

	// 1% of 1000 = 10, larger than the absolute tolerance
	got := config.AmountToleranceFor(decimal.NewFromInt(1000))
	if !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("AmountToleranceFor(1000) = %s, want 10", got)
	}

	// 1% of 1 = 0.01, smaller than the absolute tolerance
	got = config.AmountToleranceFor(decimal.NewFromInt(1))
	if !got.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("AmountToleranceFor(1) = %s, want 0.05", got)
	}
}

func TestAmountsAgree(t *testing.T) {
	config := DefaultMatchConfig()
	config.AmountTolerance = decimal.NewFromFloat(0.05)

	if !config.AmountsAgree(decimal.NewFromFloat(100.00), decimal.NewFromFloat(100.04)) {
		t.Error("amounts within tolerance should agree")
	}
	if config.AmountsAgree(decimal.NewFromFloat(100.00), decimal.NewFromFloat(100.10)) {
		t.Error("amounts outside tolerance should not agree")
	}
}
