package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Mutombwa/bard-reco-sub003/internal/reporter"
)

func TestCreateStatementParserConfig(t *testing.T) {
	tests := []struct {
		name        string
		bankName    string
		wantBank    string
		expectError bool
	}{
		{"empty name without file uses standard layout", "", "Standard", false},
		{"capitec preset", "capitec", "Capitec", false},
		{"case insensitive", "NEDBANK", "Nedbank", false},
		{"unknown preset", "monopoly-bank", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateStatementParserConfig(tt.bankName, "")

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error for unknown preset")
				}
				if !strings.Contains(err.Error(), "unknown bank preset") {
					t.Errorf("unexpected error message: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.BankName != tt.wantBank {
				t.Errorf("expected bank %q, got %q", tt.wantBank, config.BankName)
			}
		})
	}
}

func TestCreateStatementParserConfigAutoDetect(t *testing.T) {
	dir := t.TempDir()

	capitec := filepath.Join(dir, "capitec.csv")
	if err := os.WriteFile(capitec, []byte("Transaction Date,Money In,Description\n10/03/2025,500.00,Payment\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	generic := filepath.Join(dir, "generic.csv")
	if err := os.WriteFile(generic, []byte("Date,Amount,Description\n2025-03-10,500.00,Payment\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		wantBank string
	}{
		{"capitec headers detected", capitec, "Capitec"},
		{"generic headers fall back to standard", generic, "Standard"},
		{"unreadable file falls back to standard", filepath.Join(dir, "missing.csv"), "Standard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateStatementParserConfig("", tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.BankName != tt.wantBank {
				t.Errorf("expected bank %q, got %q", tt.wantBank, config.BankName)
			}
		})
	}
}

func TestCreateMatchConfig(t *testing.T) {
	opts := MatchOptions{
		DateTolerance:          2,
		AmountTolerance:        0.05,
		AmountTolerancePercent: 1.5,
		FuzzyThreshold:         92,
		EnableFuzzy:            true,
		EnableSplit:            false,
		MaxSplitComponents:     3,
	}

	config := CreateMatchConfig(opts)

	if config.DateToleranceDays != 2 {
		t.Errorf("expected date tolerance 2, got %d", config.DateToleranceDays)
	}
	if !config.AmountTolerance.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("expected amount tolerance 0.05, got %s", config.AmountTolerance)
	}
	if config.AmountTolerancePercent != 1.5 {
		t.Errorf("expected percent tolerance 1.5, got %f", config.AmountTolerancePercent)
	}
	if config.FuzzyThreshold != 92 {
		t.Errorf("expected fuzzy threshold 92, got %d", config.FuzzyThreshold)
	}
	if config.EnableSplitMatching {
		t.Error("expected split matching disabled")
	}
	if config.MaxSplitComponents != 3 {
		t.Errorf("expected max split components 3, got %d", config.MaxSplitComponents)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("config should validate: %v", err)
	}
}

func TestCreateMatchConfigKeepsSplitDefault(t *testing.T) {
	opts := MatchOptions{
		DateTolerance:  1,
		FuzzyThreshold: 85,
		EnableFuzzy:    true,
		EnableSplit:    true,
	}

	config := CreateMatchConfig(opts)
	if config.MaxSplitComponents <= 0 {
		t.Errorf("zero flag value should keep the default cap, got %d", config.MaxSplitComponents)
	}
}

func TestCreateServiceConfig(t *testing.T) {
	opts := MatchOptions{DateTolerance: 1, FuzzyThreshold: 85, EnableFuzzy: true, EnableSplit: true}

	config, err := CreateServiceConfig("fnb", "", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.StatementConfig.BankName != "FNB" {
		t.Errorf("expected FNB statement config, got %q", config.StatementConfig.BankName)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("service config should validate: %v", err)
	}

	if _, err := CreateServiceConfig("bogus", "", opts); err == nil {
		t.Error("expected error for unknown bank preset")
	}
}

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		format string
		want   reporter.OutputFormat
	}{
		{"console", reporter.FormatConsole},
		{"json", reporter.FormatJSON},
		{"csv", reporter.FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			config := CreateReportConfig(tt.format)
			if config.Format != tt.want {
				t.Errorf("expected format %s, got %s", tt.want, config.Format)
			}
			if err := config.Validate(); err != nil {
				t.Errorf("report config should validate: %v", err)
			}
		})
	}

	if CreateReportConfig("csv").IncludeParseStats {
		t.Error("CSV report should not include parse statistics")
	}
}
