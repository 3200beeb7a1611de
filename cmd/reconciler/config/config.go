// Package config translates CLI flag values into component configurations.
package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Mutombwa/bard-reco-sub003/internal/matcher"
	"github.com/Mutombwa/bard-reco-sub003/internal/parsers"
	"github.com/Mutombwa/bard-reco-sub003/internal/reconciler"
	"github.com/Mutombwa/bard-reco-sub003/internal/reporter"
)

// MatchOptions carries the matching flags set on the command line.
type MatchOptions struct {
	DateTolerance          int
	AmountTolerance        float64
	AmountTolerancePercent float64
	FuzzyThreshold         int
	EnableFuzzy            bool
	EnableSplit            bool
	MaxSplitComponents     int
}

// CreateLedgerParserConfig creates the ledger parser configuration
func CreateLedgerParserConfig() *parsers.LedgerParserConfig {
	return parsers.DefaultLedgerParserConfig()
}

// CreateStatementParserConfig resolves a statement parser configuration from
// a bank preset name. An empty name auto-detects the layout from the
// statement file's header row, falling back to the standard layout when
// the file cannot be read here; the parser itself reports file problems.
func CreateStatementParserConfig(bankName, statementPath string) (*parsers.StatementParserConfig, error) {
	if bankName == "" {
		if headers := statementHeaders(statementPath); headers != nil {
			return parsers.AutoDetectStatementConfig(headers), nil
		}
		return parsers.DefaultStatementParserConfig(), nil
	}

	config := parsers.GetStatementConfig(bankName)
	if config == nil {
		return nil, fmt.Errorf("unknown bank preset %q. Available presets: %s",
			bankName, strings.Join(listBankNames(), ", "))
	}
	return config, nil
}

// statementHeaders reads the header row of a statement CSV, or nil when
// the file cannot be read.
func statementHeaders(path string) []string {
	if path == "" {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	headers, err := reader.Read()
	if err != nil {
		return nil
	}
	return headers
}

// CreateMatchConfig creates a matching configuration with the CLI overrides
// applied on top of the defaults.
func CreateMatchConfig(opts MatchOptions) *matcher.MatchConfig {
	config := matcher.DefaultMatchConfig()

	config.DateToleranceDays = opts.DateTolerance
	config.AmountTolerance = decimal.NewFromFloat(opts.AmountTolerance)
	config.AmountTolerancePercent = opts.AmountTolerancePercent
	config.FuzzyThreshold = opts.FuzzyThreshold
	config.EnableFuzzyMatching = opts.EnableFuzzy
	config.EnableSplitMatching = opts.EnableSplit
	if opts.MaxSplitComponents > 0 {
		config.MaxSplitComponents = opts.MaxSplitComponents
	}

	return config
}

// CreateServiceConfig assembles the full reconciliation service configuration
func CreateServiceConfig(bankName, statementPath string, opts MatchOptions) (*reconciler.Config, error) {
	statementConfig, err := CreateStatementParserConfig(bankName, statementPath)
	if err != nil {
		return nil, err
	}

	return &reconciler.Config{
		LedgerConfig:    CreateLedgerParserConfig(),
		StatementConfig: statementConfig,
		MatchConfig:     CreateMatchConfig(opts),
	}, nil
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
		// CSV is row data only.
		config.IncludeParseStats = false
	}

	return config
}

func listBankNames() []string {
	configs := parsers.ListStatementConfigs()
	names := make([]string, len(configs))
	for i, c := range configs {
		names[i] = strings.ToLower(c.BankName)
	}
	return names
}
