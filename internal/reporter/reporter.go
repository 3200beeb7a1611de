// Package reporter renders reconciliation results for humans and machines.
//
// Three output formats are supported:
//   - Console: human-readable summary and detail sections for the terminal
//   - JSON: the full result structure for programmatic consumption
//   - CSV: one row per classified record for spreadsheet review
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/Mutombwa/bard-reco-sub003/internal/matcher"
	"github.com/Mutombwa/bard-reco-sub003/internal/models"
	"github.com/Mutombwa/bard-reco-sub003/internal/reconciler"
	"github.com/Mutombwa/bard-reco-sub003/pkg/errors"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeMatches      bool `json:"include_matches"`
	IncludeSplitMatches bool `json:"include_split_matches"`
	IncludeUnmatched    bool `json:"include_unmatched"`
	IncludeParseStats   bool `json:"include_parse_stats"`

	// Console formatting options
	MaxListItems int `json:"max_list_items"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`

	SortByAmount bool `json:"sort_by_amount"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:              FormatConsole,
		IncludeMatches:      true,
		IncludeSplitMatches: true,
		IncludeUnmatched:    true,
		IncludeParseStats:   true,
		MaxListItems:        10,
		CSVDelimiter:        ',',
		CSVHeaders:          true,
		SortByAmount:        false,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxListItems < 1 {
		return fmt.Errorf("max list items must be at least 1, got %d", c.MaxListItems)
	}
	return nil
}

// ReportGenerator renders reconciliation run reports in the configured format.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport renders a run report to the provided writer.
func (rg *ReportGenerator) GenerateReport(report *reconciler.RunReport, writer io.Writer) error {
	if report == nil || report.Result == nil {
		return fmt.Errorf("reconciliation result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(report, writer)
	case FormatJSON:
		return rg.generateJSONReport(report, writer)
	case FormatCSV:
		return rg.generateCSVReport(report.Result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// GenerateReportToFile renders a run report to the named file.
func (rg *ReportGenerator) GenerateReportToFile(report *reconciler.RunReport, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, path, err)
	}
	defer file.Close()

	if err := rg.GenerateReport(report, file); err != nil {
		return err
	}
	return file.Sync()
}

func (rg *ReportGenerator) generateConsoleReport(report *reconciler.RunReport, writer io.Writer) error {
	result := report.Result
	summary := result.Summary

	fmt.Fprintf(writer, "RECONCILIATION REPORT\n")
	if !summary.EndTime.IsZero() {
		fmt.Fprintf(writer, "Generated: %s\n", summary.EndTime.Format(time.RFC3339))
	}
	fmt.Fprintf(writer, "Processing Duration: %v\n\n", summary.ProcessingTime)

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	rg.printSummary(summary, writer)
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeMatches && len(result.Matches) > 0 {
		fmt.Fprintf(writer, "=== MATCHES ===\n")
		rg.printMatches(result.Matches, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeSplitMatches && len(result.SplitMatches) > 0 {
		fmt.Fprintf(writer, "=== SPLIT MATCHES ===\n")
		rg.printSplitMatches(result.SplitMatches, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeUnmatched && len(result.UnmatchedLedger) > 0 {
		fmt.Fprintf(writer, "=== UNMATCHED LEDGER ENTRIES ===\n")
		rg.printRecordList(result.UnmatchedLedger, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeUnmatched && len(result.UnmatchedStatement) > 0 {
		fmt.Fprintf(writer, "=== UNMATCHED STATEMENT ROWS ===\n")
		rg.printRecordList(result.UnmatchedStatement, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeParseStats {
		rg.printParseStats(report, writer)
	}

	return nil
}

func (rg *ReportGenerator) generateJSONReport(report *reconciler.RunReport, writer io.Writer) error {
	output := map[string]interface{}{
		"summary": report.Result.Summary,
	}

	if rg.config.IncludeMatches {
		output["matches"] = report.Result.Matches
	}
	if rg.config.IncludeSplitMatches {
		output["split_matches"] = report.Result.SplitMatches
	}
	if rg.config.IncludeUnmatched {
		output["unmatched_ledger"] = report.Result.UnmatchedLedger
		output["unmatched_statement"] = report.Result.UnmatchedStatement
	}
	if rg.config.IncludeParseStats {
		if report.LedgerStats != nil {
			output["ledger_stats"] = report.LedgerStats
		}
		if report.StatementStats != nil {
			output["statement_stats"] = report.StatementStats
		}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func (rg *ReportGenerator) generateCSVReport(result *matcher.ReconciliationResult, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"Classification",
			"Tier",
			"Ledger_Row",
			"Statement_Row",
			"Date",
			"Amount",
			"Reference",
			"Payee",
			"Score",
			"Amount_Difference",
			"Notes",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	if rg.config.IncludeMatches {
		for _, match := range result.Matches {
			record := []string{
				"Matched",
				match.Tier.String(),
				strconv.Itoa(match.Ledger.SourceIndex),
				strconv.Itoa(match.Statement.SourceIndex),
				match.Ledger.DateKey(),
				match.Ledger.Amount.StringFixed(2),
				referenceString(match.Ledger),
				match.Ledger.Payee,
				strconv.Itoa(match.Score),
				match.AmountDifference.StringFixed(2),
				"",
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write match record: %w", err)
			}
		}
	}

	if rg.config.IncludeSplitMatches {
		for _, split := range result.SplitMatches {
			ledgerRows, statementRows := splitRowColumns(split)
			notes := fmt.Sprintf("%d components", len(split.Components))
			if split.Truncated {
				notes += "; search truncated"
			}
			record := []string{
				"Split",
				matcher.TierSplit.String(),
				ledgerRows,
				statementRows,
				split.Anchor.DateKey(),
				split.Anchor.Amount.StringFixed(2),
				referenceString(split.Anchor),
				split.Anchor.Payee,
				"",
				split.TotalDifference.StringFixed(2),
				notes,
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write split record: %w", err)
			}
		}
	}

	if rg.config.IncludeUnmatched {
		if err := rg.writeUnmatchedRows(csvWriter, result.UnmatchedLedger, "Unmatched Ledger", true); err != nil {
			return err
		}
		if err := rg.writeUnmatchedRows(csvWriter, result.UnmatchedStatement, "Unmatched Statement", false); err != nil {
			return err
		}
	}

	return nil
}

func (rg *ReportGenerator) writeUnmatchedRows(csvWriter *csv.Writer, records []*models.TransactionRecord, classification string, ledgerSide bool) error {
	for _, tr := range records {
		ledgerRow, statementRow := "", strconv.Itoa(tr.SourceIndex)
		if ledgerSide {
			ledgerRow, statementRow = statementRow, ledgerRow
		}
		record := []string{
			classification,
			"",
			ledgerRow,
			statementRow,
			tr.DateKey(),
			tr.Amount.StringFixed(2),
			referenceString(tr),
			tr.Payee,
			"",
			"",
			"No counterpart found",
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write unmatched record: %w", err)
		}
	}
	return nil
}

// Helper methods for console output formatting

func (rg *ReportGenerator) printSummary(summary *matcher.ReconciliationSummary, writer io.Writer) {
	fmt.Fprintf(writer, "Ledger Entries:\n")
	fmt.Fprintf(writer, "  Total:     %d\n", summary.TotalLedger)
	fmt.Fprintf(writer, "  Matched:   %d (%.1f%%)\n",
		summary.TotalLedger-summary.UnmatchedLedger, summary.MatchRate)
	fmt.Fprintf(writer, "  Unmatched: %d\n", summary.UnmatchedLedger)

	fmt.Fprintf(writer, "\nStatement Rows:\n")
	fmt.Fprintf(writer, "  Total:     %d\n", summary.TotalStatement)
	fmt.Fprintf(writer, "  Unmatched: %d\n", summary.UnmatchedStatement)

	fmt.Fprintf(writer, "\nMatch Breakdown:\n")
	fmt.Fprintf(writer, "  Exact Matches: %d\n", summary.ExactMatches)
	fmt.Fprintf(writer, "  Fuzzy Matches: %d\n", summary.FuzzyMatches)
	fmt.Fprintf(writer, "  Split Matches: %d\n", summary.SplitMatches)
}

func (rg *ReportGenerator) printMatches(matches []*matcher.Match, writer io.Writer) {
	fmt.Fprintf(writer, "Total Matches: %d\n\n", len(matches))

	for i, match := range matches {
		fmt.Fprintf(writer, "  %d. [%s] ledger #%d <-> statement #%d, amount %s, score %d\n",
			i+1,
			match.Tier,
			match.Ledger.SourceIndex,
			match.Statement.SourceIndex,
			match.Ledger.Amount.StringFixed(2),
			match.Score)

		if i >= rg.config.MaxListItems-1 && len(matches) > rg.config.MaxListItems {
			fmt.Fprintf(writer, "  ... and %d more\n", len(matches)-rg.config.MaxListItems)
			break
		}
	}
}

func (rg *ReportGenerator) printSplitMatches(splits []*matcher.SplitMatch, writer io.Writer) {
	fmt.Fprintf(writer, "Total Split Matches: %d\n\n", len(splits))

	for i, split := range splits {
		fmt.Fprintf(writer, "  %d. %s #%d (%s) settled by %d rows, difference %s\n",
			i+1,
			split.AnchorSide,
			split.Anchor.SourceIndex,
			split.Anchor.Amount.StringFixed(2),
			len(split.Components),
			split.TotalDifference.StringFixed(2))
		for _, component := range split.Components {
			fmt.Fprintf(writer, "       - #%d %s %s\n",
				component.SourceIndex, component.Amount.StringFixed(2), component.Payee)
		}
		if split.Truncated {
			fmt.Fprintf(writer, "       (combination search truncated; a closer combination may exist)\n")
		}

		if i >= rg.config.MaxListItems-1 && len(splits) > rg.config.MaxListItems {
			fmt.Fprintf(writer, "  ... and %d more\n", len(splits)-rg.config.MaxListItems)
			break
		}
	}
}

func (rg *ReportGenerator) printRecordList(records []*models.TransactionRecord, writer io.Writer) {
	listed := records
	if rg.config.SortByAmount {
		listed = make([]*models.TransactionRecord, len(records))
		copy(listed, records)
		sort.Slice(listed, func(i, j int) bool {
			return listed[i].Amount.Abs().GreaterThan(listed[j].Amount.Abs())
		})
	}

	fmt.Fprintf(writer, "Total: %d\n\n", len(listed))

	for i, tr := range listed {
		fmt.Fprintf(writer, "  %d. Row #%d, Date: %s, Amount: %s, Ref: %s, Payee: %s\n",
			i+1,
			tr.SourceIndex,
			dateOrUnknown(tr),
			tr.Amount.StringFixed(2),
			referenceOrDash(tr),
			tr.Payee)

		if i >= rg.config.MaxListItems-1 && len(listed) > rg.config.MaxListItems {
			fmt.Fprintf(writer, "  ... and %d more\n", len(listed)-rg.config.MaxListItems)
			break
		}
	}
}

func (rg *ReportGenerator) printParseStats(report *reconciler.RunReport, writer io.Writer) {
	if report.LedgerStats == nil && report.StatementStats == nil {
		return
	}

	fmt.Fprintf(writer, "=== PARSE STATISTICS ===\n")
	if report.LedgerStats != nil {
		fmt.Fprintf(writer, "Ledger:    %s\n", report.LedgerStats)
	}
	if report.StatementStats != nil {
		fmt.Fprintf(writer, "Statement: %s\n", report.StatementStats)
	}
}

// Helper functions

func referenceString(tr *models.TransactionRecord) string {
	if tr.Reference == nil {
		return ""
	}
	return tr.Reference.String()
}

func referenceOrDash(tr *models.TransactionRecord) string {
	if ref := referenceString(tr); ref != "" {
		return ref
	}
	return "-"
}

func dateOrUnknown(tr *models.TransactionRecord) string {
	if !tr.DateValid {
		return "invalid"
	}
	return tr.DateKey()
}

// splitRowColumns places the anchor row and the component rows into the
// ledger and statement columns according to which side the anchor came from.
func splitRowColumns(split *matcher.SplitMatch) (ledgerRows, statementRows string) {
	rows := make([]string, len(split.Components))
	for i, component := range split.Components {
		rows[i] = strconv.Itoa(component.SourceIndex)
	}
	joined := ""
	for i, row := range rows {
		if i > 0 {
			joined += "+"
		}
		joined += row
	}

	anchor := strconv.Itoa(split.Anchor.SourceIndex)
	if split.AnchorSide == models.SideLedger {
		return anchor, joined
	}
	return joined, anchor
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
