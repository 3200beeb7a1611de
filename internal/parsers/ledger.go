package parsers

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Mutombwa/bard-reco-sub003/internal/extract"
	"github.com/Mutombwa/bard-reco-sub003/internal/models"
	"github.com/Mutombwa/bard-reco-sub003/internal/normalize"
	"github.com/Mutombwa/bard-reco-sub003/pkg/errors"
	"github.com/Mutombwa/bard-reco-sub003/pkg/logger"
)

// LedgerParser reads cashbook/ledger CSV exports into transaction records.
type LedgerParser struct {
	*baseParser
	config *LedgerParserConfig
	logger logger.Logger
}

// NewLedgerParser creates a new LedgerParser with the given configuration
func NewLedgerParser(config *LedgerParserConfig) (*LedgerParser, error) {
	if config == nil {
		config = DefaultLedgerParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"ledger_parser_config",
			config,
			err,
		).WithSuggestion("Check the ledger parser column configuration")
	}

	parseConfig := DefaultParseConfig()
	parseConfig.HasHeader = config.HasHeader
	if config.Delimiter != 0 {
		parseConfig.Delimiter = config.Delimiter
	}

	return &LedgerParser{
		baseParser: newBaseParser(parseConfig, "ledger_parser"),
		config:     config,
		logger:     logger.GetGlobalLogger().WithComponent("ledger_parser"),
	}, nil
}

// ParseLedger parses a ledger CSV file. Rows with unparseable dates or
// amounts are kept with safe defaults rather than dropped; only missing
// files, missing required columns and broken encoding fail the parse.
func (lp *LedgerParser) ParseLedger(ctx context.Context, filePath string) ([]*models.TransactionRecord, *ParseStats, error) {
	lp.logger.WithField("file_path", filePath).Info("Starting ledger parsing")

	file, reader, err := lp.openFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	if err := lp.readHeaders(reader, parseCtx, filePath); err != nil {
		return nil, stats, err
	}

	columns, err := lp.resolveColumns(parseCtx, filePath)
	if err != nil {
		return nil, stats, err
	}

	var records []*models.TransactionRecord

	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "parse_ledger",
		Logger:    lp.logger,
	})

	for {
		if parseCtx.IsCancelled() {
			tracker.CompleteWithError(ctx.Err())
			return records, stats, ctx.Err()
		}

		record, err := lp.readRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "failed to read CSV record",
				Err:     err,
			})
			continue
		}

		tr := lp.recordFromRow(record, columns, len(records), stats)
		records = append(records, tr)
		stats.RecordsParsed++
		tracker.Increment()
	}

	tracker.Complete()
	stats.TotalLines = parseCtx.LineNumber

	lp.logger.WithFields(logger.Fields{
		"file_path":       filePath,
		"total_lines":     stats.TotalLines,
		"records_parsed":  stats.RecordsParsed,
		"invalid_dates":   stats.InvalidDates,
		"invalid_amounts": stats.InvalidAmounts,
	}).Info("Ledger parsing completed")

	if stats.HasErrors() {
		lp.logger.WithField("sample_errors", stats.SampleErrors(3)).Warn("Encountered errors during ledger parsing")
	}

	return records, stats, nil
}

// ledgerColumns holds resolved column indexes for one file
type ledgerColumns struct {
	date        int
	amount      int
	debit       int
	credit      int
	description int
	reference   int
}

func (lp *LedgerParser) resolveColumns(parseCtx *ParseContext, filePath string) (*ledgerColumns, error) {
	if !lp.config.HasHeader {
		// Positional layout: date, amount, description
		return &ledgerColumns{date: 0, amount: 1, debit: -1, credit: -1, description: 2, reference: -1}, nil
	}

	columns := &ledgerColumns{
		date:        parseCtx.ResolveColumn(append([]string{lp.config.GetColumnName("date")}, dateAliases...)...),
		amount:      parseCtx.ResolveColumn(append([]string{lp.config.GetColumnName("amount")}, amountAliases...)...),
		debit:       parseCtx.ResolveColumn(append([]string{lp.config.GetColumnName("debit")}, debitAliases...)...),
		credit:      parseCtx.ResolveColumn(append([]string{lp.config.GetColumnName("credit")}, creditAliases...)...),
		description: parseCtx.ResolveColumn(append([]string{lp.config.GetColumnName("description")}, descriptionAliases...)...),
		reference:   -1,
	}

	if lp.config.ReferenceColumn != "" {
		columns.reference = parseCtx.ResolveColumn(lp.config.GetColumnName("reference"))
		if columns.reference == -1 {
			return nil, missingColumnError(filePath, lp.config.GetColumnName("reference"), parseCtx.Headers)
		}
	}

	if columns.date == -1 {
		return nil, missingColumnError(filePath, lp.config.GetColumnName("date"), parseCtx.Headers)
	}
	if columns.amount == -1 && (columns.debit == -1 || columns.credit == -1) {
		return nil, missingColumnError(filePath, lp.config.GetColumnName("amount"), parseCtx.Headers)
	}
	if columns.description == -1 {
		return nil, missingColumnError(filePath, lp.config.GetColumnName("description"), parseCtx.Headers)
	}

	return columns, nil
}

// recordFromRow builds a transaction record defensively: a bad date leaves
// the record flagged invalid, a bad amount normalizes to zero.
func (lp *LedgerParser) recordFromRow(row []string, columns *ledgerColumns, sourceIndex int, stats *ParseStats) *models.TransactionRecord {
	dateStr := fieldAt(row, columns.date)
	date, err := models.ParseTimeWithFormats(dateStr)
	if err != nil {
		stats.InvalidDates++
		lp.logger.WithFields(logger.Fields{
			"source_index": sourceIndex,
			"value":        dateStr,
		}).Warn("Unparseable ledger date, record excluded from date matching")
	}

	amount := lp.rowAmount(row, columns)
	if raw := fieldAt(row, columns.amount); raw != "" && amount.IsZero() && !strings.ContainsAny(raw, "0123456789") {
		stats.InvalidAmounts++
	}

	description := fieldAt(row, columns.description)

	tr := models.NewTransactionRecord(models.SideLedger, sourceIndex, date, amount, description)
	tr.Reference, tr.Payee = extract.Extract(description)

	// A dedicated reference column, when configured and parseable, wins
	// over anything found in the description.
	if columns.reference != -1 {
		if ref := extract.ExtractReference(fieldAt(row, columns.reference)); ref != nil {
			tr.Reference = ref
		}
	}

	return tr
}

// rowAmount reads the amount from the single amount column, falling back
// to credit minus debit when separate columns are configured.
func (lp *LedgerParser) rowAmount(row []string, columns *ledgerColumns) decimal.Decimal {
	if columns.amount != -1 {
		if raw := fieldAt(row, columns.amount); raw != "" {
			return normalize.Amount(raw)
		}
	}

	if columns.debit != -1 && columns.credit != -1 {
		debit := normalize.Amount(fieldAt(row, columns.debit))
		credit := normalize.Amount(fieldAt(row, columns.credit))
		return credit.Sub(debit)
	}

	return decimal.Zero
}

func missingColumnError(filePath, column string, headers []string) error {
	return errors.ParseError(
		errors.CodeMissingColumn,
		filePath,
		1,
		column,
		"",
		nil,
	).WithSuggestion(fmt.Sprintf("Available headers: %v", headers))
}
