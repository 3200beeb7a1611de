package parsers

import (
	"context"
	"io"
	"strings"

	"github.com/Mutombwa/bard-reco-sub003/internal/extract"
	"github.com/Mutombwa/bard-reco-sub003/internal/models"
	"github.com/Mutombwa/bard-reco-sub003/internal/normalize"
	"github.com/Mutombwa/bard-reco-sub003/pkg/errors"
	"github.com/Mutombwa/bard-reco-sub003/pkg/logger"
)

// StatementParser reads bank statement CSV exports into transaction
// records. Reference codes and payees are extracted from the description
// column during parsing so the matching engine never touches raw text.
type StatementParser struct {
	*baseParser
	config *StatementParserConfig
	logger logger.Logger
}

// NewStatementParser creates a new StatementParser with the given configuration
func NewStatementParser(config *StatementParserConfig) (*StatementParser, error) {
	if config == nil {
		config = DefaultStatementParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"statement_parser_config",
			config,
			err,
		).WithSuggestion("Check the statement parser column configuration")
	}

	parseConfig := DefaultParseConfig()
	parseConfig.HasHeader = config.HasHeader
	if config.Delimiter != 0 {
		parseConfig.Delimiter = config.Delimiter
	}

	return &StatementParser{
		baseParser: newBaseParser(parseConfig, "statement_parser"),
		config:     config,
		logger:     logger.GetGlobalLogger().WithComponent("statement_parser"),
	}, nil
}

// ParseStatement parses a bank statement CSV file with the same defensive
// row handling as the ledger parser.
func (sp *StatementParser) ParseStatement(ctx context.Context, filePath string) ([]*models.TransactionRecord, *ParseStats, error) {
	sp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"bank":      sp.config.BankName,
	}).Info("Starting statement parsing")

	file, reader, err := sp.openFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	if err := sp.readHeaders(reader, parseCtx, filePath); err != nil {
		return nil, stats, err
	}

	columns, err := sp.resolveColumns(parseCtx, filePath)
	if err != nil {
		return nil, stats, err
	}

	var records []*models.TransactionRecord

	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "parse_statement",
		Logger:    sp.logger,
	})

	for {
		if parseCtx.IsCancelled() {
			tracker.CompleteWithError(ctx.Err())
			return records, stats, ctx.Err()
		}

		record, err := sp.readRecord(reader, parseCtx)
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

		tr := sp.recordFromRow(record, columns, len(records), stats)
		records = append(records, tr)
		stats.RecordsParsed++
		tracker.Increment()
	}

	tracker.Complete()
	stats.TotalLines = parseCtx.LineNumber

	sp.logger.WithFields(logger.Fields{
		"file_path":       filePath,
		"total_lines":     stats.TotalLines,
		"records_parsed":  stats.RecordsParsed,
		"invalid_dates":   stats.InvalidDates,
		"invalid_amounts": stats.InvalidAmounts,
	}).Info("Statement parsing completed")

	if stats.HasErrors() {
		sp.logger.WithField("sample_errors", stats.SampleErrors(3)).Warn("Encountered errors during statement parsing")
	}

	return records, stats, nil
}

// statementColumns holds resolved column indexes for one file
type statementColumns struct {
	date        int
	amount      int
	description int
}

func (sp *StatementParser) resolveColumns(parseCtx *ParseContext, filePath string) (*statementColumns, error) {
	if !sp.config.HasHeader {
		// Positional layout: date, amount, description
		return &statementColumns{date: 0, amount: 1, description: 2}, nil
	}

	columns := &statementColumns{
		date:        parseCtx.ResolveColumn(append([]string{sp.config.GetColumnName("date")}, dateAliases...)...),
		amount:      parseCtx.ResolveColumn(append([]string{sp.config.GetColumnName("amount")}, amountAliases...)...),
		description: parseCtx.ResolveColumn(append([]string{sp.config.GetColumnName("description")}, descriptionAliases...)...),
	}

	if columns.date == -1 {
		return nil, missingColumnError(filePath, sp.config.GetColumnName("date"), parseCtx.Headers)
	}
	if columns.amount == -1 {
		return nil, missingColumnError(filePath, sp.config.GetColumnName("amount"), parseCtx.Headers)
	}
	if columns.description == -1 {
		return nil, missingColumnError(filePath, sp.config.GetColumnName("description"), parseCtx.Headers)
	}

	return columns, nil
}

func (sp *StatementParser) recordFromRow(row []string, columns *statementColumns, sourceIndex int, stats *ParseStats) *models.TransactionRecord {
	dateStr := fieldAt(row, columns.date)
	date, err := models.ParseTimeWithFormats(dateStr)
	if err != nil {
		stats.InvalidDates++
		sp.logger.WithFields(logger.Fields{
			"source_index": sourceIndex,
			"value":        dateStr,
		}).Warn("Unparseable statement date, record excluded from date matching")
	}

	rawAmount := fieldAt(row, columns.amount)
	amount := normalize.Amount(rawAmount)
	if rawAmount != "" && amount.IsZero() && !strings.ContainsAny(rawAmount, "0123456789") {
		stats.InvalidAmounts++
	}

	description := fieldAt(row, columns.description)

	tr := models.NewTransactionRecord(models.SideStatement, sourceIndex, date, amount, description)
	tr.Reference, tr.Payee = extract.Extract(description)
	return tr
}

// AutoDetectStatementConfig picks the predefined statement configuration
// whose configured columns all appear in the given headers, falling back
// to the standard layout.
func AutoDetectStatementConfig(headers []string) *StatementParserConfig {
	headerSet := make(map[string]bool, len(headers))
	for _, header := range headers {
		headerSet[strings.ToLower(strings.TrimSpace(header))] = true
	}

	for _, config := range ListStatementConfigs() {
		if config == StandardStatementConfig {
			continue
		}
		if headerSet[strings.ToLower(config.DateColumn)] &&
			headerSet[strings.ToLower(config.AmountColumn)] &&
			headerSet[strings.ToLower(config.DescriptionColumn)] {
			return config
		}
	}

	return StandardStatementConfig
}
