// Package parsers reads ledger and bank statement CSV files into
// transaction records.
//
// Real-world export files are messy: header names vary by bank, amounts
// carry currency symbols and separators, and dates come in half a dozen
// formats. The parsers here are deliberately forgiving — a row with an
// unparseable date or amount is kept with safe defaults (invalid date
// flag, zero amount) rather than dropped, so the matching engine can still
// classify it. Only structural problems (missing file, missing required
// columns, broken encoding) fail a parse outright.
//
// Parser Types:
//   - LedgerParser: for internal cashbook/ledger exports
//   - StatementParser: for bank statement exports
//
// Example usage:
//
//	parser, err := NewLedgerParser(DefaultLedgerParserConfig())
//	records, stats, err := parser.ParseLedger(ctx, "ledger.csv")
package parsers

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/Mutombwa/bard-reco-sub003/pkg/errors"
	"github.com/Mutombwa/bard-reco-sub003/pkg/logger"
)

// ParseError represents an error that occurred during CSV parsing
type ParseError struct {
	Line    int
	Column  int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d, column %d (%s='%s'): %s: %v",
			e.Line, e.Column, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at line %d, column %d (%s='%s'): %s",
		e.Line, e.Column, e.Field, e.Value, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseConfig holds low-level CSV reading options shared by both parsers
type ParseConfig struct {
	HasHeader        bool
	Delimiter        rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	ValidateEncoding bool
}

// DefaultParseConfig returns a configuration with sensible defaults
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader:        true,
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		ValidateEncoding: true,
	}
}

// baseParser provides the CSV plumbing shared by LedgerParser and
// StatementParser.
type baseParser struct {
	config *ParseConfig
	logger logger.Logger
}

func newBaseParser(config *ParseConfig, component string) *baseParser {
	if config == nil {
		config = DefaultParseConfig()
	}

	return &baseParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent(component),
	}
}

// ParseContext holds state during one parsing operation
type ParseContext struct {
	LineNumber  int
	Headers     []string
	HeaderMap   map[string]int
	RecordCount int
	ctx         context.Context
}

// NewParseContext creates a new parsing context
func NewParseContext(ctx context.Context) *ParseContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ParseContext{
		HeaderMap: make(map[string]int),
		ctx:       ctx,
	}
}

// IsCancelled checks if the parsing context has been cancelled
func (pc *ParseContext) IsCancelled() bool {
	select {
	case <-pc.ctx.Done():
		return true
	default:
		return false
	}
}

// ResolveColumn returns the index of the first header matching any of the
// given names, case-insensitively, or -1 when none is present. The first
// name is the configured column; the rest are accepted aliases.
func (pc *ParseContext) ResolveColumn(names ...string) int {
	for _, name := range names {
		if name == "" {
			continue
		}
		if index, exists := pc.HeaderMap[name]; exists {
			return index
		}
		lower := strings.ToLower(name)
		for header, index := range pc.HeaderMap {
			if strings.ToLower(header) == lower {
				return index
			}
		}
	}
	return -1
}

// openFile opens a CSV file and returns a configured csv.Reader
func (bp *baseParser) openFile(filePath string) (*os.File, *csv.Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open CSV file")

		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, nil, errors.FileError(errors.CodeDirectoryError, filePath, err)
	}

	if bp.config.ValidateEncoding {
		if err := bp.validateEncoding(file, filePath); err != nil {
			file.Close()
			return nil, nil, err
		}
		if _, err := file.Seek(0, 0); err != nil {
			file.Close()
			return nil, nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
		}
	}

	reader := csv.NewReader(file)
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1

	return file, reader, nil
}

// validateEncoding checks the first lines of the file for valid UTF-8
func (bp *baseParser) validateEncoding(file *os.File, filePath string) error {
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() && lineNum < 100 {
		lineNum++
		if !utf8.Valid(scanner.Bytes()) {
			return errors.ParseError(
				errors.CodeEncodingError,
				filePath,
				lineNum,
				"encoding",
				"",
				fmt.Errorf("invalid UTF-8 encoding detected"),
			).WithSuggestion("Save the file in UTF-8 encoding and try again")
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}

	return nil
}

// readHeaders reads the header row into the parse context
func (bp *baseParser) readHeaders(reader *csv.Reader, parseCtx *ParseContext, filePath string) error {
	if !bp.config.HasHeader {
		return nil
	}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return errors.ValidationError(
				errors.CodeMissingField,
				"file_content",
				"empty",
				nil,
			).WithSuggestion("Ensure the file contains header and data rows")
		}
		return errors.ParseError(
			errors.CodeInvalidFormat,
			filePath,
			1,
			"headers",
			"",
			err,
		).WithSuggestion("Check the file format and ensure it's a valid CSV")
	}

	parseCtx.LineNumber++
	parseCtx.Headers = make([]string, len(headers))
	for i, header := range headers {
		parseCtx.Headers[i] = strings.TrimSpace(header)
	}

	parseCtx.HeaderMap = make(map[string]int, len(parseCtx.Headers))
	for i, header := range parseCtx.Headers {
		parseCtx.HeaderMap[header] = i
	}

	return nil
}

// readRecord reads the next non-empty CSV record
func (bp *baseParser) readRecord(reader *csv.Reader, parseCtx *ParseContext) ([]string, error) {
	for {
		record, err := reader.Read()
		if err != nil {
			return nil, err
		}

		parseCtx.LineNumber++

		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}

		return record, nil
	}
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// fieldAt returns the trimmed value at the given column index, or an
// empty string when the index is absent or out of range for this row.
func fieldAt(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

// ParseStats holds statistics about a parsing operation
type ParseStats struct {
	TotalLines     int
	RecordsParsed  int
	InvalidDates   int
	InvalidAmounts int
	Errors         []*ParseError
}

// NewParseStats creates a new ParseStats instance
func NewParseStats() *ParseStats {
	return &ParseStats{
		Errors: make([]*ParseError, 0),
	}
}

// AddError adds an error to the parsing statistics
func (ps *ParseStats) AddError(err *ParseError) {
	ps.Errors = append(ps.Errors, err)
}

// HasErrors returns true if there were any parsing errors
func (ps *ParseStats) HasErrors() bool {
	return len(ps.Errors) > 0
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records (%d invalid dates, %d invalid amounts), %d errors",
		ps.TotalLines, ps.RecordsParsed, ps.InvalidDates, ps.InvalidAmounts, len(ps.Errors))
}

// SampleErrors returns up to maxSamples error strings for logging
func (ps *ParseStats) SampleErrors(maxSamples int) []string {
	if len(ps.Errors) == 0 {
		return nil
	}

	limit := len(ps.Errors)
	if maxSamples > 0 && maxSamples < limit {
		limit = maxSamples
	}

	samples := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		samples = append(samples, ps.Errors[i].Error())
	}
	return samples
}
