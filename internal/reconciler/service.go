// Package reconciler coordinates one reconciliation run: parse the ledger
// and statement files, feed both sides through the matching engine, and
// hand back the classified result.
package reconciler

import (
	"context"

	"github.com/Mutombwa/bard-reco-sub003/internal/matcher"
	"github.com/Mutombwa/bard-reco-sub003/internal/models"
	"github.com/Mutombwa/bard-reco-sub003/internal/parsers"
	"github.com/Mutombwa/bard-reco-sub003/pkg/errors"
	"github.com/Mutombwa/bard-reco-sub003/pkg/logger"
)

// Config holds the per-component configurations for a reconciliation run.
type Config struct {
	LedgerConfig    *parsers.LedgerParserConfig    `json:"ledger_config"`
	StatementConfig *parsers.StatementParserConfig `json:"statement_config"`
	MatchConfig     *matcher.MatchConfig           `json:"match_config"`
}

// DefaultConfig returns a configuration with defaults for every component
func DefaultConfig() *Config {
	return &Config{
		LedgerConfig:    parsers.DefaultLedgerParserConfig(),
		StatementConfig: parsers.DefaultStatementParserConfig(),
		MatchConfig:     matcher.DefaultMatchConfig(),
	}
}

// Validate validates all component configurations
func (c *Config) Validate() error {
	if c.LedgerConfig != nil {
		if err := c.LedgerConfig.Validate(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "ledger_config", nil, err)
		}
	}
	if c.StatementConfig != nil {
		if err := c.StatementConfig.Validate(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "statement_config", nil, err)
		}
	}
	if c.MatchConfig != nil {
		if err := c.MatchConfig.Validate(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "match_config", nil, err)
		}
	}
	return nil
}

// RunReport bundles the matching result with the parse statistics of both
// input files.
type RunReport struct {
	Result         *matcher.ReconciliationResult `json:"result"`
	LedgerStats    *parsers.ParseStats           `json:"ledger_stats"`
	StatementStats *parsers.ParseStats           `json:"statement_stats"`
	LedgerFile     string                        `json:"ledger_file"`
	StatementFile  string                        `json:"statement_file"`
}

// Service orchestrates the reconciliation workflow.
type Service struct {
	config          *Config
	ledgerParser    *parsers.LedgerParser
	statementParser *parsers.StatementParser
	engine          *matcher.Engine
	logger          logger.Logger
}

// NewService creates a reconciliation service from the given configuration
func NewService(config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ledgerParser, err := parsers.NewLedgerParser(config.LedgerConfig)
	if err != nil {
		return nil, err
	}

	statementParser, err := parsers.NewStatementParser(config.StatementConfig)
	if err != nil {
		return nil, err
	}

	engine, err := matcher.NewEngine(config.MatchConfig)
	if err != nil {
		return nil, err
	}

	return &Service{
		config:          config,
		ledgerParser:    ledgerParser,
		statementParser: statementParser,
		engine:          engine,
		logger:          logger.WithComponent("reconciler"),
	}, nil
}

// ReconcileFiles runs a full reconciliation over two CSV files.
func (s *Service) ReconcileFiles(ctx context.Context, ledgerPath, statementPath string) (*RunReport, error) {
	op := logger.NewOperationLogger("reconcile_files", s.logger).
		WithField("ledger_file", ledgerPath).
		WithField("statement_file", statementPath)

	op.Step("parse ledger")
	ledger, ledgerStats, err := s.ledgerParser.ParseLedger(ctx, ledgerPath)
	if err != nil {
		op.Error(err, "ledger parsing failed")
		return nil, err
	}

	op.Step("parse statement")
	statement, statementStats, err := s.statementParser.ParseStatement(ctx, statementPath)
	if err != nil {
		op.Error(err, "statement parsing failed")
		return nil, err
	}

	op.Step("match")
	result, err := s.engine.Reconcile(ctx, ledger, statement)
	if err != nil {
		op.Error(err, "matching did not complete")
		// A cancelled run still carries the tiers committed so far.
		if result == nil {
			return nil, err
		}
	}

	report := &RunReport{
		Result:         result,
		LedgerStats:    ledgerStats,
		StatementStats: statementStats,
		LedgerFile:     ledgerPath,
		StatementFile:  statementPath,
	}

	if err == nil {
		op.Success("reconciliation complete")
	}
	return report, err
}

// ReconcileRecords runs the matching engine over records already in
// memory, bypassing the file parsers.
func (s *Service) ReconcileRecords(ctx context.Context, ledger, statement []*models.TransactionRecord) (*matcher.ReconciliationResult, error) {
	return s.engine.Reconcile(ctx, ledger, statement)
}

// Config returns the service configuration
func (s *Service) Config() *Config {
	return s.config
}
