package parsers

import (
	"fmt"
	"strings"
)

// Built-in header aliases. Export files from different banks and cashbook
// tools name the same columns differently; these are tried, in order,
// after the configured column name.
var (
	dateAliases        = []string{"Date", "Transaction Date", "Post Date", "Value Date", "date", "TXN DATE"}
	amountAliases      = []string{"Amount", "Value", "Transaction Amount", "amount", "AMOUNT"}
	debitAliases       = []string{"Debit", "Debits", "DR", "debit"}
	creditAliases      = []string{"Credit", "Credits", "CR", "credit"}
	descriptionAliases = []string{"Description", "Narration", "Details", "Comment", "Reference", "Payment Ref", "description"}
)

// LedgerParserConfig holds column mapping for cashbook/ledger exports.
// Either AmountColumn or the Debit/Credit pair must resolve: with separate
// debit and credit columns the row amount is credit minus debit.
type LedgerParserConfig struct {
	DateColumn        string            `json:"date_column"`
	AmountColumn      string            `json:"amount_column"`
	DebitColumn       string            `json:"debit_column"`
	CreditColumn      string            `json:"credit_column"`
	DescriptionColumn string            `json:"description_column"`
	// ReferenceColumn is optional. When set and the cell carries a valid
	// structured code, it takes precedence over codes found in the
	// description.
	ReferenceColumn string            `json:"reference_column,omitempty"`
	HasHeader       bool              `json:"has_header"`
	Delimiter       rune              `json:"delimiter"`
	ColumnAliases   map[string]string `json:"column_aliases,omitempty"`
}

// DefaultLedgerParserConfig returns a configuration with standard defaults
func DefaultLedgerParserConfig() *LedgerParserConfig {
	return &LedgerParserConfig{
		DateColumn:        "Date",
		AmountColumn:      "Amount",
		DebitColumn:       "Debit",
		CreditColumn:      "Credit",
		DescriptionColumn: "Description",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases:     make(map[string]string),
	}
}

// Validate checks if the ledger parser configuration is valid
func (lpc *LedgerParserConfig) Validate() error {
	if strings.TrimSpace(lpc.DateColumn) == "" {
		return fmt.Errorf("date column cannot be empty")
	}
	if strings.TrimSpace(lpc.AmountColumn) == "" &&
		(strings.TrimSpace(lpc.DebitColumn) == "" || strings.TrimSpace(lpc.CreditColumn) == "") {
		return fmt.Errorf("either an amount column or both debit and credit columns must be configured")
	}
	if strings.TrimSpace(lpc.DescriptionColumn) == "" {
		return fmt.Errorf("description column cannot be empty")
	}
	return nil
}

// GetColumnName returns the configured column name, checking aliases first
func (lpc *LedgerParserConfig) GetColumnName(standardName string) string {
	if alias, exists := lpc.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "date":
		return lpc.DateColumn
	case "amount":
		return lpc.AmountColumn
	case "debit":
		return lpc.DebitColumn
	case "credit":
		return lpc.CreditColumn
	case "description":
		return lpc.DescriptionColumn
	case "reference":
		return lpc.ReferenceColumn
	default:
		return standardName
	}
}

// StatementParserConfig holds column mapping for bank statement exports.
type StatementParserConfig struct {
	BankName          string            `json:"bank_name,omitempty"`
	DateColumn        string            `json:"date_column"`
	AmountColumn      string            `json:"amount_column"`
	DescriptionColumn string            `json:"description_column"`
	HasHeader         bool              `json:"has_header"`
	Delimiter         rune              `json:"delimiter"`
	ColumnAliases     map[string]string `json:"column_aliases,omitempty"`
}

// DefaultStatementParserConfig returns a configuration with standard defaults
func DefaultStatementParserConfig() *StatementParserConfig {
	return &StatementParserConfig{
		BankName:          "Standard",
		DateColumn:        "Date",
		AmountColumn:      "Amount",
		DescriptionColumn: "Description",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases:     make(map[string]string),
	}
}

// Validate checks if the statement parser configuration is valid
func (spc *StatementParserConfig) Validate() error {
	if strings.TrimSpace(spc.DateColumn) == "" {
		return fmt.Errorf("date column cannot be empty")
	}
	if strings.TrimSpace(spc.AmountColumn) == "" {
		return fmt.Errorf("amount column cannot be empty")
	}
	if strings.TrimSpace(spc.DescriptionColumn) == "" {
		return fmt.Errorf("description column cannot be empty")
	}
	return nil
}

// GetColumnName returns the configured column name, checking aliases first
func (spc *StatementParserConfig) GetColumnName(standardName string) string {
	if alias, exists := spc.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "date":
		return spc.DateColumn
	case "amount":
		return spc.AmountColumn
	case "description":
		return spc.DescriptionColumn
	default:
		return standardName
	}
}

// Predefined statement configurations for common bank export formats
var (
	// StandardStatementConfig covers the generic Date/Amount/Description layout
	StandardStatementConfig = &StatementParserConfig{
		BankName:          "Standard",
		DateColumn:        "Date",
		AmountColumn:      "Amount",
		DescriptionColumn: "Description",
		HasHeader:         true,
		Delimiter:         ',',
	}

	// FNBStatementConfig covers FNB online banking exports
	FNBStatementConfig = &StatementParserConfig{
		BankName:          "FNB",
		DateColumn:        "Date",
		AmountColumn:      "Amount",
		DescriptionColumn: "Description",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases: map[string]string{
			"description": "Description",
			"reference":   "Reference",
		},
	}

	// CapitecStatementConfig covers Capitec transaction history exports
	CapitecStatementConfig = &StatementParserConfig{
		BankName:          "Capitec",
		DateColumn:        "Transaction Date",
		AmountColumn:      "Money In",
		DescriptionColumn: "Description",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases: map[string]string{
			"amount": "Amount",
		},
	}

	// NedbankStatementConfig covers Nedbank statement downloads
	NedbankStatementConfig = &StatementParserConfig{
		BankName:          "Nedbank",
		DateColumn:        "Date",
		AmountColumn:      "Amount",
		DescriptionColumn: "Narration",
		HasHeader:         true,
		Delimiter:         ',',
	}

	// AbsaStatementConfig covers ABSA statement downloads
	AbsaStatementConfig = &StatementParserConfig{
		BankName:          "ABSA",
		DateColumn:        "Date",
		AmountColumn:      "Amount",
		DescriptionColumn: "Description",
		HasHeader:         true,
		Delimiter:         ',',
	}
)

// GetStatementConfig returns a predefined statement configuration by bank name
func GetStatementConfig(name string) *StatementParserConfig {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "standard":
		return StandardStatementConfig
	case "fnb":
		return FNBStatementConfig
	case "capitec":
		return CapitecStatementConfig
	case "nedbank":
		return NedbankStatementConfig
	case "absa":
		return AbsaStatementConfig
	default:
		return nil
	}
}

// ListStatementConfigs returns all predefined statement configurations
func ListStatementConfigs() []*StatementParserConfig {
	return []*StatementParserConfig{
		StandardStatementConfig,
		FNBStatementConfig,
		CapitecStatementConfig,
		NedbankStatementConfig,
		AbsaStatementConfig,
	}
}
