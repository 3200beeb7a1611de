package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies which dataset a transaction record came from.
type Side string

const (
	// SideLedger marks records from the internal ledger.
	SideLedger Side = "LEDGER"
	// SideStatement marks records from the bank statement.
	SideStatement Side = "STATEMENT"
)

// String returns the string representation of Side
func (s Side) String() string {
	return string(s)
}

// IsValid checks if the side is valid
func (s Side) IsValid() bool {
	return s == SideLedger || s == SideStatement
}

// Opposite returns the other side
func (s Side) Opposite() Side {
	if s == SideLedger {
		return SideStatement
	}
	return SideLedger
}

// ReferencePrefix is the typed prefix of a structured reference code.
type ReferencePrefix string

const (
	PrefixRJ  ReferencePrefix = "RJ"
	PrefixTX  ReferencePrefix = "TX"
	PrefixCSH ReferencePrefix = "CSH"
	PrefixZVC ReferencePrefix = "ZVC"
	PrefixECO ReferencePrefix = "ECO"
	PrefixINN ReferencePrefix = "INN"
)

// ReferenceCode is a typed transaction identifier extracted from free text.
// It is derived data, regenerated from the raw description on every run.
type ReferenceCode struct {
	Prefix ReferencePrefix `json:"prefix"`
	Digits string          `json:"digits"`
	Raw    string          `json:"raw"`
}

// String returns the normalized form of the reference code
func (rc *ReferenceCode) String() string {
	if rc == nil {
		return ""
	}
	return string(rc.Prefix) + rc.Digits
}

// Equal compares two reference codes by prefix and digits
func (rc *ReferenceCode) Equal(other *ReferenceCode) bool {
	if rc == nil || other == nil {
		return rc == other
	}
	return rc.Prefix == other.Prefix && rc.Digits == other.Digits
}

// TransactionRecord is one row from either source dataset. Records are
// immutable once extraction has run; the matching engine only reads them
// and tracks claims externally.
type TransactionRecord struct {
	Date           time.Time       `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	RawDescription string          `json:"raw_description"`
	Reference      *ReferenceCode  `json:"reference,omitempty"`
	Payee          string          `json:"payee,omitempty"`
	Side           Side            `json:"side"`
	SourceIndex    int             `json:"source_index"`

	// DateValid is false when the source date could not be parsed. Such a
	// record is excluded from date-gated tiers but still ends up classified.
	DateValid bool `json:"date_valid"`
}

// NewTransactionRecord creates a record for the given side and source row.
func NewTransactionRecord(side Side, sourceIndex int, date time.Time, amount decimal.Decimal, description string) *TransactionRecord {
	return &TransactionRecord{
		Date:           date,
		Amount:         amount,
		RawDescription: description,
		Side:           side,
		SourceIndex:    sourceIndex,
		DateValid:      !date.IsZero(),
	}
}

// Validate performs basic validation on the record
func (tr *TransactionRecord) Validate() error {
	if !tr.Side.IsValid() {
		return fmt.Errorf("invalid record side: %s", tr.Side)
	}
	if tr.SourceIndex < 0 {
		return fmt.Errorf("source index cannot be negative: %d", tr.SourceIndex)
	}
	return nil
}

// MatchKey returns the most selective comparable reference string for the
// record: the structured code when present, the payee otherwise.
func (tr *TransactionRecord) MatchKey() string {
	if tr.Reference != nil {
		return tr.Reference.String()
	}
	return tr.Payee
}

// DateKey returns the calendar-date bucket key (empty for invalid dates)
func (tr *TransactionRecord) DateKey() string {
	if !tr.DateValid {
		return ""
	}
	return tr.Date.Format("2006-01-02")
}

// AbsAmount returns the absolute value of the record amount
func (tr *TransactionRecord) AbsAmount() decimal.Decimal {
	return tr.Amount.Abs()
}

// String returns a string representation of the record
func (tr *TransactionRecord) String() string {
	return fmt.Sprintf("TransactionRecord{Side: %s, Row: %d, Date: %s, Amount: %s, Ref: %s}",
		tr.Side, tr.SourceIndex, tr.DateKey(), tr.Amount.String(), tr.MatchKey())
}

// ParseTimeWithFormats attempts to parse time from string using multiple
// formats commonly seen in exported ledgers and bank statements.
func ParseTimeWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	formats := []string{
		time.RFC3339,          // "2006-01-02T15:04:05Z07:00"
		"2006-01-02 15:04:05", // "2006-01-02 15:04:05"
		"2006-01-02T15:04:05", // "2006-01-02T15:04:05"
		"2006-01-02",          // "2006-01-02"
		"02/01/2006",          // "02/01/2006"
		"2006/01/02",          // "2006/01/02"
		"02-01-2006",          // "02-01-2006"
		"02 Jan 2006",         // "02 Jan 2006"
		"Jan 2, 2006",         // "Jan 2, 2006"
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time '%s': %w", s, lastErr)
}

// CompareAmountsWithTolerance compares two decimal amounts with a tolerance
func CompareAmountsWithTolerance(a, b, tolerance decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	return diff.LessThanOrEqual(tolerance)
}

// CompareDatesWithTolerance compares two dates within a day tolerance
func CompareDatesWithTolerance(a, b time.Time, toleranceDays int) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}

	maxDiff := time.Duration(toleranceDays) * 24 * time.Hour
	return diff <= maxDiff
}
