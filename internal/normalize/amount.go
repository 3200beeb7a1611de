// Package normalize converts heterogeneous textual amount representations
// into decimal values.
//
// Exported spreadsheets and bank statements write the same amount many ways:
// "R 1,234.56", "$1 234.56", "(123.45)" for accounting negatives, "123.45-"
// for trailing-minus negatives, and occasionally multiple dots from OCR or
// copy-paste damage. Amount reduces all of them to a decimal.Decimal.
//
// Failure is never an error: an unparseable cell normalizes to zero with a
// logged warning, so one bad row cannot abort a reconciliation run.
package normalize

import (
	"strings"

	"github.com/Mutombwa/bard-reco-sub003/pkg/logger"

	"github.com/shopspring/decimal"
)

// currencySymbols are stripped before any digit handling. The rand symbol
// appears both as "R" and "ZAR" in statement exports.
var currencySymbols = []string{"ZAR", "R", "$", "€", "£", "¥"}

// thousandSeparators are removed wherever they appear.
var thousandSeparators = []string{",", " ", "'", " "}

// Amount normalizes a raw amount cell to a decimal value.
//
// Algorithm: strip currency symbols, remove thousand separators, detect the
// accounting-negative form "(123.45)" and the trailing-minus form "123.45-",
// drop every remaining character that is not a digit, dot or leading minus,
// and treat the last dot as the decimal point when more than one survives.
// An empty or unparseable result yields zero. The function is idempotent:
// normalizing an already-normalized value returns it unchanged.
func Amount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	negative := false

	// Accounting negative: (123.45)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	for _, sep := range thousandSeparators {
		s = strings.ReplaceAll(s, sep, "")
	}
	s = strings.TrimSpace(s)

	// Trailing minus: 123.45-
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimPrefix(s, "-")
	}

	// Drop whatever is left that cannot be part of a number.
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	s = b.String()

	// Multiple dots: the last one is the decimal point, the rest are stray.
	if strings.Count(s, ".") > 1 {
		last := strings.LastIndex(s, ".")
		intPart := strings.ReplaceAll(s[:last], ".", "")
		s = intPart + s[last:]
	}

	if s == "" || s == "." {
		logger.WithComponent("normalize").WithField("raw", raw).Warn("amount cell has no digits, defaulting to zero")
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		logger.WithComponent("normalize").WithFields(logger.Fields{
			"raw":     raw,
			"cleaned": s,
		}).Warn("unparseable amount cell, defaulting to zero")
		return decimal.Zero
	}

	if negative {
		d = d.Neg()
	}
	return d
}
