// Package extract parses free-text bank statement and ledger descriptions.
//
// Two things are pulled out of a description: a structured reference code
// (typed prefix plus digits, e.g. CSH891089488) and a human-readable payee.
// Statement text is free-form and inconsistently formatted across
// institutions, so payee extraction is an ordered cascade of small pattern
// rules with a verbatim and a heuristic fallback. Each rule is a pure
// function over the description, independently testable; the first rule
// that produces a candidate wins.
//
// Extraction never fails: when no rule produces a confident payee the
// sentinel "UNKNOWN" is returned, so downstream matching always has a
// comparable string to work with.
package extract

import (
	"regexp"
	"strings"

	"github.com/Mutombwa/bard-reco-sub003/internal/models"
)

// PayeeUnknown is returned when no rule extracts a confident payee.
const PayeeUnknown = "UNKNOWN"

// shortDescriptionLimit is the length under which an unmatched description
// is returned verbatim as the payee.
const shortDescriptionLimit = 30

// referencePattern matches a typed prefix immediately followed by digits.
// Minimum digit counts are enforced per prefix after the scan: RJ and TX
// accept 6 or more, CSH/ZVC/ECO/INN require 9 or more.
var referencePattern = regexp.MustCompile(`(?i)\b(RJ|TX|CSH|ZVC|ECO|INN)[ -]?(\d+)`)

// minDigitsFor returns the minimum digit-run length accepted for a prefix.
func minDigitsFor(prefix models.ReferencePrefix) int {
	switch prefix {
	case models.PrefixRJ, models.PrefixTX:
		return 6
	default:
		return 9
	}
}

// Extract parses a description and returns the structured reference code
// (nil when absent) and the payee (never empty; PayeeUnknown as fallback).
func Extract(description string) (*models.ReferenceCode, string) {
	ref := ExtractReference(description)
	payee := ExtractPayee(description)
	return ref, payee
}

// ExtractReference scans the description left to right and returns the
// first structured code meeting its prefix's minimum digit length. The
// prefix is uppercased and any separator between prefix and digits is
// stripped in the normalized form; Raw keeps the original substring.
func ExtractReference(description string) *models.ReferenceCode {
	matches := referencePattern.FindAllStringSubmatchIndex(description, -1)
	for _, m := range matches {
		raw := description[m[0]:m[1]]
		prefix := models.ReferencePrefix(strings.ToUpper(description[m[2]:m[3]]))
		digits := description[m[4]:m[5]]

		if len(digits) < minDigitsFor(prefix) {
			continue
		}

		return &models.ReferenceCode{
			Prefix: prefix,
			Digits: digits,
			Raw:    raw,
		}
	}
	return nil
}

// ExtractPayee runs the payee rule cascade over the description. Rules are
// tried in order; the first one that yields a candidate wins. The result is
// never empty.
func ExtractPayee(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return PayeeUnknown
	}

	for _, rule := range payeeRules {
		if payee, ok := rule.fn(description); ok {
			return payee
		}
	}

	return PayeeUnknown
}
