package matcher

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mutombwa/bard-reco-sub003/internal/models"
)

// MatchTier identifies which tier of the engine produced a match.
type MatchTier int

const (
	// TierExact is a match on all enabled fields within tolerances.
	TierExact MatchTier = iota

	// TierFuzzy is a match accepted on payee name similarity.
	TierFuzzy

	// TierSplit is one record settled by multiple rows on the other side.
	TierSplit
)

// String returns the string representation of MatchTier
func (mt MatchTier) String() string {
	switch mt {
	case TierExact:
		return "Exact"
	case TierFuzzy:
		return "Fuzzy"
	case TierSplit:
		return "Split"
	default:
		return "Unknown"
	}
}

// Match pairs one ledger entry with one statement row. Score is the payee
// similarity (0-100) for fuzzy matches and 100 for exact matches.
// AmountDifference is the absolute difference between the two amounts.
type Match struct {
	Ledger           *models.TransactionRecord `json:"ledger"`
	Statement        *models.TransactionRecord `json:"statement"`
	Tier             MatchTier                 `json:"tier"`
	Score            int                       `json:"score"`
	AmountDifference decimal.Decimal           `json:"amount_difference"`
}

// String returns a human-readable description of the match
func (m *Match) String() string {
	return fmt.Sprintf("Match{%s, score=%d, ledger=#%d, statement=#%d, diff=%s}",
		m.Tier, m.Score, m.Ledger.SourceIndex, m.Statement.SourceIndex, m.AmountDifference)
}

// SplitMatch records one anchor settled by two or more component rows from
// the opposite side. TotalDifference is the absolute gap between the anchor
// amount and the component sum. Truncated reports that the combination
// search hit its evaluation cap before completing, so a better combination
// may exist.
type SplitMatch struct {
	Anchor          *models.TransactionRecord   `json:"anchor"`
	AnchorSide      models.Side                 `json:"anchor_side"`
	Components      []*models.TransactionRecord `json:"components"`
	ComponentTotal  decimal.Decimal             `json:"component_total"`
	TotalDifference decimal.Decimal             `json:"total_difference"`
	Truncated       bool                        `json:"truncated"`
}

// String returns a human-readable description of the split match
func (sm *SplitMatch) String() string {
	return fmt.Sprintf("SplitMatch{anchor=#%d (%s), components=%d, diff=%s, truncated=%t}",
		sm.Anchor.SourceIndex, sm.AnchorSide, len(sm.Components), sm.TotalDifference, sm.Truncated)
}

// ReconciliationResult is the full outcome of one engine run. Every input
// record appears exactly once: in Matches, in a SplitMatch (as anchor or
// component), or in one of the unmatched slices.
type ReconciliationResult struct {
	Matches            []*Match                    `json:"matches"`
	SplitMatches       []*SplitMatch               `json:"split_matches"`
	UnmatchedLedger    []*models.TransactionRecord `json:"unmatched_ledger"`
	UnmatchedStatement []*models.TransactionRecord `json:"unmatched_statement"`
	Summary            *ReconciliationSummary      `json:"summary"`
}

// ReconciliationSummary holds aggregate counts and timings for a run.
type ReconciliationSummary struct {
	TotalLedger        int           `json:"total_ledger"`
	TotalStatement     int           `json:"total_statement"`
	ExactMatches       int           `json:"exact_matches"`
	FuzzyMatches       int           `json:"fuzzy_matches"`
	SplitMatches       int           `json:"split_matches"`
	UnmatchedLedger    int           `json:"unmatched_ledger"`
	UnmatchedStatement int           `json:"unmatched_statement"`
	MatchRate          float64       `json:"match_rate"`
	ProcessingTime     time.Duration `json:"processing_time"`
	StartTime          time.Time     `json:"start_time"`
	EndTime            time.Time     `json:"end_time"`
}

// NewReconciliationResult creates an empty result
func NewReconciliationResult() *ReconciliationResult {
	return &ReconciliationResult{
		Matches:            make([]*Match, 0),
		SplitMatches:       make([]*SplitMatch, 0),
		UnmatchedLedger:    make([]*models.TransactionRecord, 0),
		UnmatchedStatement: make([]*models.TransactionRecord, 0),
		Summary:            &ReconciliationSummary{},
	}
}

// finalize fills in the summary from the collected matches.
func (rr *ReconciliationResult) finalize(totalLedger, totalStatement int, start, end time.Time) {
	s := rr.Summary
	s.TotalLedger = totalLedger
	s.TotalStatement = totalStatement

	for _, m := range rr.Matches {
		switch m.Tier {
		case TierExact:
			s.ExactMatches++
		case TierFuzzy:
			s.FuzzyMatches++
		}
	}
	s.SplitMatches = len(rr.SplitMatches)
	s.UnmatchedLedger = len(rr.UnmatchedLedger)
	s.UnmatchedStatement = len(rr.UnmatchedStatement)

	if totalLedger > 0 {
		matched := totalLedger - s.UnmatchedLedger
		s.MatchRate = float64(matched) / float64(totalLedger) * 100.0
	}

	s.StartTime = start
	s.EndTime = end
	s.ProcessingTime = end.Sub(start)
}
