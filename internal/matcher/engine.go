package matcher

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Mutombwa/bard-reco-sub003/internal/extract"
	"github.com/Mutombwa/bard-reco-sub003/internal/models"
	"github.com/Mutombwa/bard-reco-sub003/pkg/logger"
)

// Engine runs the tiered matching algorithm. An Engine is stateless across
// runs; all per-run state (indexes and claim sets) is scoped to a single
// Reconcile call, so one Engine may serve many runs.
type Engine struct {
	config *MatchConfig
	logger logger.Logger
}

// NewEngine creates a matching engine with the given configuration. The
// configuration is validated up front because a config matching on nothing
// would classify every record as unmatched.
func NewEngine(config *MatchConfig) (*Engine, error) {
	if config == nil {
		config = DefaultMatchConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}

	return &Engine{
		config: config.Clone(),
		logger: logger.WithComponent("matcher"),
	}, nil
}

// Config returns a copy of the engine's configuration
func (e *Engine) Config() *MatchConfig {
	return e.config.Clone()
}

// fuzzyProposal holds the ranked viable candidates for one ledger record,
// produced by a scoring worker. Proposals are committed after all scoring
// finishes so worker scheduling cannot influence the outcome.
type fuzzyProposal struct {
	ledgerPos  int
	candidates []*Match
}

// Reconcile matches the ledger records against the statement records and
// returns the full classification. Inputs are treated as read-only. On
// context cancellation the tiers committed so far remain valid: the
// partial result is returned together with the context's error, with all
// still-unclaimed records reported as unmatched.
func (e *Engine) Reconcile(ctx context.Context, ledger, statement []*models.TransactionRecord) (*ReconciliationResult, error) {
	start := time.Now()

	result := NewReconciliationResult()
	claimedLedger := make(map[*models.TransactionRecord]bool)
	claimedStatement := make(map[*models.TransactionRecord]bool)

	statementIndex := NewIndex(e.config, statement)
	ledgerIndex := NewIndex(e.config, ledger)

	e.logger.WithFields(logger.Fields{
		"ledger_records":    len(ledger),
		"statement_records": len(statement),
	}).Info("Starting reconciliation run")

	tierStart := time.Now()
	runErr := e.runExactTier(ctx, ledger, statementIndex, claimedLedger, claimedStatement, result)
	e.logTier("exact", len(result.Matches), tierStart)

	if runErr == nil {
		exactCount := len(result.Matches)
		tierStart = time.Now()
		runErr = e.runFuzzyTier(ctx, ledger, statementIndex, claimedLedger, claimedStatement, result)
		e.logTier("fuzzy", len(result.Matches)-exactCount, tierStart)
	}

	if runErr == nil && e.config.EnableSplitMatching {
		tierStart = time.Now()
		runErr = e.runSplitTier(ctx, ledger, statementIndex, claimedLedger, claimedStatement, models.SideLedger, result)
		if runErr == nil {
			runErr = e.runSplitTier(ctx, statement, ledgerIndex, claimedStatement, claimedLedger, models.SideStatement, result)
		}
		e.logTier("split", len(result.SplitMatches), tierStart)
	}

	for _, record := range ledger {
		if !claimedLedger[record] {
			result.UnmatchedLedger = append(result.UnmatchedLedger, record)
		}
	}
	for _, record := range statement {
		if !claimedStatement[record] {
			result.UnmatchedStatement = append(result.UnmatchedStatement, record)
		}
	}

	result.finalize(len(ledger), len(statement), start, time.Now())

	e.logger.WithFields(logger.Fields{
		"exact_matches":       result.Summary.ExactMatches,
		"fuzzy_matches":       result.Summary.FuzzyMatches,
		"split_matches":       result.Summary.SplitMatches,
		"unmatched_ledger":    result.Summary.UnmatchedLedger,
		"unmatched_statement": result.Summary.UnmatchedStatement,
		"match_rate":          fmt.Sprintf("%.1f%%", result.Summary.MatchRate),
		"duration":            result.Summary.ProcessingTime.String(),
	}).Info("Reconciliation run complete")

	return result, runErr
}

// logTier records how many pairings a tier produced and how long it took.
func (e *Engine) logTier(tier string, matches int, start time.Time) {
	e.logger.WithFields(logger.Fields{
		"tier":     tier,
		"matches":  matches,
		"duration": time.Since(start).String(),
	}).Debug("Matching tier complete")
}

// runExactTier pairs records that agree on every enabled field. Records
// are processed in input order and claims are made immediately, which is
// deterministic because this tier is sequential.
func (e *Engine) runExactTier(ctx context.Context, ledger []*models.TransactionRecord, statementIndex *Index, claimedLedger, claimedStatement map[*models.TransactionRecord]bool, result *ReconciliationResult) error {
	for _, record := range ledger {
		if err := ctx.Err(); err != nil {
			return err
		}
		if claimedLedger[record] {
			continue
		}

		best := e.bestExactCandidate(record, statementIndex, claimedStatement)
		if best == nil {
			continue
		}

		claimedLedger[record] = true
		claimedStatement[best] = true
		result.Matches = append(result.Matches, &Match{
			Ledger:           record,
			Statement:        best,
			Tier:             TierExact,
			Score:            100,
			AmountDifference: record.AbsAmount().Sub(best.AbsAmount()).Abs(),
		})
	}

	return nil
}

// bestExactCandidate returns the unclaimed statement record that agrees
// with the ledger record on all enabled fields, preferring the smallest
// amount difference and then the earliest row position.
func (e *Engine) bestExactCandidate(record *models.TransactionRecord, statementIndex *Index, claimedStatement map[*models.TransactionRecord]bool) *models.TransactionRecord {
	var best *models.TransactionRecord

	for _, candidate := range statementIndex.Candidates(record) {
		if claimedStatement[candidate] {
			continue
		}
		if !e.exactAgree(record, candidate) {
			continue
		}
		if best == nil || candidate.SourceIndex < best.SourceIndex {
			best = candidate
		}
	}

	return best
}

// exactAgree reports whether the enabled fields match exactly. Records
// without a valid date cannot match exactly while date matching is
// enabled; missing reference codes fall back to payee equality through
// MatchKey.
func (e *Engine) exactAgree(a, b *models.TransactionRecord) bool {
	if e.config.MatchDates {
		if !a.DateValid || !b.DateValid {
			return false
		}
		if a.DateKey() != b.DateKey() {
			return false
		}
	}

	if e.config.MatchReferences {
		keyA, keyB := a.MatchKey(), b.MatchKey()
		if keyA == "" || keyB == "" || keyA == extract.PayeeUnknown || keyB == extract.PayeeUnknown {
			return false
		}
		if keyA != keyB {
			return false
		}
	}

	if e.config.MatchAmounts {
		if !a.AbsAmount().Equal(b.AbsAmount()) {
			return false
		}
	}

	return true
}

// runFuzzyTier matches remaining records by payee similarity. Scoring runs
// in parallel across ledger records, then the proposals are committed in a
// single deterministic pass ordered by row position.
func (e *Engine) runFuzzyTier(ctx context.Context, ledger []*models.TransactionRecord, statementIndex *Index, claimedLedger, claimedStatement map[*models.TransactionRecord]bool, result *ReconciliationResult) error {
	if !e.config.EnableFuzzyMatching {
		return nil
	}

	var remaining []*models.TransactionRecord
	for _, record := range ledger {
		if !claimedLedger[record] {
			remaining = append(remaining, record)
		}
	}
	if len(remaining) == 0 {
		return nil
	}

	workers := e.config.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(remaining) {
		workers = len(remaining)
	}

	proposals := make([]*fuzzyProposal, len(remaining))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				proposals[i] = e.scoreFuzzyCandidates(remaining[i], statementIndex, claimedStatement)
			}
		}()
	}

	for i := range remaining {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	// Single commit pass in row order: each record takes its best-ranked
	// candidate that an earlier record has not already claimed.
	for i, record := range remaining {
		proposal := proposals[i]
		if proposal == nil {
			continue
		}
		for _, match := range proposal.candidates {
			if claimedStatement[match.Statement] {
				continue
			}
			claimedLedger[record] = true
			claimedStatement[match.Statement] = true
			result.Matches = append(result.Matches, match)
			break
		}
	}

	return nil
}

// scoreFuzzyCandidates ranks the viable statement candidates for one
// ledger record. Candidates claimed before this tier started are skipped;
// claims made during the commit pass are resolved there. Viability means
// similarity at or above the threshold and amounts within tolerance.
func (e *Engine) scoreFuzzyCandidates(record *models.TransactionRecord, statementIndex *Index, claimedStatement map[*models.TransactionRecord]bool) *fuzzyProposal {
	key := record.MatchKey()
	if key == "" || key == extract.PayeeUnknown {
		return nil
	}

	var candidates []*models.TransactionRecord
	if e.config.MatchDates {
		candidates = statementIndex.CandidatesByDate(record)
	} else {
		candidates = statementIndex.All()
	}

	var viable []*Match
	for _, candidate := range candidates {
		if claimedStatement[candidate] {
			continue
		}

		candidateKey := candidate.MatchKey()
		if candidateKey == "" || candidateKey == extract.PayeeUnknown {
			continue
		}

		score := Similarity(key, candidateKey)
		if score < e.config.FuzzyThreshold {
			continue
		}
		if e.config.MatchAmounts && !e.config.AmountsAgree(record.AbsAmount(), candidate.AbsAmount()) {
			continue
		}

		viable = append(viable, &Match{
			Ledger:           record,
			Statement:        candidate,
			Tier:             TierFuzzy,
			Score:            score,
			AmountDifference: record.AbsAmount().Sub(candidate.AbsAmount()).Abs(),
		})
	}

	if len(viable) == 0 {
		return nil
	}

	// Highest score first, then smallest amount difference, then earliest
	// row position.
	sort.SliceStable(viable, func(i, j int) bool {
		if viable[i].Score != viable[j].Score {
			return viable[i].Score > viable[j].Score
		}
		cmp := viable[i].AmountDifference.Cmp(viable[j].AmountDifference)
		if cmp != 0 {
			return cmp < 0
		}
		return viable[i].Statement.SourceIndex < viable[j].Statement.SourceIndex
	})

	return &fuzzyProposal{
		ledgerPos:  record.SourceIndex,
		candidates: viable,
	}
}

// runSplitTier finds records on the anchor side settled by several
// opposite-side records. Anchors are processed sequentially in input order
// so claims stay deterministic.
func (e *Engine) runSplitTier(ctx context.Context, anchors []*models.TransactionRecord, oppositeIndex *Index, claimedAnchors, claimedOpposite map[*models.TransactionRecord]bool, anchorSide models.Side, result *ReconciliationResult) error {
	for _, anchor := range anchors {
		if err := ctx.Err(); err != nil {
			return err
		}
		if claimedAnchors[anchor] {
			continue
		}

		split := e.findSplit(ctx, anchor, anchorSide, oppositeIndex, claimedOpposite)
		if split == nil {
			continue
		}

		claimedAnchors[anchor] = true
		for _, component := range split.Components {
			claimedOpposite[component] = true
		}
		result.SplitMatches = append(result.SplitMatches, split)
	}

	return nil
}
