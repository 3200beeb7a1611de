package matcher

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Mutombwa/bard-reco-sub003/internal/extract"
	"github.com/Mutombwa/bard-reco-sub003/internal/models"
)

// findSplit attempts to settle the anchor with a combination of unclaimed
// opposite-side records from its date window. Every candidate must pass
// the similarity threshold against the anchor on its own before the
// combination search runs; a dissimilar row never enters a split just
// because its amount makes a sum work out. A split needs at least two
// components, so a pool of fewer than two gated candidates aborts early.
func (e *Engine) findSplit(ctx context.Context, anchor *models.TransactionRecord, anchorSide models.Side, oppositeIndex *Index, claimedOpposite map[*models.TransactionRecord]bool) *SplitMatch {
	anchorKey := anchor.MatchKey()
	if anchorKey == "" || anchorKey == extract.PayeeUnknown {
		return nil
	}

	var pool []*models.TransactionRecord
	if e.config.MatchDates {
		pool = oppositeIndex.CandidatesByDate(anchor)
	} else {
		pool = oppositeIndex.All()
	}

	// Per-candidate threshold gate, applied before any combination search.
	var gated []*models.TransactionRecord
	for _, candidate := range pool {
		if claimedOpposite[candidate] {
			continue
		}
		candidateKey := candidate.MatchKey()
		if candidateKey == "" || candidateKey == extract.PayeeUnknown {
			continue
		}
		if Similarity(anchorKey, candidateKey) < e.config.FuzzyThreshold {
			continue
		}
		gated = append(gated, candidate)
	}

	if len(gated) < 2 {
		return nil
	}

	// Deterministic search order regardless of bucket iteration order.
	sort.Slice(gated, func(i, j int) bool {
		return gated[i].SourceIndex < gated[j].SourceIndex
	})

	target := anchor.AbsAmount()
	tolerance := e.config.AmountToleranceFor(target)

	search := &splitSearch{
		ctx:       ctx,
		pool:      gated,
		target:    target,
		tolerance: tolerance,
		maxEvals:  e.config.MaxSplitEvaluations,
	}

	// Smallest combinations first: a split found with fewer rows wins
	// outright over any larger one.
	maxSize := e.config.MaxSplitComponents
	if maxSize > len(gated) {
		maxSize = len(gated)
	}
	for size := 2; size <= maxSize; size++ {
		search.best = nil
		search.combine(nil, decimal.Zero, 0, size)
		if search.best != nil {
			break
		}
		if search.exhausted() {
			break
		}
	}

	if search.best == nil {
		return nil
	}

	total := decimal.Zero
	for _, component := range search.best {
		total = total.Add(component.AbsAmount())
	}

	return &SplitMatch{
		Anchor:          anchor,
		AnchorSide:      anchorSide,
		Components:      search.best,
		ComponentTotal:  total,
		TotalDifference: target.Sub(total).Abs(),
		Truncated:       search.truncated,
	}
}

// splitSearch is the state of one bounded subset-sum search. evaluations
// counts candidate inclusions; hitting maxEvals stops the search and marks
// whatever was found so far as truncated.
type splitSearch struct {
	ctx       context.Context
	pool      []*models.TransactionRecord
	target    decimal.Decimal
	tolerance decimal.Decimal

	best      []*models.TransactionRecord
	bestDiff  decimal.Decimal
	maxEvals  int
	evals     int
	truncated bool
}

func (ss *splitSearch) exhausted() bool {
	return ss.truncated || ss.ctx.Err() != nil
}

// combine recursively builds combinations of exactly size records starting
// at index start, keeping the within-tolerance combination with the
// smallest absolute difference from the target.
func (ss *splitSearch) combine(current []*models.TransactionRecord, sum decimal.Decimal, start, size int) {
	if ss.exhausted() {
		return
	}

	if len(current) == size {
		diff := ss.target.Sub(sum).Abs()
		if diff.GreaterThan(ss.tolerance) {
			return
		}
		if ss.best == nil || diff.LessThan(ss.bestDiff) {
			ss.best = append([]*models.TransactionRecord(nil), current...)
			ss.bestDiff = diff
		}
		return
	}

	for i := start; i < len(ss.pool); i++ {
		ss.evals++
		if ss.evals > ss.maxEvals {
			ss.truncated = true
			return
		}
		if ss.evals%1024 == 0 && ss.ctx.Err() != nil {
			return
		}

		candidate := ss.pool[i]
		newSum := sum.Add(candidate.AbsAmount())

		// Amounts are absolute, so once the sum overshoots the target
		// plus tolerance, adding more rows cannot bring it back.
		if newSum.Sub(ss.target).GreaterThan(ss.tolerance) && len(current)+1 < size {
			continue
		}

		ss.combine(append(current, candidate), newSum, i+1, size)
		if ss.exhausted() {
			return
		}
	}
}
