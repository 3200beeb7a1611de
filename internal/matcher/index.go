package matcher

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Mutombwa/bard-reco-sub003/internal/models"
)

// Index provides fast candidate lookups over one side of the
// reconciliation. It buckets records by date, by reference code and by
// absolute amount, and keeps a sorted list of distinct amounts for
// tolerance range scans. An index is built once per run and is read-only
// afterwards, so concurrent lookups need no locking.
type Index struct {
	config *MatchConfig

	byDate      map[string][]*models.TransactionRecord
	byReference map[string][]*models.TransactionRecord
	byAmount    map[string][]*models.TransactionRecord

	// distinct absolute amounts, ascending
	sortedAmounts []decimal.Decimal

	all []*models.TransactionRecord
}

// NewIndex builds an index over the given records. Records with invalid
// dates are kept in the index but only reachable through reference and
// amount lookups.
func NewIndex(config *MatchConfig, records []*models.TransactionRecord) *Index {
	idx := &Index{
		config:      config,
		byDate:      make(map[string][]*models.TransactionRecord),
		byReference: make(map[string][]*models.TransactionRecord),
		byAmount:    make(map[string][]*models.TransactionRecord),
		all:         records,
	}

	for _, record := range records {
		if record == nil {
			continue
		}

		if key := record.DateKey(); key != "" {
			idx.byDate[key] = append(idx.byDate[key], record)
		}

		if record.Reference != nil {
			key := record.Reference.String()
			idx.byReference[key] = append(idx.byReference[key], record)
		}

		amountKey := record.AbsAmount().String()
		if _, seen := idx.byAmount[amountKey]; !seen {
			idx.sortedAmounts = append(idx.sortedAmounts, record.AbsAmount())
		}
		idx.byAmount[amountKey] = append(idx.byAmount[amountKey], record)
	}

	sort.Slice(idx.sortedAmounts, func(i, j int) bool {
		return idx.sortedAmounts[i].LessThan(idx.sortedAmounts[j])
	})

	return idx
}

// Size returns the number of indexed records
func (idx *Index) Size() int {
	return len(idx.all)
}

// All returns every indexed record in input order
func (idx *Index) All() []*models.TransactionRecord {
	return idx.all
}

// CandidatesByDate returns records dated within the configured day
// tolerance of the given record's date. Records without a valid date get
// no date candidates.
func (idx *Index) CandidatesByDate(record *models.TransactionRecord) []*models.TransactionRecord {
	if !record.DateValid {
		return nil
	}

	var candidates []*models.TransactionRecord
	for offset := -idx.config.DateToleranceDays; offset <= idx.config.DateToleranceDays; offset++ {
		key := record.Date.AddDate(0, 0, offset).Format("2006-01-02")
		candidates = append(candidates, idx.byDate[key]...)
	}
	return candidates
}

// CandidatesByReference returns records carrying the same reference code.
func (idx *Index) CandidatesByReference(record *models.TransactionRecord) []*models.TransactionRecord {
	if record.Reference == nil {
		return nil
	}
	return idx.byReference[record.Reference.String()]
}

// CandidatesByAmount returns records whose absolute amount lies within the
// effective tolerance of the given record's. With zero tolerance this is a
// single bucket lookup; otherwise a binary search bounds the range scan.
func (idx *Index) CandidatesByAmount(record *models.TransactionRecord) []*models.TransactionRecord {
	target := record.AbsAmount()
	tolerance := idx.config.AmountToleranceFor(target)

	if tolerance.IsZero() {
		return idx.byAmount[target.String()]
	}

	low := target.Sub(tolerance)
	high := target.Add(tolerance)

	first := sort.Search(len(idx.sortedAmounts), func(i int) bool {
		return idx.sortedAmounts[i].GreaterThanOrEqual(low)
	})

	var candidates []*models.TransactionRecord
	for i := first; i < len(idx.sortedAmounts); i++ {
		amount := idx.sortedAmounts[i]
		if amount.GreaterThan(high) {
			break
		}
		candidates = append(candidates, idx.byAmount[amount.String()]...)
	}
	return candidates
}

// Candidates returns records compatible with the given record on every
// enabled field. It intersects the per-field buckets, starting from the
// most selective enabled one.
func (idx *Index) Candidates(record *models.TransactionRecord) []*models.TransactionRecord {
	var sets [][]*models.TransactionRecord

	if idx.config.MatchReferences && record.Reference != nil {
		sets = append(sets, idx.CandidatesByReference(record))
	}
	if idx.config.MatchAmounts {
		sets = append(sets, idx.CandidatesByAmount(record))
	}
	if idx.config.MatchDates {
		sets = append(sets, idx.CandidatesByDate(record))
	}

	if len(sets) == 0 {
		return idx.all
	}
	if len(sets) == 1 {
		return sets[0]
	}

	return intersect(sets)
}

// intersect keeps records present in every set, preserving the order of
// the first set.
func intersect(sets [][]*models.TransactionRecord) []*models.TransactionRecord {
	counts := make(map[*models.TransactionRecord]int, len(sets[0]))
	for _, record := range sets[0] {
		counts[record] = 1
	}

	for _, set := range sets[1:] {
		for _, record := range set {
			if counts[record] == 1 {
				counts[record] = 2
			}
		}
		for record, count := range counts {
			if count != 2 {
				delete(counts, record)
			} else {
				counts[record] = 1
			}
		}
	}

	var result []*models.TransactionRecord
	for _, record := range sets[0] {
		if _, ok := counts[record]; ok {
			result = append(result, record)
		}
	}
	return result
}
