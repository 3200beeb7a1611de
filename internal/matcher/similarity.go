package matcher

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity scores how alike two payee names are on a 0-100 scale using
// normalized Levenshtein distance. Comparison is case-insensitive and
// ignores surrounding whitespace. Two empty names score 0, not 100, so
// that missing payees never match each other.
func Similarity(a, b string) int {
	a = strings.ToUpper(strings.TrimSpace(a))
	b = strings.ToUpper(strings.TrimSpace(b))

	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	distance := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}

	score := (1.0 - float64(distance)/float64(longest)) * 100.0
	if score < 0 {
		score = 0
	}
	return int(score)
}
