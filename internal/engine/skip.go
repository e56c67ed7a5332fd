package engine

import (
	"golang-lettrage-service/internal/models"
)

// ShouldSkipTier reports whether a tier can be excluded before any search.
// It checks a cheap necessary condition: without at least one line of each
// sign, or when the smallest positive amount already exceeds everything the
// negative lines could absorb plus the tolerance, no subset can sum to
// within tolerance of zero.
func ShouldSkipTier(lines []*models.LedgerLine, toleranceCents int64) bool {
	var hasNegative, hasPositive bool
	var minPositive, sumNegative int64

	for _, line := range lines {
		switch {
		case line.AmountCents < 0:
			hasNegative = true
			sumNegative += -line.AmountCents
		case line.AmountCents > 0:
			if !hasPositive || line.AmountCents < minPositive {
				minPositive = line.AmountCents
			}
			hasPositive = true
		}
	}

	if !hasNegative || !hasPositive {
		return true
	}

	return minPositive > sumNegative+toleranceCents
}
