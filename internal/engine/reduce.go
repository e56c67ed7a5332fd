package engine

import (
	"sort"
	"time"

	"golang-lettrage-service/internal/models"
)

// farFuture ranks lines without a due date after every dated line
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// ReduceTierLines bounds the number of lines considered for one tier.
// Payment lines always survive; the remaining budget goes to the oldest,
// largest non-payment lines, which are the ones a payment most plausibly
// settles. When payments alone exceed the cap, no non-payment line is kept.
func ReduceTierLines(lines []*models.LedgerLine, maxLines int) []*models.LedgerLine {
	if len(lines) <= maxLines {
		return lines
	}

	var payments, others []*models.LedgerLine
	for _, line := range lines {
		if line.IsPayment() {
			payments = append(payments, line)
		} else {
			others = append(others, line)
		}
	}

	sort.SliceStable(others, func(i, j int) bool {
		di, dj := rankDate(others[i]), rankDate(others[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return absCents(others[i].AmountCents) > absCents(others[j].AmountCents)
	})

	budget := maxLines - len(payments)
	if budget < 0 {
		budget = 0
	}
	if budget > len(others) {
		budget = len(others)
	}

	reduced := make([]*models.LedgerLine, 0, len(payments)+budget)
	reduced = append(reduced, payments...)
	reduced = append(reduced, others[:budget]...)
	return reduced
}

func rankDate(line *models.LedgerLine) time.Time {
	if line.DueDate == nil {
		return farFuture
	}
	return *line.DueDate
}

func absCents(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
