package engine

import (
	"sort"
	"time"

	"golang-lettrage-service/internal/models"
)

// FilterLines selects the ledger lines eligible for lettrage: due date
// known and not after the reference date, on the configured control
// account. Input order is preserved; the slice holds the same line
// pointers, never copies.
func FilterLines(lines []*models.LedgerLine, today time.Time, accountCode string) []*models.LedgerLine {
	var eligible []*models.LedgerLine
	for _, line := range lines {
		if line.DueDate == nil {
			continue
		}
		if line.DueDate.After(today) {
			continue
		}
		if line.AccountCode != accountCode {
			continue
		}
		eligible = append(eligible, line)
	}
	return eligible
}

// GroupByTier splits lines by tier code, preserving input order within each
// tier, and returns the tier codes in ascending order so processing order
// is deterministic.
func GroupByTier(lines []*models.LedgerLine) (map[string][]*models.LedgerLine, []string) {
	groups := make(map[string][]*models.LedgerLine)
	var codes []string
	for _, line := range lines {
		if _, seen := groups[line.TierCode]; !seen {
			codes = append(codes, line.TierCode)
		}
		groups[line.TierCode] = append(groups[line.TierCode], line)
	}
	sort.Strings(codes)
	return groups, codes
}
