package engine

import (
	"time"
)

// Candidate is a provisional lettrage group: one or two payment lines plus
// the non-payment lines they plausibly settle. Candidates are immutable
// once built; ranking and resolution only read them.
type Candidate struct {
	TierCode string
	TierName string

	// PaymentIDs holds the anchor payment line ids (1 or 2, all RC, all
	// negative amounts); OtherIDs the matched non-payment line ids.
	PaymentIDs []int
	OtherIDs   []int

	// SumCents is the signed sum of every line in the group; GapCents its
	// absolute value, never above the run tolerance for a retained
	// candidate.
	SumCents int64
	GapCents int64

	// DateScore sums, over the non-payment lines, the minimum day distance
	// from the line's due date to any payment due date in the group. Lower
	// means the dates line up more tightly.
	DateScore int

	LineCount    int
	PaymentCount int

	DueDateMin *time.Time
	DueDateMax *time.Time

	// InvoiceSummary and EntrySummary join the distinct invoice and entry
	// numbers of the group, in first-seen order, for display.
	InvoiceSummary string
	EntrySummary   string

	// seq is the global generation index, the final tie-break everywhere a
	// candidate ordering matters.
	seq int
}

// LineIDs returns every line id in the group, payments first
func (c *Candidate) LineIDs() []int {
	ids := make([]int, 0, len(c.PaymentIDs)+len(c.OtherIDs))
	ids = append(ids, c.PaymentIDs...)
	ids = append(ids, c.OtherIDs...)
	return ids
}

// lessCandidate orders candidates by ascending (date score, gap, line
// count). A strictly lower tuple is a strictly better candidate.
func lessCandidate(a, b *Candidate) bool {
	if a.DateScore != b.DateScore {
		return a.DateScore < b.DateScore
	}
	if a.GapCents != b.GapCents {
		return a.GapCents < b.GapCents
	}
	return a.LineCount < b.LineCount
}
