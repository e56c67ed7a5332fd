package engine

import (
	"strings"
	"time"

	"golang-lettrage-service/internal/models"
	"golang-lettrage-service/pkg/logger"
)

// buildTierCandidates generates every retained candidate for one tier's
// (already reduced) lines. Anchors are built first: each negative payment
// line alone, then each unordered payment pair when multi-payment groups
// are enabled. Triples and beyond are never built, whatever the configured
// payment cap says.
func (e *Engine) buildTierCandidates(lines []*models.LedgerLine, toleranceCents int64) []*Candidate {
	if len(lines) == 0 {
		return nil
	}

	if ShouldSkipTier(lines, toleranceCents) {
		return nil
	}

	var payments, others []*models.LedgerLine
	for _, line := range lines {
		if line.IsPayment() && line.AmountCents < 0 {
			payments = append(payments, line)
		} else if !line.IsPayment() {
			others = append(others, line)
		}
	}
	if len(payments) == 0 || len(others) == 0 {
		return nil
	}

	anchors := make([][]*models.LedgerLine, 0, len(payments))
	for _, p := range payments {
		anchors = append(anchors, []*models.LedgerLine{p})
	}
	if e.config.AllowMultiPayment && e.config.MaxPaymentsPerGroup >= 2 {
		for i := 0; i < len(payments); i++ {
			for j := i + 1; j < len(payments); j++ {
				anchors = append(anchors, []*models.LedgerLine{payments[i], payments[j]})
			}
		}
	}

	otherAmounts := make([]lineAmount, len(others))
	for i, line := range others {
		otherAmounts[i] = lineAmount{id: line.LineID, amount: line.AmountCents}
	}

	var candidates []*Candidate
	for _, anchor := range anchors {
		var anchorSum int64
		for _, p := range anchor {
			anchorSum += p.AmountCents
		}
		target := -anchorSum
		if target <= 0 {
			continue
		}

		search := newSubsetSearch(otherAmounts, target, toleranceCents,
			e.config.MaxGroupLines, e.config.MaxCandidatesPerPayment)
		for {
			subset, ok := search.Next()
			if !ok {
				break
			}
			if candidate := buildCandidate(lines, anchor, subset, toleranceCents); candidate != nil {
				candidates = append(candidates, candidate)
			}
		}

		if search.Exhausted() {
			e.log.WithFields(logger.Fields{
				"tier":    lines[0].TierCode,
				"anchor":  len(anchor),
				"results": search.Produced(),
			}).Debug("Candidate cap reached for payment anchor")
		}
	}

	return candidates
}

// buildCandidate assembles and scores the full group for one accepted
// subset. The sum and gap are recomputed from the authoritative line
// amounts and re-checked against the tolerance; the search already
// guarantees this, but a candidate that slipped past it would silently
// break the run's core invariant.
func buildCandidate(tierLines []*models.LedgerLine, anchor []*models.LedgerLine, subset []int, toleranceCents int64) *Candidate {
	member := make(map[int]bool, len(anchor)+len(subset))
	for _, p := range anchor {
		member[p.LineID] = true
	}
	for _, id := range subset {
		member[id] = true
	}

	// Collect group lines in tier order so summaries and date ranges are
	// stable however the subset was discovered.
	var group []*models.LedgerLine
	for _, line := range tierLines {
		if member[line.LineID] {
			group = append(group, line)
		}
	}

	var sum int64
	for _, line := range group {
		sum += line.AmountCents
	}
	gap := sum
	if gap < 0 {
		gap = -gap
	}
	if gap > toleranceCents {
		return nil
	}

	var paymentDates, otherDates []time.Time
	var dueMin, dueMax *time.Time
	for _, line := range group {
		if line.DueDate == nil {
			continue
		}
		due := *line.DueDate
		if line.IsPayment() {
			paymentDates = append(paymentDates, due)
		} else {
			otherDates = append(otherDates, due)
		}
		if dueMin == nil || due.Before(*dueMin) {
			d := due
			dueMin = &d
		}
		if dueMax == nil || due.After(*dueMax) {
			d := due
			dueMax = &d
		}
	}

	paymentIDs := make([]int, len(anchor))
	for i, p := range anchor {
		paymentIDs[i] = p.LineID
	}

	return &Candidate{
		TierCode:       tierLines[0].TierCode,
		TierName:       tierLines[0].TierName,
		PaymentIDs:     paymentIDs,
		OtherIDs:       subset,
		SumCents:       sum,
		GapCents:       gap,
		DateScore:      dateProximityScore(otherDates, paymentDates),
		LineCount:      len(group),
		PaymentCount:   len(anchor),
		DueDateMin:     dueMin,
		DueDateMax:     dueMax,
		InvoiceSummary: distinctJoined(group, func(l *models.LedgerLine) string { return l.InvoiceNumber }),
		EntrySummary:   distinctJoined(group, func(l *models.LedgerLine) string { return l.EntryNumber }),
	}
}

// dateProximityScore sums, for each non-payment due date, the minimum
// absolute day distance to any payment due date. No payment dates means
// nothing to measure against: score 0.
func dateProximityScore(otherDates, paymentDates []time.Time) int {
	if len(paymentDates) == 0 {
		return 0
	}

	total := 0
	for _, od := range otherDates {
		best := -1
		for _, pd := range paymentDates {
			if d := models.DaysBetween(od, pd); best < 0 || d < best {
				best = d
			}
		}
		if best > 0 {
			total += best
		}
	}
	return total
}

// distinctJoined joins distinct non-empty values in first-seen order
func distinctJoined(lines []*models.LedgerLine, value func(*models.LedgerLine) string) string {
	seen := make(map[string]bool)
	var parts []string
	for _, line := range lines {
		v := value(line)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		parts = append(parts, v)
	}
	return strings.Join(parts, ", ")
}
