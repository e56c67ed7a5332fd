package engine

// BestCandidatesByPayment picks, for every payment line id, the single best
// candidate referencing it by ascending (date score, gap, line count).
// Ties keep the earlier-generated candidate, so the result is deterministic
// for a deterministic candidate stream. Several payment ids may map to the
// same candidate when it covers a payment pair.
func BestCandidatesByPayment(candidates []*Candidate) map[int]*Candidate {
	best := make(map[int]*Candidate)
	for _, candidate := range candidates {
		for _, paymentID := range candidate.PaymentIDs {
			existing, ok := best[paymentID]
			if !ok || lessCandidate(candidate, existing) {
				best[paymentID] = candidate
			}
		}
	}
	return best
}
