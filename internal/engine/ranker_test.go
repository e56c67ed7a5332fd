package engine

import (
	"testing"
)

func rankedCandidate(paymentID, score int, gap int64, count, seq int) *Candidate {
	return &Candidate{
		TierCode:     "T1",
		PaymentIDs:   []int{paymentID},
		OtherIDs:     []int{100 + seq},
		GapCents:     gap,
		DateScore:    score,
		LineCount:    count,
		PaymentCount: 1,
		seq:          seq,
	}
}

func TestBestCandidatesByPaymentPrefersLowerScore(t *testing.T) {
	worse := rankedCandidate(1, 5, 0, 2, 0)
	better := rankedCandidate(1, 2, 0, 2, 1)

	best := BestCandidatesByPayment([]*Candidate{worse, better})

	if best[1] != better {
		t.Errorf("Expected the score-2 candidate to beat the score-5 one")
	}
}

func TestBestCandidatesByPaymentTupleOrder(t *testing.T) {
	// Equal score: lower gap wins; equal score and gap: fewer lines win.
	highGap := rankedCandidate(1, 3, 5, 2, 0)
	lowGap := rankedCandidate(1, 3, 1, 2, 1)
	best := BestCandidatesByPayment([]*Candidate{highGap, lowGap})
	if best[1] != lowGap {
		t.Error("Expected the lower-gap candidate to win at equal score")
	}

	big := rankedCandidate(2, 3, 1, 4, 2)
	small := rankedCandidate(2, 3, 1, 2, 3)
	best = BestCandidatesByPayment([]*Candidate{big, small})
	if best[2] != small {
		t.Error("Expected the smaller group to win at equal score and gap")
	}
}

func TestBestCandidatesByPaymentTieKeepsFirst(t *testing.T) {
	first := rankedCandidate(1, 3, 1, 2, 0)
	second := rankedCandidate(1, 3, 1, 2, 1)

	best := BestCandidatesByPayment([]*Candidate{first, second})

	if best[1] != first {
		t.Error("Expected an exact tie to keep the earlier-generated candidate")
	}
}

func TestBestCandidatesByPaymentSharedCandidate(t *testing.T) {
	pair := &Candidate{
		TierCode:     "T1",
		PaymentIDs:   []int{1, 2},
		OtherIDs:     []int{10},
		DateScore:    1,
		LineCount:    3,
		PaymentCount: 2,
	}

	best := BestCandidatesByPayment([]*Candidate{pair})

	if best[1] != pair || best[2] != pair {
		t.Error("Expected both payment ids to map to the shared pair candidate")
	}
}
