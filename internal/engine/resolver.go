package engine

import (
	"sort"
)

// ResolveCandidates turns the per-payment bests into a disjoint global
// selection. The distinct candidates are sorted by ascending (date score,
// gap, line count) with generation order as the final tie-break, then
// accepted greedily whenever their line ids touch nothing already accepted;
// overlapping candidates are silently dropped.
//
// This is a deliberate greedy approximation: optimal disjoint selection
// over overlapping variable-size groups is a set-packing problem, and
// downstream consumers depend on this exact acceptance order.
func ResolveCandidates(best map[int]*Candidate) []*Candidate {
	seen := make(map[*Candidate]bool, len(best))
	distinct := make([]*Candidate, 0, len(best))
	for _, candidate := range best {
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		distinct = append(distinct, candidate)
	}

	sort.Slice(distinct, func(i, j int) bool {
		if lessCandidate(distinct[i], distinct[j]) {
			return true
		}
		if lessCandidate(distinct[j], distinct[i]) {
			return false
		}
		return distinct[i].seq < distinct[j].seq
	})

	var selected []*Candidate
	used := make(map[int]bool)
	for _, candidate := range distinct {
		if overlaps(candidate, used) {
			continue
		}
		selected = append(selected, candidate)
		for _, id := range candidate.LineIDs() {
			used[id] = true
		}
	}
	return selected
}

func overlaps(candidate *Candidate, used map[int]bool) bool {
	for _, id := range candidate.LineIDs() {
		if used[id] {
			return true
		}
	}
	return false
}
