package engine

// lineAmount pairs a line id with its signed amount in cents
type lineAmount struct {
	id     int
	amount int64
}

// subsetSearch enumerates subsets of candidate lines whose sum lands within
// tolerance of a target amount. The search is depth-first and walks the
// line list strictly forward, so every subset is produced exactly once, in
// a deterministic order for a given input order.
//
// It is written as an explicit generator rather than a recursive collector
// so callers can consume results lazily and the result cap is observable in
// isolation: after maxResults subsets have been yielded, Next returns false
// forever, however much of the search space is left unexplored.
type subsetSearch struct {
	amounts    []lineAmount
	target     int64
	tolerance  int64
	maxLines   int
	maxResults int

	// allNonNegative is the precondition for the over-target prune. It is
	// computed from the actual amounts, not assumed: with negative amounts
	// in the list a partial sum above target could still come back down.
	allNonNegative bool

	stack    []searchNode
	produced int
}

// searchNode is one pending DFS node: a chosen prefix and where extension
// resumes.
type searchNode struct {
	start int
	ids   []int
	sum   int64
}

func newSubsetSearch(amounts []lineAmount, target, tolerance int64, maxLines, maxResults int) *subsetSearch {
	allNonNegative := true
	for _, a := range amounts {
		if a.amount < 0 {
			allNonNegative = false
			break
		}
	}

	return &subsetSearch{
		amounts:        amounts,
		target:         target,
		tolerance:      tolerance,
		maxLines:       maxLines,
		maxResults:     maxResults,
		allNonNegative: allNonNegative,
		stack:          []searchNode{{start: 0}},
	}
}

// Next yields the next accepted subset of line ids, or false when the
// search space or the result budget is exhausted. The returned slice is
// owned by the caller.
func (s *subsetSearch) Next() ([]int, bool) {
	for len(s.stack) > 0 {
		if s.produced >= s.maxResults {
			return nil, false
		}

		node := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]

		s.expand(node)

		if len(node.ids) == 0 {
			continue
		}
		if gap := node.sum - s.target; gap <= s.tolerance && gap >= -s.tolerance {
			s.produced++
			return node.ids, true
		}
	}

	return nil, false
}

// expand pushes the children of a node. Children are pushed in reverse list
// order so they pop in ascending order, matching a plain recursive
// depth-first scan.
func (s *subsetSearch) expand(node searchNode) {
	if len(node.ids) >= s.maxLines {
		return
	}

	for i := len(s.amounts) - 1; i >= node.start; i-- {
		entry := s.amounts[i]
		newSum := node.sum + entry.amount
		if s.allNonNegative && newSum > s.target+s.tolerance {
			continue
		}

		ids := make([]int, len(node.ids)+1)
		copy(ids, node.ids)
		ids[len(node.ids)] = entry.id

		s.stack = append(s.stack, searchNode{start: i + 1, ids: ids, sum: newSum})
	}
}

// Produced returns how many subsets have been yielded so far
func (s *subsetSearch) Produced() int {
	return s.produced
}

// Exhausted reports whether the result cap has been reached
func (s *subsetSearch) Exhausted() bool {
	return s.produced >= s.maxResults
}
