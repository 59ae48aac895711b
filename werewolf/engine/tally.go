package engine

// Tally reduces a poll to a single target. The target wins when it is the
// only one named, or when it holds at least half of the eligible votes and
// strictly more than the runner-up. Anything else is inconclusive.
func Tally[K comparable](eligible int, poll map[K]*Participant) (*Participant, bool) {
	counts := make(map[*Participant]int, len(poll))
	for _, target := range poll {
		if target != nil {
			counts[target]++
		}
	}
	var top *Participant
	topN, secondN := 0, 0
	for target, n := range counts {
		switch {
		case n > topN:
			secondN = topN
			top, topN = target, n
		case n > secondN:
			secondN = n
		}
	}
	if len(counts) == 1 {
		return top, true
	}
	if top != nil && 2*topN >= eligible && topN > secondN {
		return top, true
	}
	return nil, false
}
