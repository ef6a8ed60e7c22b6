package orders

// Recommendations proposes candidate next numbers from the most recent
// order on the board: the next three numbers, capped at RecommendCap. An
// empty board yields no recommendations. Candidates are not pre-checked
// against the duplicate guard; a pick can still be rejected at submission
// if it collided in the meantime.
func (s *Service) Recommendations() []int {
	snapshot := s.view.Snapshot()
	if len(snapshot) == 0 {
		return nil
	}
	// The view is ordered newest first.
	return nextCandidates(snapshot[0].Number)
}

func nextCandidates(last int) []int {
	var out []int
	for step := 1; step <= 3; step++ {
		if n := last + step; n <= RecommendCap {
			out = append(out, n)
		}
	}
	return out
}
