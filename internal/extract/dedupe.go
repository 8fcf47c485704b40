package extract

import (
	"sort"
	"time"
)

// dedupeShifts drops every candidate whose start and end both fall within
// dedupeTolerance of an already-kept candidate (absolute time difference, not
// same-day-only), then sorts the survivors chronologically.
func dedupeShifts(candidates []ShiftCandidate) []ShiftCandidate {
	var kept []ShiftCandidate
	for _, c := range candidates {
		dup := false
		for _, k := range kept {
			if absDuration(c.Start.Sub(k.Start)) < dedupeTolerance &&
				absDuration(c.End.Sub(k.End)) < dedupeTolerance {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, c)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if !kept[i].Start.Equal(kept[j].Start) {
			return kept[i].Start.Before(kept[j].Start)
		}
		return kept[i].End.Before(kept[j].End)
	})
	return kept
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
