package tikz

import "regiontikz/internal/regionresult"

// mergeRegions coalesces pairs of regions that share their outcome and
// abut along exactly one axis with identical bounds on every other axis.
// Refinement output is full of such pairs: storm splits boxes in half and
// often decides both halves the same way. Merging is repeated to a fixed
// point; the first region of a merged pair keeps its position, so the
// overall drawing order stays stable. The covered area never changes.
func mergeRegions(regions []regionresult.Region) []regionresult.Region {
	out := make([]regionresult.Region, len(regions))
	copy(out, regions)

	for {
		merged := false
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); {
				if u, ok := union(out[i], out[j]); ok {
					out[i] = u
					out = append(out[:j], out[j+1:]...)
					merged = true
				} else {
					j++
				}
			}
		}
		if !merged {
			return out
		}
	}
}

// union merges a and b when they form a single box, i.e. they agree on
// every axis except one where they share a face.
func union(a, b regionresult.Region) (regionresult.Region, bool) {
	if a.Outcome != b.Outcome || len(a.Bounds) != len(b.Bounds) {
		return regionresult.Region{}, false
	}

	joinAxis := -1
	for k := range a.Bounds {
		if a.Bounds[k] == b.Bounds[k] {
			continue
		}
		if joinAxis >= 0 {
			return regionresult.Region{}, false
		}
		if a.Bounds[k].Hi != b.Bounds[k].Lo && b.Bounds[k].Hi != a.Bounds[k].Lo {
			return regionresult.Region{}, false
		}
		joinAxis = k
	}
	if joinAxis < 0 {
		// Identical boxes: collapse the duplicate.
		return a, true
	}

	u := regionresult.Region{Outcome: a.Outcome, Bounds: make([]regionresult.Interval, len(a.Bounds))}
	copy(u.Bounds, a.Bounds)
	lo, hi := a.Bounds[joinAxis], b.Bounds[joinAxis]
	if hi.Hi == lo.Lo {
		lo, hi = hi, lo
	}
	u.Bounds[joinAxis] = regionresult.Interval{Lo: lo.Lo, Hi: hi.Hi}
	return u, true
}
