package competition

import "sort"

// Merge folds candidates sharing a fingerprint into their first occurrence,
// keeping every source url once, and sorts the result by date. Nil candidates
// are dropped. Merging an already merged list returns it unchanged.
func Merge(candidates []*Competition) []*Competition {
	merged := make([]*Competition, 0, len(candidates))
	byID := make(map[string]*Competition, len(candidates))
	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		if existing, ok := byID[candidate.ID]; ok {
			existing.AddDataURL(candidate.URL)
			continue
		}
		byID[candidate.ID] = candidate
		merged = append(merged, candidate)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}
