package export

import "voxelexport.ai/internal/blockstate"

// PickWeighted returns the index of the entry selected by roll, weighting
// each entry by its Weight. Entries keep declaration order, so the same
// roll over the same list always selects the same entry. It returns -1 for
// an empty list.
func PickWeighted(entries []blockstate.Entry, roll uint64) int {
	if len(entries) == 0 {
		return -1
	}
	var total uint64
	for _, e := range entries {
		total += weightOf(e)
	}
	target := roll % total
	var acc uint64
	for i, e := range entries {
		acc += weightOf(e)
		if target < acc {
			return i
		}
	}
	return len(entries) - 1
}

func weightOf(e blockstate.Entry) uint64 {
	if e.Weight < 1 {
		return 1
	}
	return uint64(e.Weight)
}
