package core

import "sort"

// DefaultRRFK is the standard rank offset constant for RRF.
const DefaultRRFK = 60

// ReciprocalRankFusion combines ranked lists by scoring each record with the
// sum of 1/(k + rank) over every list that contains it, rank being 1-based.
// Records absent from a list contribute nothing for that list.
type ReciprocalRankFusion struct {
	k float64
}

// NewReciprocalRankFusion creates an RRF fuser with the standard constant.
func NewReciprocalRankFusion() *ReciprocalRankFusion {
	return &ReciprocalRankFusion{k: DefaultRRFK}
}

// Fuse merges the given ranked lists into a single list ordered by
// descending RRF score. Equal scores order by ascending record id so the
// output is deterministic for fixed inputs.
func (rrf *ReciprocalRankFusion) Fuse(lists ...[]SearchResult) []SearchResult {
	scores := make(map[uint64]float64)

	for _, list := range lists {
		for rank, result := range list {
			scores[result.ID] += 1.0 / (rrf.k + float64(rank+1))
		}
	}

	fused := make([]SearchResult, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, SearchResult{ID: id, Score: score})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ID < fused[j].ID
	})

	return fused
}
