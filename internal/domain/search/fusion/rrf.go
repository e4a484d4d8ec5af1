package fusion

import "sort"

// DefaultRankConstant matches Qdrant's server-side RRF. A record ranked first
// in both channels scores 2/(c+1), so c must stay small enough for fused
// scores to clear thresholds in [0, 1].
const DefaultRankConstant = 2

// Hit is one entry of an independently ranked channel.
type Hit[T any] struct {
	ID   string
	Item T
}

// Fused is a candidate with its fused score.
type Fused[T any] struct {
	ID    string
	Item  T
	Score float64
}

// Contribution returns 1/(c+rank) for a 1-based rank.
func Contribution(c, rank int) float64 {
	return 1.0 / float64(c+rank)
}

// RRF merges ranked channels via Reciprocal Rank Fusion.
// score(d) = sum of 1/(c + rank_i(d)) over the channels where d appears.
// The item from the first channel that contains d is kept, so put the channel
// carrying vectors first. Output is sorted by score descending; ties keep
// first-seen order.
func RRF[T any](c int, channels ...[]Hit[T]) []Fused[T] {
	if c <= 0 {
		c = DefaultRankConstant
	}

	index := make(map[string]int)
	var out []Fused[T]

	for _, ch := range channels {
		seen := make(map[string]bool, len(ch))
		rank := 0
		for _, h := range ch {
			// duplicates within a channel keep their best rank only
			if seen[h.ID] {
				continue
			}
			seen[h.ID] = true
			rank++

			s := Contribution(c, rank)
			if i, ok := index[h.ID]; ok {
				out[i].Score += s
				continue
			}
			index[h.ID] = len(out)
			out = append(out, Fused[T]{ID: h.ID, Item: h.Item, Score: s})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
