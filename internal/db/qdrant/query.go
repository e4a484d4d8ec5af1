package qdrant

import (
	"context"
	"errors"

	qpb "github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/hybridsync/internal/db"
	"github.com/kailas-cloud/hybridsync/internal/domain/search/filter"
)

// FusedQuery prefetches candidates from the dense and sparse fields and fuses
// them server-side with RRF. The filter applies to both prefetches and to the
// fused result.
func (s *Store) FusedQuery(ctx context.Context, q *db.FusedQuery) ([]db.ScoredPoint, error) {
	if len(q.Dense) == 0 {
		return nil, errors.New("dense query vector is required")
	}
	if q.Limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	qf := toFilter(q.Filter)
	prefetchLimit := uint64(max(q.PrefetchLimit, q.Limit))

	prefetch := []*qpb.PrefetchQuery{{
		Query: &qpb.Query{Variant: &qpb.Query_Nearest{Nearest: &qpb.VectorInput{
			Variant: &qpb.VectorInput_Dense{Dense: &qpb.DenseVector{Data: q.Dense}},
		}}},
		Using:  optString(q.DenseField),
		Filter: qf,
		Limit:  &prefetchLimit,
	}}
	if q.SparseField != "" && q.SparseText != "" {
		prefetch = append(prefetch, &qpb.PrefetchQuery{
			Query: &qpb.Query{Variant: &qpb.Query_Nearest{Nearest: &qpb.VectorInput{
				Variant: &qpb.VectorInput_Document{Document: &qpb.Document{Text: q.SparseText, Model: q.SparseModel}},
			}}},
			Using:  optString(q.SparseField),
			Filter: qf,
			Limit:  &prefetchLimit,
		})
	}

	limit := uint64(q.Limit)
	in := &qpb.QueryPoints{
		CollectionName: q.Collection,
		Prefetch:       prefetch,
		Query:          rrfQuery(q.RankConstant),
		Filter:         qf,
		Limit:          &limit,
		WithPayload:    &qpb.WithPayloadSelector{SelectorOptions: &qpb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    vectorsSelector(q.WithVectors, q.DenseField),
	}
	if q.ScoreThreshold != nil {
		t := float32(*q.ScoreThreshold)
		in.ScoreThreshold = &t
	}

	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.points.Query(ctx, in)
	if err != nil {
		if isNotFound(err) {
			return nil, db.ErrCollectionNotFound
		}
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}

	out := make([]db.ScoredPoint, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		out = append(out, db.ScoredPoint{
			ID:      idString(p.GetId()),
			Score:   float64(p.GetScore()),
			Payload: fromPayload(p.GetPayload()),
			Dense:   denseFrom(p.GetVectors(), q.DenseField),
		})
	}
	return out, nil
}

// toFilter maps OR-ed leaf conditions onto a Qdrant should-filter.
// Floats match through a closed range so both integer and double payloads match.
func toFilter(tree *filter.Tree) *qpb.Filter {
	if tree.IsEmpty() {
		return nil
	}
	should := make([]*qpb.Condition, 0, tree.Len())
	for _, c := range tree.Should() {
		fc := &qpb.FieldCondition{Key: c.Key()}
		switch v := c.Value().(type) {
		case string:
			fc.Match = &qpb.Match{MatchValue: &qpb.Match_Keyword{Keyword: v}}
		case bool:
			fc.Match = &qpb.Match{MatchValue: &qpb.Match_Boolean{Boolean: v}}
		case int64:
			fc.Match = &qpb.Match{MatchValue: &qpb.Match_Integer{Integer: v}}
		case float64:
			lo, hi := v, v
			fc.Range = &qpb.Range{Gte: &lo, Lte: &hi}
		default:
			continue
		}
		should = append(should, &qpb.Condition{ConditionOneOf: &qpb.Condition_Field{Field: fc}})
	}
	return &qpb.Filter{Should: should}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// rrfQuery fuses with the given rank constant; zero leaves it to the server.
func rrfQuery(c int) *qpb.Query {
	if c <= 0 {
		return &qpb.Query{Variant: &qpb.Query_Fusion{Fusion: qpb.Fusion_RRF}}
	}
	k := uint32(c)
	return &qpb.Query{Variant: &qpb.Query_Rrf{Rrf: &qpb.Rrf{K: &k}}}
}
