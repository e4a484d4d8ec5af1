package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/hybridsync/internal/db"
	"github.com/kailas-cloud/hybridsync/internal/domain/search/fusion"
)

// filteredPrefetchFactor widens both prefetch windows when a filter is set,
// since payloads are matched after FT.SEARCH returns.
const filteredPrefetchFactor = 4

// candidate is one FT.SEARCH hit decoded from the hash fields.
type candidate struct {
	id      string
	payload map[string]any
	dense   []float32
}

// FusedQuery runs a KNN prefetch on the dense field and a BM25 prefetch on
// the sparse field, keeps candidates whose payload matches the filter, and
// fuses both rankings in-process. The filter is applied to the prefetched
// windows, so a selective filter can still leave fewer than Limit hits.
func (s *Store) FusedQuery(ctx context.Context, q *db.FusedQuery) ([]db.ScoredPoint, error) {
	if len(q.Dense) == 0 {
		return nil, fmt.Errorf("dense vector is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	prefetch := max(q.PrefetchLimit, q.Limit)
	if !q.Filter.IsEmpty() {
		prefetch *= filteredPrefetchFactor
	}

	dense, err := s.searchKNN(ctx, q, prefetch)
	if err != nil {
		return nil, err
	}
	channels := [][]fusion.Hit[candidate]{dense}

	if q.SparseField != "" {
		if terms := sparseTerms(q.SparseText); len(terms) > 0 {
			sparse, err := s.searchBM25(ctx, q, terms, prefetch)
			if err != nil {
				return nil, err
			}
			channels = append(channels, sparse)
		}
	}

	fused := fusion.RRF(q.RankConstant, channels...)

	out := make([]db.ScoredPoint, 0, min(len(fused), q.Limit))
	for _, f := range fused {
		if q.ScoreThreshold != nil && f.Score < *q.ScoreThreshold {
			break // sorted descending
		}
		out = append(out, db.ScoredPoint{
			ID:      f.ID,
			Score:   f.Score,
			Payload: f.Item.payload,
			Dense:   f.Item.dense,
		})
		if len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) searchKNN(ctx context.Context, q *db.FusedQuery, k int) ([]fusion.Hit[candidate], error) {
	field := vectorField(q.DenseField)
	query := fmt.Sprintf("*=>[KNN %d @%s $BLOB AS %s]", k, field, fieldScore)

	ret := []string{fieldID, fieldPayload, fieldScore}
	if q.WithVectors {
		ret = append(ret, field)
	}

	args := []string{s.indexName(q.Collection), query, "RETURN", strconv.Itoa(len(ret))}
	args = append(args, ret...)
	args = append(args,
		"SORTBY", fieldScore,
		"LIMIT", "0", strconv.Itoa(k),
		"PARAMS", "2", "BLOB", vectorToBytes(q.Dense),
		"DIALECT", "2",
	)

	raw, err := s.search(ctx, args)
	if err != nil {
		return nil, err
	}
	return s.parseHits(raw, 2, q, field)
}

func (s *Store) searchBM25(ctx context.Context, q *db.FusedQuery, terms []string, k int) ([]fusion.Hit[candidate], error) {
	args := []string{
		s.indexName(q.Collection), textQuery(q.SparseField, terms),
		"RETURN", "2", fieldID, fieldPayload,
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(k),
		"DIALECT", "2",
	}
	raw, err := s.search(ctx, args)
	if err != nil {
		return nil, err
	}
	return s.parseHits(raw, 3, q, "")
}

func (s *Store) search(ctx context.Context, args []string) ([]rueidis.RedisMessage, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isMissingIndex(err) {
			return nil, db.ErrCollectionNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return raw, nil
}

// parseHits decodes an FT.SEARCH reply in rank order.
// stride 2: [total, key, fields, ...]; stride 3 (WITHSCORES): [total, key, score, fields, ...].
// Hits whose payload fails the filter are dropped before ranking.
func (s *Store) parseHits(raw []rueidis.RedisMessage, stride int, q *db.FusedQuery, vecField string) ([]fusion.Hit[candidate], error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if _, err := raw[0].AsInt64(); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	prefix := s.docPrefix(q.Collection)
	hits := make([]fusion.Hit[candidate], 0, (len(raw)-1)/stride)
	for i := 1; i+stride-1 < len(raw); i += stride {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+stride-1].ToArray()
		if err != nil {
			continue
		}
		m := parseFieldPairs(fields)

		id := strings.TrimPrefix(key, prefix)
		if v, ok := m[fieldID]; ok {
			id = v
		}
		payload, err := decodePayload(m[fieldPayload])
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		if !q.Filter.Matches(payload) {
			continue
		}

		c := candidate{id: id, payload: payload}
		if vecField != "" {
			if blob, ok := m[vecField]; ok {
				if c.dense, err = bytesToVector(blob); err != nil {
					return nil, fmt.Errorf("decode %s: %w", key, err)
				}
			}
		}
		hits = append(hits, fusion.Hit[candidate]{ID: id, Item: c})
	}
	return hits, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
