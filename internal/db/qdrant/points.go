package qdrant

import (
	"context"
	"errors"
	"fmt"

	qpb "github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/hybridsync/internal/db"
)

// Scroll returns one page of points ordered by id. The returned cursor is the
// server's next_page_offset, encoded as an opaque string.
func (s *Store) Scroll(ctx context.Context, req *db.ScrollRequest) (*db.ScrollPage, error) {
	if req.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	offset, err := decodeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	limit := uint32(req.Limit)
	in := &qpb.ScrollPoints{
		CollectionName: req.Collection,
		Offset:         offset,
		Limit:          &limit,
		WithPayload:    &qpb.WithPayloadSelector{SelectorOptions: &qpb.WithPayloadSelector_Enable{Enable: req.WithPayload}},
		WithVectors:    vectorsSelector(req.WithVectors, req.DenseField),
	}

	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.points.Scroll(ctx, in)
	if err != nil {
		if isNotFound(err) {
			return nil, db.ErrCollectionNotFound
		}
		return nil, &db.Error{Op: db.OpScroll, Err: err}
	}

	page := &db.ScrollPage{
		Points: make([]db.Point, 0, len(resp.GetResult())),
		Next:   encodeCursor(resp.GetNextPageOffset()),
	}
	for _, p := range resp.GetResult() {
		page.Points = append(page.Points, db.Point{
			ID:      idString(p.GetId()),
			Dense:   denseFrom(p.GetVectors(), req.DenseField),
			Payload: fromPayload(p.GetPayload()),
		})
	}
	return page, nil
}

// Upsert writes points by id. The sparse vector is computed server-side from
// SparseText with SparseModel. Ids that are not numeric or UUIDs are skipped
// and reported in the returned *db.ItemsError.
func (s *Store) Upsert(ctx context.Context, req *db.UpsertRequest) error {
	if len(req.Points) == 0 {
		return nil
	}

	var rejected []string
	var rejectErr error
	points := make([]*qpb.PointStruct, 0, len(req.Points))
	accepted := make([]string, 0, len(req.Points))

	for i := range req.Points {
		p := &req.Points[i]
		ps, err := toPointStruct(p, req.DenseField, req.SparseField)
		if err != nil {
			rejected = append(rejected, p.ID)
			rejectErr = errors.Join(rejectErr, err)
			continue
		}
		points = append(points, ps)
		accepted = append(accepted, p.ID)
	}

	if len(points) > 0 {
		wait := req.Wait
		in := &qpb.UpsertPoints{CollectionName: req.Collection, Wait: &wait, Points: points}

		ctx, cancel := s.callCtx(ctx)
		defer cancel()

		if _, err := s.points.Upsert(ctx, in); err != nil {
			return &db.ItemsError{
				IDs: append(accepted, rejected...),
				Err: errors.Join(&db.Error{Op: db.OpUpsert, Err: err}, rejectErr),
			}
		}
	}

	if len(rejected) > 0 {
		return &db.ItemsError{IDs: rejected, Err: rejectErr}
	}
	return nil
}

func toPointStruct(p *db.Point, denseField, sparseField string) (*qpb.PointStruct, error) {
	id, err := pointID(p.ID)
	if err != nil {
		return nil, err
	}
	payload, err := toPayload(p.Payload)
	if err != nil {
		return nil, fmt.Errorf("point %s: %w", p.ID, err)
	}

	dense := &qpb.Vector{Vector: &qpb.Vector_Dense{Dense: &qpb.DenseVector{Data: p.Dense}}}
	if denseField == "" && sparseField == "" {
		return &qpb.PointStruct{
			Id:      id,
			Vectors: &qpb.Vectors{VectorsOptions: &qpb.Vectors_Vector{Vector: dense}},
			Payload: payload,
		}, nil
	}

	vectors := map[string]*qpb.Vector{denseField: dense}
	if sparseField != "" {
		vectors[sparseField] = &qpb.Vector{Vector: &qpb.Vector_Document{
			Document: &qpb.Document{Text: p.SparseText, Model: p.SparseModel},
		}}
	}

	return &qpb.PointStruct{
		Id:      id,
		Vectors: &qpb.Vectors{VectorsOptions: &qpb.Vectors_Vectors{Vectors: &qpb.NamedVectors{Vectors: vectors}}},
		Payload: payload,
	}, nil
}

func vectorsSelector(with bool, field string) *qpb.WithVectorsSelector {
	if with && field != "" {
		return &qpb.WithVectorsSelector{SelectorOptions: &qpb.WithVectorsSelector_Include{
			Include: &qpb.VectorsSelector{Names: []string{field}},
		}}
	}
	return &qpb.WithVectorsSelector{SelectorOptions: &qpb.WithVectorsSelector_Enable{Enable: with}}
}
