package qdrant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	qpb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/hybridsync/internal/db"
)

// CollectionExists reports whether the collection is present.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.collections.CollectionExists(ctx, &qpb.CollectionExistsRequest{CollectionName: name})
	if err != nil {
		return false, &db.Error{Op: db.OpCollectionExists, Err: err}
	}
	return resp.GetResult().GetExists(), nil
}

// CreateCollection creates a cosine dense field and, when requested, an IDF-weighted sparse field.
func (s *Store) CreateCollection(ctx context.Context, schema *db.CollectionSchema) error {
	if schema.Name == "" {
		return errors.New("collection name is required")
	}
	if schema.DenseDim <= 0 {
		return fmt.Errorf("dense dimension must be positive, got %d", schema.DenseDim)
	}

	params := &qpb.VectorParams{Size: uint64(schema.DenseDim), Distance: qpb.Distance_Cosine}
	req := &qpb.CreateCollection{CollectionName: schema.Name}
	if schema.DenseField == "" {
		req.VectorsConfig = &qpb.VectorsConfig{Config: &qpb.VectorsConfig_Params{Params: params}}
	} else {
		req.VectorsConfig = &qpb.VectorsConfig{Config: &qpb.VectorsConfig_ParamsMap{
			ParamsMap: &qpb.VectorParamsMap{Map: map[string]*qpb.VectorParams{schema.DenseField: params}},
		}}
	}
	if schema.SparseField != "" {
		req.SparseVectorsConfig = &qpb.SparseVectorConfig{Map: map[string]*qpb.SparseVectorParams{
			schema.SparseField: {Modifier: qpb.Modifier_Idf.Enum()},
		}}
	}

	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	if _, err := s.collections.Create(ctx, req); err != nil {
		if isAlreadyExists(err) {
			return db.ErrCollectionExists
		}
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	return nil
}

// DeleteCollection drops the collection with all its points.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.collections.Delete(ctx, &qpb.DeleteCollection{CollectionName: name})
	if err != nil {
		if isNotFound(err) {
			return db.ErrCollectionNotFound
		}
		return &db.Error{Op: db.OpDeleteCollection, Err: err}
	}
	if !resp.GetResult() {
		return db.ErrCollectionNotFound
	}
	return nil
}

// DenseDimension reads the dense vector size from the collection config.
func (s *Store) DenseDimension(ctx context.Context, name, field string) (int, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.collections.Get(ctx, &qpb.GetCollectionInfoRequest{CollectionName: name})
	if err != nil {
		if isNotFound(err) {
			return 0, db.ErrCollectionNotFound
		}
		return 0, &db.Error{Op: db.OpCollectionInfo, Err: err}
	}

	vc := resp.GetResult().GetConfig().GetParams().GetVectorsConfig()
	if p := vc.GetParams(); p != nil {
		return int(p.GetSize()), nil
	}
	named := vc.GetParamsMap().GetMap()
	if field != "" {
		if p, ok := named[field]; ok {
			return int(p.GetSize()), nil
		}
		return 0, fmt.Errorf("collection %s has no dense vector %q", name, field)
	}
	if len(named) == 1 {
		for _, p := range named {
			return int(p.GetSize()), nil
		}
	}
	return 0, fmt.Errorf("collection %s: cannot pick dense vector among %d named vectors", name, len(named))
}

func isNotFound(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	if st.Code() == codes.NotFound {
		return true
	}
	msg := strings.ToLower(st.Message())
	return st.Code() == codes.InvalidArgument && (strings.Contains(msg, "not found") || strings.Contains(msg, "doesn't exist"))
}

func isAlreadyExists(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return st.Code() == codes.AlreadyExists || strings.Contains(strings.ToLower(st.Message()), "already exists")
}
