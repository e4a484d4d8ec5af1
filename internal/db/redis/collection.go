package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/hybridsync/internal/db"
)

// CollectionExists checks for the collection's meta hash.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Exists().Key(s.metaKey(name)).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return n > 0, nil
}

// CreateCollection creates the FT index and then records the schema in the
// meta hash. A failed meta write drops the index again.
func (s *Store) CreateCollection(ctx context.Context, schema *db.CollectionSchema) error {
	if err := validateName(schema.Name); err != nil {
		return err
	}
	if schema.DenseDim <= 0 {
		return fmt.Errorf("dense dimension must be positive, got %d", schema.DenseDim)
	}

	exists, err := s.CollectionExists(ctx, schema.Name)
	if err != nil {
		return err
	}
	if exists {
		return db.ErrCollectionExists
	}

	def, err := s.indexFor(schema)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrCollectionExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	meta := s.b().Hset().Key(s.metaKey(schema.Name)).FieldValue().
		FieldValue(metaDenseField, schema.DenseField).
		FieldValue(metaDenseDim, strconv.Itoa(schema.DenseDim)).
		FieldValue(metaSparse, schema.SparseField).
		FieldValue(metaCreatedAt, strconv.FormatInt(time.Now().UnixMilli(), 10)).
		Build()
	if err := s.do(ctx, meta).Error(); err != nil {
		rollback := s.b().Arbitrary("FT.DROPINDEX").Args(def.Name).Build()
		return errors.Join(&db.Error{Op: db.OpHSet, Err: err}, s.do(ctx, rollback).Error())
	}
	return nil
}

// DeleteCollection drops the index together with its documents (DD) and the meta hash.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	missing := false
	drop := s.b().Arbitrary("FT.DROPINDEX").Args(s.indexName(name), "DD").Build()
	if err := s.do(ctx, drop).Error(); err != nil {
		if !isMissingIndex(err) {
			return &db.Error{Op: db.OpDropIndex, Err: err}
		}
		missing = true
	}

	del := s.b().Del().Key(s.metaKey(name)).Build()
	n, err := s.do(ctx, del).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	if missing && n == 0 {
		return db.ErrCollectionNotFound
	}
	return nil
}

// DenseDimension reads the dense size recorded at creation.
func (s *Store) DenseDimension(ctx context.Context, name, field string) (int, error) {
	cmd := s.b().Hgetall().Key(s.metaKey(name)).Build()
	meta, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return 0, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	if len(meta) == 0 {
		return 0, db.ErrCollectionNotFound
	}
	if meta[metaDenseField] != field {
		return 0, fmt.Errorf("collection %s has no dense vector %q", name, field)
	}
	dim, err := strconv.Atoi(meta[metaDenseDim])
	if err != nil {
		return 0, fmt.Errorf("collection %s: bad %s: %w", name, metaDenseDim, err)
	}
	return dim, nil
}

func validateName(name string) error {
	if !db.IsValidIdentifier(name) || strings.Contains(name, ":") {
		return fmt.Errorf("invalid collection name %q", name)
	}
	return nil
}
