package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/hybridsync/internal/db"
)

// Scroll walks the collection's keyspace with SCAN. The cursor is the SCAN
// cursor; Limit is passed as the COUNT hint, so a page may hold fewer or more
// points and SCAN may repeat a key across pages. A SCAN batch is never split:
// resuming mid-batch would re-issue SCAN at the same cursor, and keys inserted
// into that bucket in between shift the batch, so a skip could lose keys.
func (s *Store) Scroll(ctx context.Context, req *db.ScrollRequest) (*db.ScrollPage, error) {
	if req.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	exists, err := s.CollectionExists(ctx, req.Collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, db.ErrCollectionNotFound
	}

	var cursor uint64
	if req.Cursor != "" {
		if cursor, err = strconv.ParseUint(req.Cursor, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid cursor %q: %w", req.Cursor, err)
		}
	}

	scan := s.b().Scan().Cursor(cursor).Match(s.docPrefix(req.Collection) + "*").Count(int64(req.Limit)).Build()
	entry, err := s.do(ctx, scan).AsScanEntry()
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}

	page := &db.ScrollPage{Points: make([]db.Point, 0, len(entry.Elements))}
	if entry.Cursor != 0 {
		page.Next = strconv.FormatUint(entry.Cursor, 10)
	}
	if len(entry.Elements) == 0 {
		return page, nil
	}

	cmds := make([]rueidis.Completed, len(entry.Elements))
	for i, key := range entry.Elements {
		cmds[i] = s.b().Hgetall().Key(key).Build()
	}
	prefix := s.docPrefix(req.Collection)
	dense := vectorField(req.DenseField)
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		fields, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: err}
		}
		if len(fields) == 0 {
			continue // deleted between SCAN and HGETALL
		}
		p, err := pointFromHash(strings.TrimPrefix(entry.Elements[i], prefix), fields, dense, req.WithVectors, req.WithPayload)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", entry.Elements[i], err)
		}
		page.Points = append(page.Points, p)
	}
	return page, nil
}

func pointFromHash(id string, fields map[string]string, denseField string, withVectors, withPayload bool) (db.Point, error) {
	if v, ok := fields[fieldID]; ok {
		id = v
	}
	p := db.Point{ID: id}
	if withVectors {
		if blob, ok := fields[denseField]; ok {
			vec, err := bytesToVector(blob)
			if err != nil {
				return db.Point{}, err
			}
			p.Dense = vec
		}
	}
	if withPayload {
		payload, err := decodePayload(fields[fieldPayload])
		if err != nil {
			return db.Point{}, err
		}
		p.Payload = payload
	}
	return p, nil
}

// Upsert writes one hash per point in a single DoMulti round-trip. The sparse
// field holds the raw text; RediSearch scores it with BM25 at query time.
func (s *Store) Upsert(ctx context.Context, req *db.UpsertRequest) error {
	if len(req.Points) == 0 {
		return nil
	}
	exists, err := s.CollectionExists(ctx, req.Collection)
	if err != nil {
		return err
	}
	if !exists {
		return db.ErrCollectionNotFound
	}

	var failed []string
	var failErr error
	cmds := make([]rueidis.Completed, 0, len(req.Points))
	ids := make([]string, 0, len(req.Points))
	dense := vectorField(req.DenseField)

	for i := range req.Points {
		p := &req.Points[i]
		if p.ID == "" {
			failed = append(failed, p.ID)
			failErr = errors.Join(failErr, errors.New("empty point id"))
			continue
		}
		payload, err := encodePayload(p.Payload)
		if err != nil {
			failed = append(failed, p.ID)
			failErr = errors.Join(failErr, fmt.Errorf("point %s: %w", p.ID, err))
			continue
		}
		cmd := s.b().Hset().Key(s.docKey(req.Collection, p.ID)).FieldValue().
			FieldValue(fieldID, p.ID).
			FieldValue(fieldPayload, payload).
			FieldValue(dense, vectorToBytes(p.Dense))
		if req.SparseField != "" {
			cmd = cmd.FieldValue(req.SparseField, p.SparseText)
		}
		cmds = append(cmds, cmd.Build())
		ids = append(ids, p.ID)
	}

	if len(cmds) > 0 {
		for i, res := range s.client.DoMulti(ctx, cmds...) {
			if err := res.Error(); err != nil {
				failed = append(failed, ids[i])
				failErr = errors.Join(failErr, &db.Error{Op: db.OpHSet, Err: err})
			}
		}
	}

	if len(failed) > 0 {
		return &db.ItemsError{IDs: failed, Err: failErr}
	}
	return nil
}
