// Package checkpoint persists migration progress in a local bbolt file so an
// interrupted full migration can resume from the last loaded page.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kailas-cloud/hybridsync/internal/domain"
)

var bucketCheckpoints = []byte("checkpoints")

// Store is a bbolt-backed checkpoint store.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the checkpoint file.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketCheckpoints); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketCheckpoints, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the checkpoint for source→target; ok is false when none is stored.
func (s *Store) Load(ctx context.Context, source, target string) (cp domain.Checkpoint, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return domain.Checkpoint{}, false, err
	}
	err = s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketCheckpoints).Get(key(source, target))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &cp); err != nil {
			return fmt.Errorf("decode checkpoint: %w", err)
		}
		ok = true
		return nil
	})
	return cp, ok, err
}

// Save stores cp, replacing any previous checkpoint for the same pair.
func (s *Store) Save(ctx context.Context, cp domain.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCheckpoints).Put(key(cp.Source, cp.Target), data)
	})
}

// Clear removes the checkpoint for source→target.
func (s *Store) Clear(ctx context.Context, source, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCheckpoints).Delete(key(source, target))
	})
}

func key(source, target string) []byte {
	return []byte(source + "\x00" + target)
}
