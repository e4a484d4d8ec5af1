// Package repository holds the adapters between use cases and the vector store.
package repository

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/hybridsync/internal/db"
	"github.com/kailas-cloud/hybridsync/internal/domain"
)

// StoreError translates a store error into domain sentinels. Every store
// failure is ErrStoreUnavailable; a missing collection also matches
// ErrCollectionNotFound.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrCollectionNotFound) {
		return fmt.Errorf("%s: %w: %w: %w", op, domain.ErrStoreUnavailable, domain.ErrCollectionNotFound, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
