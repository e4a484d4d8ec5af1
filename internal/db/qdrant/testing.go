package qdrant

// NewStoreForTest creates a Store over the provided RPC clients (test-only).
func NewStoreForTest(c collectionsAPI, p pointsAPI, h healthAPI, wait bool) *Store {
	return &Store{collections: c, points: p, health: h, wait: wait}
}
