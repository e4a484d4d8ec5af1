package db

import (
	"errors"
	"fmt"
)

// Sentinel errors for store operations.
var (
	ErrKeyNotFound        = errors.New("db: key not found")
	ErrCollectionNotFound = errors.New("db: collection not found")
	ErrCollectionExists   = errors.New("db: collection already exists")
	ErrIndexNotFound      = errors.New("db: index not found")
	ErrIndexExists        = errors.New("db: index already exists")
)

// Op constants name the store call for error context.
const (
	OpCollectionExists = "CollectionExists"
	OpCreateCollection = "CreateCollection"
	OpDeleteCollection = "DeleteCollection"
	OpCollectionInfo   = "GetCollectionInfo"
	OpScroll           = "Scroll"
	OpUpsert           = "Upsert"
	OpQuery            = "Query"
	OpHealth           = "HealthCheck"

	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpDel         = "DEL"
	OpHGet        = "HGET"
	OpHGetAll     = "HGETALL"
	OpHSet        = "HSET"
	OpExists      = "EXISTS"
	OpScan        = "SCAN"
	OpGet         = "GET"
	OpSet         = "SET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// ItemsError reports the point ids a multi-point write could not apply.
type ItemsError struct {
	IDs []string
	Err error
}

func (e *ItemsError) Error() string {
	return fmt.Sprintf("%d item(s) failed: %v", len(e.IDs), e.Err)
}

func (e *ItemsError) Unwrap() error { return e.Err }
