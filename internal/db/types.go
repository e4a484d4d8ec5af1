package db

import "github.com/kailas-cloud/hybridsync/internal/domain/search/filter"

// CollectionSchema describes the vector layout of a new collection.
// Dense vectors always use cosine distance.
type CollectionSchema struct {
	Name        string
	DenseField  string // "" stores one unnamed vector
	DenseDim    int
	SparseField string // "" for dense-only collections
}

// Point is a stored record.
type Point struct {
	ID          string
	Dense       []float32
	SparseText  string // store derives the sparse vector from this text
	SparseModel string
	Payload     map[string]any
}

// ScrollRequest asks for one page of a full scan.
type ScrollRequest struct {
	Collection  string
	DenseField  string // vector to return when WithVectors; "" for unnamed
	Cursor      string // "" starts from the beginning
	Limit       int
	WithVectors bool
	WithPayload bool
}

// ScrollPage is one page of a full scan. Next is "" when no pages remain.
type ScrollPage struct {
	Points []Point
	Next   string
}

// UpsertRequest writes points into a hybrid collection.
type UpsertRequest struct {
	Collection  string
	DenseField  string
	SparseField string
	Points      []Point
	Wait        bool
}

// FusedQuery is a dense+sparse prefetch fused with reciprocal rank fusion.
type FusedQuery struct {
	Collection    string
	DenseField    string
	Dense         []float32
	SparseField   string
	SparseText    string
	SparseModel   string
	Filter        *filter.Tree // nil means unconstrained
	PrefetchLimit int
	Limit         int
	// ScoreThreshold drops fused scores below it when non-nil.
	ScoreThreshold *float64
	// RankConstant is used by stores fusing in-process.
	RankConstant int
	WithVectors  bool
}

// ScoredPoint is one fused query hit.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
	Dense   []float32
}
