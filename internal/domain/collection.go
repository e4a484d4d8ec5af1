package domain

// Vector field names and lexical model of a hybrid collection.
const (
	DefaultDenseField  = "dense"
	DefaultSparseField = "sparse"
	DefaultSparseModel = "Qdrant/bm25"
)

// CollectionShape is the vector layout of a collection: one cosine dense field
// and, for hybrid collections, one named sparse field.
type CollectionShape struct {
	Name        string
	DenseDim    int
	DenseField  string
	SparseField string // empty for dense-only collections
}

// IsHybrid reports whether the shape carries a sparse channel.
func (s CollectionShape) IsHybrid() bool { return s.SparseField != "" }
