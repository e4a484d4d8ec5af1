package domain

// HybridConfig holds the vector naming and lexical model shared by
// migration and query paths. It is not exposed to clients.
type HybridConfig struct {
	SourceDenseField string // empty means the source stores one unnamed vector
	DenseField       string
	SparseField      string
	SparseModel      string
}

// DefaultHybridConfig returns the naming used by the hybrid collection.
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		DenseField:  DefaultDenseField,
		SparseField: DefaultSparseField,
		SparseModel: DefaultSparseModel,
	}
}

// WithDefaults fills empty fields from DefaultHybridConfig.
func (c HybridConfig) WithDefaults() HybridConfig {
	d := DefaultHybridConfig()
	if c.DenseField == "" {
		c.DenseField = d.DenseField
	}
	if c.SparseField == "" {
		c.SparseField = d.SparseField
	}
	if c.SparseModel == "" {
		c.SparseModel = d.SparseModel
	}
	return c
}
