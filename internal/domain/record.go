package domain

import "maps"

// Payload keys written by the ingestion pipeline.
const (
	PageContentKey = "page_content"
	MetadataKey    = "metadata"
)

// Payload is the verbatim record payload. Keys other than page_content and
// metadata are carried through untouched.
type Payload map[string]any

// PageContent returns the text the sparse channel is derived from.
func (p Payload) PageContent() string {
	s, _ := p[PageContentKey].(string)
	return s
}

// Metadata returns the metadata mapping, or nil.
func (p Payload) Metadata() map[string]any {
	m, _ := p[MetadataKey].(map[string]any)
	return m
}

// Clone returns a shallow copy.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// SourceRecord is a dense-only record read from the source collection.
type SourceRecord struct {
	ID      string
	Dense   []float32
	Payload Payload
}

// SparseDocument is the text a store turns into a sparse vector with the named lexical model.
type SparseDocument struct {
	Text  string
	Model string
}

// HybridRecord is a SourceRecord projected into the hybrid collection.
type HybridRecord struct {
	ID      string
	Dense   []float32
	Sparse  SparseDocument
	Payload Payload
}

// ScoredRecord is one fused query hit.
type ScoredRecord struct {
	ID      string
	Score   float64
	Payload Payload
	Dense   []float32
}

// Page is one export page. Next is the opaque store cursor of the following
// page, empty when the export is complete.
type Page struct {
	Records []SourceRecord
	Next    string
}
