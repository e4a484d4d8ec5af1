package redis

import (
	"errors"
	"strconv"

	"github.com/kailas-cloud/hybridsync/internal/db"
)

// Hash field names shared by every collection.
const (
	fieldID        = "id"
	fieldPayload   = "payload"
	fieldVector    = "vector" // dense field name for unnamed-vector collections
	fieldScore     = "__vector_score"
	metaDenseField = "dense_field"
	metaDenseDim   = "dense_dim"
	metaSparse     = "sparse_field"
	metaCreatedAt  = "created_at"
)

func vectorField(name string) string {
	if name == "" {
		return fieldVector
	}
	return name
}

// indexFor builds the FT index that backs one hybrid collection.
func (s *Store) indexFor(schema *db.CollectionSchema) (*db.IndexDefinition, error) {
	b := db.NewIndex(s.indexName(schema.Name)).
		Prefix(s.docPrefix(schema.Name)).
		Tag(fieldID).
		VectorHNSW(vectorField(schema.DenseField), schema.DenseDim, s.hnswM, s.hnswEF)
	if schema.SparseField != "" {
		b = b.Text(schema.SparseField)
	}
	return b.Build()
}

func buildCreateArgs(idx *db.IndexDefinition) ([]string, error) {
	if idx.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(idx.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	args := []string{idx.Name, "ON", "HASH"}

	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}

	args = append(args, "SCHEMA")

	for i := range idx.Fields {
		fieldArgs, err := buildFieldArgs(&idx.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}

	return args, nil
}

func buildFieldArgs(f *db.IndexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}

	args := []string{f.Name}

	switch f.Type {
	case db.IndexFieldText:
		args = append(args, "TEXT")
	case db.IndexFieldTag:
		args = append(args, "TAG")
	case db.IndexFieldVector:
		vectorArgs, err := buildVectorFieldArgs(f)
		if err != nil {
			return nil, err
		}
		args = append(args, vectorArgs...)
	default:
		return nil, errors.New("unknown field type")
	}

	return args, nil
}

func buildVectorFieldArgs(f *db.IndexField) ([]string, error) {
	if f.VectorDim <= 0 {
		return nil, errors.New("vector DIM must be positive")
	}

	algo := f.VectorAlgo
	if algo == "" {
		algo = db.VectorFlat
	}
	distance := f.VectorDistance
	if distance == "" {
		distance = db.DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.VectorDim),
		"DISTANCE_METRIC", string(distance),
	}
	if algo == db.VectorHNSW {
		if f.VectorM > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.VectorM))
		}
		if f.VectorEFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.VectorEFConstruct))
		}
	}

	result := make([]string, 0, 3+len(attrs))
	result = append(result, "VECTOR", string(algo), strconv.Itoa(len(attrs)))
	result = append(result, attrs...)

	return result, nil
}
