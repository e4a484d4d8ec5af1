package filter

// MetadataPrefix is prepended to every compiled field path.
const MetadataPrefix = "metadata."

// Condition is a single leaf clause: field path equals a scalar value.
type Condition struct {
	key   string
	value any
}

// NewCondition creates a condition on an already-qualified key.
func NewCondition(key string, value any) (Condition, error) {
	s, err := normalizeScalar(value)
	if err != nil {
		return Condition{}, err
	}
	return Condition{key: key, value: s}, nil
}

// Key returns the full field path, including the metadata prefix.
func (c Condition) Key() string { return c.key }

// Value returns the scalar (string, bool, int64 or float64).
func (c Condition) Value() any { return c.value }

// Tree is a compiled filter. Its conditions combine with OR: a record is
// admitted when at least one condition matches. A nil *Tree admits everything.
type Tree struct {
	should []Condition
}

// NewTree creates a tree from pre-built conditions.
func NewTree(should ...Condition) *Tree {
	if len(should) == 0 {
		return nil
	}
	return &Tree{should: should}
}

// Should returns the OR-ed conditions.
func (t *Tree) Should() []Condition {
	if t == nil {
		return nil
	}
	return t.should
}

// Len returns the number of leaf conditions.
func (t *Tree) Len() int { return len(t.Should()) }

// IsEmpty reports whether the tree constrains nothing.
func (t *Tree) IsEmpty() bool { return t.Len() == 0 }

// Compile turns a metadata query into a condition tree.
//
// Nested mappings join keys with ".", mapping elements of a sequence recurse
// under "key[]", scalar elements of a sequence recurse under the same key.
// Mapping keys are walked in sorted order so output is deterministic.
// Absent or empty input yields nil.
func Compile(v Value) *Tree {
	if v.kind != KindNested {
		return nil
	}
	var out []Condition
	for _, k := range v.Keys() {
		out = collect(out, k, v.fields[k])
	}
	return NewTree(out...)
}

// CompileAny parses and compiles a decoded JSON/YAML query.
func CompileAny(raw any) (*Tree, error) {
	v, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return Compile(v), nil
}

func collect(out []Condition, path string, v Value) []Condition {
	switch v.kind {
	case KindNested:
		for _, k := range v.Keys() {
			out = collect(out, path+"."+k, v.fields[k])
		}
	case KindSequence:
		for _, item := range v.items {
			if item.kind == KindNested {
				out = collect(out, path+"[]", item)
			} else {
				out = collect(out, path, item)
			}
		}
	case KindLeaf:
		out = append(out, Condition{key: MetadataPrefix + path, value: v.scalar})
	}
	return out
}
