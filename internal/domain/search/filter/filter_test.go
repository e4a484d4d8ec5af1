package filter

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/hybridsync/internal/domain"
)

func keys(t *Tree) []string {
	out := make([]string, 0, t.Len())
	for _, c := range t.Should() {
		out = append(out, c.Key())
	}
	return out
}

func mustCompile(t *testing.T, raw any) *Tree {
	t.Helper()
	tree, err := CompileAny(raw)
	if err != nil {
		t.Fatalf("CompileAny(%v): %v", raw, err)
	}
	return tree
}

func TestCompile_EmptyAndAbsent(t *testing.T) {
	for name, raw := range map[string]any{
		"nil":         nil,
		"empty map":   map[string]any{},
		"empty seq":   map[string]any{"a": []any{}},
		"empty inner": map[string]any{"a": map[string]any{}},
	} {
		t.Run(name, func(t *testing.T) {
			if tree := mustCompile(t, raw); tree != nil {
				t.Errorf("expected nil tree, got %v", keys(tree))
			}
		})
	}
}

func TestCompile_FlatScalar(t *testing.T) {
	tree := mustCompile(t, map[string]any{"species": "dog"})

	if tree.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tree.Len())
	}
	c := tree.Should()[0]
	if c.Key() != "metadata.species" || c.Value() != "dog" {
		t.Errorf("got %s = %v", c.Key(), c.Value())
	}
}

func TestCompile_NestedPath(t *testing.T) {
	tree := mustCompile(t, map[string]any{"a": map[string]any{"b": 1}})

	c := tree.Should()[0]
	if c.Key() != "metadata.a.b" {
		t.Errorf("Key() = %q", c.Key())
	}
	if c.Value() != int64(1) {
		t.Errorf("Value() = %#v, want int64(1)", c.Value())
	}
}

func TestCompile_SequenceOfObjects(t *testing.T) {
	tree := mustCompile(t, map[string]any{"a": []any{map[string]any{"b": 1}}})

	if got := keys(tree); len(got) != 1 || got[0] != "metadata.a[].b" {
		t.Errorf("keys = %v", got)
	}
}

func TestCompile_SequenceOfScalars(t *testing.T) {
	tree := mustCompile(t, map[string]any{"a": []any{1, 2}})

	if tree.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tree.Len())
	}
	for i, c := range tree.Should() {
		if c.Key() != "metadata.a" || c.Value() != int64(i+1) {
			t.Errorf("[%d] got %s = %v", i, c.Key(), c.Value())
		}
	}
}

func TestCompile_LeafCountMatchesReachableScalars(t *testing.T) {
	raw := map[string]any{
		"species": "dog",
		"owner":   map[string]any{"name": "ann", "tags": []any{"a", "b", "c"}},
		"visits":  []any{map[string]any{"vet": "x", "year": 2024}, 7},
		"nested":  []any{[]any{1, 2}},
	}
	// species(1) + owner.name(1) + owner.tags(3) + visits[].vet/year(2) + visits(1) + nested(2)
	if got := mustCompile(t, raw).Len(); got != 10 {
		t.Errorf("Len() = %d, want 10", got)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	raw := map[string]any{"z": 1, "a": map[string]any{"y": true, "b": "x"}, "m": []any{"p", "q"}}
	want := []string{"metadata.a.b", "metadata.a.y", "metadata.m", "metadata.m", "metadata.z"}

	for range 20 {
		got := keys(mustCompile(t, raw))
		if len(got) != len(want) {
			t.Fatalf("keys = %v", got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("keys = %v, want %v", got, want)
			}
		}
	}
}

func TestCompile_ScalarNormalization(t *testing.T) {
	var decoded map[string]any
	dec := json.NewDecoder(bytesReader(`{"n": 3, "f": 2.5, "b": false}`))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		t.Fatal(err)
	}

	got := map[string]any{}
	for _, c := range mustCompile(t, decoded).Should() {
		got[c.Key()] = c.Value()
	}
	if got["metadata.n"] != int64(3) {
		t.Errorf("n = %#v", got["metadata.n"])
	}
	if got["metadata.f"] != 2.5 {
		t.Errorf("f = %#v", got["metadata.f"])
	}
	if got["metadata.b"] != false {
		t.Errorf("b = %#v", got["metadata.b"])
	}
}

func TestCompile_TypedGoMaps(t *testing.T) {
	tree := mustCompile(t, map[string][]string{"color": {"red", "blue"}})
	if tree.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tree.Len())
	}
}

func TestCompileAny_Unsupported(t *testing.T) {
	tests := map[string]any{
		"struct leaf":   map[string]any{"a": struct{}{}},
		"null leaf":     map[string]any{"a": nil},
		"nested func":   map[string]any{"a": []any{func() {}}},
		"top-level seq": []any{"a"},
		"top-level str": "dog",
		"int keys":      map[string]any{"a": map[int]string{1: "x"}},
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := CompileAny(raw)
			if !errors.Is(err, domain.ErrUnsupportedFilterValue) {
				t.Errorf("err = %v, want ErrUnsupportedFilterValue", err)
			}
		})
	}
}

func TestCompile_BuiltVariants(t *testing.T) {
	dog, _ := Leaf("dog")
	one, _ := Leaf(1)
	v := Nested(map[string]Value{
		"species": dog,
		"ids":     Sequence(one, Nested(map[string]Value{"k": dog})),
	})

	got := keys(Compile(v))
	want := []string{"metadata.ids", "metadata.ids[].k", "metadata.species"}
	if len(got) != len(want) {
		t.Fatalf("keys = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keys = %v, want %v", got, want)
		}
	}
	if Compile(one) != nil {
		t.Error("non-mapping root should compile to nil")
	}
}
