package domain

import "testing"

func TestPayload_Accessors(t *testing.T) {
	p := Payload{
		"page_content": "dogs love walks",
		"metadata":     map[string]any{"species": "dog"},
		"source":       "declarative",
	}

	if got := p.PageContent(); got != "dogs love walks" {
		t.Errorf("PageContent() = %q", got)
	}
	if got := p.Metadata()["species"]; got != "dog" {
		t.Errorf("Metadata()[species] = %v", got)
	}
}

func TestPayload_MissingKeys(t *testing.T) {
	p := Payload{"page_content": 42}

	if got := p.PageContent(); got != "" {
		t.Errorf("non-string page_content should read as empty, got %q", got)
	}
	if p.Metadata() != nil {
		t.Error("expected nil metadata")
	}
}

func TestPayload_CloneIsIndependent(t *testing.T) {
	p := Payload{"a": 1}
	c := p.Clone()
	c["b"] = 2

	if _, ok := p["b"]; ok {
		t.Error("clone shares storage with original")
	}
	if Payload(nil).Clone() != nil {
		t.Error("clone of nil should be nil")
	}
}

func TestHybridConfig_WithDefaults(t *testing.T) {
	c := HybridConfig{SparseModel: "custom/bm42"}.WithDefaults()

	if c.DenseField != DefaultDenseField || c.SparseField != DefaultSparseField {
		t.Errorf("field names not defaulted: %+v", c)
	}
	if c.SparseModel != "custom/bm42" {
		t.Errorf("explicit model overwritten: %q", c.SparseModel)
	}
	if !(CollectionShape{SparseField: "sparse"}).IsHybrid() {
		t.Error("shape with sparse field should be hybrid")
	}
}
