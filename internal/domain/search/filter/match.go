package filter

import "strings"

// Matches evaluates the tree against a record payload in-process, for stores
// that cannot push payload filters down.
func (t *Tree) Matches(payload map[string]any) bool {
	if t.IsEmpty() {
		return true
	}
	for _, c := range t.should {
		if c.matches(payload) {
			return true
		}
	}
	return false
}

func (c Condition) matches(payload map[string]any) bool {
	current := []any{payload}
	for _, seg := range strings.Split(c.key, ".") {
		seg = strings.TrimSuffix(seg, "[]")
		current = descend(current, seg)
		if len(current) == 0 {
			return false
		}
	}
	for _, v := range current {
		if scalarEqual(v, c.value) {
			return true
		}
		if arr, ok := v.([]any); ok {
			for _, el := range arr {
				if scalarEqual(el, c.value) {
					return true
				}
			}
		}
	}
	return false
}

// descend looks up field in every node, flattening arrays of objects.
func descend(nodes []any, field string) []any {
	var next []any
	for _, n := range nodes {
		switch t := n.(type) {
		case map[string]any:
			if v, ok := t[field]; ok {
				next = append(next, v)
			}
		case []any:
			for _, el := range t {
				if m, ok := el.(map[string]any); ok {
					if v, ok := m[field]; ok {
						next = append(next, v)
					}
				}
			}
		}
	}
	return next
}

func scalarEqual(got, want any) bool {
	switch w := want.(type) {
	case string:
		s, ok := got.(string)
		return ok && s == w
	case bool:
		b, ok := got.(bool)
		return ok && b == w
	case int64:
		f, ok := toFloat(got)
		return ok && f == float64(w)
	case float64:
		f, ok := toFloat(got)
		return ok && f == w
	}
	return false
}

func toFloat(v any) (float64, bool) {
	n, err := normalizeScalar(v)
	if err != nil {
		return 0, false
	}
	switch t := n.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}
