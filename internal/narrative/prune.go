package narrative

// prune recursively strips nil, empty-string, empty-slice, and empty-map
// values from a JSON-like structure, spec.md §4.8's "null/empty values are
// removed recursively".
func prune(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			p := prune(child)
			if isEmpty(p) {
				continue
			}
			out[k] = p
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(val))
		for _, child := range val {
			p := prune(child)
			if isEmpty(p) {
				continue
			}
			out = append(out, p)
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return v
	}
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case string:
		return val == ""
	case map[string]interface{}:
		return len(val) == 0
	case []interface{}:
		return len(val) == 0
	default:
		return false
	}
}
