package model

// ContentData is the structured payload of a content item, a JSON object
// keyed by field name. The write path owns validation; readers treat the
// payload as opaque.
type ContentData map[string]interface{}

// Clone returns a deep copy of the data. Nested maps and slices are copied,
// scalar values are shared.
func (d ContentData) Clone() ContentData {
	if d == nil {
		return nil
	}
	out := make(ContentData, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, nested := range val {
			out[k] = cloneValue(nested)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, nested := range val {
			out[i] = cloneValue(nested)
		}
		return out
	default:
		return v
	}
}

// HasField reports whether the payload contains the given top level field.
func (d ContentData) HasField(name string) bool {
	_, ok := d[name]
	return ok
}

// String returns the value of a top level string field, or "" if the field
// is missing or not a string.
func (d ContentData) String(name string) string {
	if s, ok := d[name].(string); ok {
		return s
	}
	return ""
}
