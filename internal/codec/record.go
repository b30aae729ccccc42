// Package codec implements the length estimator, encoder and decoder that
// walk an augmented schema.Schema against a Record (a plain keyed tree of
// Go values mirroring the wire schema's field names).
package codec

import "github.com/teracodec-project/teracodec/internal/schema"

// Record is the in-memory representation of one message: field name ->
// scalar, string, []byte, nested Record, or []Record for an array field.
type Record = map[string]any

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// toInt64 coerces the numeric Go types a Record field might hold (native
// ints, JSON-decoded float64, etc.) into an int64 for width truncation by
// the wire writer.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		if i, ok := toInt64(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}

func toBytes(v any) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case nil:
		return "", true
	default:
		return "", false
	}
}

func toObject(v any) Record {
	if r, ok := v.(Record); ok {
		return r
	}
	return Record{}
}

// toItemSlice normalizes an array field's value to []Record, accepting
// either a native []Record or a []any of Record-like maps (the shape
// produced by generic JSON decoding).
func toItemSlice(v any) []Record {
	switch items := v.(type) {
	case []Record:
		return items
	case []any:
		out := make([]Record, 0, len(items))
		for _, it := range items {
			out = append(out, toObject(it))
		}
		return out
	default:
		return nil
	}
}

// isSafeInteger reports whether v fits within the 53-bit range a
// float64-based host number can represent exactly.
func isSafeInteger(v int64) bool {
	const maxSafe = int64(1) << 53
	return v >= -maxSafe && v <= maxSafe
}

func scalarSizeHint(f *schema.Field) int {
	switch f.Type {
	case "bool", "byte":
		return 1
	case "int16", "uint16":
		return 2
	case "int32", "uint32", "float":
		return 4
	case "int64", "uint64", "double":
		return 8
	}
	return 0
}
