// Package document holds the in-memory form of a configuration item: a nested
// mapping of scalars, sequences and mappings, plus the codecs that read and
// write it and a recursive associative diff.
package document

import (
	"encoding/json"
	"fmt"
	"math"
)

// Document is a decoded configuration item. Key order is irrelevant.
type Document map[string]any

// Get returns the top-level value stored under key.
func (d Document) Get(key string) (any, bool) {
	v, ok := d[key]
	return v, ok
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(map[string]any(d)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// Normalize rewrites decoder output into the canonical shapes used by Diff:
// every mapping becomes map[string]any and every sequence []any.
func Normalize(raw map[string]any) Document {
	if raw == nil {
		return Document{}
	}
	return Document(normalizeValue(raw).(map[string]any))
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		return jsonNumber(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeValue(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	default:
		return v
	}
}

// asFloat reports the numeric value of v when v is any Go number type.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// asInteger reports v as a signed or unsigned 64-bit integer. Floats are
// not integers here, even when they hold a whole number.
func asInteger(v any) (i int64, u uint64, unsigned, ok bool) {
	switch n := v.(type) {
	case int:
		return int64(n), 0, false, true
	case int8:
		return int64(n), 0, false, true
	case int16:
		return int64(n), 0, false, true
	case int32:
		return int64(n), 0, false, true
	case int64:
		return n, 0, false, true
	case uint:
		return 0, uint64(n), true, true
	case uint8:
		return 0, uint64(n), true, true
	case uint16:
		return 0, uint64(n), true, true
	case uint32:
		return 0, uint64(n), true, true
	case uint64:
		return 0, n, true, true
	default:
		return 0, 0, false, false
	}
}

// integersEqual compares two integers exactly. ok is false unless both
// values are integers.
func integersEqual(a, b any) (equal, ok bool) {
	ai, au, aUnsigned, aok := asInteger(a)
	bi, bu, bUnsigned, bok := asInteger(b)
	if !aok || !bok {
		return false, false
	}
	switch {
	case !aUnsigned && !bUnsigned:
		return ai == bi, true
	case aUnsigned && bUnsigned:
		return au == bu, true
	case aUnsigned:
		return bi >= 0 && uint64(bi) == au, true
	default:
		return ai >= 0 && uint64(ai) == bu, true
	}
}

func numbersEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
