package engine

import (
	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// DowncastNumeric implements the engine contract's numeric downcast chain:
// Float64 -> Int64 -> Int32 -> UInt64 -> UInt32 -> Float32 -> failure.
// Any concrete Go numeric type returned by a driver is accepted as long as
// it fits one of these shapes; anything else is a TypeMismatch.
func DowncastNumeric(column string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case nil:
		return 0, errors.NewTypeMismatch(column, "numeric", "null")
	default:
		return 0, errors.NewTypeMismatch(column, "numeric", typeName(v))
	}
}

// DowncastString requires v to already be a string (or nil, which callers
// must handle explicitly since NULL is a valid string-column value).
func DowncastString(column string, v any) (string, bool, error) {
	if v == nil {
		return "", true, nil
	}
	switch s := v.(type) {
	case string:
		return s, false, nil
	case []byte:
		return string(s), false, nil
	default:
		return "", false, errors.NewTypeMismatch(column, "string", typeName(v))
	}
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case int, int32, int64, uint32, uint64:
		return "integer"
	case float32, float64:
		return "float"
	case string, []byte:
		return "string"
	case bool:
		return "boolean"
	default:
		return "unknown"
	}
}
