package lang

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// formatHelper is the hidden environment function used by template
// literals to render interpolated values.
const formatHelper = "__format"

// FormatValue renders v the way print displays it. Top-level strings are
// written verbatim; strings nested in arrays and objects are quoted.
func FormatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return formatNested(v)
}

func formatNested(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"

	case bool:
		return strconv.FormatBool(val)

	case int:
		return strconv.Itoa(val)

	case int64:
		return strconv.FormatInt(val, 10)

	case float64:
		return formatFloat(val)

	case float32:
		return formatFloat(float64(val))

	case string:
		return strconv.Quote(val)

	case []any:
		return formatSlice(val)

	case map[string]any:
		return formatMap(val)

	case *Function:
		return val.String()

	case fmt.Stringer:
		return val.String()

	case error:
		return val.Error()
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Func:
		return "[function]"

	case reflect.Slice, reflect.Array:
		vals := make([]any, rv.Len())
		for i := range vals {
			vals[i] = rv.Index(i).Interface()
		}

		return formatSlice(vals)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprint(v)

	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatSlice(vals []any) string {
	if len(vals) == 0 {
		return "[]"
	}

	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatNested(v)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

func formatMap(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}

	keys := sortedKeys(m)
	parts := make([]string, len(keys))

	for i, k := range keys {
		parts[i] = k + ": " + formatNested(m[k])
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

// truthy reports whether v counts as true in a condition.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0 && !math.IsNaN(val)
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32:
		return rv.Float() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}

	return true
}

// iterate returns the values visited by for-of (keys is false) or for-in
// (keys is true) over v.
func iterate(v any, keys bool) ([]any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil

	case map[string]any:
		names := sortedKeys(val)
		out := make([]any, len(names))

		for i, name := range names {
			out[i] = name
		}

		return out, nil

	case string:
		runes := []rune(val)
		out := make([]any, len(runes))

		for i, r := range runes {
			if keys {
				out[i] = i
			} else {
				out[i] = string(r)
			}
		}

		return out, nil
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())

		for i := range out {
			if keys {
				out[i] = i
			} else {
				out[i] = rv.Index(i).Interface()
			}
		}

		return out, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := int(rv.Int())
		out := make([]any, 0, max(n, 0))

		for i := range max(n, 0) {
			out = append(out, i)
		}

		return out, nil
	}

	return nil, ErrNotIterable.Wrap(NewError(resultTypeName(v)))
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

func resultTypeName(value any) string {
	if value == nil {
		return "nil"
	}

	return reflect.TypeOf(value).String()
}
