package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// BundleSchema is the embedded schema for addon recipe bundles
const BundleSchema = "recipe_bundle.schema.json"

var (
	defaultOnce      sync.Once
	defaultValidator SchemaValidator
)

// Default returns the process-wide validator
func Default() SchemaValidator {
	defaultOnce.Do(func() {
		defaultValidator = NewSchemaValidator()
	})
	return defaultValidator
}

// ValidateBundle checks the structure of a decoded bundle. Recipe semantics
// (patterns, limits, ingredient counts) are left to the recipe builder.
func ValidateBundle(doc any) error {
	return Default().ValidateDocument(doc, BundleSchema)
}

// normalize converts a decoded YAML value into the JSON data model the
// schema validator expects: string-keyed maps, json.Number for numbers and
// RFC 3339 strings for timestamps.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case int:
		return json.Number(strconv.Itoa(t))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case uint64:
		return json.Number(strconv.FormatUint(t, 10))
	case float64:
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64))
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return v
	}
}
