// Package safejson normalizes arbitrary value graphs in to plain
// JSON-serializable values before they hit durable storage.
//
// The persistence layer must never throw on cyclic or otherwise
// non-serializable inputs, and must never silently lose structure that *is*
// serializable. Cycles are replaced with a sentinel string; values of a kind
// JSON has no representation for are replaced with a type-name placeholder.
package safejson

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Substituted when the walk re-enters a value it is currently visiting.
const CircularRef = "<circular-reference>"

// IsCircularRef reports whether a stored value is the cycle sentinel (or a
// variant of it written by an older version).
func IsCircularRef(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, "<circular")
}

// Sanitize returns a copy of v containing only nil, bool, numbers, strings,
// []any, and map[string]any. It never panics, for any input. Sanitizing an
// already-sanitized value returns an equal value (idempotence).
func Sanitize(v any) any {
	return sanitizeValue(reflect.ValueOf(v), map[uintptr]bool{})
}

// Marshal sanitizes v and then encodes it as JSON. It only fails if the
// underlying encoder does, which sanitization makes effectively impossible.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(Sanitize(v))
}

// MarshalIndent is Marshal with indentation, for human-edited files.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(Sanitize(v), prefix, indent)
}

func sanitizeValue(rv reflect.Value, visiting map[uintptr]bool) any {
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return sanitizeValue(rv.Elem(), visiting)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if visiting[ptr] {
			return CircularRef
		}
		visiting[ptr] = true
		out := sanitizeValue(rv.Elem(), visiting)
		delete(visiting, ptr)
		return out
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if visiting[ptr] {
			return CircularRef
		}
		visiting[ptr] = true
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = sanitizeValue(iter.Value(), visiting)
		}
		delete(visiting, ptr)
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return []any{}
		}
		ptr := rv.Pointer()
		if visiting[ptr] {
			return CircularRef
		}
		visiting[ptr] = true
		out := sanitizeSeq(rv, visiting)
		delete(visiting, ptr)
		return out
	case reflect.Array:
		return sanitizeSeq(rv, visiting)
	case reflect.Struct:
		// time.Time round-trips as the string form the stores expect
		if t, ok := rv.Interface().(time.Time); ok {
			return t.UTC().Format(time.RFC3339Nano)
		}
		return sanitizeStruct(rv, visiting)
	default:
		// func, chan, complex, unsafe pointer, ...
		return fmt.Sprintf("<non-serializable: %s>", rv.Type().String())
	}
}

func sanitizeSeq(rv reflect.Value, visiting map[uintptr]bool) []any {
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = sanitizeValue(rv.Index(i), visiting)
	}
	return out
}

func sanitizeStruct(rv reflect.Value, visiting map[uintptr]bool) map[string]any {
	t := rv.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		_, tagged := f.Tag.Lookup("json")
		if f.Anonymous && !tagged {
			// flatten embedded structs the way encoding/json does
			fv := rv.Field(i)
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				if inner, ok := sanitizeValue(fv, visiting).(map[string]any); ok {
					for k, v := range inner {
						if _, exists := out[k]; !exists {
							out[k] = v
						}
					}
				}
				continue
			}
		}
		name := f.Name
		omitEmpty := false
		if tag, ok := f.Tag.Lookup("json"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" && len(parts) == 1 {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					omitEmpty = true
				}
			}
		}
		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		out[name] = sanitizeValue(fv, visiting)
	}
	return out
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}
