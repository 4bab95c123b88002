package response

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Transform encodes v for contentType.
//
//   - application/json and any unknown type: lists, maps and structs are
//     JSON-encoded, scalars are written as their plain text.
//   - application/xml, text/xml: lists become sibling <item> elements,
//     maps and structs nested elements, scalars a single element, all under
//     <root>. Values that cannot be encoded produce an empty body.
//   - application/yaml: lists, maps and structs are YAML-encoded.
//
// []byte is always written unchanged.
func Transform(contentType string, v any) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}

	switch baseType(contentType) {
	case "application/xml", "text/xml":
		return MarshalXML(v), nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		if IsStructured(v) {
			return yaml.Marshal(v)
		}
		return []byte(scalarText(v)), nil
	default:
		if IsStructured(v) {
			return json.Marshal(v)
		}
		return []byte(scalarText(v)), nil
	}
}

// IsStructured reports whether v is list-like or object-like.
func IsStructured(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Struct:
		return true
	case reflect.Slice, reflect.Array:
		return rv.Type().Elem().Kind() != reflect.Uint8
	default:
		return false
	}
}

func scalarText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case error:
		return s.Error()
	default:
		rv := reflect.ValueOf(v)
		for rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return ""
			}
			rv = rv.Elem()
		}
		return strings.TrimSpace(fmt.Sprint(rv.Interface()))
	}
}
