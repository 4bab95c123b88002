package response

import (
	"bytes"
	"encoding"
	"encoding/xml"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode"
)

const (
	xmlRoot = "root"
	xmlItem = "item"
)

// MarshalXML renders v as an XML document rooted at <root>. Unsupported
// values (channels, functions, cycles past a fixed depth) yield nil.
func MarshalXML(v any) []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	rv := reflect.ValueOf(v)
	if err := encodeElement(enc, xmlRoot, rv, 0); err != nil {
		return nil
	}
	if err := enc.Flush(); err != nil {
		return nil
	}
	return buf.Bytes()
}

const maxXMLDepth = 32

func encodeElement(enc *xml.Encoder, name string, rv reflect.Value, depth int) error {
	if depth > maxXMLDepth {
		return fmt.Errorf("xml: nesting deeper than %d", maxXMLDepth)
	}
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			rv = reflect.Value{}
			break
		}
		rv = rv.Elem()
	}

	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	if rv.IsValid() {
		if err := encodeContent(enc, rv, depth); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

func encodeContent(enc *xml.Encoder, rv reflect.Value, depth int) error {
	if tm, ok := rv.Interface().(encoding.TextMarshaler); ok {
		text, err := tm.MarshalText()
		if err != nil {
			return err
		}
		return enc.EncodeToken(xml.CharData(text))
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return enc.EncodeToken(xml.CharData(b))
		}
		for i := range rv.Len() {
			if err := encodeElement(enc, xmlItem, rv.Index(i), depth+1); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		keys := rv.MapKeys()
		names := make(map[string]reflect.Value, len(keys))
		order := make([]string, 0, len(keys))
		for _, k := range keys {
			n := xmlName(fmt.Sprint(k.Interface()))
			names[n] = rv.MapIndex(k)
			order = append(order, n)
		}
		slices.Sort(order)
		for _, n := range order {
			if err := encodeElement(enc, n, names[n], depth+1); err != nil {
				return err
			}
		}
		return nil

	case reflect.Struct:
		t := rv.Type()
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := fieldName(f)
			if name == "-" {
				continue
			}
			if err := encodeElement(enc, xmlName(name), rv.Field(i), depth+1); err != nil {
				return err
			}
		}
		return nil

	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return fmt.Errorf("xml: unsupported kind %s", rv.Kind())

	default:
		return enc.EncodeToken(xml.CharData(scalarText(rv.Interface())))
	}
}

// fieldName prefers the xml tag, then the json tag, then the Go name.
func fieldName(f reflect.StructField) string {
	for _, key := range []string{"xml", "json"} {
		if tag, ok := f.Tag.Lookup(key); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name != "" {
				return name
			}
		}
	}
	return f.Name
}

// xmlName turns an arbitrary key into a valid element name.
func xmlName(s string) string {
	if s == "" {
		return xmlItem
	}
	var b strings.Builder
	for i, r := range s {
		valid := unicode.IsLetter(r) || r == '_' || (i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'))
		if !valid {
			if i == 0 && unicode.IsDigit(r) {
				b.WriteByte('_')
				b.WriteRune(r)
				continue
			}
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
