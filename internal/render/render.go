// Package render writes bson documents as deterministic JSON.
//
// Output rules:
//   - bson.D keeps its element order (sort documents depend on it)
//   - maps are written with keys in UTF-16 code unit order (RFC 8785)
//   - strings are NFC normalized and not HTML-escaped
//   - ObjectIDs render as {"$oid":"<hex>"}, UUID binaries as {"$uuid":"<uuid>"}
//
// The same input always produces the same bytes, which makes the output
// usable for golden files and log records.
package render

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/unicode/norm"
)

const uuidSubtype byte = 0x04

// JSON renders v as deterministic JSON.
func JSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := write(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Indent renders v and indents the result with two spaces.
func Indent(v any) ([]byte, error) {
	raw, err := JSON(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String renders v, falling back to fmt formatting when v cannot be rendered.
func String(v any) string {
	raw, err := JSON(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

func write(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bson.D:
		return writeD(buf, val)
	case bson.E:
		return writeD(buf, bson.D{val})
	case bson.M:
		return writeMap(buf, map[string]any(val))
	case map[string]any:
		return writeMap(buf, val)
	case bson.A:
		return writeList(buf, []any(val))
	case []any:
		return writeList(buf, val)
	case string:
		return writeString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case primitive.ObjectID:
		buf.WriteString(`{"$oid":"`)
		buf.WriteString(val.Hex())
		buf.WriteString(`"}`)
	case primitive.Binary:
		return writeBinary(buf, val)
	case primitive.DateTime:
		return writeDate(buf, val.Time())
	case time.Time:
		return writeDate(buf, val)
	case primitive.Regex:
		buf.WriteString(`{"$regex":`)
		if err := writeString(buf, val.Pattern); err != nil {
			return err
		}
		buf.WriteString(`,"$options":`)
		if err := writeString(buf, val.Options); err != nil {
			return err
		}
		buf.WriteByte('}')
	case float64:
		return writeFloat(buf, val)
	case float32:
		return writeFloat(buf, float64(val))
	case fmt.Stringer:
		if isNumeric(reflect.ValueOf(v)) {
			return writeReflect(buf, reflect.ValueOf(v))
		}
		return writeString(buf, val.String())
	default:
		return writeReflect(buf, reflect.ValueOf(v))
	}
	return nil
}

// writeReflect handles named scalar types and typed slices/maps.
func writeReflect(buf *bytes.Buffer, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return writeFloat(buf, rv.Float())
	case reflect.String:
		return writeString(buf, rv.String())
	case reflect.Bool:
		buf.WriteString(strconv.FormatBool(rv.Bool()))
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return writeList(buf, items)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("unsupported map key type: %s", rv.Type().Key())
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return writeMap(buf, m)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return write(buf, rv.Elem().Interface())
	default:
		return fmt.Errorf("unsupported type for rendering: %s", rv.Type())
	}
	return nil
}

func isNumeric(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func writeD(buf *bytes.Buffer, d bson.D) error {
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, e.Key); err != nil {
			return fmt.Errorf("key %q: %w", e.Key, err)
		}
		buf.WriteByte(':')
		if err := write(buf, e.Value); err != nil {
			return fmt.Errorf("value for key %q: %w", e.Key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeMap(buf *bytes.Buffer, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := write(buf, m[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeList(buf *bytes.Buffer, items []any) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := write(buf, item); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

func writeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("cannot render non-finite float %v", f)
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func writeDate(buf *bytes.Buffer, t time.Time) error {
	buf.WriteString(`{"$date":"`)
	buf.WriteString(t.UTC().Format(time.RFC3339Nano))
	buf.WriteString(`"}`)
	return nil
}

func writeBinary(buf *bytes.Buffer, b primitive.Binary) error {
	if b.Subtype == uuidSubtype && len(b.Data) == 16 {
		u, err := uuid.FromBytes(b.Data)
		if err != nil {
			return err
		}
		buf.WriteString(`{"$uuid":"`)
		buf.WriteString(u.String())
		buf.WriteString(`"}`)
		return nil
	}
	fmt.Fprintf(buf, `{"$binary":{"base64":"%s","subType":"%02x"}}`,
		base64.StdEncoding.EncodeToString(b.Data), b.Subtype)
	return nil
}

// compareUTF16 orders strings by UTF-16 code units as RFC 8785 requires.
// Go's native string comparison orders by UTF-8 bytes, which differs for
// characters outside the BMP.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
