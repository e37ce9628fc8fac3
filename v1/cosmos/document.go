package cosmos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// ValueKind identifies the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Value is one JSON value inside a Document. The zero Value is null.
//
// Numbers keep their JSON text so that documents round-trip without float
// rounding.
type Value struct {
	kind ValueKind
	b    bool
	n    json.Number
	s    string
	obj  *Document
	arr  []Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int wraps i.
func Int(i int64) Value { return Value{kind: KindNumber, n: json.Number(strconv.FormatInt(i, 10))} }

// Float wraps f. NaN and infinities are not representable and become null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{kind: KindNumber, n: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}
}

// Number wraps n without validating it.
func Number(n json.Number) Value { return Value{kind: KindNumber, n: n} }

// Object wraps d. A nil document becomes an empty object.
func Object(d *Document) Value {
	if d == nil {
		d = NewDocument()
	}
	return Value{kind: KindObject, obj: d}
}

// Array wraps vs.
func Array(vs ...Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{kind: KindArray, arr: vs}
}

// ValueOf converts a plain Go value (as produced by encoding/json or built by
// hand) into a Value. Map keys are inserted in sorted order.
func ValueOf(v interface{}) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Document:
		return Object(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		if _, err := strconv.ParseFloat(string(t), 64); err != nil {
			return Value{}, fmt.Errorf("invalid number %q", t)
		}
		return Number(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint32:
		return Int(int64(t)), nil
	case float32:
		return valueOfFloat(float64(t))
	case float64:
		return valueOfFloat(t)
	case map[string]interface{}:
		d, err := DocumentFromMap(t)
		if err != nil {
			return Value{}, err
		}
		return Object(d), nil
	case []interface{}:
		arr := make([]Value, 0, len(t))
		for i, e := range t {
			ev, err := ValueOf(e)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			arr = append(arr, ev)
		}
		return Array(arr...), nil
	case []string:
		arr := make([]Value, len(t))
		for i, s := range t {
			arr[i] = String(s)
		}
		return Array(arr...), nil
	case []float32:
		arr := make([]Value, len(t))
		for i, f := range t {
			arr[i] = Float(float64(f))
		}
		return Array(arr...), nil
	case []float64:
		arr := make([]Value, len(t))
		for i, f := range t {
			arr[i] = Float(f)
		}
		return Array(arr...), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %s", reflect.TypeOf(v))
	}
}

func valueOfFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("number %v is not representable in JSON", f)
	}
	return Float(f), nil
}

// Kind returns the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (json.Number, bool) { return v.n, v.kind == KindNumber }

// AsObject returns the document held by v.
func (v Value) AsObject() (*Document, bool) { return v.obj, v.kind == KindObject }

// AsArray returns the elements held by v.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Text returns the scalar text of v: strings unquoted, numbers and booleans
// in their JSON form, "" for null. Objects and arrays return their JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return v.n.String()
	case KindString:
		return v.s
	default:
		b, _ := v.MarshalJSON()
		return string(b)
	}
}

// Interface converts v back to plain Go values: nil, bool, json.Number,
// string, map[string]interface{} or []interface{}.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindObject:
		return v.obj.Map()
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports deep equality. Numbers compare by numeric value, object
// field order is ignored.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindNumber:
		if v.n == o.n {
			return true
		}
		a, errA := strconv.ParseFloat(string(v.n), 64)
		b, errB := strconv.ParseFloat(string(o.n), 64)
		return errA == nil && errB == nil && a == b
	case KindObject:
		return v.obj.Equal(o.obj)
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) clone() Value {
	switch v.kind {
	case KindObject:
		return Object(v.obj.Clone())
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, e := range v.arr {
			arr[i] = e.clone()
		}
		return Array(arr...)
	default:
		return v
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if v.n == "" {
			buf.WriteString("0")
			return nil
		}
		if _, err := strconv.ParseFloat(string(v.n), 64); err != nil {
			return fmt.Errorf("invalid number %q", v.n)
		}
		buf.WriteString(string(v.n))
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindObject:
		return v.obj.encode(buf)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Document is a JSON object whose fields keep their insertion order.
//
// The zero value is an empty document. A Document is not safe for concurrent
// mutation. Operations in this package never mutate documents passed in.
type Document struct {
	keys   []string
	fields map[string]Value
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{fields: make(map[string]Value)}
}

// ParseDocument decodes a single JSON object.
func ParseDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after document")
	}
	d, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", v.Kind())
	}
	return d, nil
}

// DocumentFromMap converts m, inserting keys in sorted order.
func DocumentFromMap(m map[string]interface{}) (*Document, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := NewDocument()
	for _, k := range keys {
		v, err := ValueOf(m[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		d.Set(k, v)
	}
	return d, nil
}

// Get returns the value of key.
func (d *Document) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	v, ok := d.fields[key]
	return v, ok
}

// GetString returns key if it holds a string.
func (d *Document) GetString(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Set stores v under key. New keys are appended, existing keys keep their
// position. Set returns d for chaining.
func (d *Document) Set(key string, v Value) *Document {
	if d.fields == nil {
		d.fields = make(map[string]Value)
	}
	if _, exists := d.fields[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.fields[key] = v
	return d
}

// Delete removes key. It reports whether the key was present.
func (d *Document) Delete(key string) bool {
	if d == nil {
		return false
	}
	if _, ok := d.fields[key]; !ok {
		return false
	}
	delete(d.fields, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i:i], d.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the field names in insertion order.
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

// Len returns the number of fields.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// ID returns the "id" field when it is a string.
func (d *Document) ID() string {
	id, _ := d.GetString("id")
	return id
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{
		keys:   append([]string(nil), d.keys...),
		fields: make(map[string]Value, len(d.fields)),
	}
	for k, v := range d.fields {
		c.fields[k] = v.clone()
	}
	return c
}

// Equal reports whether d and o hold the same fields, ignoring order.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	if len(d.fields) != len(o.fields) {
		return false
	}
	for k, v := range d.fields {
		ov, ok := o.fields[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Map converts d to a plain map.
func (d *Document) Map() map[string]interface{} {
	if d == nil {
		return nil
	}
	m := make(map[string]interface{}, len(d.fields))
	for k, v := range d.fields {
		m[k] = v.Interface()
	}
	return m
}

// MarshalJSON encodes fields in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	if err := d.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		if err := d.fields[k].encode(buf); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// UnmarshalJSON decodes an object, keeping field order.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// String returns the JSON encoding, for logs and test failure output.
func (d *Document) String() string {
	b, err := d.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid document: %v>", err)
	}
	return string(b)
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '{':
			d := NewDocument()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("expected object key, got %v", kt)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				d.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Object(d), nil
		case '[':
			arr := []Value{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(arr...), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}
