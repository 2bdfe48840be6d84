// Package codec maps an ordered list of raw fields to the exported fields
// of a struct, in declaration order, and back.
//
// Usage:
//
//	var r MyRecord
//	codec.Unmarshal(fields, &r)
package codec

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// Returned when the number of fields does not match the number of
// decodable struct fields
var ErrArity = errors.New("field count mismatch")

// Types with their own positional decoding
type Unmarshaler interface {
	UnmarshalFields(fields [][]byte) error
}

// Types with their own positional encoding
type Marshaler interface {
	MarshalFields() ([][]byte, error)
}

// A field that could not be decoded or encoded
type FieldError struct {
	Index int
	Name  string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
)

// Unmarshal decodes fields into v, which must be a non-nil pointer to a
// struct or implement Unmarshaler.
func Unmarshal(fields [][]byte, v any) error {
	if u, ok := v.(Unmarshaler); ok {
		return u.UnmarshalFields(fields)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("codec: cannot decode into %T", v)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("codec: cannot decode into %T", v)
	}

	targets := fieldsOf(rv.Type())
	if len(targets) != len(fields) {
		return fmt.Errorf("%w: expected %d fields, found %d", ErrArity, len(targets), len(fields))
	}

	for i, f := range targets {
		if err := decodeValue(rv.FieldByIndex(f.Index), fields[i]); err != nil {
			return &FieldError{Index: i, Name: name(f), Err: err}
		}
	}
	return nil
}

// Marshal encodes v into an ordered list of fields. It is the inverse of
// Unmarshal.
func Marshal(v any) ([][]byte, error) {
	if m, ok := v.(Marshaler); ok {
		return m.MarshalFields()
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("codec: cannot encode nil %T", v)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("codec: cannot encode %T", v)
	}

	targets := fieldsOf(rv.Type())
	out := make([][]byte, len(targets))
	for i, f := range targets {
		b, err := encodeValue(rv.FieldByIndex(f.Index))
		if err != nil {
			return nil, &FieldError{Index: i, Name: name(f), Err: err}
		}
		out[i] = b
	}
	return out, nil
}

// exported, non-ignored fields in declaration order
func fieldsOf(t reflect.Type) []reflect.StructField {
	fields := make([]reflect.StructField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("field") == "-" {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

func name(f reflect.StructField) string {
	if n := f.Tag.Get("field"); n != "" {
		return n
	}
	return f.Name
}

func decodeValue(v reflect.Value, raw []byte) error {
	if v.CanAddr() && v.Addr().Type().Implements(textUnmarshalerType) {
		return v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText(raw)
	}

	s := string(raw)
	switch v.Kind() {
	case reflect.Pointer:
		// empty fields leave optional values unset
		if len(raw) == 0 {
			v.SetZero()
			return nil
		}
		elem := reflect.New(v.Type().Elem())
		if err := decodeValue(elem.Elem(), raw); err != nil {
			return err
		}
		v.Set(elem)
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(n)
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.Uint8 {
			return fmt.Errorf("unsupported type %s", v.Type())
		}
		v.SetBytes(append([]byte(nil), raw...))
	default:
		return fmt.Errorf("unsupported type %s", v.Type())
	}
	return nil
}

func encodeValue(v reflect.Value) ([]byte, error) {
	if v.Type().Implements(textMarshalerType) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return []byte{}, nil
		}
		return v.Interface().(encoding.TextMarshaler).MarshalText()
	}
	if v.CanAddr() && v.Addr().Type().Implements(textMarshalerType) {
		return v.Addr().Interface().(encoding.TextMarshaler).MarshalText()
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return []byte{}, nil
		}
		return encodeValue(v.Elem())
	case reflect.String:
		return []byte(v.String()), nil
	case reflect.Bool:
		return strconv.AppendBool(nil, v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.AppendInt(nil, v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.AppendUint(nil, v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.AppendFloat(nil, v.Float(), 'g', -1, v.Type().Bits()), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return append([]byte(nil), v.Bytes()...), nil
		}
	}
	return nil, fmt.Errorf("unsupported type %s", v.Type())
}
