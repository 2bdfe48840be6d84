package rowcheck

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rowcheck/pkg/codec"
)

type ColumnType string

const (
	STRING_COLUMN ColumnType = "string"
	INT_COLUMN    ColumnType = "int"
	FLOAT_COLUMN  ColumnType = "float"
	BOOL_COLUMN   ColumnType = "bool"
)

// A constraint over a decoded value
type check func(v any) error

type Column struct {
	Name     string
	Type     ColumnType
	Optional bool

	checks []check
}

// Decodes a single field into the column type
func (c *Column) decode(field []byte) (any, error) {
	s := string(field)
	switch c.Type {
	case INT_COLUMN:
		return strconv.ParseInt(s, 10, 64)
	case FLOAT_COLUMN:
		return strconv.ParseFloat(s, 64)
	case BOOL_COLUMN:
		return strconv.ParseBool(s)
	default:
		return s, nil
	}
}

// A validator described by a text schema. One column per field, in order
type Schema struct {
	Name    string
	Columns []*Column
}

func (s *Schema) Validate(row Row) error {
	if len(row) != len(s.Columns) {
		return &DecodeError{fmt.Errorf("%w: expected %d fields, found %d", codec.ErrArity, len(s.Columns), len(row))}
	}

	values := make([]any, len(row))
	for i, col := range s.Columns {
		if len(row[i]) == 0 {
			continue
		}
		v, err := col.decode(row[i])
		if err != nil {
			return &DecodeError{&codec.FieldError{Index: i, Name: col.Name, Err: err}}
		}
		values[i] = v
	}

	for i, col := range s.Columns {
		if values[i] == nil {
			if col.Optional {
				continue
			}
			return fmt.Errorf("%s is required", col.Name)
		}
		for _, chk := range col.checks {
			if err := chk(values[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Column names in order
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

func number(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func exceeds(key string, v, bound float64) bool {
	if key == "min" {
		return v < bound
	}
	return v > bound
}

func describe(key string) string {
	if key == "min" {
		return "below min"
	}
	return "exceeds max"
}

func boundCheck(name, key string, bound float64) check {
	return func(v any) error {
		if exceeds(key, number(v), bound) {
			return fmt.Errorf("%s: %v %s %v", name, v, describe(key), bound)
		}
		return nil
	}
}

func lengthCheck(name, key string, bound float64) check {
	return func(v any) error {
		n := utf8.RuneCountInString(v.(string))
		if exceeds(key, float64(n), bound) {
			return fmt.Errorf("%s: length %d %s %v", name, n, describe(key), bound)
		}
		return nil
	}
}

func patternCheck(name string, re *regexp.Regexp) check {
	return func(v any) error {
		if !re.MatchString(v.(string)) {
			return fmt.Errorf("%s: %q does not match %s", name, v, re)
		}
		return nil
	}
}

func oneofCheck(name string, allowed []string) check {
	return func(v any) error {
		if !slices.Contains(allowed, v.(string)) {
			return fmt.Errorf("%s: %q not one of %s", name, v, strings.Join(allowed, ", "))
		}
		return nil
	}
}
