package rowcheck

import (
	"errors"
	"strings"
	"testing"

	"github.com/rowcheck/pkg/codec"
)

const testSchema = `
// people
column valid bool
column name string (min: 1; max: 8; pattern: "^[a-z]+$")
column age int optional (min: 0; max: 150)
column role string (oneof: admin, user)
column score float optional (min: -1.5)
`

type schemaParserTester struct {
	schema string
	// expected column names, nil on failure
	columns []string
	err     string
}

func (t *schemaParserTester) runTest(test *testing.T, name string) {
	s, err := ParseSchema(name, strings.NewReader(t.schema))
	if t.err != "" {
		if err == nil || !strings.Contains(err.Error(), t.err) {
			test.Errorf("[%s] expected error containing %q, got %v", name, t.err, err)
		}
		return
	}
	if err != nil {
		test.Errorf("[%s] failed to parse schema: %v", name, err)
		return
	}
	if strings.Join(s.Names(), ",") != strings.Join(t.columns, ",") {
		test.Errorf("[%s] expected columns %v, got %v", name, t.columns, s.Names())
	}
}

var schemaTests = map[string]*schemaParserTester{
	"full": {
		schema:  testSchema,
		columns: []string{"valid", "name", "age", "role", "score"},
	},
	"no-attributes": {
		schema:  `column a string column b int`,
		columns: []string{"a", "b"},
	},
	"empty": {
		schema: `// nothing`,
		err:    "no columns",
	},
	"duplicate-column": {
		schema: "column a string\ncolumn a int",
		err:    "duplicate column a",
	},
	"duplicate-attribute": {
		schema: `column a int (min: 1; min: 2)`,
		err:    "duplicate min",
	},
	"pattern-on-int": {
		schema: `column a int (pattern: "^1$")`,
		err:    "does not apply",
	},
	"bounds-on-bool": {
		schema: `column a bool (max: 1)`,
		err:    "does not apply",
	},
	"bad-pattern": {
		schema: `column a string (pattern: "(")`,
		err:    "invalid pattern",
	},
	"wrong-value": {
		schema: `column a int (min: "one")`,
		err:    "expected a number",
	},
	"unknown-type": {
		schema: `column a date`,
		err:    "failed to parse schema",
	},
}

func TestSchemaParser(t *testing.T) {
	for tname, cfg := range schemaTests {
		cfg.runTest(t, tname)
	}
}

type schemaValidateTester struct {
	row  Row
	kind Kind
	err  string
}

func (t *schemaValidateTester) runTest(test *testing.T, name string, s *Schema) {
	err := s.Validate(t.row)
	if t.err == "" {
		if err != nil {
			test.Errorf("[%s] expected a valid row, got %v", name, err)
		}
		return
	}
	if err == nil {
		test.Errorf("[%s] expected %q, got a valid row", name, t.err)
		return
	}

	rerr := newRowError(0, t.row, err)
	if rerr.Kind != t.kind {
		test.Errorf("[%s] expected %s, got %s", name, t.kind, rerr.Kind)
	}
	if rerr.Err.Error() != t.err {
		test.Errorf("[%s] expected %q, got %q", name, t.err, rerr.Err.Error())
	}
}

func TestSchemaValidate(t *testing.T) {
	s, err := ParseSchema("people", strings.NewReader(testSchema))
	if err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}

	tests := map[string]*schemaValidateTester{
		"valid":          {row: row("true", "bob", "30", "admin", "0.5")},
		"optional-empty": {row: row("false", "ann", "", "user", "")},
		"arity": {
			row:  row("true", "bob"),
			kind: DECODING_ROW_INVALID,
			err:  "field count mismatch: expected 5 fields, found 2",
		},
		"bad-bool": {
			row:  row("yes", "bob", "30", "admin", ""),
			kind: DECODING_ROW_INVALID,
			err:  `field 0 (valid): strconv.ParseBool: parsing "yes": invalid syntax`,
		},
		"required": {
			row:  row("true", "", "30", "admin", ""),
			kind: VALIDATION_ROW_INVALID,
			err:  "name is required",
		},
		"too-long": {
			row:  row("true", "abcdefghi", "30", "admin", ""),
			kind: VALIDATION_ROW_INVALID,
			err:  "name: length 9 exceeds max 8",
		},
		"pattern": {
			row:  row("true", "Bob", "30", "admin", ""),
			kind: VALIDATION_ROW_INVALID,
			err:  `name: "Bob" does not match ^[a-z]+$`,
		},
		"too-old": {
			row:  row("true", "bob", "200", "admin", ""),
			kind: VALIDATION_ROW_INVALID,
			err:  "age: 200 exceeds max 150",
		},
		"negative-bound": {
			row:  row("true", "bob", "", "user", "-2"),
			kind: VALIDATION_ROW_INVALID,
			err:  "score: -2 below min -1.5",
		},
		"oneof": {
			row:  row("true", "bob", "", "root", ""),
			kind: VALIDATION_ROW_INVALID,
			err:  `role: "root" not one of admin, user`,
		},
	}
	for name, test := range tests {
		test.runTest(t, name, s)
	}
}

func TestSchemaArity(t *testing.T) {
	s, err := ParseSchema("one", strings.NewReader(`column a string`))
	if err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}
	if err := s.Validate(row("x", "y")); !errors.Is(err, codec.ErrArity) {
		t.Errorf("expected an arity error, got %v", err)
	}
}

func TestSchemaRecords(t *testing.T) {
	s, err := ParseSchema("example", strings.NewReader("column valid bool\ncolumn name string"))
	if err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}

	records := NewRecordsWith(strings.NewReader("valid,name\ntrue,a\nmaybe,b\n"), ',', s)
	got := collect(records)
	expect := []outcome{
		{row: "[true,a]"},
		{row: "[maybe,b]", err: "[decoding.row.invalid] 1, field 0 (valid): strconv.ParseBool: parsing \"maybe\": invalid syntax\n"},
	}
	if len(got) != len(expect) || got[0] != expect[0] || got[1] != expect[1] {
		t.Errorf("expected %q, got %q", expect, got)
	}
}
