package rowcheck

import (
	"io"
	"os"
	"regexp"
	"slices"

	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
	"github.com/rowcheck/pkg/ast"
)

type parser struct {
	parser *participle.Parser[ast.Schema]
}

func newSchemaParser() *parser {
	p := participle.MustBuild[ast.Schema](
		participle.Unquote("String"),
		participle.Union[ast.Value](ast.String{}, ast.Number{}, ast.List{}),
	)

	return &parser{parser: p}
}

func (p *parser) Parse(fname string, r io.Reader) (*Schema, error) {
	s, err := p.parser.Parse(fname, r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse schema")
	}
	return p.bind(fname, s)
}

// Converts the AST schema to a validator
func (p *parser) bind(fname string, s *ast.Schema) (*Schema, error) {
	schema := &Schema{Name: fname}

	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if _, ok := seen[c.Name]; ok {
			return nil, errors.Errorf("%s: duplicate column %s", c.Pos, c.Name)
		}
		seen[c.Name] = struct{}{}

		col, err := p.bindColumn(c)
		if err != nil {
			return nil, err
		}
		schema.Columns = append(schema.Columns, col)
	}

	if len(schema.Columns) == 0 {
		return nil, errors.Errorf("%s: schema has no columns", fname)
	}
	return schema, nil
}

func (p *parser) bindColumn(c *ast.Column) (*Column, error) {
	col := &Column{
		Name:     c.Name,
		Type:     ColumnType(c.Type),
		Optional: c.Optional,
	}

	keys := make(map[string]struct{}, len(c.Attributes))
	for _, attr := range c.Attributes {
		if _, ok := keys[attr.Key]; ok {
			return nil, errors.Errorf("%s: duplicate %s on column %s", attr.Pos, attr.Key, c.Name)
		}
		keys[attr.Key] = struct{}{}

		chk, err := p.bindAttribute(col, attr)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: invalid %s on column %s", attr.Pos, attr.Key, c.Name)
		}
		col.checks = append(col.checks, chk)
	}
	return col, nil
}

var errInapplicable = errors.New("does not apply to the column type")

func (p *parser) bindAttribute(col *Column, attr *ast.Attribute) (check, error) {
	switch attr.Key {
	case "min", "max":
		n, ok := attr.Value.(ast.Number)
		if !ok {
			return nil, errors.New("expected a number")
		}
		switch col.Type {
		case INT_COLUMN, FLOAT_COLUMN:
			return boundCheck(col.Name, attr.Key, n.Float()), nil
		case STRING_COLUMN:
			return lengthCheck(col.Name, attr.Key, n.Float()), nil
		}
		return nil, errInapplicable

	case "pattern":
		s, ok := attr.Value.(ast.String)
		if !ok {
			return nil, errors.New("expected a quoted expression")
		}
		if col.Type != STRING_COLUMN {
			return nil, errInapplicable
		}
		re, err := regexp.Compile(s.String)
		if err != nil {
			return nil, err
		}
		return patternCheck(col.Name, re), nil

	case "oneof":
		l, ok := attr.Value.(ast.List)
		if !ok {
			return nil, errors.New("expected a list of names")
		}
		if col.Type != STRING_COLUMN {
			return nil, errInapplicable
		}
		return oneofCheck(col.Name, slices.Clone(l.List)), nil
	}
	return nil, errors.Errorf("unknown attribute %s", attr.Key)
}

// ParseSchema reads a schema from r. The name is used in error positions
func ParseSchema(fname string, r io.Reader) (*Schema, error) {
	return newSchemaParser().Parse(fname, r)
}

// LoadSchema parses the schema file at fpath
func LoadSchema(fpath string) (*Schema, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open schema %s", fpath)
	}
	defer f.Close()

	return ParseSchema(fpath, f)
}
