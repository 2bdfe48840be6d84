package ast

import "github.com/alecthomas/participle/v2/lexer"

type Schema struct {
	Columns []*Column `parser:"@@*"`
}

type Column struct {
	Pos lexer.Position

	Name       string       `parser:"'column' @Ident"`
	Type       string       `parser:"@('string' | 'int' | 'float' | 'bool')"`
	Optional   bool         `parser:"@'optional'?"`
	Attributes []*Attribute `parser:"[ '(' @@ ( ';' @@ )* ')' ]"`
}

type Attribute struct {
	Pos lexer.Position

	Key   string `parser:"@('min' | 'max' | 'pattern' | 'oneof') ':'"`
	Value Value  `parser:"@@"`
}

type Value interface{ value() }

type String struct {
	String string `parser:"@String"`
}

func (String) value() {}

type Number struct {
	Neg    bool    `parser:"@'-'?"`
	Number float64 `parser:"@(Float | Int)"`
}

func (n Number) Float() float64 {
	if n.Neg {
		return -n.Number
	}
	return n.Number
}

func (Number) value() {}

type List struct {
	List []string `parser:"@Ident (',' @Ident)*"`
}

func (List) value() {}
