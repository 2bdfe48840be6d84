package rowcheck

import (
	"github.com/rowcheck/pkg/codec"
)

// Implement this interface for a "Record", i.e., a line from a CSV/PSV
// file. Records are decoded with pkg/codec: exported fields, in
// declaration order, take the row fields in order.
type Record interface {
	IsValid() error
}

// A Validator decodes a raw row and checks it. Decoding failures must be
// returned as *DecodeError
type Validator interface {
	Validate(row Row) error
}

type ValidatorFunc func(row Row) error

func (fn ValidatorFunc) Validate(row Row) error { return fn(row) }

// binds a record type to the Validator interface
type binding[R any, PR interface {
	*R
	Record
}] struct{}

func (binding[R, PR]) Validate(row Row) error {
	var r R
	if err := codec.Unmarshal(row, PR(&r)); err != nil {
		return &DecodeError{err}
	}
	return PR(&r).IsValid()
}

// NewValidator returns the Validator of the record type R. The pointer type
// is inferred: NewValidator[MyRecord]()
func NewValidator[R any, PR interface {
	*R
	Record
}]() Validator {
	return binding[R, PR]{}
}
