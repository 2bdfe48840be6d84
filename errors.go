package rowcheck

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownRecord error = errors.New("unknown record type")
	// encoding/csv splits on runes, so a byte above 0x7f would never match
	ErrDelimiter error = errors.New("delimiter must be an ASCII character")
)

// Stable, greppable tags prefixed to every row diagnostic
type Kind string

const (
	DECODING_ROW_INVALID   Kind = "decoding.row.invalid"
	VALIDATION_ROW_INVALID Kind = "validation.row.invalid"
)

// A row that could not be mapped onto the record type. Validators return it
// to tell the sequence the failure happened before validation.
type DecodeError struct {
	Err error
}

// The message of the decoder is kept verbatim
func (e *DecodeError) Error() string { return e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// Diagnostic for a single row. The rendered message is the one and only
// form the sequence reports.
type RowError struct {
	Kind  Kind
	Index int
	Err   error
	// Offending row. Nil when the row could not be tokenized
	Row Row
}

func (e *RowError) Error() string {
	switch e.Kind {
	case VALIDATION_ROW_INVALID:
		return fmt.Sprintf("[%s] %d, %q, %s\n", e.Kind, e.Index, e.Err.Error(), e.Row)
	default:
		return fmt.Sprintf("[%s] %d, %v\n", e.Kind, e.Index, e.Err)
	}
}

func (e *RowError) Unwrap() error { return e.Err }

// Classifies what a validator returned
func newRowError(index int, row Row, err error) *RowError {
	var de *DecodeError
	if errors.As(err, &de) {
		return &RowError{Kind: DECODING_ROW_INVALID, Index: index, Err: de.Err, Row: row}
	}
	return &RowError{Kind: VALIDATION_ROW_INVALID, Index: index, Err: err, Row: row}
}
