// Row sources. Sources of raw rows
//
// Usage:
// src := newCSVSource(reader, options)
//
// src.Next() // the next row, or io.EOF
package rowcheck

import (
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// One tokenized line. Fields are raw bytes
type Row [][]byte

// Renders as [a,b,c]
func (r Row) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range r {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(f)
	}
	b.WriteByte(']')
	return b.String()
}

// Strings converts the fields to text
func (r Row) Strings() []string {
	s := make([]string, len(r))
	for i, f := range r {
		s[i] = string(f)
	}
	return s
}

// A RowSource tokenizes a byte stream into rows. Next returns io.EOF once
// exhausted.
type RowSource interface {
	Next() (Row, error)
}

// Returned by a source when the underlying stream failed, not the
// tokenizer. Nothing can be read after it.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string { return e.Err.Error() }

func (e *StreamError) Unwrap() error { return e.Err }

type csvSource struct {
	reader    *csv.Reader
	input     io.Reader
	delimiter byte
	headers   []string
	// whether the first line is the header
	hasHeaders bool
	started    bool
	done       bool
}

func newCSVSource(input io.Reader, o options) *csvSource {
	r := csv.NewReader(input)
	r.Comma = rune(o.delimiter)
	r.Comment = o.comment
	r.LazyQuotes = o.lazyQuotes
	r.TrimLeadingSpace = o.trimLeadingSpace
	if o.flexible {
		r.FieldsPerRecord = -1
	}

	return &csvSource{
		reader:     r,
		input:      input,
		delimiter:  o.delimiter,
		hasHeaders: o.headers,
	}
}

func (s *csvSource) Headers() []string {
	return s.headers
}

func (s *csvSource) Next() (Row, error) {
	if s.done {
		return nil, io.EOF
	}

	if !s.started {
		s.started = true
		if s.delimiter >= utf8.RuneSelf {
			return nil, s.fail(errors.Wrapf(ErrDelimiter, "got 0x%x", s.delimiter))
		}
		if s.hasHeaders {
			headers, err := s.reader.Read()
			if err != nil {
				return nil, s.fail(errors.Wrap(err, "failed to read headers"))
			}
			s.headers = headers
		}
	}

	fields, err := s.reader.Read()
	switch {
	case err == io.EOF:
		s.done = true
		return nil, io.EOF
	case err != nil:
		var perr *csv.ParseError
		if !errors.As(err, &perr) {
			return nil, s.fail(err)
		}
		return nil, err
	}
	return toRow(fields), nil
}

func (s *csvSource) fail(err error) error {
	s.done = true
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return &StreamError{err}
}

func (s *csvSource) Close() error {
	if closer, ok := s.input.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func toRow(fields []string) Row {
	row := make(Row, len(fields))
	for i, f := range fields {
		row[i] = []byte(f)
	}
	return row
}
