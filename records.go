// Validated records. A sequence of raw rows checked against a record type
//
// Usage:
// records := NewRecords[MyRecord](input, ',')
//
// records.All() // get an Iterator over the validated rows
package rowcheck

import (
	"io"
	"iter"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type RecordsIterator iter.Seq2[Row, error]

// Records holds a row source and the validator of a record type. Use
// NewRecords, NewRecordsWith or Open to construct a new instance.
//
// Records is single-pass and must not be advanced concurrently.
type Records struct {
	source    RowSource
	validator Validator
	log       zerolog.Logger
	// rows pulled from the source so far
	index int
	err   error
}

// NewRecords validates the rows of r as records of type R
func NewRecords[R any, PR interface {
	*R
	Record
}](r io.Reader, delimiter byte, opts ...Option) *Records {
	return NewRecordsWith(r, delimiter, NewValidator[R, PR](), opts...)
}

// NewRecordsWith validates the rows of r with any validator. The delimiter
// must be ASCII, otherwise the first pull reports ErrDelimiter and the
// sequence ends
func NewRecordsWith(r io.Reader, delimiter byte, v Validator, opts ...Option) *Records {
	o := defaultOptions(delimiter)
	for _, opt := range opts {
		opt(&o)
	}

	if o.cacheSize > 0 {
		v = newCachedValidator(v, o.cacheSize, o.cacheTTL)
	}
	return newRecords(newCSVSource(r, o), v, o.log)
}

// Open a file and validate its rows. The file is released by Close
func Open(fpath string, delimiter byte, v Validator, opts ...Option) (*Records, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open source %s", fpath)
	}
	return NewRecordsWith(f, delimiter, v, opts...), nil
}

func newRecords(source RowSource, v Validator, log zerolog.Logger) *Records {
	return &Records{
		source:    source,
		validator: v,
		log:       log,
	}
}

// Next pulls and validates one row. It returns io.EOF once the source is
// exhausted and a *RowError for every row that did not pass.
func (r *Records) Next() (Row, error) {
	row, err := r.source.Next()
	if err == io.EOF {
		return nil, io.EOF
	}

	// the index is consumed even when the row could not be read
	index := r.index
	r.index++

	if err != nil {
		var serr *StreamError
		if errors.As(err, &serr) {
			r.err = serr.Err
			r.log.Warn().Err(serr.Err).Int("index", index).Msg("source stream failed")
		}
		rerr := &RowError{Kind: DECODING_ROW_INVALID, Index: index, Err: err}
		r.log.Debug().Int("index", index).Str("kind", string(rerr.Kind)).Msg("row invalid")
		return nil, rerr
	}

	if err := r.validator.Validate(row); err != nil {
		rerr := newRowError(index, row, err)
		r.log.Debug().Int("index", index).Str("kind", string(rerr.Kind)).Msg("row invalid")
		return row, rerr
	}
	return row, nil
}

// All returns an iterator over every remaining row
func (r *Records) All() RecordsIterator {
	return func(yield func(Row, error) bool) {
		for {
			row, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(row, err) {
				return
			}
		}
	}
}

// The number of rows pulled so far, which is also the index of the next
// row
func (r *Records) Index() int {
	return r.index
}

// Column names, once the first row has been pulled. Nil without headers
func (r *Records) Headers() []string {
	if h, ok := r.source.(interface{ Headers() []string }); ok {
		return h.Headers()
	}
	return nil
}

// The error of the underlying stream that ended the sequence, if any
func (r *Records) Err() error {
	return r.err
}

// Releases the underlying reader
func (r *Records) Close() error {
	if closer, ok := r.source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
