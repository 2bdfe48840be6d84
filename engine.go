package rowcheck

import (
	"context"
	"io"
	"os"
	"slices"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Returned by the engine when it stopped on the first invalid row
var ErrStopped = errors.New("stopped on invalid row")

// Name of the standard input source
const STDIN_SOURCE = "-"

type engine struct {
	validator Validator
	delimiter byte
	options   []Option
	emitter   Emitter
	log       zerolog.Logger
	// stop on the first invalid row
	failFast bool
	stdin    io.Reader
}

func NewEngine(v Validator, delimiter byte, em Emitter, opts ...Option) *engine {
	return &engine{
		validator: v,
		delimiter: delimiter,
		options:   opts,
		emitter:   em,
		log:       zerolog.Nop(),
		stdin:     os.Stdin,
	}
}

func (e *engine) WithFailFast(failFast bool) *engine {
	e.failFast = failFast
	return e
}

func (e *engine) WithLogger(log zerolog.Logger) *engine {
	e.log = log
	return e
}

// Entrypoint to start the engine.
// Run reads every source in order and pushes the outcome of each row
// into the emitter.
func (e *engine) Run(ctx context.Context, sources []string) ([]*Summary, error) {
	summaries := make([]*Summary, 0, len(sources))
	for _, src := range sources {
		summary, err := e.runSource(ctx, src)
		if summary != nil {
			summaries = append(summaries, summary)
		}
		if err != nil {
			return summaries, err
		}
	}
	return summaries, nil
}

func (e *engine) open(src string) (*Records, error) {
	opts := append(slices.Clone(e.options), WithLogger(e.log.With().Str("source", src).Logger()))
	if src == STDIN_SOURCE {
		return NewRecordsWith(io.NopCloser(e.stdin), e.delimiter, e.validator, opts...), nil
	}
	return Open(src, e.delimiter, e.validator, opts...)
}

func (e *engine) runSource(ctx context.Context, src string) (*Summary, error) {
	records, err := e.open(src)
	if err != nil {
		return nil, err
	}
	defer records.Close()

	summary := &Summary{Source: src}
	e.log.Debug().Str("source", src).Msg("reading source")

	for row, err := range records.All() {
		if err := ctx.Err(); err != nil {
			// the rows read so far still make a report
			if ferr := e.finish(summary); ferr != nil {
				return summary, ferr
			}
			return summary, err
		}

		ev := Event{Type: ROW_EVENT, Source: src, Index: records.Index() - 1, Row: row}
		var rerr *RowError
		if errors.As(err, &rerr) {
			ev.Err = rerr
			summary.Invalid++
		}
		summary.Rows++

		if err := e.emitter.Emit(ev); err != nil {
			return summary, errors.Wrapf(err, "failed to handle row %d of %s", ev.Index, src)
		}
		if ev.Err == nil {
			continue
		}

		ev.Type = INVALID_EVENT
		if err := e.emitter.Emit(ev); err != nil {
			return summary, errors.Wrapf(err, "failed to handle row %d of %s", ev.Index, src)
		}
		if e.failFast {
			summary.Err = records.Err()
			if err := e.finish(summary); err != nil {
				return summary, err
			}
			return summary, ErrStopped
		}
	}

	summary.Err = records.Err()
	return summary, e.finish(summary)
}

func (e *engine) finish(summary *Summary) error {
	e.log.Info().
		Str("source", summary.Source).
		Int("rows", summary.Rows).
		Int("invalid", summary.Invalid).
		Msg("source checked")

	ev := Event{Type: SOURCE_EVENT, Source: summary.Source, Summary: summary}
	if err := e.emitter.Emit(ev); err != nil {
		return errors.Wrapf(err, "failed to handle source %s", summary.Source)
	}
	return nil
}
