package rowcheck

import (
	"time"

	"github.com/rs/zerolog"
)

type Option func(opts *options)

type options struct {
	delimiter        byte
	headers          bool
	flexible         bool
	comment          rune
	lazyQuotes       bool
	trimLeadingSpace bool
	cacheSize        int
	cacheTTL         time.Duration
	log              zerolog.Logger
}

func defaultOptions(delimiter byte) options {
	return options{
		delimiter: delimiter,
		headers:   true,
		log:       zerolog.Nop(),
	}
}

// Whether the first line holds the column names. Default: true
func WithHeaders(headers bool) Option {
	return func(opts *options) {
		opts.headers = headers
	}
}

// Accept rows with a varying number of fields. The record decoder decides
// whether the row fits.
func WithFlexible(flexible bool) Option {
	return func(opts *options) {
		opts.flexible = flexible
	}
}

// Lines starting with the comment character are skipped
func WithComment(c rune) Option {
	return func(opts *options) {
		opts.comment = c
	}
}

func WithLazyQuotes(lazy bool) Option {
	return func(opts *options) {
		opts.lazyQuotes = lazy
	}
}

func WithTrimLeadingSpace(trim bool) Option {
	return func(opts *options) {
		opts.trimLeadingSpace = trim
	}
}

// Memoize validation results of identical rows. A size of zero disables
// the cache
func WithCache(size int, ttl time.Duration) Option {
	return func(opts *options) {
		opts.cacheSize = size
		opts.cacheTTL = ttl
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(opts *options) {
		opts.log = log
	}
}
