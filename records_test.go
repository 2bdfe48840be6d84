package rowcheck

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
	"time"
)

type testRecord struct {
	Valid bool
	Name  string
}

func (r *testRecord) IsValid() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%s is not valid", r.Name)
}

// a single outcome of the sequence
type outcome struct {
	row string
	err string
}

func collect(records *Records) []outcome {
	var out []outcome
	for row, err := range records.All() {
		o := outcome{row: row.String()}
		if err != nil {
			o.err = err.Error()
		}
		out = append(out, o)
	}
	return out
}

type recordsTester struct {
	input   string
	options []Option
	expect  []outcome
}

func (t *recordsTester) runTest(test *testing.T, name string) {
	records := NewRecords[testRecord](strings.NewReader(t.input), ',', t.options...)
	got := collect(records)

	if !reflect.DeepEqual(got, t.expect) {
		test.Errorf("[%s] expected %q, got %q", name, t.expect, got)
		return
	}
	if records.Index() != len(t.expect) {
		test.Errorf("[%s] expected index %d, got %d", name, len(t.expect), records.Index())
	}
}

var recordsTests = map[string]*recordsTester{
	"example": {
		input: "valid,name\ntrue,foo\nfalse,bar\ntrue,baz",
		expect: []outcome{
			{row: "[true,foo]"},
			{row: "[false,bar]", err: "[validation.row.invalid] 1, \"bar is not valid\", [false,bar]\n"},
			{row: "[true,baz]"},
		},
	},
	"short-row": {
		input: "valid,name\ntrue,foo\ntrue\nfalse,bar",
		expect: []outcome{
			{row: "[true,foo]"},
			{row: "[]", err: "[decoding.row.invalid] 1, record on line 3: wrong number of fields\n"},
			{row: "[false,bar]", err: "[validation.row.invalid] 2, \"bar is not valid\", [false,bar]\n"},
		},
	},
	"flexible-short-row": {
		input:   "valid,name\ntrue\ntrue,foo",
		options: []Option{WithFlexible(true)},
		expect: []outcome{
			{row: "[true]", err: "[decoding.row.invalid] 0, field count mismatch: expected 2 fields, found 1\n"},
			{row: "[true,foo]"},
		},
	},
	"bad-type": {
		input: "valid,name\nmaybe,foo\ntrue,bar",
		expect: []outcome{
			{row: "[maybe,foo]", err: "[decoding.row.invalid] 0, field 0 (Valid): strconv.ParseBool: parsing \"maybe\": invalid syntax\n"},
			{row: "[true,bar]"},
		},
	},
	"no-headers": {
		input:   "false,foo\ntrue,bar",
		options: []Option{WithHeaders(false)},
		expect: []outcome{
			{row: "[false,foo]", err: "[validation.row.invalid] 0, \"foo is not valid\", [false,foo]\n"},
			{row: "[true,bar]"},
		},
	},
	"headers-only": {
		input:  "valid,name\n",
		expect: nil,
	},
	"empty": {
		input:  "",
		expect: nil,
	},
}

func TestRecords(t *testing.T) {
	for name, cfg := range recordsTests {
		cfg.runTest(t, name)
	}
}

func TestRecordsDelimiter(t *testing.T) {
	records := NewRecords[testRecord](strings.NewReader("valid|name\n# skipped\ntrue|foo"), '|', WithComment('#'))
	got := collect(records)

	expected := []outcome{{row: "[true,foo]"}}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %q, got %q", expected, got)
	}
	if h := records.Headers(); !reflect.DeepEqual(h, []string{"valid", "name"}) {
		t.Fatalf("unexpected headers %q", h)
	}
}

func TestRecordsBareQuote(t *testing.T) {
	records := NewRecords[testRecord](strings.NewReader("valid,name\ntrue,fo\"o\ntrue,baz"), ',')

	_, err := records.Next()
	var rerr *RowError
	if !errors.As(err, &rerr) || rerr.Kind != DECODING_ROW_INVALID || rerr.Index != 0 {
		t.Fatalf("expected a decoding error at 0, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "[decoding.row.invalid] 0, parse error on line 2") {
		t.Fatalf("unexpected diagnostic %q", err.Error())
	}

	row, err := records.Next()
	if err != nil || row.String() != "[true,baz]" {
		t.Fatalf("expected [true,baz], got %s %v", row, err)
	}
}

func TestRecordsExhaustion(t *testing.T) {
	records := NewRecords[testRecord](strings.NewReader("valid,name\ntrue,foo\n"), ',')

	if _, err := records.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := records.Next(); err != io.EOF {
			t.Fatalf("expected io.EOF, got %v", err)
		}
	}
	// exhaustion does not consume an index
	if records.Index() != 1 {
		t.Fatalf("expected index 1, got %d", records.Index())
	}
}

func TestRecordsSequentialIndex(t *testing.T) {
	var b strings.Builder
	b.WriteString("valid,name\n")
	for i := 0; i < 100; i++ {
		switch i % 3 {
		case 0:
			fmt.Fprintf(&b, "true,r%d\n", i)
		case 1:
			fmt.Fprintf(&b, "false,r%d\n", i)
		default:
			fmt.Fprintf(&b, "oops\n")
		}
	}

	records := NewRecords[testRecord](strings.NewReader(b.String()), ',')
	n := 0
	for _, err := range records.All() {
		var rerr *RowError
		if errors.As(err, &rerr) && rerr.Index != n {
			t.Fatalf("expected index %d, got %d", n, rerr.Index)
		}
		switch n % 3 {
		case 0:
			if err != nil {
				t.Fatalf("row %d: unexpected error %v", n, err)
			}
		case 1:
			if rerr == nil || rerr.Kind != VALIDATION_ROW_INVALID {
				t.Fatalf("row %d: expected a validation error, got %v", n, err)
			}
		default:
			if rerr == nil || rerr.Kind != DECODING_ROW_INVALID {
				t.Fatalf("row %d: expected a decoding error, got %v", n, err)
			}
		}
		n++
	}
	if n != 100 {
		t.Fatalf("expected 100 rows, got %d", n)
	}
}

func TestRecordsIdempotent(t *testing.T) {
	input := "valid,name\ntrue,foo\nfalse,bar\nx\ntrue,baz"
	a := collect(NewRecords[testRecord](strings.NewReader(input), ','))
	b := collect(NewRecords[testRecord](strings.NewReader(input), ','))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical outcomes, got %q and %q", a, b)
	}
}

func TestRecordsBreak(t *testing.T) {
	records := NewRecords[testRecord](strings.NewReader("valid,name\ntrue,a\ntrue,b\ntrue,c"), ',')
	for range records.All() {
		break
	}

	// iteration resumes where it stopped
	row, err := records.Next()
	if err != nil || row.String() != "[true,b]" {
		t.Fatalf("expected [true,b], got %s %v", row, err)
	}
	if records.Index() != 2 {
		t.Fatalf("expected index 2, got %d", records.Index())
	}
}

func TestRecordsStreamError(t *testing.T) {
	input := io.MultiReader(
		strings.NewReader("valid,name\ntrue,foo\n"),
		iotest.ErrReader(errors.New("disk on fire")),
	)
	records := NewRecords[testRecord](input, ',')
	got := collect(records)

	expected := []outcome{
		{row: "[true,foo]"},
		{row: "[]", err: "[decoding.row.invalid] 1, disk on fire\n"},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %q, got %q", expected, got)
	}
	if records.Err() == nil || records.Err().Error() != "disk on fire" {
		t.Fatalf("expected the stream error, got %v", records.Err())
	}
}

func TestRecordsWithValidatorFunc(t *testing.T) {
	calls := 0
	v := ValidatorFunc(func(row Row) error {
		calls++
		if len(row) != 1 {
			return &DecodeError{errors.New("one field")}
		}
		return nil
	})

	records := NewRecordsWith(strings.NewReader("a\nb,c\nd"), ',', v, WithHeaders(false), WithFlexible(true))
	got := collect(records)
	expected := []outcome{
		{row: "[a]"},
		{row: "[b,c]", err: "[decoding.row.invalid] 1, one field\n"},
		{row: "[d]"},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %q, got %q", expected, got)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open(t.TempDir()+"/missing.csv", ',', NewValidator[testRecord]()); err == nil {
		t.Fatalf("expected an error opening a missing file")
	}
}

func TestOpenClose(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "people.csv")
	if err := os.WriteFile(fpath, []byte("valid,name\ntrue,foo\nfalse,bar\n"), 0o644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	records, err := Open(fpath, ',', NewValidator[testRecord]())
	if err != nil {
		t.Fatalf("failed to open %s: %v", fpath, err)
	}
	if got := collect(records); len(got) != 2 {
		t.Fatalf("expected 2 outcomes, got %q", got)
	}
	if err := records.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	// the descriptor is already released
	f := records.source.(*csvSource).input.(*os.File)
	if err := f.Close(); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("expected os.ErrClosed, got %v", err)
	}
}

func TestRecordsCacheIndex(t *testing.T) {
	calls := 0
	v := ValidatorFunc(func(row Row) error {
		calls++
		return errors.New("always bad")
	})

	input := "valid,name\nfalse,x\nfalse,x\nfalse,x\n"
	records := NewRecordsWith(strings.NewReader(input), ',', v, WithCache(8, time.Minute))

	n := 0
	for _, err := range records.All() {
		var rerr *RowError
		if !errors.As(err, &rerr) {
			t.Fatalf("row %d: expected a row error, got %v", n, err)
		}
		if rerr.Index != n {
			t.Fatalf("expected index %d, got %d", n, rerr.Index)
		}
		expect := fmt.Sprintf("[validation.row.invalid] %d, \"always bad\", [false,x]\n", n)
		if rerr.Error() != expect {
			t.Fatalf("expected %q, got %q", expect, rerr.Error())
		}
		n++
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
	if calls != 1 {
		t.Fatalf("expected identical rows to be validated once, got %d calls", calls)
	}
}

type readerOptionsTester struct {
	input   string
	options []Option
	expect  []outcome
}

func (t *readerOptionsTester) runTest(test *testing.T, name string) {
	got := collect(NewRecords[testRecord](strings.NewReader(t.input), ',', t.options...))
	if !reflect.DeepEqual(got, t.expect) {
		test.Errorf("[%s] expected %q, got %q", name, t.expect, got)
	}
}

func TestReaderOptions(t *testing.T) {
	tests := map[string]*readerOptionsTester{
		"lazy-quotes": {
			input:   "valid,name\ntrue,fo\"o\n",
			options: []Option{WithLazyQuotes(true)},
			expect:  []outcome{{row: `[true,fo"o]`}},
		},
		"trim-leading-space": {
			input:   "valid,name\ntrue,   foo\n",
			options: []Option{WithTrimLeadingSpace(true)},
			expect:  []outcome{{row: "[true,foo]"}},
		},
		"keep-leading-space": {
			input:  "valid,name\ntrue,   foo\n",
			expect: []outcome{{row: "[true,   foo]"}},
		},
	}
	for name, test := range tests {
		test.runTest(t, name)
	}
}

func TestRecordsNonASCIIDelimiter(t *testing.T) {
	records := NewRecords[testRecord](strings.NewReader("valid\xe9name\ntrue\xe9foo\n"), 0xe9)
	got := collect(records)

	expected := []outcome{
		{row: "[]", err: "[decoding.row.invalid] 0, got 0xe9: delimiter must be an ASCII character\n"},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %q, got %q", expected, got)
	}
	if !errors.Is(records.Err(), ErrDelimiter) {
		t.Fatalf("expected ErrDelimiter, got %v", records.Err())
	}
}
