package rowcheck

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

// Collects the outcome of a run into reports
type reportCollector struct {
	runID     string
	validator string

	current map[string]*Report
	done    []*Report
}

func newReportCollector(validator string) *reportCollector {
	return &reportCollector{
		runID:     uuid.NewString(),
		validator: validator,
		current:   make(map[string]*Report),
	}
}

func (c *reportCollector) RunID() string {
	return c.runID
}

func (c *reportCollector) Subscriber() Subscriber {
	return Subscriber{
		Events: []EventType{INVALID_EVENT, SOURCE_EVENT},
		Handle: c.handle,
	}
}

func (c *reportCollector) report(source string) *Report {
	r, ok := c.current[source]
	if !ok {
		r = &Report{RunID: c.runID, Source: source, Validator: c.validator}
		c.current[source] = r
	}
	return r
}

func (c *reportCollector) handle(e Event) error {
	r := c.report(e.Source)

	switch e.Type {
	case INVALID_EVENT:
		d := Diagnostic{
			RowIndex: e.Err.Index,
			Kind:     string(e.Err.Kind),
			Message:  strings.TrimSuffix(e.Err.Error(), "\n"),
		}
		if e.Row != nil {
			raw, err := json.Marshal(e.Row.Strings())
			if err != nil {
				return errors.Wrap(err, "failed to encode row")
			}
			d.Row = datatypes.JSON(raw)
		}
		r.Diagnostics = append(r.Diagnostics, d)
	case SOURCE_EVENT:
		r.Rows = e.Summary.Rows
		r.Invalid = e.Summary.Invalid
		c.done = append(c.done, r)
		delete(c.current, e.Source)
	}
	return nil
}

// Reports of sources read so far
func (c *reportCollector) Reports() []*Report {
	return c.done
}

// Store the collected reports
func (c *reportCollector) flush(repo *reportRepo) error {
	if len(c.done) == 0 {
		return nil
	}
	if err := repo.addReport(c.done...); err != nil {
		return err
	}
	c.done = nil
	return nil
}
