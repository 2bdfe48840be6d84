package rowcheck

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// REPORTS
// ---

// The outcome of checking one source
type Report struct {
	gorm.Model

	// Reports of the same invocation share a run
	RunID string `gorm:"index"`
	// Name or location of the source
	Source string
	// Record type, schema or plugin used
	Validator string
	Rows      int
	Invalid   int

	Diagnostics []Diagnostic `gorm:"constraint:OnDelete:CASCADE"`
}

// A row that did not pass
type Diagnostic struct {
	gorm.Model

	ReportID uint `gorm:"index"`
	RowIndex int
	Kind     string `gorm:"index"`
	Message  string
	// Raw fields, when the row could be tokenized
	Row datatypes.JSON
}
