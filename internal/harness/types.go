package harness

import (
	"bytes"
	"fmt"

	"github.com/roach88/gwp/internal/export"
	"github.com/roach88/gwp/internal/report"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Events is the number of events reported on after mode filtering.
	Events int `json:"events"`

	// Rows is the report produced. Nil when the report failed.
	Rows []report.Row `json:"rows"`

	// ErrorCode and ErrorMessage describe a failed report.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed reports whether the report itself failed.
func (r *Result) Failed() bool {
	return r.ErrorCode != ""
}

// Render returns the text form compared against golden files: one report
// line per month, or a single error line when the report failed.
func (r *Result) Render() ([]byte, error) {
	var buf bytes.Buffer
	if r.Failed() {
		fmt.Fprintf(&buf, "error: %s\n", r.ErrorMessage)
		return buf.Bytes(), nil
	}
	if err := export.WriteText(&buf, r.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
