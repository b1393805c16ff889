package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/gwp/internal/report"
)

// Run executes a scenario and returns the result.
//
// The report runs exactly as the CLI runs it: the event log is filtered by
// mode, then aggregated over the range. A failed report is not an error
// here; it is recorded in the result and checked against expect_error.
// Run returns an error only when the scenario itself cannot be executed.
func Run(scenario *Scenario) (*Result, error) {
	r, err := scenario.monthRange()
	if err != nil {
		return nil, fmt.Errorf("invalid range: %w", err)
	}
	mode, err := scenario.mode()
	if err != nil {
		return nil, err
	}
	events, err := scenario.events()
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	events = mode.Filter(events)

	parallelism := scenario.Parallelism
	if parallelism == 0 {
		parallelism = 1
	}
	agg := &report.Aggregator{
		Parallelism: parallelism,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in scenarios
	}

	result := NewResult()
	result.Events = len(events)

	rows, err := agg.Run(context.Background(), events, r)
	if err != nil {
		result.ErrorCode = report.ErrorCode(err)
		result.ErrorMessage = err.Error()
	}
	result.Rows = rows

	if err := assertError(result, scenario.ExpectError); err != nil {
		result.AddError(err.Error())
	}
	for _, err := range assertRows(rows, scenario.Expect) {
		result.AddError(err.Error())
	}
	for _, snap := range scenario.Snapshots {
		if err := assertSnapshot(events, snap); err != nil {
			result.AddError(err.Error())
		}
	}

	return result, nil
}
