package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/materialize"
	"github.com/roach88/gwp/internal/report"
)

// AssertionError is returned when an assertion fails.
// It includes the full report to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Rows     []report.Row // Full report for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Rows) > 0 {
		fmt.Fprintf(&buf, "\nFull report:\n")
		for _, row := range e.Rows {
			fmt.Fprintf(&buf, "  %s\n", row)
		}
	}

	return buf.String()
}

// Assertion type names used in AssertionError.
const (
	AssertRowCount = "row_count"
	AssertRow      = "row"
	AssertError    = "error"
	AssertSnapshot = "snapshot"
)

// assertRows compares the report against the expected rows. An empty
// expectation asserts nothing.
func assertRows(rows []report.Row, expect []ExpectedRow) []error {
	if len(expect) == 0 {
		return nil
	}
	if len(rows) != len(expect) {
		return []error{&AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows", len(expect)),
			Actual:   fmt.Sprintf("%d rows", len(rows)),
			Rows:     rows,
		}}
	}

	var errs []error
	for i, want := range expect {
		got := rows[i]
		if got.Month.String() == want.Month &&
			got.ActiveContracts == want.Contracts &&
			got.ActualPremium == want.AGWP &&
			got.ExpectedPremium == want.EGWP {
			continue
		}
		errs = append(errs, &AssertionError{
			Type: AssertRow,
			Expected: fmt.Sprintf("Report for %s: [contracts=%d, AGWP=%d, EGWP=%d]",
				want.Month, want.Contracts, want.AGWP, want.EGWP),
			Actual: got.String(),
			Rows:   rows,
		})
	}
	return errs
}

// assertError checks the report outcome against expect_error. With no
// expectation the report must succeed.
func assertError(result *Result, expect string) error {
	switch {
	case expect == "" && result.Failed():
		return &AssertionError{
			Type:     AssertError,
			Expected: "report succeeds",
			Actual:   result.ErrorMessage,
		}
	case expect == "":
		return nil
	case !result.Failed():
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("report fails with %s", expect),
			Actual:   "report succeeded",
			Rows:     result.Rows,
		}
	case result.ErrorCode == expect, strings.Contains(result.ErrorMessage, expect):
		return nil
	default:
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("report fails with %s", expect),
			Actual:   result.ErrorMessage,
		}
	}
}

// assertSnapshot materializes events at the assertion's cutoff and
// requires exactly the expected contracts.
func assertSnapshot(events []contract.Event, a SnapshotAssertion) error {
	at, err := calendar.ParseDate(a.At)
	if err != nil {
		return err
	}

	snap, err := materialize.Materialize(events, at)
	if err != nil {
		return &AssertionError{
			Type:     AssertSnapshot,
			Expected: fmt.Sprintf("snapshot at %s", at),
			Actual:   err.Error(),
		}
	}

	want := make([]string, 0, len(a.Contracts))
	for _, c := range a.Contracts {
		want = append(want, formatExpected(c))
	}
	got := make([]string, 0, snap.Len())
	for _, c := range snap.Contracts() {
		got = append(got, formatContract(c))
	}

	if strings.Join(want, "; ") != strings.Join(got, "; ") {
		return &AssertionError{
			Type:     AssertSnapshot,
			Expected: fmt.Sprintf("at %s: [%s]", at, strings.Join(want, "; ")),
			Actual:   fmt.Sprintf("at %s: [%s]", at, strings.Join(got, "; ")),
		}
	}
	return nil
}

func formatContract(c contract.Contract) string {
	terminated := "-"
	if c.IsTerminated() {
		terminated = c.TerminatedAt.String()
	}
	return fmt.Sprintf("id=%d premium=%d started=%s terminated=%s", c.ID, c.Premium, c.StartedAt, terminated)
}

func formatExpected(c ExpectedContract) string {
	terminated := "-"
	if c.TerminatedAt != "" {
		terminated = c.TerminatedAt
	}
	return fmt.Sprintf("id=%d premium=%d started=%s terminated=%s", c.ID, c.Premium, c.StartedAt, terminated)
}
