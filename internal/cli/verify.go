package cli

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/materialize"
	"github.com/roach88/gwp/internal/report"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Source SourceOptions
	Range  RangeOptions
}

// VerifyCutoff holds the verification result for a single month's cutoff.
type VerifyCutoff struct {
	Month         calendar.Month `json:"month"`
	Cutoff        calendar.Date  `json:"cutoff"`
	Contracts     int            `json:"contracts"`
	Digest        string         `json:"digest"`
	Deterministic bool           `json:"deterministic"`
}

// VerifyResult holds the overall verification result.
type VerifyResult struct {
	Cutoffs       []VerifyCutoff `json:"cutoffs"`
	Parallelism   int            `json:"parallelism"`
	ReportsMatch  bool           `json:"reports_match"`
	Deterministic bool           `json:"deterministic"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay the event log and verify determinism",
		Long: `Materialize every month's cutoff twice and compare snapshot digests, then
run the report sequentially and in parallel and compare the rows.

Exit codes:
  0 - Replay is deterministic
  1 - Verification failed (differences detected, missing contract)
  2 - Command error (database not found, etc.)

Examples:
  gwp verify --events events.jsonl
  gwp verify --db gwp.db --from 2020-01 --to 2021-01 --parallel 8
  gwp verify --db gwp.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	addSourceFlags(cmd, &opts.Source)
	addRangeFlags(cmd, &opts.Range)

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	runID := newRunID()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		RunID:     runID,
	}

	cfg, err := resolveConfig(cmd, &opts.Source, &opts.Range)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	ctx := commandContext(cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr()).With("run_id", runID)
	events, err := loadEvents(ctx, cmd, cfg, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, sourceErrorCode(err), "failed to load events", err)
	}
	events = cfg.Mode.Filter(events)

	result := VerifyResult{
		Cutoffs:       make([]VerifyCutoff, 0, cfg.Range().Len()),
		Deterministic: true,
	}

	for month := range cfg.Range().Months() {
		cutoff, err := verifyCutoff(events, month)
		if err != nil {
			return formatter.Fail(ExitFailure, report.ErrorCode(err), fmt.Sprintf("failed to replay %s", month), err)
		}
		result.Cutoffs = append(result.Cutoffs, cutoff)
		if !cutoff.Deterministic {
			result.Deterministic = false
		}
	}

	// A parallel run must agree with a sequential one
	result.Parallelism = cfg.Parallelism
	if result.Parallelism < 2 {
		result.Parallelism = min(runtime.GOMAXPROCS(0), report.MaxParallelism)
	}
	match, err := compareReports(ctx, events, cfg.Range(), result.Parallelism)
	if err != nil {
		return formatter.Fail(ExitFailure, report.ErrorCode(err), "report failed", err)
	}
	result.ReportsMatch = match
	if !match {
		result.Deterministic = false
	}

	logger.Info("verification finished",
		"cutoffs", len(result.Cutoffs),
		"deterministic", result.Deterministic)

	if opts.Format == "json" {
		return outputVerifyJSON(formatter, result)
	}
	return outputVerifyText(formatter, result)
}

// verifyCutoff materializes the month's cutoff twice and compares digests.
func verifyCutoff(events []contract.Event, month calendar.Month) (VerifyCutoff, error) {
	cutoff := report.Cutoff(month)

	first, err := materialize.Materialize(events, cutoff)
	if err != nil {
		return VerifyCutoff{}, fmt.Errorf("first replay failed: %w", err)
	}
	second, err := materialize.Materialize(events, cutoff)
	if err != nil {
		return VerifyCutoff{}, fmt.Errorf("second replay failed: %w", err)
	}

	d1, err := materialize.Digest(first)
	if err != nil {
		return VerifyCutoff{}, err
	}
	d2, err := materialize.Digest(second)
	if err != nil {
		return VerifyCutoff{}, err
	}

	return VerifyCutoff{
		Month:         month,
		Cutoff:        cutoff,
		Contracts:     first.Len(),
		Digest:        d1,
		Deterministic: d1 == d2,
	}, nil
}

// compareReports runs the report sequentially and with parallelism p.
func compareReports(ctx context.Context, events []contract.Event, r calendar.MonthRange, p int) (bool, error) {
	sequential, err := (&report.Aggregator{Parallelism: 1}).Run(ctx, events, r)
	if err != nil {
		return false, err
	}
	parallel, err := (&report.Aggregator{Parallelism: p}).Run(ctx, events, r)
	if err != nil {
		return false, err
	}
	return slices.Equal(sequential, parallel), nil
}

// outputVerifyJSON outputs the verification result as JSON.
func outputVerifyJSON(f *OutputFormatter, result VerifyResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
		RunID:  f.RunID,
	}
	if !result.Deterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeVerify,
			Message: "replay is not deterministic",
		}
	}

	if err := f.encode(response); err != nil {
		return err
	}
	if !result.Deterministic {
		return NewExitError(ExitFailure, "replay is not deterministic").reported()
	}
	return nil
}

// outputVerifyText outputs the verification result as text.
func outputVerifyText(f *OutputFormatter, result VerifyResult) error {
	w := f.Writer

	for _, c := range result.Cutoffs {
		mark := "✓"
		if !c.Deterministic {
			mark = "✗"
		}
		if f.Verbose || !c.Deterministic {
			fmt.Fprintf(w, "%s %s (cutoff %s): %d contract(s), digest %s\n",
				mark, c.Month, c.Cutoff, c.Contracts, c.Digest)
		}
	}

	if result.ReportsMatch {
		fmt.Fprintf(w, "✓ Parallel report (%d workers) matches sequential report\n", result.Parallelism)
	} else {
		fmt.Fprintf(w, "✗ Parallel report (%d workers) differs from sequential report\n", result.Parallelism)
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, "replay is not deterministic")
	}
	fmt.Fprintf(w, "✓ %d cutoff(s) replayed deterministically\n", len(result.Cutoffs))
	return nil
}
