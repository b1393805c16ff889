package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/materialize"
	"github.com/roach88/gwp/internal/report"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	Source SourceOptions
	At     string
}

// SnapshotResult is the JSON payload of the snapshot command.
type SnapshotResult struct {
	At        calendar.Date       `json:"at"`
	Contracts []contract.Contract `json:"contracts"`
	Folded    int                 `json:"folded"`
	Digest    string              `json:"digest"`
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show the contracts materialized at a cutoff date",
		Long: `Fold every event dated strictly before --at and print the resulting
contract states, ordered by contract id.

Exit codes:
  0 - Snapshot produced
  1 - Materialization failed (missing contract)
  2 - Command error

Examples:
  gwp snapshot --events events.jsonl --at 2020-03-15
  gwp snapshot --db gwp.db --at 2021-01-01 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, cmd)
		},
	}

	addSourceFlags(cmd, &opts.Source)
	cmd.Flags().StringVar(&opts.At, "at", "", "cutoff date, exclusive (YYYY-MM-DD, required)")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

func runSnapshot(opts *SnapshotOptions, cmd *cobra.Command) error {
	runID := newRunID()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		RunID:     runID,
	}

	at, err := calendar.ParseDate(opts.At)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid --at", err)
	}
	cfg, err := resolveConfig(cmd, &opts.Source, nil)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr()).With("run_id", runID)
	events, err := loadEvents(commandContext(cmd), cmd, cfg, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, sourceErrorCode(err), "failed to load events", err)
	}
	events = cfg.Mode.Filter(events)

	snap, stats, err := materialize.New(logger).Materialize(events, at)
	if err != nil {
		return formatter.Fail(ExitFailure, report.ErrorCode(err), "materialization failed", err)
	}
	digest, err := materialize.Digest(snap)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "digest failed", err)
	}

	result := SnapshotResult{
		At:        at,
		Contracts: snap.Contracts(),
		Folded:    stats.Folded,
		Digest:    digest,
	}
	formatter.VerboseLog("Folded %d event(s), skipped %d", stats.Folded, stats.Skipped)

	switch opts.Format {
	case "json":
		return formatter.Success(result)
	case "table":
		return outputSnapshotTable(formatter, result)
	default:
		return outputSnapshotText(formatter, result)
	}
}

func outputSnapshotText(f *OutputFormatter, r SnapshotResult) error {
	w := f.Writer
	fmt.Fprintf(w, "Snapshot before %s: %d contract(s)\n", r.At, len(r.Contracts))
	for _, c := range r.Contracts {
		fmt.Fprintf(w, "  contract %d: premium=%d, started=%s, terminated=%s\n",
			c.ID, c.Premium, c.StartedAt, terminatedText(c))
	}
	fmt.Fprintf(w, "Digest: %s\n", r.Digest)
	return nil
}

func outputSnapshotTable(f *OutputFormatter, r SnapshotResult) error {
	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPREMIUM\tSTARTED\tTERMINATED")
	for _, c := range r.Contracts {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", c.ID, c.Premium, c.StartedAt, terminatedText(c))
	}
	return tw.Flush()
}

func terminatedText(c contract.Contract) string {
	if !c.IsTerminated() {
		return "-"
	}
	return c.TerminatedAt.String()
}
