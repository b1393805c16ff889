package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/export"
	"github.com/roach88/gwp/internal/metrics"
	"github.com/roach88/gwp/internal/report"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Source      SourceOptions
	Range       RangeOptions
	Output      string // .xlsx or .pdf export
	MetricsFile string
	Lang        string // digit grouping for --format table
}

// ReportResult is the JSON payload of the report command.
type ReportResult struct {
	From   calendar.Month `json:"from"`
	To     calendar.Month `json:"to"`
	Mode   contract.Mode  `json:"mode"`
	Events int            `json:"events"`
	Rows   []report.Row   `json:"rows"`
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report monthly actual and expected gross written premium",
		Long: `Replay the event log at the first day of every month after each month in
[from, to) and print the number of active contracts, the running actual
premium (AGWP) and the expected premium for the whole range (EGWP).

Settings are layered: built-in defaults, then --config, then GWP_*
environment variables, then flags.

Exit codes:
  0 - Report produced
  1 - Report failed (missing contract, inconsistent log)
  2 - Command error (bad flags, unreadable event log, etc.)

Examples:
  gwp report --events events.jsonl
  gwp report --db gwp.db --from 2020-01 --to 2021-01 --mode lifecycle
  gwp report --events events.jsonl --parallel 8 --output report.xlsx
  gwp report --config gwp.cue --format json --metrics-file gwp.prom`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	addSourceFlags(cmd, &opts.Source)
	addRangeFlags(cmd, &opts.Range)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "also export the report to a .xlsx or .pdf file")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	cmd.Flags().StringVar(&opts.Lang, "lang", "en", "language for digit grouping in table output")

	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
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
	if cmd.Flags().Changed("metrics-file") {
		cfg.MetricsFile = opts.MetricsFile
	}
	if opts.Output != "" {
		if _, err := export.FileFormatOf(opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid --output", err)
		}
	}
	lang, err := language.Parse(opts.Lang)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid --lang", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr()).With("run_id", runID)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events, err := loadEvents(ctx, cmd, cfg, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, sourceErrorCode(err), "failed to load events", err)
	}
	events = cfg.Mode.Filter(events)

	r := cfg.Range()
	logger.Info("report starting", "mode", cfg.Mode, "months", r.Len(), "events", len(events))

	recorder := metrics.New()
	agg := &report.Aggregator{
		Parallelism: cfg.Parallelism,
		Observer:    recorder,
		Logger:      logger,
	}
	rows, runErr := agg.Run(ctx, events, r)

	// Failed runs still leave metrics behind for the batch scheduler
	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}

	if runErr != nil {
		logger.Error("report failed", "error", runErr)
		return formatter.Fail(ExitFailure, report.ErrorCode(runErr), "report failed", runErr)
	}

	result := export.Report{Range: r, Mode: cfg.Mode, Events: len(events), Rows: rows}
	if opts.Output != "" {
		if err := export.WriteFile(opts.Output, result); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to export report", err)
		}
		logger.Info("report exported", "path", opts.Output)
	}

	final := result.Final()
	logger.Info("report finished",
		"months", len(rows),
		"agwp", final.ActualPremium,
		"egwp", final.ExpectedPremium)

	return outputReport(formatter, result, lang)
}

func outputReport(f *OutputFormatter, r export.Report, lang language.Tag) error {
	switch f.Format {
	case "json":
		return f.Success(ReportResult{
			From:   r.Range.Start,
			To:     r.Range.End,
			Mode:   r.Mode,
			Events: r.Events,
			Rows:   r.Rows,
		})
	case "table":
		return export.WriteTable(f.Writer, r.Rows, lang)
	default:
		if err := export.WriteText(f.Writer, r.Rows); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		return nil
	}
}
