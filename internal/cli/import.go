package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/eventlog"
	"github.com/roach88/gwp/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
}

// ImportFileResult holds the outcome of importing one file.
type ImportFileResult struct {
	File       string `json:"file"`
	BatchID    string `json:"batch_id,omitempty"`
	Appended   int    `json:"appended"`
	Duplicates int    `json:"duplicates"`
	FirstSeq   int64  `json:"first_seq,omitempty"`
	LastSeq    int64  `json:"last_seq,omitempty"`
}

// importBatch is one decoded file waiting to be appended.
type importBatch struct {
	file   string
	source string // canonical path, part of every event id
	events []contract.Event
}

// ImportResult holds the overall import result.
type ImportResult struct {
	Files       []ImportFileResult `json:"files"`
	TotalEvents int                `json:"total_events"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Append JSON Lines event logs to the event store",
		Long: `Decode each file and append its events to the SQLite event store in file
order. Each file is appended in one transaction. Re-importing a file that
is already in the store appends nothing, whichever path names the file.

Exit codes:
  0 - All files imported
  2 - Command error (decode error, database error, etc.)

Examples:
  gwp import --db gwp.db events.jsonl
  gwp import --db gwp.db 2020.jsonl 2021.jsonl --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(opts *ImportOptions, files []string, cmd *cobra.Command) error {
	runID := newRunID()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		RunID:     runID,
	}
	ctx := commandContext(cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr()).With("run_id", runID)

	// Decode everything before touching the store
	batches := make([]importBatch, 0, len(files))
	for _, file := range files {
		events, err := eventlog.ReadFile(file)
		if err != nil {
			return formatter.Fail(ExitCommandError, sourceErrorCode(err), fmt.Sprintf("failed to read %s", file), err)
		}
		source, err := canonicalSource(file)
		if err != nil {
			return formatter.Fail(ExitCommandError, sourceErrorCode(err), fmt.Sprintf("failed to resolve %s", file), err)
		}
		batches = append(batches, importBatch{file: file, source: source, events: events})
	}

	logger.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	result := ImportResult{Files: make([]ImportFileResult, 0, len(batches))}
	for _, b := range batches {
		br, err := st.AppendEvents(ctx, b.source, b.events)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to import %s", b.file), err)
		}
		logger.Info("imported",
			"file", b.file,
			"source", b.source,
			"batch_id", br.BatchID,
			"appended", br.Appended,
			"duplicates", br.Duplicates)
		result.Files = append(result.Files, ImportFileResult{
			File:       b.file,
			BatchID:    br.BatchID,
			Appended:   br.Appended,
			Duplicates: br.Duplicates,
			FirstSeq:   br.FirstSeq,
			LastSeq:    br.LastSeq,
		})
	}

	total, err := st.CountEvents(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to count events", err)
	}
	result.TotalEvents = total

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	for _, f := range result.Files {
		fmt.Fprintf(w, "✓ %s: %d appended, %d duplicate(s)\n", f.File, f.Appended, f.Duplicates)
	}
	fmt.Fprintf(w, "Event store now holds %d event(s)\n", result.TotalEvents)
	return nil
}

// canonicalSource returns the absolute, symlink-free path of file, so the
// same file imported under different spellings yields the same event ids.
func canonicalSource(file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
