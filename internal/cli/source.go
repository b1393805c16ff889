package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/config"
	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/eventlog"
	"github.com/roach88/gwp/internal/store"
)

// errNoSource is returned when neither an events file nor a database is
// configured.
var errNoSource = errors.New("no event source: set --events, --db, GWP_EVENTS or GWP_DATABASE")

// SourceOptions holds the flags shared by commands that read an event log.
// Flags override the config file and GWP_* environment variables.
type SourceOptions struct {
	ConfigFile string
	EventsFile string // "-" reads standard input
	Database   string
	Mode       string
}

// RangeOptions holds the month range and parallelism flags.
type RangeOptions struct {
	From        string
	To          string
	Parallelism int
}

func addSourceFlags(cmd *cobra.Command, o *SourceOptions) {
	cmd.Flags().StringVarP(&o.ConfigFile, "config", "c", "", "config file (.cue, .yaml or .yml)")
	cmd.Flags().StringVar(&o.EventsFile, "events", "", "JSON Lines event log (- for stdin)")
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite event store")
	cmd.Flags().StringVar(&o.Mode, "mode", "", "event kinds to report on (all|lifecycle)")
}

func addRangeFlags(cmd *cobra.Command, o *RangeOptions) {
	cmd.Flags().StringVar(&o.From, "from", "", "first month of the report (YYYY-MM)")
	cmd.Flags().StringVar(&o.To, "to", "", "month after the last reported month (YYYY-MM)")
	cmd.Flags().IntVarP(&o.Parallelism, "parallel", "p", 0, "concurrent materializations")
}

// resolveConfig layers defaults, the config file, the environment and the
// command-line flags, then validates the result.
func resolveConfig(cmd *cobra.Command, src *SourceOptions, rng *RangeOptions) (config.Config, error) {
	cfg, err := config.Load(src.ConfigFile)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("events") || flags.Changed("db") {
		cfg.EventsFile, cfg.Database = src.EventsFile, src.Database
	}
	if flags.Changed("mode") {
		mode, err := contract.ParseMode(src.Mode)
		if err != nil {
			return cfg, fmt.Errorf("--mode: %w", err)
		}
		cfg.Mode = mode
	}

	if rng != nil {
		if flags.Changed("from") {
			m, err := calendar.ParseMonth(rng.From)
			if err != nil {
				return cfg, fmt.Errorf("--from: %w", err)
			}
			cfg.From = m
		}
		if flags.Changed("to") {
			m, err := calendar.ParseMonth(rng.To)
			if err != nil {
				return cfg, fmt.Errorf("--to: %w", err)
			}
			cfg.To = m
		}
		if flags.Changed("parallel") {
			cfg.Parallelism = rng.Parallelism
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadEvents reads the configured event log in sequence order.
func loadEvents(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger *slog.Logger) ([]contract.Event, error) {
	switch {
	case cfg.Database != "":
		// store.Open creates missing databases; reading one is a mistake
		if _, err := os.Stat(cfg.Database); err != nil {
			return nil, fmt.Errorf("database %s: %w", cfg.Database, err)
		}
		logger.Info("opening database", "path", cfg.Database)
		st, err := store.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		return st.ReadEvents(ctx)

	case cfg.EventsFile == "-":
		logger.Info("reading events", "path", "stdin")
		return eventlog.Decode(cmd.InOrStdin())

	case cfg.EventsFile != "":
		logger.Info("reading events", "path", cfg.EventsFile)
		return eventlog.ReadFile(cfg.EventsFile)

	default:
		return nil, errNoSource
	}
}

// sourceErrorCode maps a loadEvents or resolveConfig error to a CLI error code.
func sourceErrorCode(err error) string {
	var (
		fileErr *config.FileError
		valErr  *config.ValidationError
	)
	switch {
	case errors.Is(err, errNoSource):
		return ErrCodeNoSource
	case eventlog.IsDecodeError(err):
		return ErrCodeDecode
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	case errors.As(err, &fileErr), errors.As(err, &valErr):
		return ErrCodeConfig
	default:
		return ErrCodeStore
	}
}

// newLogger returns the run logger: text on w, Debug level when verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newRunID returns a time-ordered id correlating output and log lines.
func newRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
