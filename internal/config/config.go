// Package config resolves report configuration.
//
// Sources are layered, later ones winning:
//
//  1. Default()
//  2. a .cue, .yaml or .yml file, checked against the embedded CUE schema
//  3. GWP_* environment variables
//  4. command-line flags (applied by the caller)
//
// Validate runs once all layers have been applied.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/report"
)

//go:embed schema.cue
var schemaCUE string

// Config holds everything a report run needs.
type Config struct {
	From        calendar.Month `json:"from" yaml:"from"`
	To          calendar.Month `json:"to" yaml:"to"`
	Mode        contract.Mode  `json:"mode" yaml:"mode"`
	Parallelism int            `json:"parallelism" yaml:"parallelism"`

	// Event source: exactly one of EventsFile and Database is used.
	EventsFile string `json:"events,omitempty" yaml:"events,omitempty"`
	Database   string `json:"database,omitempty" yaml:"database,omitempty"`

	// MetricsFile, when set, receives a Prometheus textfile after the run.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
}

// Default returns the built-in configuration: the twelve months of 2020,
// every event kind, sequential materialization.
func Default() Config {
	return Config{
		From:        calendar.NewMonth(2020, 1),
		To:          calendar.NewMonth(2021, 1),
		Mode:        contract.ModeAll,
		Parallelism: 1,
	}
}

// Range returns the report's month range [From, To).
func (c Config) Range() calendar.MonthRange {
	return calendar.NewMonthRange(c.From, c.To)
}

// fileConfig mirrors #Config. Pointers distinguish unset fields.
type fileConfig struct {
	From        *string `json:"from"`
	To          *string `json:"to"`
	Mode        *string `json:"mode"`
	Parallelism *int    `json:"parallelism"`
	Database    *string `json:"database"`
	Events      *string `json:"events"`
	MetricsFile *string `json:"metrics_file"`
}

// FileError reports a configuration file that could not be read or does not
// satisfy the schema.
type FileError struct {
	Path    string
	Message string
	Line    int // 0 when unknown
}

func (e *FileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("config %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Message)
}

// Load returns Default() overlaid with the file at path (if non-empty) and
// then the process environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyFile overlays the fields set in a .cue, .yaml or .yml file.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &FileError{Path: path, Message: err.Error()}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	var value cue.Value
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		value = ctx.CompileBytes(data, cue.Filename(path))
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return &FileError{Path: path, Message: err.Error()}
		}
		if doc == nil {
			doc = map[string]any{}
		}
		value = ctx.Encode(doc)
	default:
		return &FileError{Path: path, Message: "unsupported extension (want .cue, .yaml or .yml)"}
	}
	if err := value.Err(); err != nil {
		return fileError(path, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fileError(path, err)
	}

	var fc fileConfig
	if err := unified.Decode(&fc); err != nil {
		return fileError(path, err)
	}
	return c.applyFileConfig(path, fc)
}

func (c *Config) applyFileConfig(path string, fc fileConfig) error {
	if fc.From != nil {
		m, err := calendar.ParseMonth(*fc.From)
		if err != nil {
			return &FileError{Path: path, Message: err.Error()}
		}
		c.From = m
	}
	if fc.To != nil {
		m, err := calendar.ParseMonth(*fc.To)
		if err != nil {
			return &FileError{Path: path, Message: err.Error()}
		}
		c.To = m
	}
	if fc.Mode != nil {
		mode, err := contract.ParseMode(*fc.Mode)
		if err != nil {
			return &FileError{Path: path, Message: err.Error()}
		}
		c.Mode = mode
	}
	if fc.Parallelism != nil {
		c.Parallelism = *fc.Parallelism
	}
	if fc.Database != nil {
		c.Database = *fc.Database
	}
	if fc.Events != nil {
		c.EventsFile = *fc.Events
	}
	if fc.MetricsFile != nil {
		c.MetricsFile = *fc.MetricsFile
	}
	return nil
}

// fileError keeps the first CUE error and its line.
func fileError(path string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &FileError{Path: path, Message: err.Error()}
	}
	first := errs[0]
	fe := &FileError{Path: path, Message: first.Error()}
	if pos := cueerrors.Positions(first); len(pos) > 0 && pos[0].IsValid() && pos[0].Filename() == path {
		fe.Line = pos[0].Line()
	}
	return fe
}

// ValidationError lists every problem found by Validate.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks the resolved configuration and reports all problems at
// once.
func (c Config) Validate() error {
	var problems []string

	if c.From.IsZero() {
		problems = append(problems, "from is required")
	}
	if c.To.IsZero() {
		problems = append(problems, "to is required")
	}
	if !c.From.IsZero() && !c.To.IsZero() && c.To.Before(c.From) {
		problems = append(problems, fmt.Sprintf("to (%s) must not be before from (%s)", c.To, c.From))
	}
	if _, err := contract.ParseMode(string(c.Mode)); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Parallelism < 1 || c.Parallelism > report.MaxParallelism {
		problems = append(problems, fmt.Sprintf("parallelism must be between 1 and %d, got %d", report.MaxParallelism, c.Parallelism))
	}
	if c.EventsFile != "" && c.Database != "" {
		problems = append(problems, "events and database are mutually exclusive")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
