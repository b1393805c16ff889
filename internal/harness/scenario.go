package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/eventlog"
	"github.com/roach88/gwp/internal/report"
)

// Scenario defines a report conformance scenario: an event log, a month
// range and the report or failure it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Mode selects the event kinds reported on ("all" or "lifecycle").
	// Defaults to all.
	Mode string `yaml:"mode,omitempty"`

	// From and To bound the half-open month range [From, To).
	From string `yaml:"from"`
	To   string `yaml:"to"`

	// Parallelism bounds concurrent materializations. Defaults to 1.
	Parallelism int `yaml:"parallelism,omitempty"`

	// Events is the inline event log in sequence order.
	Events []eventlog.Record `yaml:"events,omitempty"`

	// EventsFile is a JSON Lines event log. Relative paths are resolved
	// against the scenario file's directory.
	EventsFile string `yaml:"events_file,omitempty"`

	// Expect lists the report rows, one per month of the range.
	Expect []ExpectedRow `yaml:"expect,omitempty"`

	// ExpectError is an error code (e.g. MISSING_CONTRACT) or message
	// fragment the report must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Snapshots check the contract set materialized at a cutoff.
	Snapshots []SnapshotAssertion `yaml:"snapshots,omitempty"`
}

// ExpectedRow is one expected report line.
type ExpectedRow struct {
	Month     string `yaml:"month"`
	Contracts int    `yaml:"contracts"`
	AGWP      int64  `yaml:"agwp"`
	EGWP      int64  `yaml:"egwp"`
}

// SnapshotAssertion expects exactly the listed contracts to be
// materialized from events dated strictly before At.
type SnapshotAssertion struct {
	At        string             `yaml:"at"`
	Contracts []ExpectedContract `yaml:"contracts"`
}

// ExpectedContract is one expected contract state. An empty TerminatedAt
// means the contract is still active.
type ExpectedContract struct {
	ID           int64  `yaml:"id"`
	Premium      int64  `yaml:"premium"`
	StartedAt    string `yaml:"started_at"`
	TerminatedAt string `yaml:"terminated_at,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the events file BEFORE validation so existence can be checked
	if scenario.EventsFile != "" && !filepath.IsAbs(scenario.EventsFile) {
		scenario.EventsFile = filepath.Join(filepath.Dir(path), scenario.EventsFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	r, err := s.monthRange()
	if err != nil {
		return err
	}

	if _, err := s.mode(); err != nil {
		return err
	}

	if s.Parallelism < 0 || s.Parallelism > report.MaxParallelism {
		return fmt.Errorf("parallelism must be between 0 and %d, got %d", report.MaxParallelism, s.Parallelism)
	}

	if len(s.Events) > 0 && s.EventsFile != "" {
		return fmt.Errorf("events and events_file are mutually exclusive")
	}
	if s.EventsFile != "" {
		if _, err := os.Stat(s.EventsFile); os.IsNotExist(err) {
			return fmt.Errorf("events file not found: %s", s.EventsFile)
		}
	}

	if len(s.Expect) == 0 && s.ExpectError == "" && len(s.Snapshots) == 0 {
		return fmt.Errorf("at least one of expect, expect_error or snapshots is required")
	}
	if len(s.Expect) > 0 && s.ExpectError != "" {
		return fmt.Errorf("expect and expect_error are mutually exclusive")
	}

	for i, row := range s.Expect {
		m, err := calendar.ParseMonth(row.Month)
		if err != nil {
			return fmt.Errorf("expect[%d]: %w", i, err)
		}
		if !r.Contains(m) {
			return fmt.Errorf("expect[%d]: month %s is outside %s", i, m, r)
		}
	}

	for i, snap := range s.Snapshots {
		if err := validateSnapshot(i, &snap); err != nil {
			return err
		}
	}

	return nil
}

// validateSnapshot validates a single snapshot assertion.
func validateSnapshot(index int, a *SnapshotAssertion) error {
	if a.At == "" {
		return fmt.Errorf("snapshots[%d]: at is required", index)
	}
	if _, err := calendar.ParseDate(a.At); err != nil {
		return fmt.Errorf("snapshots[%d]: %w", index, err)
	}
	for j, c := range a.Contracts {
		if _, err := calendar.ParseDate(c.StartedAt); err != nil {
			return fmt.Errorf("snapshots[%d].contracts[%d]: started_at: %w", index, j, err)
		}
		if c.TerminatedAt != "" {
			if _, err := calendar.ParseDate(c.TerminatedAt); err != nil {
				return fmt.Errorf("snapshots[%d].contracts[%d]: terminated_at: %w", index, j, err)
			}
		}
	}
	return nil
}

func (s *Scenario) monthRange() (calendar.MonthRange, error) {
	if s.From == "" {
		return calendar.MonthRange{}, fmt.Errorf("from is required")
	}
	if s.To == "" {
		return calendar.MonthRange{}, fmt.Errorf("to is required")
	}
	from, err := calendar.ParseMonth(s.From)
	if err != nil {
		return calendar.MonthRange{}, fmt.Errorf("from: %w", err)
	}
	to, err := calendar.ParseMonth(s.To)
	if err != nil {
		return calendar.MonthRange{}, fmt.Errorf("to: %w", err)
	}
	if to.Before(from) {
		return calendar.MonthRange{}, fmt.Errorf("to (%s) must not be before from (%s)", to, from)
	}
	return calendar.NewMonthRange(from, to), nil
}

func (s *Scenario) mode() (contract.Mode, error) {
	if s.Mode == "" {
		return contract.ModeAll, nil
	}
	return contract.ParseMode(s.Mode)
}

// events loads the scenario's event log in sequence order.
func (s *Scenario) events() ([]contract.Event, error) {
	if s.EventsFile != "" {
		return eventlog.ReadFile(s.EventsFile)
	}
	return eventlog.Events(s.Events)
}
