package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "[2020-01, 2021-01)", cfg.Range().String())
	assert.Equal(t, 12, cfg.Range().Len())
	assert.Equal(t, contract.ModeAll, cfg.Mode)
	assert.Equal(t, 1, cfg.Parallelism)
	assert.NoError(t, cfg.Validate())
}

func TestApplyFile_CUE(t *testing.T) {
	path := writeFile(t, "gwp.cue", `
from:        "2020-03"
to:          "2020-06"
mode:        "task1"
parallelism: 4
events:      "events.jsonl"
`)

	cfg := Default()
	require.NoError(t, cfg.ApplyFile(path))

	assert.Equal(t, calendar.MustParseMonth("2020-03"), cfg.From)
	assert.Equal(t, calendar.MustParseMonth("2020-06"), cfg.To)
	assert.Equal(t, contract.ModeLifecycle, cfg.Mode)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, "events.jsonl", cfg.EventsFile)
	assert.Empty(t, cfg.Database)
}

func TestApplyFile_YAML(t *testing.T) {
	path := writeFile(t, "gwp.yaml", `
to: "2020-07"
database: gwp.db
metrics_file: gwp.prom
`)

	cfg := Default()
	require.NoError(t, cfg.ApplyFile(path))

	assert.Equal(t, calendar.MustParseMonth("2020-01"), cfg.From, "unset fields keep defaults")
	assert.Equal(t, calendar.MustParseMonth("2020-07"), cfg.To)
	assert.Equal(t, "gwp.db", cfg.Database)
	assert.Equal(t, "gwp.prom", cfg.MetricsFile)
}

func TestApplyFile_EmptyYAML(t *testing.T) {
	path := writeFile(t, "gwp.yml", "")

	cfg := Default()
	require.NoError(t, cfg.ApplyFile(path))
	assert.Equal(t, Default(), cfg)
}

func TestApplyFile_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown field", "a.cue", `colour: "red"`},
		{"bad month", "b.cue", `from: "2020-13"`},
		{"bad mode", "c.yaml", `mode: task3`},
		{"zero parallelism", "d.yaml", `parallelism: 0`},
		{"too much parallelism", "e.cue", `parallelism: 65`},
		{"wrong type", "f.yaml", `parallelism: "four"`},
		{"empty path", "g.cue", `events: ""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			cfg := Default()
			err := cfg.ApplyFile(path)
			require.Error(t, err)

			var fe *FileError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, path, fe.Path)
			assert.Equal(t, Default(), cfg, "config is untouched on error")
		})
	}
}

func TestApplyFile_Errors(t *testing.T) {
	cfg := Default()

	err := cfg.ApplyFile(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)

	err = cfg.ApplyFile(writeFile(t, "gwp.toml", `from = "2020-01"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extension")

	err = cfg.ApplyFile(writeFile(t, "broken.cue", `from: "2020-01`))
	assert.Error(t, err)

	err = cfg.ApplyFile(writeFile(t, "broken.yaml", "from: [\n"))
	assert.Error(t, err)
}

func TestApplyEnvFrom(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnvFrom(map[string]string{
		"GWP_FROM":         "2020-02",
		"GWP_TO":           "2020-05",
		"GWP_MODE":         "Lifecycle",
		"GWP_PARALLELISM":  "8",
		"GWP_DATABASE":     "/tmp/gwp.db",
		"GWP_METRICS_FILE": "/tmp/gwp.prom",
		"UNRELATED":        "x",
	})
	require.NoError(t, err)

	assert.Equal(t, "[2020-02, 2020-05)", cfg.Range().String())
	assert.Equal(t, contract.ModeLifecycle, cfg.Mode)
	assert.Equal(t, 8, cfg.Parallelism)
	assert.Equal(t, "/tmp/gwp.db", cfg.Database)
	assert.Equal(t, "/tmp/gwp.prom", cfg.MetricsFile)
}

func TestApplyEnvFrom_SourceReplacesFileSource(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		env        map[string]string
		wantEvents string
		wantDB     string
	}{
		{"database over events file", "events: file.jsonl\n", map[string]string{"GWP_DATABASE": "gwp.db"}, "", "gwp.db"},
		{"events over database", "database: file.db\n", map[string]string{"GWP_EVENTS": "env.jsonl"}, "env.jsonl", ""},
		{"unset keeps file source", "events: file.jsonl\n", map[string]string{"GWP_TO": "2020-06"}, "file.jsonl", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.ApplyFile(writeFile(t, "gwp.yaml", tt.file)))
			require.NoError(t, cfg.ApplyEnvFrom(tt.env))

			assert.Equal(t, tt.wantEvents, cfg.EventsFile)
			assert.Equal(t, tt.wantDB, cfg.Database)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestApplyEnvFrom_BothSourcesConflict(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnvFrom(map[string]string{"GWP_DATABASE": "gwp.db", "GWP_EVENTS": "e.jsonl"}))

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestApplyEnvFrom_Empty(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnvFrom(map[string]string{}))
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnvFrom_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"GWP_FROM":        {"GWP_FROM": "January"},
		"GWP_TO":          {"GWP_TO": "2020-1-1"},
		"GWP_MODE":        {"GWP_MODE": "task3"},
		"GWP_PARALLELISM": {"GWP_PARALLELISM": "many"},
	}
	for name, environment := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyEnvFrom(environment)
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "gwp.cue", `
from: "2020-03"
to:   "2020-06"
`)
	t.Setenv("GWP_TO", "2020-09")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "[2020-03, 2020-09)", cfg.Range().String(), "environment overrides the file")
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("GWP_PARALLELISM", "2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Parallelism)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Config{
		From:        calendar.MustParseMonth("2020-06"),
		To:          calendar.MustParseMonth("2020-01"),
		Mode:        "sometimes",
		Parallelism: 0,
		EventsFile:  "a.jsonl",
		Database:    "a.db",
	}

	err := cfg.Validate()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Problems, 4)
	assert.Contains(t, err.Error(), "must not be before from")
	assert.Contains(t, err.Error(), "invalid mode")
	assert.Contains(t, err.Error(), "parallelism must be between 1 and 64")
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestValidate_MissingRange(t *testing.T) {
	cfg := Default()
	cfg.From = calendar.Month{}
	cfg.To = calendar.Month{}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from is required")
	assert.Contains(t, err.Error(), "to is required")
}

func TestValidate_EmptyRangeIsAllowed(t *testing.T) {
	cfg := Default()
	cfg.To = cfg.From
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 0, cfg.Range().Len())
}
