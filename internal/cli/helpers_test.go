package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/eventlog"
	"github.com/roach88/gwp/internal/store"
	"github.com/roach88/gwp/internal/testutil"
)

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return executeWithEnv(t, nil, stdin, args...)
}

// executeWithEnv is execute with GWP_* variables set to env and every other
// GWP_* variable unset.
func executeWithEnv(t *testing.T, env map[string]string, stdin string, args ...string) (string, string, error) {
	t.Helper()

	// Keep the host environment out of config layering
	for _, name := range []string{"GWP_FROM", "GWP_TO", "GWP_MODE", "GWP_PARALLELISM", "GWP_DATABASE", "GWP_EVENTS", "GWP_METRICS_FILE"} {
		t.Setenv(name, "") // restores the original value on cleanup
		require.NoError(t, os.Unsetenv(name))
	}
	for name, value := range env {
		t.Setenv(name, value)
	}

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// writeEvents writes events as a JSON Lines file in a temp dir.
func writeEvents(t *testing.T, name string, events []contract.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, eventlog.WriteFile(path, events))
	return path
}

// lifecycleFile writes the single-contract lifecycle log.
func lifecycleFile(t *testing.T) string {
	t.Helper()
	return writeEvents(t, "events.jsonl", testutil.LifecycleLog())
}

// orphanFile writes a log whose second event references a contract that
// was never created.
func orphanFile(t *testing.T) string {
	t.Helper()
	return writeEvents(t, "orphan.jsonl", testutil.Log(
		testutil.Created(1, 100, "2020-01-01"),
		testutil.Increased(2, 10, "2020-02-01"),
	))
}

// lifecycleDatabase imports the lifecycle log into a fresh store.
func lifecycleDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gwp.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.AppendEvents(context.Background(), "lifecycle.jsonl", testutil.LifecycleLog())
	require.NoError(t, err)
	return path
}

const lifecycleReport = "Report for 2020-01: [contracts=1, AGWP=100, EGWP=300]\n" +
	"Report for 2020-02: [contracts=1, AGWP=200, EGWP=300]\n" +
	"Report for 2020-03: [contracts=1, AGWP=350, EGWP=350]\n"
