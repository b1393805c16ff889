package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gwp/internal/testutil"
)

func TestVerify_Deterministic(t *testing.T) {
	out, stderr, err := execute(t, "", "verify", "--events", lifecycleFile(t), "--from", "2020-01", "--to", "2020-04")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ 3 cutoff(s) replayed deterministically")
	assert.Contains(t, out, "matches sequential report")
	assert.NotContains(t, out, "✗")
	assert.Contains(t, stderr, "verification finished")
}

func TestVerify_VerboseListsCutoffs(t *testing.T) {
	out, _, err := execute(t, "", "verify", "--db", lifecycleDatabase(t), "--from", "2020-01", "--to", "2020-04", "-v")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ 2020-01 (cutoff 2020-02-01): 1 contract(s)")
	assert.Contains(t, out, "✓ 2020-03 (cutoff 2020-04-01): 1 contract(s)")
}

func TestVerify_JSON(t *testing.T) {
	out, _, err := execute(t, "", "verify", "--events", lifecycleFile(t), "--from", "2020-01", "--to", "2020-04",
		"--parallel", "3", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   VerifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Deterministic)
	assert.True(t, resp.Data.ReportsMatch)
	assert.Equal(t, 3, resp.Data.Parallelism)
	require.Len(t, resp.Data.Cutoffs, 3)
	assert.Equal(t, testutil.Date("2020-02-01"), resp.Data.Cutoffs[0].Cutoff)
	assert.NotEqual(t, resp.Data.Cutoffs[0].Digest, resp.Data.Cutoffs[2].Digest)
}

func TestVerify_MissingContract(t *testing.T) {
	out, _, err := execute(t, "", "verify", "--events", orphanFile(t), "--from", "2020-01", "--to", "2020-04")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [MISSING_CONTRACT]")
	assert.Contains(t, out, "failed to replay 2020-02")
}

func TestVerifyCutoff(t *testing.T) {
	c, err := verifyCutoff(testutil.LifecycleLog(), testutil.Month("2020-03"))
	require.NoError(t, err)
	assert.True(t, c.Deterministic)
	assert.Equal(t, 1, c.Contracts)
	assert.Equal(t, testutil.Date("2020-04-01"), c.Cutoff)
}
