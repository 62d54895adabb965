package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gazetteerTSV = "2988507\tParis\tParis\tLutetia\t48.85341\t2.3488\tP\tPPLC\tFR\t\t11\t75\t751\t75056\t2138551\t\t42\tEurope/Paris\t2024-01-01\n" +
	"4717560\tParis\tParis\t\t33.66094\t-95.55551\tP\tPPL\tUS\t\tTX\t277\t\t\t25171\t\t177\tAmerica/Chicago\t2024-01-01\n" +
	"2990474\tSeine\tSeine\t\t49.43\t0.21\tH\tSTM\tFR\t\t00\t\t\t\t0\t\t\t\t2024-01-01\n" +
	"1\tBroken\tBroken\t\t0\t0\tZ\tXXX\tFR\t\t\t\t\t\t0\t\t\t\t2024-01-01\n"

// setupWorkspace writes a data file and config/test.yaml into a temp dir and
// switches into it.
func setupWorkspace(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "places.txt"), []byte(gazetteerTSV), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "config"), 0o755))
	cfg := "http:\n  port: 8080\ndata:\n  path: places.txt\nreconcile:\n  default_limit: 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(cfg), 0o644))
	t.Chdir(dir)

	envFlag = "test"
	t.Cleanup(func() { envFlag = "" })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQueryCommand(t *testing.T) {
	setupWorkspace(t)
	t.Cleanup(func() { queryTypes, queryLimit = nil, 0 })

	out, err := execute(t, "--env", "test", "query", "Paris", "--type", "P")
	require.NoError(t, err)

	var cands []candidateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &cands))
	require.Len(t, cands, 2)
	assert.Equal(t, "2988507", cands[0].ID)
	assert.Equal(t, "P.PPLC", cands[0].Type)
	assert.Equal(t, 100, cands[0].Score)
	assert.False(t, cands[0].Match)
}

func TestQueryCommand_InvalidType(t *testing.T) {
	setupWorkspace(t)
	t.Cleanup(func() { queryTypes, queryLimit = nil, 0 })

	_, err := execute(t, "--env", "test", "query", "Paris", "--type", "Z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")
}

func TestCheckCommand(t *testing.T) {
	setupWorkspace(t)

	out, err := execute(t, "--env", "test", "check", "--types", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "rows read: 4")
	assert.Contains(t, out, "entities:  3")
	assert.Contains(t, out, "invalid_feature_class")
	// equal counts rank by id
	assert.Contains(t, out, "H.STM")
	assert.Contains(t, out, "P.PPL ")
	assert.NotContains(t, out, "P.PPLC")
}

func TestCheckCommand_MissingConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	envFlag = "nope"
	t.Cleanup(func() { envFlag = "" })

	_, err := execute(t, "--env", "nope", "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestReconcileConfigMapping(t *testing.T) {
	setupWorkspace(t)
	a, err := newApp()
	require.NoError(t, err)
	defer a.close()

	rc := a.reconcileConfig()
	assert.Equal(t, 10*time.Second, rc.Timeout)
	assert.Equal(t, 1000, rc.MaxBatchSize)
	assert.Equal(t, 95, rc.Scoring.AutoMatchScore)
	assert.Equal(t, 2, rc.Scoring.TieMargin)

	g, err := a.builder(nil).Build(context.Background())
	require.NoError(t, err)
	assert.False(t, g.External())
	assert.Equal(t, 3, g.Len())
}
