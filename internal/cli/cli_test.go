package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumped-fn/dataflow/internal/harness"
)

const scenarioDir = "../harness/testdata/scenarios"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "dataflowctl", cmd.Use)
	assert.Contains(t, cmd.Long, "golden files")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"run", "graph", "validate", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "", format.DefValue)

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)
}

func TestRun_Text(t *testing.T) {
	out, err := execute(t, "run", filepath.Join(scenarioDir, "late-subscriber-replay.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "scenario late-subscriber-replay: PASS")
	assert.Contains(t, out, "notify")
}

func TestRun_JSON(t *testing.T) {
	out, err := execute(t, "run", "--format", "json", filepath.Join(scenarioDir, "merge-first-match.yaml"))
	require.NoError(t, err)

	var results []harness.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "merge-first-match", results[0].Scenario)
	assert.True(t, results[0].Pass)
	assert.Contains(t, results[0].Graphs, "g")
}

func TestRun_InvalidFormat(t *testing.T) {
	_, err := execute(t, "run", "--format", "xml", filepath.Join(scenarioDir, "merge-first-match.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_MissingFile(t *testing.T) {
	_, err := execute(t, "run", "does-not-exist.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_FailingScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fail.yaml", `
name: fail
contexts: [a]
steps:
  - {op: get, target: a, type: int, expect: "1"}
`)
	out, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL")
}

func TestRun_CheckGolden(t *testing.T) {
	t.Setenv("DATAFLOW_GOLDEN_DIR", "../harness/testdata/golden")

	files, err := filepath.Glob(filepath.Join(scenarioDir, "*.yaml"))
	require.NoError(t, err)

	_, err = execute(t, append([]string{"run", "--check"}, files...)...)
	require.NoError(t, err)
}

func TestRun_UpdateThenCheck(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "dataflow.toml", "[trace]\ngolden_dir = \""+filepath.ToSlash(filepath.Join(dir, "golden"))+"\"\n")
	scenario := filepath.Join(scenarioDir, "scoped-value-eviction.yaml")

	_, err := execute(t, "--config", cfg, "run", "--update", scenario)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "golden", "scoped-value-eviction.golden"))

	_, err = execute(t, "--config", cfg, "run", "--check", scenario)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "golden"), "scoped-value-eviction.golden", "{}\n")
	out, err := execute(t, "--config", cfg, "run", "--check", scenario)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace differs")
}

func TestRun_BadConfig(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "bad.toml", "[log]\nlevel = \"loud\"\n")
	_, err := execute(t, "--config", cfg, "run", filepath.Join(scenarioDir, "merge-first-match.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGraph(t *testing.T) {
	out, err := execute(t, "graph", filepath.Join(scenarioDir, "cycle-rejection.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "g:")
	assert.Contains(t, out, "h:")
}

func TestValidate(t *testing.T) {
	bad := writeFile(t, t.TempDir(), "bad.yaml", "name: bad\nsteps: []\n")
	good := filepath.Join(scenarioDir, "merge-first-match.yaml")

	out, err := execute(t, "validate", good, bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ "+good)
	assert.Contains(t, out, "✗ "+bad)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dataflowctl ")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "x", assert.AnError)))
}
