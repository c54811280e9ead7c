package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumped-fn/dataflow/logging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesOnlyDefinedKeys(t *testing.T) {
	path := writeFile(t, "dataflow.toml", `
[log]
level = "debug"

[trace]
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, logging.FormatConsole, cfg.Log.Format)
	assert.Equal(t, TraceJSON, cfg.Trace.Format)
	assert.Equal(t, "testdata/golden", cfg.Trace.GoldenDir)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeFile(t, "dataflow.toml", "[log]\nlevle = \"debug\"\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.levle")
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	path := writeFile(t, "dataflow.toml", "[log]\nformat = \"console\"\n")
	t.Setenv("DATAFLOW_LOG_FORMAT", "json")
	t.Setenv("DATAFLOW_LOG_NOCOLOR", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, logging.FormatJSON, cfg.Log.Format)
	assert.True(t, cfg.Log.NoColor)
}

func TestLoad_DotEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "DATAFLOW_GOLDEN_DIR=fixtures\n")
	t.Cleanup(func() { os.Unsetenv("DATAFLOW_GOLDEN_DIR") })

	cfg, err := Load("", envFile, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "fixtures", cfg.Trace.GoldenDir)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Trace.Format = "yaml"
	assert.Error(t, cfg.Validate())
}

func TestLogging_Conversion(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	cfg.Log.Format = logging.FormatJSON

	lc := cfg.Logging()
	assert.Equal(t, logging.LevelWarn, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)
}
