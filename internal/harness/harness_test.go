package harness

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumped-fn/dataflow"
	"github.com/pumped-fn/dataflow/logging"
)

func TestRun_Scenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ExpectMismatch(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: mismatch
contexts: [a]
steps:
  - {op: publish, target: a, type: int, value: 1}
  - {op: get, target: a, type: int, expect: "2"}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected "2", got "1"`)
	assert.NotEmpty(t, result.RunID)
}

func TestRun_Miss(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: miss
contexts: [a]
steps:
  - {op: get, target: a, type: bool, expect: "miss"}
  - {op: publish, target: a, type: float, value: 2}
  - {op: get, target: a, type: float, expect: "2"}
  - {op: remove, target: a, type: float, expect: "true"}
  - {op: remove, target: a, type: float, expect: "false"}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Unsubscribe(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: unsubscribe
contexts: [a]
steps:
  - {op: subscribe, target: a, type: string, label: s}
  - {op: publish, target: a, type: string, value: x}
  - {op: unsubscribe, label: s}
  - {op: publish, target: a, type: string, value: y}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	var notified []string
	for _, ev := range result.Trace {
		if ev.Op == OpNotify {
			notified = append(notified, ev.Value)
		}
	}
	assert.Equal(t, []string{"x"}, notified)
}

func TestRun_DuplicateSubscription(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: dup
contexts: [a]
steps:
  - {op: subscribe, target: a, type: string, label: s}
  - {op: subscribe, target: a, type: string, label: s}
`))
	require.NoError(t, err)

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[1]")
}

func TestRun_ReleaseAndDispose(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: lifecycle
contexts: [a, b]
connections: [g]
steps:
  - {op: connect, target: g, member: a}
  - {op: connect, target: g, member: b}
  - {op: publish, target: b, type: int, value: 3}
  - {op: release, target: b}
  - {op: get, target: g, type: int, expect: "miss"}
  - {op: publish, target: b, type: int, value: 4}
  - {op: get, target: b, type: int, expect: "4"}
  - {op: connect, target: g, member: b, expect: "linked"}
  - {op: dispose, target: a}
  - {op: connect, target: g, member: a, expect: "rejected"}
  - {op: get, target: g, type: int, expect: "4"}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.Graphs["g"], "b [int]")
}

func TestRun_WithLogger(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: logged
contexts: [a]
connections: [g]
steps:
  - {op: connect, target: g, member: a}
`))
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := logging.NewZerolog(&buf, logging.Config{
		Level:  logging.LevelDebug,
		Format: logging.FormatJSON,
	})

	_, err = Run(scenario, WithLogger(logger), WithPool(dataflow.NewPoolManager()))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"message":"connect"`)
	assert.Contains(t, buf.String(), `"member":"a"`)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ncontexts: [a]\nsteps:\n  - {op: get, target: a, type: int, expct: \"1\"}\n",
			want: "field expct not found",
		},
		{
			name: "missing name",
			yaml: "contexts: [a]\nsteps:\n  - {op: release, target: a}\n",
			want: "name is required",
		},
		{
			name: "no steps",
			yaml: "name: x\ncontexts: [a]\n",
			want: "steps list is required",
		},
		{
			name: "unknown type",
			yaml: "name: x\ncontexts: [a]\nsteps:\n  - {op: get, target: a, type: duration}\n",
			want: `unknown type "duration"`,
		},
		{
			name: "connect on entity",
			yaml: "name: x\ncontexts: [a, b]\nsteps:\n  - {op: connect, target: a, member: b}\n",
			want: "is not a connection",
		},
		{
			name: "duplicate name",
			yaml: "name: x\ncontexts: [a]\nconnections: [a]\nsteps:\n  - {op: release, target: a}\n",
			want: `duplicate context "a"`,
		},
		{
			name: "unknown op",
			yaml: "name: x\ncontexts: [a]\nsteps:\n  - {op: explode, target: a}\n",
			want: "unknown op",
		},
		{
			name: "publish without value",
			yaml: "name: x\ncontexts: [a]\nsteps:\n  - {op: publish, target: a, type: int}\n",
			want: "value is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_WrongValueType(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong
contexts: [a]
steps:
  - {op: publish, target: a, type: int, value: nope}
`))
	require.NoError(t, err)

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want int, got string")
}

func TestFormatText(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/late-subscriber-replay.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, FormatText(&buf, result))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "scenario late-subscriber-replay: PASS\n"))
	assert.Contains(t, out, "g #first int =9")
	assert.Contains(t, out, "g <- m1 -> true")
	assert.Contains(t, out, "graph g:")
}
