package extensions

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumped-fn/dataflow"
)

func TestGraphDebugExtension_LogsRejectedCycle(t *testing.T) {
	var buf bytes.Buffer
	ext := NewGraphDebugExtension(NewHumanHandler(&buf, slog.LevelError))

	outer := dataflow.NewConnection(dataflow.WithName("outer"), dataflow.WithExtension(ext))
	inner := dataflow.NewConnection(dataflow.WithName("inner"), dataflow.WithExtension(ext))
	defer outer.Dispose()
	defer inner.Dispose()

	require.True(t, outer.Connect(inner).Active())

	h := inner.Connect(outer)
	assert.False(t, h.Active())

	output := buf.String()
	assert.Contains(t, output, "[GraphDebug] Edge Rejected")
	assert.Contains(t, output, "Source: inner")
	assert.Contains(t, output, "Target: outer")
	assert.Contains(t, output, "Reason: cycle")
}

func TestGraphDebugExtension_SilentHandler(t *testing.T) {
	ext := NewGraphDebugExtension(NewSilentHandler())
	g := dataflow.NewConnection(dataflow.WithExtension(ext))
	defer g.Dispose()

	assert.NotPanics(t, func() {
		g.Connect(g)
	})
}

func TestRenderGraph_NestedMembers(t *testing.T) {
	a := dataflow.NewEntity(dataflow.WithName("a"))
	b := dataflow.NewEntity(dataflow.WithName("b"))
	inner := dataflow.NewConnection(dataflow.WithName("inner"))
	outer := dataflow.NewConnection(dataflow.WithName("outer"))

	dataflow.Publish(a, 42)
	inner.Connect(a)
	outer.Connect(inner)
	outer.Connect(b)

	dataflow.Receive[int](outer).Subscribe(func(int) {})

	out := RenderGraph(outer)
	assert.Contains(t, out, "outer")
	assert.Contains(t, out, "inner")
	assert.Contains(t, out, "a [int]")
	assert.Contains(t, out, "b")
	assert.Contains(t, out, "<int>")
}

func TestRenderGraph_Entity(t *testing.T) {
	e := dataflow.NewEntity(dataflow.WithName("solo"))
	dataflow.Publish(e, "x")
	assert.Contains(t, RenderGraph(e), "solo [string]")

	e.Dispose()
	assert.Contains(t, RenderGraph(e), "(terminated)")
}
