package extensions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/m1gwings/treedrawer/tree"
	"github.com/pumped-fn/dataflow"
)

// GraphDebugExtension logs the membership tree whenever an edge is refused,
// and at debug level on every membership change.
//
// Usage:
//
//	// Human-readable formatted output (with line breaks)
//	handler := extensions.NewHumanHandler(os.Stdout, slog.LevelError)
//	ext := extensions.NewGraphDebugExtension(handler)
//
//	// Structured JSON logging (compact, machine-readable)
//	handler := slog.NewJSONHandler(os.Stdout, nil)
//	ext := extensions.NewGraphDebugExtension(handler)
//
//	// Silent (for testing)
//	ext := extensions.NewGraphDebugExtension(extensions.NewSilentHandler())
type GraphDebugExtension struct {
	dataflow.BaseExtension
	logger *slog.Logger
}

// NewGraphDebugExtension creates a new graph debug extension.
// logHandler: slog.Handler for logging (use HumanHandler for formatted output, or any other slog.Handler)
func NewGraphDebugExtension(logHandler slog.Handler) *GraphDebugExtension {
	return &GraphDebugExtension{
		BaseExtension: dataflow.NewBaseExtension("graph-debug"),
		logger:        slog.New(logHandler),
	}
}

// Order runs after plain logging
func (e *GraphDebugExtension) Order() int {
	return 200
}

func (e *GraphDebugExtension) OnRejected(source dataflow.Context, target any, reason dataflow.RejectReason) {
	e.logger.Error("Edge Rejected",
		"source", dataflow.NameOf(source),
		"target", targetName(target),
		"reason", string(reason),
		"graph", RenderGraph(source),
	)
}

func (e *GraphDebugExtension) OnConnect(g *dataflow.Connection, member dataflow.Context) {
	e.logger.Debug("Member Connected",
		"connection", dataflow.NameOf(g),
		"member", dataflow.NameOf(member),
		"graph", RenderGraph(g),
	)
}

func (e *GraphDebugExtension) OnDisconnect(g *dataflow.Connection, member dataflow.Context) {
	e.logger.Debug("Member Disconnected",
		"connection", dataflow.NameOf(g),
		"member", dataflow.NameOf(member),
		"graph", RenderGraph(g),
	)
}

type typeLister interface {
	Types() []reflect.Type
}

// RenderGraph draws c and, for connections, its members recursively. Each
// node lists the types it caches; connections also list bridged types.
func RenderGraph(c dataflow.Context) string {
	if c == nil {
		return "<nil>"
	}
	root := tree.NewTree(tree.NodeString(label(c)))
	addMembers(root, c, map[uint64]bool{c.ID(): true})
	return root.String()
}

func addMembers(t *tree.Tree, c dataflow.Context, seen map[uint64]bool) {
	g, ok := c.(*dataflow.Connection)
	if !ok {
		return
	}
	for _, m := range g.Members() {
		if seen[m.ID()] {
			t.AddChild(tree.NodeString(dataflow.NameOf(m) + " (shared)"))
			continue
		}
		seen[m.ID()] = true
		child := t.AddChild(tree.NodeString(label(m)))
		addMembers(child, m, seen)
	}
}

func label(c dataflow.Context) string {
	var sb strings.Builder
	sb.WriteString(dataflow.NameOf(c))

	if l, ok := c.(typeLister); ok {
		if types := l.Types(); len(types) > 0 {
			sb.WriteString(" [")
			sb.WriteString(joinTypes(types))
			sb.WriteString("]")
		}
	}
	if g, ok := c.(*dataflow.Connection); ok {
		if bridged := g.BridgedTypes(); len(bridged) > 0 {
			sb.WriteString(" <")
			sb.WriteString(joinTypes(bridged))
			sb.WriteString(">")
		}
	}
	if c.Scope().IsTerminated() {
		sb.WriteString(" (terminated)")
	}
	return sb.String()
}

func joinTypes(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

// SilentHandler is a slog.Handler that discards all log output
// Useful for testing when you don't want log output
type SilentHandler struct{}

// NewSilentHandler creates a new silent log handler
func NewSilentHandler() *SilentHandler {
	return &SilentHandler{}
}

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false
}

func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil
}

func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *SilentHandler) WithGroup(name string) slog.Handler {
	return h
}

// HumanHandler is a slog.Handler that formats logs for human readability
// with proper line breaks, so rendered graphs keep their shape
type HumanHandler struct {
	writer io.Writer
	level  slog.Level
}

// NewHumanHandler creates a new human-readable log handler
func NewHumanHandler(writer io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{
		writer: writer,
		level:  level,
	}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Message == "Edge Rejected" {
		return h.handleRejected(record)
	}

	if _, err := fmt.Fprintf(h.writer, "[%s] %s\n", record.Level, record.Message); err != nil {
		return err
	}
	var writeErr error
	record.Attrs(func(a slog.Attr) bool {
		if _, err := fmt.Fprintf(h.writer, "  %s: %v\n", a.Key, a.Value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	return writeErr
}

func (h *HumanHandler) handleRejected(record slog.Record) error {
	var source, target, reason, graph string

	record.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "source":
			source = a.Value.String()
		case "target":
			target = a.Value.String()
		case "reason":
			reason = a.Value.String()
		case "graph":
			graph = a.Value.String()
		}
		return true
	})

	rule := strings.Repeat("=", 70)
	writes := []func() error{
		func() error { _, err := fmt.Fprintln(h.writer); return err },
		func() error { _, err := fmt.Fprintln(h.writer, rule); return err },
		func() error { _, err := fmt.Fprintln(h.writer, "[GraphDebug] Edge Rejected"); return err },
		func() error { _, err := fmt.Fprintln(h.writer, rule); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "\nSource: %s\n", source); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "Target: %s\n", target); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "Reason: %s\n", reason); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "\nGraph:\n%s\n", graph); return err },
		func() error { _, err := fmt.Fprintln(h.writer, rule); return err },
	}

	for _, write := range writes {
		if err := write(); err != nil {
			return err
		}
	}
	return nil
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *HumanHandler) WithGroup(name string) slog.Handler {
	return h
}
