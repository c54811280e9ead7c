package dataflow

import "sort"

// Extension observes the graph. Hooks run synchronously on the owner
// goroutine, so they must not block.
type Extension interface {
	// Name returns the extension's name
	Name() string

	// Order determines extension execution order (lower = earlier)
	Order() int

	// OnPublish runs after a value reached the context's store, before it
	// is broadcast
	OnPublish(c Context, v Value)

	// OnConnect and OnDisconnect follow connection membership
	OnConnect(g *Connection, member Context)
	OnDisconnect(g *Connection, member Context)

	// OnRejected reports a Broadcast or Connect that was refused
	OnRejected(source Context, target any, reason RejectReason)

	// OnRelease runs when the context's scope terminates
	OnRelease(c Context)
}

// BaseExtension provides default implementations for Extension methods
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) OnPublish(c Context, v Value) {
}

func (e *BaseExtension) OnConnect(g *Connection, member Context) {
}

func (e *BaseExtension) OnDisconnect(g *Connection, member Context) {
}

func (e *BaseExtension) OnRejected(source Context, target any, reason RejectReason) {
}

func (e *BaseExtension) OnRelease(c Context) {
}

// hooks is the ordered extension list carried by a context
type hooks []Extension

func sortExtensions(exts []Extension) hooks {
	out := make([]Extension, len(exts))
	copy(out, exts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order() < out[j].Order()
	})
	return out
}

func (h hooks) publish(c Context, v Value) {
	for _, ext := range h {
		ext.OnPublish(c, v)
	}
}

func (h hooks) connect(g *Connection, member Context) {
	for _, ext := range h {
		ext.OnConnect(g, member)
	}
}

func (h hooks) disconnect(g *Connection, member Context) {
	for _, ext := range h {
		ext.OnDisconnect(g, member)
	}
}

func (h hooks) rejected(source Context, target any, reason RejectReason) {
	for _, ext := range h {
		ext.OnRejected(source, target, reason)
	}
}

func (h hooks) release(c Context) {
	for _, ext := range h {
		ext.OnRelease(c)
	}
}
