package dataflow

import (
	"reflect"
	"sync/atomic"
)

// Context is the unit of the graph: a store of latest values per type with a
// lifetime, a set of broadcast targets and an identity. Entity is the plain
// implementation; Connection merges several contexts into one.
//
// Use the package-level generics (Publish, Get, Receive, ...) for typed
// access.
type Context interface {
	Store
	Tagged

	// ID is unique per process
	ID() uint64

	// Scope is the context's lifetime
	Scope() *Scope

	// Broadcast forwards every value published here to target. Edges that
	// would close a propagation cycle are refused with an inert handle.
	Broadcast(target Publisher) Handle

	// Break removes a broadcast target
	Break(target Publisher)

	// Release clears all state and terminates the scope, then makes the
	// context usable again
	Release()

	// Dispose is the terminal form of Release
	Dispose()

	node() *vertex
}

var idCounter atomic.Uint64

func nextID() uint64 {
	return idCounter.Add(1)
}

type options struct {
	tags       map[any]any
	extensions []Extension
	pool       *PoolManager
}

// Option configures contexts, connections and registries
type Option func(*options)

// WithTag attaches a tag value at construction
func WithTag[T any](tag Tag[T], val T) Option {
	return func(o *options) {
		if o.tags == nil {
			o.tags = make(map[any]any, 2)
		}
		o.tags[tag] = val
	}
}

// WithName sets the NameTag
func WithName(name string) Option {
	return WithTag(NameTag, name)
}

// WithExtension registers an extension. Extensions run in Order.
func WithExtension(ext Extension) Option {
	return func(o *options) {
		o.extensions = append(o.extensions, ext)
	}
}

// WithPool selects the pool manager; the global one is used otherwise
func WithPool(pm *PoolManager) Option {
	return func(o *options) {
		if pm != nil {
			o.pool = pm
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{pool: globalPoolManager}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Entity is the standard Context
type Entity struct {
	tagSet

	id          uint64
	scope       *Scope
	data        *TypeStore
	broadcaster *Broadcaster
	vertex      *vertex
	hooks       hooks
	disposed    bool
}

// NewEntity creates a live context
func NewEntity(opts ...Option) *Entity {
	return newEntity(newOptions(opts))
}

func newEntity(o *options) *Entity {
	id := nextID()
	e := &Entity{
		tagSet: tagSet{tags: o.tags},
		id:     id,
		scope:  NewScope(),
		data:   NewTypeStore(),
		vertex: newVertex(id),
		hooks:  sortExtensions(o.extensions),
	}
	e.broadcaster = newBroadcaster(e.vertex, o.pool)
	e.bindScope()
	return e
}

// bindScope ties store and broadcaster teardown to the current scope
func (e *Entity) bindScope() {
	e.scope.AddCleanup(e.data.Release)
	e.scope.AddCleanup(e.broadcaster.Release)
	if len(e.hooks) > 0 {
		e.scope.AddCleanup(func() { e.hooks.release(e) })
	}
}

func (e *Entity) ID() uint64 {
	return e.id
}

func (e *Entity) Scope() *Scope {
	return e.scope
}

func (e *Entity) node() *vertex {
	return e.vertex
}

// PublishValue stores v and forwards it to the broadcast targets. Publishes
// on a terminated context are dropped.
func (e *Entity) PublishValue(v Value) {
	if e.scope.IsTerminated() {
		return
	}
	e.data.PublishValue(v)
	e.hooks.publish(e, v)
	e.broadcaster.PublishValue(v)
}

// PublishValueForce is PublishValue without the value-scope guard
func (e *Entity) PublishValueForce(v Value) {
	if e.scope.IsTerminated() {
		return
	}
	e.data.PublishValueForce(v)
	e.hooks.publish(e, v)
	e.broadcaster.PublishValue(v)
}

func (e *Entity) Lookup(t reflect.Type) (any, bool) {
	return e.data.Lookup(t)
}

func (e *Entity) Has(t reflect.Type) bool {
	return e.data.Has(t)
}

func (e *Entity) Delete(t reflect.Type) bool {
	return e.data.Delete(t)
}

func (e *Entity) Observe(t reflect.Type) Observable {
	return e.data.Observe(t)
}

func (e *Entity) HasValue() bool {
	return e.data.HasValue()
}

// Types lists the cached types
func (e *Entity) Types() []reflect.Type {
	return e.data.Types()
}

func (e *Entity) Broadcast(target Publisher) Handle {
	if target == nil || e.scope.IsTerminated() {
		return Handle{}
	}
	if reason, ok := checkEdge(e.vertex, target); !ok {
		e.hooks.rejected(e, target, reason)
		return Handle{}
	}
	return e.broadcaster.Broadcast(target)
}

func (e *Entity) Break(target Publisher) {
	e.broadcaster.Break(target)
}

// Targets returns the broadcast targets in registration order
func (e *Entity) Targets() []Publisher {
	return e.broadcaster.Targets()
}

// Release terminates the scope, which clears the store and the broadcast
// targets and disconnects the entity from every connection, then restarts
// it so the entity can be reused
func (e *Entity) Release() {
	e.scope.Terminate()
	if e.disposed {
		return
	}
	e.scope.restart()
	e.bindScope()
}

// Dispose terminates the entity for good
func (e *Entity) Dispose() {
	e.disposed = true
	e.scope.Terminate()
}
