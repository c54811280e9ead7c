package dataflow

import (
	"reflect"
)

// Connection is a Context that merges its members. Lookups try the
// connection's own aggregate store first and then each member in
// registration order. Streams come from the aggregate, which starts
// receiving a type from every member the first time that type is
// subscribed.
//
// Members leave automatically when their scope terminates.
type Connection struct {
	tagSet

	id        uint64
	members   *Registry[Context]
	detach    map[Context]func()
	aggregate *Entity
	bridges   map[reflect.Type]*bridge
	order     []reflect.Type
	hooks     hooks
	pool      *PoolManager
	disposed  bool
}

// NewConnection creates an empty connection
func NewConnection(opts ...Option) *Connection {
	o := newOptions(opts)
	g := &Connection{
		tagSet:  tagSet{tags: o.tags},
		id:      nextID(),
		bridges: make(map[reflect.Type]*bridge),
		detach:  make(map[Context]func()),
		hooks:   sortExtensions(o.extensions),
		pool:    o.pool,
	}
	g.aggregate = newEntity(&options{pool: o.pool})
	g.members = NewRegistry(RegistryHooks[Context]{
		OnBind:   g.onBind,
		OnUnbind: g.onUnbind,
	}, WithPool(o.pool))
	return g
}

func (g *Connection) ID() uint64 {
	return g.id
}

// Scope is the membership lifetime. It terminates on Release and Dispose.
func (g *Connection) Scope() *Scope {
	return g.members.Scope()
}

func (g *Connection) node() *vertex {
	return g.aggregate.vertex
}

// Connect adds member. Nil, self, terminated and cycle-closing members are
// refused with an inert handle; connecting a present member is a no-op.
// Disposing the handle disconnects the member.
func (g *Connection) Connect(member Context) Handle {
	if member == nil || isNil(member) {
		return Handle{}
	}
	if g.Scope().IsTerminated() || member.Scope().IsTerminated() {
		g.hooks.rejected(g, member, RejectTerminated)
		return Handle{}
	}
	if member.node() == g.node() {
		g.hooks.rejected(g, member, RejectSelf)
		return Handle{}
	}
	if g.node().reaches(member.node()) {
		g.hooks.rejected(g, member, RejectCycle)
		return Handle{}
	}

	h := g.members.Add(member)
	if h.Active() && g.members.Contains(member) {
		g.detach[member] = member.Scope().track(h.Dispose)
	}
	return h
}

// Disconnect removes member. Bridges relink the remaining members.
func (g *Connection) Disconnect(member Context) {
	g.members.Remove(member)
}

func (g *Connection) onBind(m Context) {
	m.node().link(g.node())
	for _, t := range g.order {
		g.bridges[t].add(m)
	}
	g.hooks.connect(g, m)
}

func (g *Connection) onUnbind(m Context) {
	if untrack, ok := g.detach[m]; ok {
		delete(g.detach, m)
		untrack()
	}
	m.node().unlink(g.node())
	for _, t := range g.order {
		g.bridges[t].remove(m)
	}
	g.hooks.disconnect(g, m)
}

// ensureBridge starts forwarding t from every member into the aggregate.
// Each member's current t is republished once, in member order.
func (g *Connection) ensureBridge(t reflect.Type) {
	if _, ok := g.bridges[t]; ok || g.Scope().IsTerminated() {
		return
	}

	b := g.pool.acquireBridge()
	b.init(t, g.aggregate)
	g.bridges[t] = b
	g.order = append(g.order, t)

	for _, m := range g.members.snapshot() {
		if m.Scope().IsTerminated() {
			continue
		}
		b.add(m)
		if v, ok := m.Lookup(t); ok {
			g.aggregate.PublishValue(Value{typ: t, val: v})
		}
	}
}

// PublishValue publishes into the aggregate
func (g *Connection) PublishValue(v Value) {
	if g.Scope().IsTerminated() {
		return
	}
	g.aggregate.PublishValue(v)
	g.hooks.publish(g, v)
}

func (g *Connection) PublishValueForce(v Value) {
	if g.Scope().IsTerminated() {
		return
	}
	g.aggregate.PublishValueForce(v)
	g.hooks.publish(g, v)
}

// Lookup returns the aggregate's value, else the first member's
func (g *Connection) Lookup(t reflect.Type) (any, bool) {
	if v, ok := g.aggregate.Lookup(t); ok {
		return v, true
	}
	for _, m := range g.members.snapshot() {
		if v, ok := m.Lookup(t); ok {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether the aggregate or any member holds t
func (g *Connection) Has(t reflect.Type) bool {
	if g.aggregate.Has(t) {
		return true
	}
	for _, m := range g.members.snapshot() {
		if m.Has(t) {
			return true
		}
	}
	return false
}

// Delete removes t from the aggregate only
func (g *Connection) Delete(t reflect.Type) bool {
	return g.aggregate.Delete(t)
}

// HasValue reports on the aggregate only
func (g *Connection) HasValue() bool {
	return g.aggregate.HasValue()
}

// Observe subscribes to the aggregate, bridging t on first use
func (g *Connection) Observe(t reflect.Type) Observable {
	agg := g.aggregate.Observe(t)
	return Observable{attach: func(o *observer) {
		agg.attach(o)
		g.ensureBridge(t)
	}}
}

func (g *Connection) Broadcast(target Publisher) Handle {
	if target == nil || g.Scope().IsTerminated() {
		return Handle{}
	}
	if reason, ok := checkEdge(g.node(), target); !ok {
		g.hooks.rejected(g, target, reason)
		return Handle{}
	}
	return g.aggregate.broadcaster.Broadcast(target)
}

func (g *Connection) Break(target Publisher) {
	g.aggregate.Break(target)
}

// Members returns the members in registration order
func (g *Connection) Members() []Context {
	return g.members.Items()
}

// Count returns the number of members
func (g *Connection) Count() int {
	return g.members.Count()
}

// IsConnected reports whether member is a direct member
func (g *Connection) IsConnected(member Context) bool {
	return g.members.Contains(member)
}

// BridgedTypes lists the types currently forwarded, in bridge order
func (g *Connection) BridgedTypes() []reflect.Type {
	out := make([]reflect.Type, len(g.order))
	copy(out, g.order)
	return out
}

// Types lists the types cached in the aggregate
func (g *Connection) Types() []reflect.Type {
	return g.aggregate.Types()
}

// Release drops every bridge and member and clears the aggregate. The
// connection is reusable afterwards.
func (g *Connection) Release() {
	if g.disposed {
		return
	}
	g.teardown()
	g.members.Release()
	g.aggregate.Release()
	g.hooks.release(g)
}

// Dispose is the terminal form of Release
func (g *Connection) Dispose() {
	if g.disposed {
		return
	}
	g.disposed = true
	g.teardown()
	g.members.Dispose()
	g.aggregate.Dispose()
	g.hooks.release(g)
}

// teardown disposes the bridges before members leave, so removing members
// does not relink every remaining member once per removal
func (g *Connection) teardown() {
	for _, t := range g.order {
		b := g.bridges[t]
		delete(g.bridges, t)
		g.pool.releaseBridge(b)
	}
	g.order = nil
}
