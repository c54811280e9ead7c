package dataflow

import "reflect"

// forward is the broadcast target a bridge installs on each member: it
// passes values of one type into the connection aggregate. Comparable, so
// registering the same forward twice is a no-op.
type forward struct {
	t      reflect.Type
	target *Entity
}

func (f forward) PublishValue(v Value) {
	if v.typ == f.t {
		f.target.PublishValue(v)
	}
}

func (f forward) node() *vertex {
	return f.target.vertex
}

// bridger is implemented by contexts that bridge their own members, so a
// nested connection can be asked to start forwarding a type
type bridger interface {
	ensureBridge(t reflect.Type)
}

// bridge keeps one type flowing from every member of a connection into its
// aggregate. All links live in one restartable scope; removing a member
// restarts it and relinks the rest.
type bridge struct {
	t       reflect.Type
	target  *Entity
	members []Context
	index   map[Context]struct{}
	links   *Scope
}

func (b *bridge) init(t reflect.Type, target *Entity) {
	b.t = t
	b.target = target
}

func (b *bridge) add(m Context) {
	if m.node() == b.target.vertex {
		return
	}
	if _, ok := b.index[m]; ok {
		return
	}

	b.index[m] = struct{}{}
	b.members = append(b.members, m)
	b.bind(m)
}

func (b *bridge) remove(m Context) {
	if _, ok := b.index[m]; !ok {
		return
	}

	delete(b.index, m)
	b.members = without(b.members, m)

	b.links.Terminate()
	b.links.restart()
	for _, member := range b.members {
		b.bind(member)
	}
}

func (b *bridge) bind(m Context) {
	if n, ok := m.(bridger); ok {
		n.ensureBridge(b.t)
	}
	h := m.Broadcast(forward{t: b.t, target: b.target})
	b.links.AddDisposable(h)
}

// dispose unlinks every member
func (b *bridge) dispose() {
	b.links.Terminate()
	b.links.restart()
}

func (b *bridge) reset() {
	b.dispose()
	b.t = nil
	b.target = nil
	b.members = nil
	clear(b.index)
}
