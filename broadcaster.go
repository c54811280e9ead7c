package dataflow

// Broadcaster forwards every published value to its registered targets,
// synchronously and in registration order. A target removed while a
// publish is in flight receives nothing further from that publish.
type Broadcaster struct {
	targets *Registry[Publisher]
	owner   *vertex
}

// NewBroadcaster creates a standalone broadcaster. Broadcasters created by
// contexts also maintain the edges used for cycle detection.
func NewBroadcaster(opts ...Option) *Broadcaster {
	return newBroadcaster(nil, newOptions(opts).pool)
}

func newBroadcaster(owner *vertex, pool *PoolManager) *Broadcaster {
	b := &Broadcaster{owner: owner}
	b.targets = NewRegistry(RegistryHooks[Publisher]{
		OnBind:   b.bind,
		OnUnbind: b.unbind,
	}, WithPool(pool))
	return b
}

func (b *Broadcaster) bind(p Publisher) {
	if b.owner == nil {
		return
	}
	if n, ok := p.(noder); ok {
		b.owner.link(n.node())
	}
}

func (b *Broadcaster) unbind(p Publisher) {
	if b.owner == nil {
		return
	}
	if n, ok := p.(noder); ok {
		b.owner.unlink(n.node())
	}
}

// Broadcast registers target. Registering a target twice returns an inert
// handle.
func (b *Broadcaster) Broadcast(target Publisher) Handle {
	if target == nil {
		return Handle{}
	}
	return b.targets.Add(target)
}

// Break unregisters target
func (b *Broadcaster) Break(target Publisher) {
	b.targets.Remove(target)
}

// PublishValue forwards v to every target
func (b *Broadcaster) PublishValue(v Value) {
	for _, t := range b.targets.snapshot() {
		if b.targets.Contains(t) {
			t.PublishValue(v)
		}
	}
}

// Targets returns the registered targets in order
func (b *Broadcaster) Targets() []Publisher {
	return b.targets.Items()
}

// Count returns the number of targets
func (b *Broadcaster) Count() int {
	return b.targets.Count()
}

// Release unregisters every target; the broadcaster stays usable
func (b *Broadcaster) Release() {
	b.targets.Release()
}
