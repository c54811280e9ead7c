package dataflow

import "reflect"

// RegistryHooks lets a registry owner react to membership changes
type RegistryHooks[E comparable] struct {
	OnBind    func(E)
	OnUnbind  func(E)
	OnRelease func()
}

// binding identifies one registration. Handles capture the binding they
// were minted for, so a handle from an earlier registration of the same
// item cannot remove a later one.
type binding struct {
	handle Handle
}

// Registry is an ordered set with per-item disposal handles. Items are kept
// in registration order in a copy-on-write slice so iteration during
// mutation sees a stable snapshot.
type Registry[E comparable] struct {
	items    []E
	bindings map[E]*binding
	hooks    RegistryHooks[E]
	scope    *Scope
	pool     *PoolManager
}

// NewRegistry creates an empty registry. Only WithPool is meaningful among
// the options.
func NewRegistry[E comparable](hooks RegistryHooks[E], opts ...Option) *Registry[E] {
	o := newOptions(opts)
	return &Registry[E]{
		bindings: make(map[E]*binding),
		hooks:    hooks,
		scope:    NewScope(),
		pool:     o.pool,
	}
}

// Add registers e and returns its handle. Adding an item that is already
// present, or one whose dynamic type is not comparable, returns an inert
// handle.
func (r *Registry[E]) Add(e E) Handle {
	if !keyable(e) {
		return Handle{}
	}
	if _, ok := r.bindings[e]; ok {
		return Handle{}
	}

	b := &binding{}
	r.bindings[e] = b
	r.items = appendUnique(r.items, e)
	b.handle = r.pool.Action(func() { r.unbind(e, b) })

	if r.hooks.OnBind != nil {
		r.hooks.OnBind(e)
	}
	return b.handle
}

// Remove unregisters e. It reports whether e was present.
func (r *Registry[E]) Remove(e E) bool {
	if !keyable(e) {
		return false
	}
	b, ok := r.bindings[e]
	if !ok {
		return false
	}
	return r.unbind(e, b)
}

func (r *Registry[E]) unbind(e E, b *binding) bool {
	if current, ok := r.bindings[e]; !ok || current != b {
		return false
	}

	delete(r.bindings, e)
	r.items = without(r.items, e)
	b.handle.cancel()

	if r.hooks.OnUnbind != nil {
		r.hooks.OnUnbind(e)
	}
	return true
}

// Contains reports whether e is registered
func (r *Registry[E]) Contains(e E) bool {
	if !keyable(e) {
		return false
	}
	_, ok := r.bindings[e]
	return ok
}

// Count returns the number of registered items
func (r *Registry[E]) Count() int {
	return len(r.items)
}

// Items returns a copy of the registered items in registration order
func (r *Registry[E]) Items() []E {
	out := make([]E, len(r.items))
	copy(out, r.items)
	return out
}

// snapshot returns the current copy-on-write slice. Callers must not
// modify it.
func (r *Registry[E]) snapshot() []E {
	return r.items
}

// Scope returns the registry's own lifetime. It terminates on Release and
// Dispose; after Release it starts over.
func (r *Registry[E]) Scope() *Scope {
	return r.scope
}

// Release unbinds every item, terminates the registry scope, runs the
// OnRelease hook and leaves the registry empty and reusable
func (r *Registry[E]) Release() {
	r.clear()
	r.scope.restart()
}

// Dispose is Release without the restart
func (r *Registry[E]) Dispose() {
	r.clear()
}

func (r *Registry[E]) clear() {
	for _, e := range r.items {
		if b, ok := r.bindings[e]; ok {
			r.unbind(e, b)
		}
	}

	r.scope.Terminate()

	if r.hooks.OnRelease != nil {
		r.hooks.OnRelease()
	}
}

// keyable guards map access for interface-typed items, whose dynamic value
// may be a func, slice or map
func keyable[E comparable](e E) bool {
	if reflect.TypeOf((*E)(nil)).Elem().Kind() != reflect.Interface {
		return true
	}
	return hashable(e)
}
