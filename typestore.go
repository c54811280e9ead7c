package dataflow

import (
	"reflect"
	"sort"
)

// TypeStore keeps the latest value per type and notifies per-type
// subscribers. It holds no reference past the lifetime of a scope-bound
// value: publishing a ScopeOwner registers an eviction on its scope.
//
// A TypeStore belongs to one goroutine; see the package documentation.
type TypeStore struct {
	cells     *typeCache[*cell]
	tokens    uint64
	count     int
	evictions map[evictionKey]uint64
}

// evictionKey names one registered eviction. A value scope carries at most
// one eviction per store and type; republishing only moves its token.
type evictionKey struct {
	typ   reflect.Type
	scope *Scope
}

// NewTypeStore creates an empty store
func NewTypeStore() *TypeStore {
	return &TypeStore{
		cells:     newTypeCache[*cell](8),
		evictions: make(map[evictionKey]uint64),
	}
}

func (s *TypeStore) ensure(t reflect.Type) *cell {
	c, ok := s.cells.Load(t)
	if !ok {
		c = &cell{}
		s.cells.Store(t, c)
	}
	return c
}

// PublishValue caches v under its type and notifies subscribers. A
// scope-bound value whose scope already terminated is delivered to current
// subscribers but not cached.
func (s *TypeStore) PublishValue(v Value) {
	s.publish(v, false)
}

// PublishValueForce is PublishValue without the terminated-scope guard
func (s *TypeStore) PublishValueForce(v Value) {
	s.publish(v, true)
}

func (s *TypeStore) publish(v Value, force bool) {
	if v.typ == nil {
		return
	}

	c := s.ensure(v.typ)
	sc := scopeOf(v.val)
	if force || sc == nil || !sc.IsTerminated() {
		s.tokens++
		token := s.tokens
		if !c.present {
			s.count++
		}
		c.value, c.present, c.token = v.val, true, token

		if sc != nil && !sc.IsTerminated() {
			s.watch(evictionKey{typ: v.typ, scope: sc}, token)
		}
	}

	if c.subj != nil {
		c.subj.emit(v.val)
	}
}

// watch records token as the latest publish under key, registering the
// eviction on the value scope the first time key is seen
func (s *TypeStore) watch(key evictionKey, token uint64) {
	_, registered := s.evictions[key]
	s.evictions[key] = token
	if registered {
		return
	}
	key.scope.AddCleanup(func() {
		token := s.evictions[key]
		delete(s.evictions, key)
		s.evict(key.typ, token)
	})
}

// evict clears the slot only if it still holds the value written by the
// publish that produced token
func (s *TypeStore) evict(t reflect.Type, token uint64) {
	c, ok := s.cells.Load(t)
	if !ok || !c.present || c.token != token {
		return
	}
	c.clearValue()
	s.count--
}

// Lookup returns the cached value for t
func (s *TypeStore) Lookup(t reflect.Type) (any, bool) {
	c, ok := s.cells.Load(t)
	if !ok || !c.present {
		return nil, false
	}
	return c.value, true
}

// Has reports whether a value of type t is cached
func (s *TypeStore) Has(t reflect.Type) bool {
	c, ok := s.cells.Load(t)
	return ok && c.present
}

// Delete drops the cached value for t without notifying subscribers
func (s *TypeStore) Delete(t reflect.Type) bool {
	c, ok := s.cells.Load(t)
	if !ok || !c.present {
		return false
	}
	c.clearValue()
	s.count--
	return true
}

// Observe returns the notification stream for t. The slot is resolved at
// subscribe time, so a stream obtained before Release keeps working after.
func (s *TypeStore) Observe(t reflect.Type) Observable {
	return Observable{attach: func(o *observer) {
		s.ensure(t).subject().attach(o)
	}}
}

// HasValue reports whether any value is cached
func (s *TypeStore) HasValue() bool {
	return s.count > 0
}

// Len returns the number of cached values
func (s *TypeStore) Len() int {
	return s.count
}

// Types lists the cached types, sorted by name
func (s *TypeStore) Types() []reflect.Type {
	types := make([]reflect.Type, 0, s.count)
	s.cells.Range(func(t reflect.Type, c *cell) bool {
		if c.present {
			types = append(types, t)
		}
		return true
	})
	sort.Slice(types, func(i, j int) bool {
		return types[i].String() < types[j].String()
	})
	return types
}

// subscribers counts live subscribers of t
func (s *TypeStore) subscribers(t reflect.Type) int {
	c, ok := s.cells.Load(t)
	if !ok || c.subj == nil {
		return 0
	}
	return c.subj.live()
}

// Release completes every stream and clears all slots. The store stays
// usable: later publishes and subscriptions start from empty.
func (s *TypeStore) Release() {
	var subjects []*subject
	s.cells.Range(func(_ reflect.Type, c *cell) bool {
		if c.subj != nil {
			subjects = append(subjects, c.subj)
		}
		return true
	})

	s.cells.Clear()
	s.count = 0

	for _, subj := range subjects {
		subj.complete()
	}
}
