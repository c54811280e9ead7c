package dataflow

import "reflect"

// cell is one per-type slot: the latest value, whether it is present, the
// token of the publish that wrote it, and the lazily created notification
// subject.
type cell struct {
	value   any
	present bool
	token   uint64
	subj    *subject
}

func (c *cell) subject() *subject {
	if c.subj == nil {
		c.subj = &subject{}
	}
	return c.subj
}

func (c *cell) clearValue() {
	c.value = nil
	c.present = false
	c.token = 0
}

// typeCache maps a published type to its slot. Owned by a single
// goroutine, so a plain map replaces the sync.Map a shared cache would need.
type typeCache[V any] struct {
	data map[reflect.Type]V
}

func newTypeCache[V any](initialCapacity int) *typeCache[V] {
	return &typeCache[V]{
		data: make(map[reflect.Type]V, initialCapacity),
	}
}

func (c *typeCache[V]) Load(key reflect.Type) (V, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *typeCache[V]) Store(key reflect.Type, value V) {
	c.data[key] = value
}

func (c *typeCache[V]) Delete(key reflect.Type) {
	delete(c.data, key)
}

func (c *typeCache[V]) Range(fn func(key reflect.Type, value V) bool) {
	for k, v := range c.data {
		if !fn(k, v) {
			return
		}
	}
}

func (c *typeCache[V]) Size() int {
	return len(c.data)
}

func (c *typeCache[V]) Clear() {
	clear(c.data)
}
