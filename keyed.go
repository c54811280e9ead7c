package dataflow

// KeyedData partitions values by key: one TypeStore per key, created on
// first write. Stores come from the pool and go back to it when their key is
// removed.
type KeyedData[K comparable] struct {
	keys   []K
	stores map[K]*TypeStore
	pool   *PoolManager
}

// NewKeyedData creates an empty keyed table
func NewKeyedData[K comparable](opts ...Option) *KeyedData[K] {
	return &KeyedData[K]{
		stores: make(map[K]*TypeStore),
		pool:   newOptions(opts).pool,
	}
}

// Update publishes v into the store for key
func (d *KeyedData[K]) Update(key K, v Value) {
	d.ensure(key).PublishValue(v)
}

func (d *KeyedData[K]) ensure(key K) *TypeStore {
	s, ok := d.stores[key]
	if !ok {
		s = d.pool.acquireStore()
		d.stores[key] = s
		d.keys = append(d.keys, key)
	}
	return s
}

// Store returns the store for key, if it exists. Use the package-level
// generics on it for typed access.
func (d *KeyedData[K]) Store(key K) (*TypeStore, bool) {
	s, ok := d.stores[key]
	return s, ok
}

// HasKey reports whether key has a store
func (d *KeyedData[K]) HasKey(key K) bool {
	_, ok := d.stores[key]
	return ok
}

// RemoveKey releases the store for key
func (d *KeyedData[K]) RemoveKey(key K) bool {
	s, ok := d.stores[key]
	if !ok {
		return false
	}
	delete(d.stores, key)
	d.keys = without(d.keys, key)
	d.pool.releaseStore(s)
	return true
}

// Keys returns the keys in creation order
func (d *KeyedData[K]) Keys() []K {
	out := make([]K, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of keys
func (d *KeyedData[K]) Len() int {
	return len(d.keys)
}

// Release drops every key
func (d *KeyedData[K]) Release() {
	for _, key := range d.keys {
		d.pool.releaseStore(d.stores[key])
	}
	clear(d.stores)
	d.keys = nil
}

// Publisher returns a Publisher writing into key
func (d *KeyedData[K]) Publisher(key K) *KeyedPublisher[K] {
	return &KeyedPublisher[K]{data: d, key: key}
}

// KeyedPublisher writes into one key of a KeyedData until released
type KeyedPublisher[K comparable] struct {
	data *KeyedData[K]
	key  K
}

func (p *KeyedPublisher[K]) PublishValue(v Value) {
	if p.data == nil {
		return
	}
	p.data.Update(p.key, v)
}

// Key returns the target key
func (p *KeyedPublisher[K]) Key() K {
	return p.key
}

// Release detaches the publisher; later publishes are dropped
func (p *KeyedPublisher[K]) Release() {
	p.data = nil
}

// UpdateKeyed publishes v as the T for key
func UpdateKeyed[K comparable, T any](d *KeyedData[K], key K, v T) {
	d.Update(key, ValueOf(v))
}

// GetKeyed returns the T stored for key
func GetKeyed[K comparable, T any](d *KeyedData[K], key K) (T, bool) {
	s, ok := d.Store(key)
	if !ok {
		var zero T
		return zero, false
	}
	return Get[T](s)
}

// RemoveKeyed drops the T stored for key
func RemoveKeyed[K comparable, T any](d *KeyedData[K], key K) bool {
	s, ok := d.Store(key)
	if !ok {
		return false
	}
	return Remove[T](s)
}

// GetOrCreate returns the T for key, publishing create() first if absent
func GetOrCreate[K comparable, T any](d *KeyedData[K], key K, create func() T) T {
	if v, ok := GetKeyed[K, T](d, key); ok {
		return v
	}
	v := create()
	UpdateKeyed(d, key, v)
	return v
}
