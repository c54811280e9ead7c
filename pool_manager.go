package dataflow

import (
	"sync"
	"sync/atomic"
)

// Disposable releases whatever it was handed out for
type Disposable interface {
	Dispose()
}

// DisposeFunc adapts a plain function to Disposable
type DisposeFunc func()

func (f DisposeFunc) Dispose() {
	if f != nil {
		f()
	}
}

// action is the pooled payload behind a Handle. gen is bumped every time
// the action fires or is cancelled, which turns every Handle minted for an
// earlier generation into a no-op.
type action struct {
	fn   func()
	gen  atomic.Uint64
	pool *PoolManager
}

// Handle is an idempotent disposal token returned by Broadcast, Connect and
// Registry.Add. The zero Handle is inert.
type Handle struct {
	a   *action
	gen uint64
}

// Dispose runs the underlying action once. Later calls, and calls on a
// handle whose action was already recycled, do nothing.
func (h Handle) Dispose() {
	a := h.a
	if a == nil || !a.gen.CompareAndSwap(h.gen, h.gen+1) {
		return
	}

	fn := a.fn
	a.fn = nil
	a.pool.releaseAction(a)

	if fn != nil {
		fn()
	}
}

// Active reports whether Dispose would still run the action
func (h Handle) Active() bool {
	return h.a != nil && h.a.gen.Load() == h.gen
}

// cancel invalidates the handle without running its action
func (h Handle) cancel() {
	a := h.a
	if a == nil || !a.gen.CompareAndSwap(h.gen, h.gen+1) {
		return
	}
	a.fn = nil
	a.pool.releaseAction(a)
}

// PoolManager recycles the small objects the graph churns through:
// disposal actions, type bridges and keyed stores.
type PoolManager struct {
	actionPool sync.Pool
	bridgePool sync.Pool
	storePool  sync.Pool

	metrics PoolMetrics
}

// PoolMetrics tracks pool usage statistics
type PoolMetrics struct {
	actionHits   atomic.Uint64
	actionMisses atomic.Uint64
	bridgeHits   atomic.Uint64
	bridgeMisses atomic.Uint64
	storeHits    atomic.Uint64
	storeMisses  atomic.Uint64
}

// PoolStats is a point-in-time copy of PoolMetrics
type PoolStats struct {
	ActionHits   uint64
	ActionMisses uint64
	BridgeHits   uint64
	BridgeMisses uint64
	StoreHits    uint64
	StoreMisses  uint64
}

// NewPoolManager creates an empty pool manager. Pools have no New func so
// that a Get miss is observable in the metrics.
func NewPoolManager() *PoolManager {
	return &PoolManager{}
}

// Action wraps fn in a pooled, idempotent Handle
func (pm *PoolManager) Action(fn func()) Handle {
	a, ok := pm.actionPool.Get().(*action)
	if ok {
		pm.metrics.actionHits.Add(1)
	} else {
		a = &action{}
		pm.metrics.actionMisses.Add(1)
	}

	a.fn = fn
	a.pool = pm
	return Handle{a: a, gen: a.gen.Load()}
}

func (pm *PoolManager) releaseAction(a *action) {
	pm.actionPool.Put(a)
}

func (pm *PoolManager) acquireBridge() *bridge {
	b, ok := pm.bridgePool.Get().(*bridge)
	if ok {
		pm.metrics.bridgeHits.Add(1)
		return b
	}

	pm.metrics.bridgeMisses.Add(1)
	return &bridge{
		index: make(map[Context]struct{}, 4),
		links: NewScope(),
	}
}

func (pm *PoolManager) releaseBridge(b *bridge) {
	if b == nil {
		return
	}
	b.reset()
	pm.bridgePool.Put(b)
}

func (pm *PoolManager) acquireStore() *TypeStore {
	s, ok := pm.storePool.Get().(*TypeStore)
	if ok {
		pm.metrics.storeHits.Add(1)
		return s
	}

	pm.metrics.storeMisses.Add(1)
	return NewTypeStore()
}

func (pm *PoolManager) releaseStore(s *TypeStore) {
	if s == nil {
		return
	}
	s.Release()
	pm.storePool.Put(s)
}

// GetMetrics returns current pool statistics
func (pm *PoolManager) GetMetrics() PoolStats {
	m := &pm.metrics
	return PoolStats{
		ActionHits:   m.actionHits.Load(),
		ActionMisses: m.actionMisses.Load(),
		BridgeHits:   m.bridgeHits.Load(),
		BridgeMisses: m.bridgeMisses.Load(),
		StoreHits:    m.storeHits.Load(),
		StoreMisses:  m.storeMisses.Load(),
	}
}

// ResetMetrics resets all pool metrics
func (pm *PoolManager) ResetMetrics() {
	m := &pm.metrics
	m.actionHits.Store(0)
	m.actionMisses.Store(0)
	m.bridgeHits.Store(0)
	m.bridgeMisses.Store(0)
	m.storeHits.Store(0)
	m.storeMisses.Store(0)
}

// HitRate returns the fraction of acquisitions served from a pool
func (s PoolStats) HitRate() float64 {
	hits := s.ActionHits + s.BridgeHits + s.StoreHits
	total := hits + s.ActionMisses + s.BridgeMisses + s.StoreMisses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Global pool manager instance
var globalPoolManager = NewPoolManager()

// GetGlobalPoolManager returns the pool manager used when no WithPool
// option is given
func GetGlobalPoolManager() *PoolManager {
	return globalPoolManager
}
