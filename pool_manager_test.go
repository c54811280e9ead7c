package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandle_Zero(t *testing.T) {
	var h Handle
	assert.False(t, h.Active())
	h.Dispose()
	h.cancel()
}

func TestHandle_DisposeOnce(t *testing.T) {
	pm := NewPoolManager()
	count := 0
	h := pm.Action(func() { count++ })

	assert.True(t, h.Active())
	h.Dispose()
	h.Dispose()
	assert.Equal(t, 1, count)
	assert.False(t, h.Active())
}

func TestHandle_Cancel(t *testing.T) {
	pm := NewPoolManager()
	ran := false
	h := pm.Action(func() { ran = true })

	h.cancel()
	h.Dispose()
	assert.False(t, ran)
}

func TestHandle_RecycledActionIgnoresOldHandle(t *testing.T) {
	pm := NewPoolManager()
	first := 0
	second := 0

	old := pm.Action(func() { first++ })
	old.Dispose()

	fresh := pm.Action(func() { second++ })
	old.Dispose()
	assert.True(t, fresh.Active())

	fresh.Dispose()
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestPoolManager_Metrics(t *testing.T) {
	pm := NewPoolManager()

	h := pm.Action(func() {})
	h.Dispose()
	pm.Action(func() {})

	stats := pm.GetMetrics()
	assert.Equal(t, uint64(2), stats.ActionHits+stats.ActionMisses)
	assert.GreaterOrEqual(t, stats.ActionMisses, uint64(1))

	s := pm.acquireStore()
	Publish(s, 1)
	pm.releaseStore(s)
	assert.False(t, s.HasValue())

	stats = pm.GetMetrics()
	assert.Equal(t, uint64(1), stats.StoreMisses)
	assert.InDelta(t, 0.5, stats.HitRate(), 0.5)

	pm.ResetMetrics()
	assert.Equal(t, PoolStats{}, pm.GetMetrics())
	assert.Zero(t, PoolStats{}.HitRate())
}

func TestPoolManager_BridgeReset(t *testing.T) {
	pm := NewPoolManager()
	g := NewConnection(WithPool(pm))
	m := NewEntity(WithPool(pm))
	g.Connect(m)

	Receive[int](g).Subscribe(func(int) {})
	assert.Equal(t, uint64(1), pm.GetMetrics().BridgeMisses)
	assert.Len(t, m.Targets(), 1)

	g.Release()
	assert.Empty(t, m.Targets())
}

func TestGetGlobalPoolManager(t *testing.T) {
	assert.Same(t, globalPoolManager, GetGlobalPoolManager())
}
