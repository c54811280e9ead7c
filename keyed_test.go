package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedData_PerKeyStores(t *testing.T) {
	d := NewKeyedData[string]()

	UpdateKeyed(d, "alice", 30)
	UpdateKeyed(d, "bob", 25)
	UpdateKeyed(d, "alice", "admin")

	age, ok := GetKeyed[string, int](d, "alice")
	require.True(t, ok)
	assert.Equal(t, 30, age)

	role, ok := GetKeyed[string, string](d, "alice")
	require.True(t, ok)
	assert.Equal(t, "admin", role)

	_, ok = GetKeyed[string, string](d, "bob")
	assert.False(t, ok)
	_, ok = GetKeyed[string, int](d, "carol")
	assert.False(t, ok)

	assert.Equal(t, []string{"alice", "bob"}, d.Keys())
	assert.Equal(t, 2, d.Len())
}

func TestKeyedData_RemoveKey(t *testing.T) {
	pm := NewPoolManager()
	d := NewKeyedData[int](WithPool(pm))
	UpdateKeyed(d, 1, "one")
	s, ok := d.Store(1)
	require.True(t, ok)

	completed := false
	Receive[string](s).SubscribeWith(func(string) {}, func() { completed = true })

	assert.True(t, d.RemoveKey(1))
	assert.False(t, d.RemoveKey(1))
	assert.False(t, d.HasKey(1))
	assert.True(t, completed)
	assert.Empty(t, d.Keys())
	assert.Equal(t, uint64(1), pm.GetMetrics().StoreMisses)
}

func TestKeyedData_RemoveKeyed(t *testing.T) {
	d := NewKeyedData[string]()
	UpdateKeyed(d, "k", 1)

	assert.True(t, RemoveKeyed[string, int](d, "k"))
	assert.False(t, RemoveKeyed[string, int](d, "k"))
	assert.False(t, RemoveKeyed[string, int](d, "missing"))
	assert.True(t, d.HasKey("k"))
}

func TestKeyedData_GetOrCreate(t *testing.T) {
	d := NewKeyedData[string]()
	calls := 0
	create := func() int {
		calls++
		return 10
	}

	assert.Equal(t, 10, GetOrCreate(d, "k", create))
	assert.Equal(t, 10, GetOrCreate(d, "k", create))
	assert.Equal(t, 1, calls)
}

func TestKeyedData_Publisher(t *testing.T) {
	d := NewKeyedData[string]()
	src := NewEntity()
	p := d.Publisher("mirror")
	assert.Equal(t, "mirror", p.Key())

	src.Broadcast(p)
	Publish(src, 42)

	v, ok := GetKeyed[string, int](d, "mirror")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	p.Release()
	Publish(src, 43)
	v, _ = GetKeyed[string, int](d, "mirror")
	assert.Equal(t, 42, v)
}

func TestKeyedData_Release(t *testing.T) {
	d := NewKeyedData[int]()
	UpdateKeyed(d, 1, true)
	UpdateKeyed(d, 2, true)

	d.Release()
	assert.Equal(t, 0, d.Len())
	assert.False(t, d.HasKey(1))

	UpdateKeyed(d, 3, true)
	assert.Equal(t, []int{3}, d.Keys())
}

func TestController(t *testing.T) {
	e := NewEntity()
	ctrl := Accessor[int](e)

	assert.Zero(t, ctrl.Get())
	_, ok := ctrl.Peek()
	assert.False(t, ok)
	assert.False(t, ctrl.IsCached())

	var got []int
	ctrl.Receive().Subscribe(func(v int) { got = append(got, v) })

	ctrl.Update(1)
	ctrl.Set(2)
	assert.Equal(t, 2, ctrl.Get())
	assert.True(t, ctrl.IsCached())
	assert.Equal(t, []int{1, 2}, got)

	assert.True(t, ctrl.Release())
	assert.False(t, ctrl.IsCached())
	assert.Equal(t, []int{1, 2}, got)
}
