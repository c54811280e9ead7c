package dataflow

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumped-fn/dataflow/logging"
)

func TestMerge_WrapsEntity(t *testing.T) {
	a, b := NewEntity(), NewEntity()
	Publish(a, "a")
	Publish(b, "b")

	g := Merge(a, b)
	assert.Equal(t, []Context{a, b}, g.Members())

	v, _ := Get[string](g)
	assert.Equal(t, "a", v)
}

func TestMerge_ExtendsConnection(t *testing.T) {
	a, b := NewEntity(), NewEntity()
	g := ToConnection(a, WithName("merged"))

	merged := Merge(g, b)
	assert.Same(t, g, merged)
	assert.Equal(t, 2, g.Count())
	assert.Equal(t, "merged", NameOf(g))
}

func TestReceiveFirst_SkipsNil(t *testing.T) {
	e := NewEntity()

	var got []*session
	ReceiveFirst[*session](e).Subscribe(func(s *session) { got = append(got, s) })

	Publish[*session](e, nil)
	Publish(e, newSession("a"))
	Publish(e, newSession("b"))

	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].name)
}

func TestPipeFirst(t *testing.T) {
	src, dst := NewEntity(), NewEntity()
	sub := PipeFirst[int](dst, src)

	Publish(src, 1)
	Publish(src, 2)

	v, _ := Get[int](dst)
	assert.Equal(t, 1, v)
	assert.True(t, sub.Closed())
}

func TestWait_Cached(t *testing.T) {
	e := NewEntity()
	Publish(e, 3)

	v, err := Await[int](context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestWait_PublishedLater(t *testing.T) {
	e := NewEntity()
	p := Wait[int](e)

	type result struct {
		v   int
		err error
	}
	res := make(chan result, 1)
	go func() {
		v, err := p.Await(context.Background())
		res <- result{v, err}
	}()

	Publish(e, 8)

	select {
	case r := <-res:
		require.NoError(t, r.err)
		assert.Equal(t, 8, r.v)
	case <-time.After(time.Second):
		t.Fatal("await did not return")
	}
}

func TestWait_Timeout(t *testing.T) {
	e := NewEntity()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := Wait[int](e).Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, e.data.subscribers(TypeOf[int]()))
}

func TestWait_ScopeTerminated(t *testing.T) {
	e := NewEntity()
	p := Wait[int](e)
	e.Dispose()

	_, err := p.Await(context.Background())
	assert.True(t, errors.Is(err, ErrScopeTerminated))
}

func TestWait_ReleasedEntityCanBeAwaitedAgain(t *testing.T) {
	e := NewEntity()
	p := Wait[int](e)
	e.Release()

	_, err := p.Await(context.Background())
	assert.ErrorIs(t, err, ErrScopeTerminated)

	Publish(e, 1)
	v, err := Await[int](context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	e := NewEntity()
	sub := LogValue[int](e, logger, "value changed")
	Publish(e, 12)
	sub.Dispose()
	Publish(e, 13)

	out := buf.String()
	assert.Contains(t, out, `msg="value changed"`)
	assert.Contains(t, out, "value=12")
	assert.NotContains(t, out, "value=13")
}
