package dataflow

import (
	"context"

	"github.com/pumped-fn/dataflow/logging"
)

// Merge connects others into c. If c is already a Connection it is
// extended in place; otherwise a new connection holds c first, so c wins
// lookups against others.
func Merge(c Context, others ...Context) *Connection {
	g, ok := c.(*Connection)
	if !ok {
		g = ToConnection(c)
	}
	for _, other := range others {
		g.Connect(other)
	}
	return g
}

// ToConnection wraps c in a new connection
func ToConnection(c Context, opts ...Option) *Connection {
	g := NewConnection(opts...)
	g.Connect(c)
	return g
}

// ReceiveFirst emits the first non-nil T, then completes
func ReceiveFirst[T any](s Store) Stream[T] {
	return Receive[T](s).Filter(func(v T) bool { return !isNil(v) }).Take(1)
}

// PipeFirst publishes the first non-nil T of source into target
func PipeFirst[T any](target Publisher, source Store) *Subscription {
	return ReceiveFirst[T](source).Subscribe(func(v T) {
		Publish(target, v)
	})
}

// Pending is a one-shot wait for a value of T. It is created on the
// goroutine that owns the context; Await may then be called from any
// goroutine.
type Pending[T any] struct {
	got  chan T
	done <-chan struct{}
	sub  *Subscription
}

// Wait captures the cached T, or subscribes for the next one
func Wait[T any](c Context) *Pending[T] {
	p := &Pending[T]{
		got:  make(chan T, 1),
		done: c.Scope().Done(),
	}
	if v, ok := Get[T](c); ok {
		p.got <- v
		return p
	}
	p.sub = Receive[T](c).First(func(v T) { p.got <- v })
	return p
}

// Await blocks until the value arrives. It returns ctx.Err() if ctx ends
// first and ErrScopeTerminated if the context is released first.
func (p *Pending[T]) Await(ctx context.Context) (T, error) {
	defer p.sub.Dispose()

	var zero T
	select {
	case v := <-p.got:
		return v, nil
	case <-ctx.Done():
		if v, ok := p.ready(); ok {
			return v, nil
		}
		return zero, ctx.Err()
	case <-p.done:
		if v, ok := p.ready(); ok {
			return v, nil
		}
		return zero, ErrScopeTerminated
	}
}

func (p *Pending[T]) ready() (T, bool) {
	select {
	case v := <-p.got:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Await is Wait followed by Pending.Await. It returns at once when T is
// cached; otherwise the publish must come from another goroutine that
// owns c while this one blocks.
func Await[T any](ctx context.Context, c Context) (T, error) {
	return Wait[T](c).Await(ctx)
}

// LogValue logs every future T on s at info level
func LogValue[T any](s Store, logger logging.Logger, msg string) *Subscription {
	t := TypeOf[T]()
	return Receive[T](s).Subscribe(func(v T) {
		logger.Info(msg, "type", t.String(), "value", v)
	})
}
