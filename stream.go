package dataflow

import "sync/atomic"

// observer is the erased subscriber record. Closing is a single atomic flag
// flip, so a subscription may be disposed from any goroutine; the subject
// drops closed observers lazily on its own goroutine.
type observer struct {
	next     func(any)
	done     func()
	upstream *observer
	closed   atomic.Bool
}

func (o *observer) emit(v any) {
	if o.closed.Load() {
		return
	}
	o.next(v)
}

// close marks o and the operator chain above it closed. It reports whether
// o was still open.
func (o *observer) close() bool {
	if !o.closed.CompareAndSwap(false, true) {
		return false
	}
	for u := o.upstream; u != nil; u = u.upstream {
		u.closed.Store(true)
	}
	return true
}

// finish closes o and signals completion downstream
func (o *observer) finish() {
	if !o.close() {
		return
	}
	if o.done != nil {
		o.done()
	}
}

// subject fans a value out to its observers. The observer slice is
// copy-on-write: emission iterates a snapshot, so subscribing or
// unsubscribing from inside a callback is safe.
type subject struct {
	observers []*observer
}

func (s *subject) attach(o *observer) {
	out := make([]*observer, 0, len(s.observers)+1)
	for _, existing := range s.observers {
		if !existing.closed.Load() {
			out = append(out, existing)
		}
	}
	s.observers = append(out, o)
}

func (s *subject) emit(v any) {
	snapshot := s.observers
	stale := false
	for _, o := range snapshot {
		if o.closed.Load() {
			stale = true
			continue
		}
		o.next(v)
	}
	if stale {
		s.compact()
	}
}

func (s *subject) compact() {
	out := make([]*observer, 0, len(s.observers))
	for _, o := range s.observers {
		if !o.closed.Load() {
			out = append(out, o)
		}
	}
	s.observers = out
}

// complete finishes every observer and empties the subject
func (s *subject) complete() {
	snapshot := s.observers
	s.observers = nil
	for _, o := range snapshot {
		o.finish()
	}
}

func (s *subject) live() int {
	n := 0
	for _, o := range s.observers {
		if !o.closed.Load() {
			n++
		}
	}
	return n
}

// Subscription cancels delivery to one subscriber. Dispose is idempotent
// and safe to call from any goroutine.
type Subscription struct {
	o *observer
}

func (s *Subscription) Dispose() {
	if s == nil || s.o == nil {
		return
	}
	s.o.close()
}

// Closed reports whether the subscription was disposed or its stream
// completed
func (s *Subscription) Closed() bool {
	return s == nil || s.o == nil || s.o.closed.Load()
}

// Observable is the type-erased form of a Stream
type Observable struct {
	attach func(*observer)
}

// Subscribe delivers values as any
func (o Observable) Subscribe(next func(any)) *Subscription {
	return o.subscribe(next, nil)
}

func (o Observable) subscribe(next func(any), done func()) *Subscription {
	obs := &observer{next: next, done: done}
	o.connect(obs)
	return &Subscription{o: obs}
}

func (o Observable) connect(obs *observer) {
	if o.attach == nil {
		obs.finish()
		return
	}
	o.attach(obs)
}

// Stream is a lazy, typed view over published values. Nothing is attached
// until Subscribe is called, and each subscription attaches separately.
type Stream[T any] struct {
	src Observable
}

// StreamOf types an erased Observable
func StreamOf[T any](o Observable) Stream[T] {
	return Stream[T]{src: o}
}

// Observable returns the erased form of s
func (s Stream[T]) Observable() Observable {
	return s.src
}

// Subscribe delivers each value to next
func (s Stream[T]) Subscribe(next func(T)) *Subscription {
	return s.SubscribeWith(next, nil)
}

// SubscribeWith delivers each value to next and calls complete once the
// stream ends
func (s Stream[T]) SubscribeWith(next func(T), complete func()) *Subscription {
	return s.src.subscribe(func(v any) { next(cast[T](v)) }, complete)
}

// First delivers at most one value
func (s Stream[T]) First(next func(T)) *Subscription {
	return s.Take(1).Subscribe(next)
}

// Filter passes through values matching pred
func (s Stream[T]) Filter(pred func(T) bool) Stream[T] {
	src := s.src
	return Stream[T]{src: Observable{attach: func(o *observer) {
		u := &observer{done: o.finish}
		u.next = func(v any) {
			if pred(cast[T](v)) {
				o.emit(v)
			}
		}
		o.upstream = u
		src.connect(u)
	}}}
}

// Take completes after n values
func (s Stream[T]) Take(n int) Stream[T] {
	src := s.src
	return Stream[T]{src: Observable{attach: func(o *observer) {
		if n <= 0 {
			o.finish()
			return
		}

		count := 0
		u := &observer{done: o.finish}
		u.next = func(v any) {
			count++
			if count < n {
				o.emit(v)
				return
			}
			// Close before delivering so a re-entrant publish from the
			// callback cannot squeeze in another value.
			if !o.close() {
				return
			}
			o.next(v)
			if o.done != nil {
				o.done()
			}
		}
		o.upstream = u
		src.connect(u)
	}}}
}

// Map projects each value through fn
func Map[T, R any](s Stream[T], fn func(T) R) Stream[R] {
	src := s.src
	return Stream[R]{src: Observable{attach: func(o *observer) {
		u := &observer{done: o.finish}
		u.next = func(v any) {
			o.emit(fn(cast[T](v)))
		}
		o.upstream = u
		src.connect(u)
	}}}
}
