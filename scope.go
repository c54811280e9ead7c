package dataflow

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

// Scope is a deterministic teardown boundary. Cleanup actions run once, in
// registration order, when the scope terminates. Actions added after
// termination run immediately.
//
// Scope is not safe for concurrent mutation; the owner terminates it and
// registers actions on its own goroutine. Done and Context are the only
// methods meant to be called from other goroutines.
type Scope struct {
	terminated atomic.Bool
	actions    []*cleanupEntry

	mu       sync.Mutex
	done     chan struct{}
	finished bool
}

type cleanupEntry struct {
	fn func()
}

// ScopeOwner is implemented by values bound to their own scope. Publishing
// such a value makes the store a weak holder of it.
type ScopeOwner interface {
	Scope() *Scope
}

// NewScope creates a live scope
func NewScope() *Scope {
	return &Scope{}
}

// AddCleanup registers fn to run on termination, or runs it now if the
// scope is already terminated
func (s *Scope) AddCleanup(fn func()) {
	s.track(fn)
}

// track is AddCleanup returning a func that unregisters fn again, so
// short-lived registrations do not accumulate on a long-lived scope
func (s *Scope) track(fn func()) (untrack func()) {
	if fn == nil {
		return func() {}
	}
	if s.terminated.Load() {
		fn()
		return func() {}
	}

	entry := &cleanupEntry{fn: fn}
	s.actions = append(s.actions, entry)
	return func() {
		if entry.fn == nil {
			return
		}
		entry.fn = nil
		s.actions = slices.DeleteFunc(s.actions, func(e *cleanupEntry) bool {
			return e == entry
		})
	}
}

// pending returns the number of registered cleanup actions
func (s *Scope) pending() int {
	return len(s.actions)
}

// AddDisposable ties d to the scope
func (s *Scope) AddDisposable(d Disposable) {
	if d == nil {
		return
	}
	s.AddCleanup(d.Dispose)
}

// Terminate runs every cleanup action and marks the scope terminated.
// Subsequent calls are no-ops.
func (s *Scope) Terminate() {
	if !s.terminated.CompareAndSwap(false, true) {
		return
	}

	actions := s.actions
	s.actions = nil
	for _, entry := range actions {
		if fn := entry.fn; fn != nil {
			entry.fn = nil
			fn()
		}
	}

	s.mu.Lock()
	s.finished = true
	if s.done != nil {
		close(s.done)
	}
	s.mu.Unlock()
}

// Release is an alias for Terminate
func (s *Scope) Release() {
	s.Terminate()
}

// IsTerminated reports whether Terminate has been called
func (s *Scope) IsTerminated() bool {
	return s.terminated.Load()
}

// Done returns a channel closed once termination has finished running its
// cleanup actions
func (s *Scope) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		s.done = make(chan struct{})
		if s.finished {
			close(s.done)
		}
	}
	return s.done
}

// Context derives a context.Context that is cancelled when the scope
// terminates
func (s *Scope) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	done := s.Done()

	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// restart returns a terminated scope to the live state. Only internal
// sub-scopes (bridge links, context reset) are restartable.
func (s *Scope) restart() {
	if !s.terminated.Load() {
		return
	}

	s.mu.Lock()
	s.done = nil
	s.finished = false
	s.mu.Unlock()

	s.actions = nil
	s.terminated.Store(false)
}

// scopeOf returns the scope of a scope-bound value, or nil
func scopeOf(v any) *Scope {
	owner, ok := v.(ScopeOwner)
	if !ok || isNil(v) {
		return nil
	}
	return owner.Scope()
}
