package dataflow

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

//go:generate go run ./internal/codegen -out source_generated.go

// Factory builds a source value. It receives no context store: factories
// may run on any goroutine.
type Factory[T any] func(ctx context.Context) (T, error)

// commit publishes a prepared value into its target. Commits run on the
// goroutine that owns the target.
type commit func(target Context)

type sourceOptions struct {
	name        string
	shared      bool
	ownLifetime bool
	disabled    bool
}

// SourceOption configures a Source
type SourceOption func(*sourceOptions)

// WithSourceName overrides the default name (the value type)
func WithSourceName(name string) SourceOption {
	return func(o *sourceOptions) {
		o.name = name
	}
}

// Shared builds the value once and hands the same instance to every target
func Shared() SourceOption {
	return func(o *sourceOptions) {
		o.shared = true
	}
}

// OwnLifetime disposes a Disposable or io.Closer value when the target
// context releases. A shared value is owned by the first target only.
func OwnLifetime() SourceOption {
	return func(o *sourceOptions) {
		o.ownLifetime = true
	}
}

// Enabled switches the source on or off. Disabled sources publish nothing.
func Enabled(enabled bool) SourceOption {
	return func(o *sourceOptions) {
		o.disabled = !enabled
	}
}

// Registrar is anything RegisterAll can build and publish
type Registrar interface {
	Name() string
	stage(ctx context.Context) (commit, error)
}

// Source produces a value of T and publishes it into contexts
type Source[T any] struct {
	id      string
	opts    sourceOptions
	produce func(ctx context.Context) (T, commit, error)

	mu     sync.Mutex
	built  bool
	owned  bool
	shared T
}

// Provide creates a source from a factory
func Provide[T any](factory Factory[T], opts ...SourceOption) *Source[T] {
	return newSource(func(ctx context.Context) (T, commit, error) {
		v, err := factory(ctx)
		return v, nil, err
	}, opts...)
}

func newSource[T any](produce func(ctx context.Context) (T, commit, error), opts ...SourceOption) *Source[T] {
	s := &Source[T]{
		id:      uuid.NewString(),
		produce: produce,
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	if s.opts.name == "" {
		s.opts.name = TypeOf[T]().String()
	}
	return s
}

// Name identifies the source in errors and logs
func (s *Source[T]) Name() string {
	return s.opts.name
}

// ID is unique per source instance
func (s *Source[T]) ID() string {
	return s.id
}

// Enabled reports whether the source publishes
func (s *Source[T]) Enabled() bool {
	return !s.opts.disabled
}

// Create builds the value without publishing it
func (s *Source[T]) Create(ctx context.Context) (T, error) {
	v, _, err := s.prepare(ctx)
	return v, err
}

// prepare builds the value and returns the commit that publishes it along
// with its dependencies
func (s *Source[T]) prepare(ctx context.Context) (T, commit, error) {
	var zero T
	if s.opts.disabled {
		return zero, nil, newSourceError(s.Name(), ErrSourceDisabled)
	}

	if !s.opts.shared {
		v, deps, err := s.build(ctx)
		if err != nil {
			return zero, nil, err
		}
		return v, s.commitFor(v, deps, true), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.built {
		return s.shared, s.commitFor(s.shared, nil, false), nil
	}

	v, deps, err := s.build(ctx)
	if err != nil {
		return zero, nil, err
	}
	s.shared, s.built = v, true
	return v, s.commitFor(v, deps, true), nil
}

func (s *Source[T]) build(ctx context.Context) (T, commit, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, nil, newSourceError(s.Name(), err)
	}

	v, deps, err := s.produce(ctx)
	if err != nil {
		return zero, nil, newSourceError(s.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		release(v)
		return zero, nil, newSourceError(s.Name(), err)
	}
	return v, deps, nil
}

func (s *Source[T]) commitFor(v T, deps commit, fresh bool) commit {
	return func(target Context) {
		if deps != nil {
			deps(target)
		}
		if s.opts.ownLifetime && fresh {
			s.own(target, v)
		}
		Publish(target, v)
	}
}

func (s *Source[T]) own(target Context, v T) {
	if s.opts.shared {
		s.mu.Lock()
		if s.owned {
			s.mu.Unlock()
			return
		}
		s.owned = true
		s.mu.Unlock()
	}
	target.Scope().AddCleanup(func() { release(v) })
}

func (s *Source[T]) stage(ctx context.Context) (commit, error) {
	_, c, err := s.prepare(ctx)
	return c, err
}

// Register builds the value and publishes it into target. A disabled
// source is skipped without error. The build is cancelled if target is
// released meanwhile.
func (s *Source[T]) Register(ctx context.Context, target Context) error {
	ctx, cancel := target.Scope().Context(ctx)
	defer cancel()

	c, err := s.stage(ctx)
	if errors.Is(err, ErrSourceDisabled) {
		return nil
	}
	if err != nil {
		return err
	}
	c(target)
	return nil
}

// Reset forgets the shared instance, releasing it if nothing owns it
func (s *Source[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.built && !s.owned {
		release(s.shared)
	}
	var zero T
	s.shared, s.built, s.owned = zero, false, false
}

// RegisterAll builds every source concurrently, then publishes the results
// into target in argument order on the calling goroutine. Nothing is
// published if any build fails. Disabled sources are skipped.
func RegisterAll(ctx context.Context, target Context, sources ...Registrar) error {
	ctx, cancel := target.Scope().Context(ctx)
	defer cancel()

	commits := make([]commit, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			c, err := src.stage(gctx)
			if errors.Is(err, ErrSourceDisabled) {
				return nil
			}
			commits[i] = c
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, c := range commits {
		if c != nil {
			c(target)
		}
	}
	return nil
}

// chain runs commits in order
func chain(commits ...commit) commit {
	return func(target Context) {
		for _, c := range commits {
			if c != nil {
				c(target)
			}
		}
	}
}

func release(v any) {
	switch d := v.(type) {
	case Disposable:
		if !isNil(d) {
			d.Dispose()
		}
	case io.Closer:
		if !isNil(d) {
			_ = d.Close()
		}
	}
}
