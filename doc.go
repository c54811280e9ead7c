// Package dataflow provides typed, in-process publish/subscribe contexts that
// can be merged into connection graphs.
//
// # Overview
//
// Dataflow organizes shared state around four concepts:
//
//  1. Contexts: stores holding the latest value per static type
//  2. Scopes: lifetimes that run cleanup actions when they end
//  3. Connections: contexts that merge other contexts into one view
//  4. Streams: lazy, typed notifications of future publishes
//
// # Basic Usage
//
// Publish and read values by type:
//
//	ctx := dataflow.NewEntity(dataflow.WithName("app"))
//	defer ctx.Dispose()
//
//	dataflow.Publish(ctx, &Config{Port: 8080})
//	cfg, ok := dataflow.Get[*Config](ctx)
//
// The static type is the key. Publishing a *Server and a Handler that it
// implements fills two different slots, and a later publish of the same type
// replaces the earlier value.
//
// Subscribe to future values:
//
//	sub := dataflow.Receive[*Config](ctx).Subscribe(func(c *Config) {
//	    log.Printf("config changed: %d", c.Port)
//	})
//	defer sub.Dispose()
//
// Subscribers are not given the cached value; read it with Get first when
// it matters.
//
// # Scope-Bound Values
//
// A value implementing ScopeOwner is held only while its scope lives:
//
//	type Session struct{ scope *dataflow.Scope }
//	func (s *Session) Scope() *dataflow.Scope { return s.scope }
//
//	dataflow.Publish(ctx, session)
//	session.Scope().Terminate() // ctx forgets the session
//
// Publishing a value whose scope already ended notifies subscribers but
// does not cache it. PublishForce caches it anyway.
//
// # Connections
//
// A Connection merges its members. Lookups try the connection's own values
// first and then each member in the order it joined:
//
//	settings := dataflow.NewConnection()
//	settings.Connect(userPrefs)
//	settings.Connect(defaults)
//
//	theme, _ := dataflow.Get[Theme](settings) // userPrefs wins
//
// The first subscription to a type on a connection starts forwarding that
// type from every member and replays each member's current value once.
// Members leave when disconnected, when their connect handle is disposed,
// or when their own scope ends. Edges that would let a value travel back to
// where it came from are refused; Extensions see the refusal through
// OnRejected.
//
// # Sources
//
// Sources build values, possibly on other goroutines, and publish them on the
// caller's:
//
//	db := dataflow.Provide(openDB, dataflow.Shared(), dataflow.OwnLifetime())
//	repo := dataflow.Derive1(db, func(ctx context.Context, db *DB) (*Repo, error) {
//	    return NewRepo(db), nil
//	})
//
//	err := dataflow.RegisterAll(ctx, app, repo)
//
// # Concurrency
//
// A context and everything connected to it belong to one goroutine: no
// store, registry or connection is locked. Two operations are safe from
// anywhere: disposing a Subscription, and waiting on Scope.Done. Wait
// subscribes on the owner goroutine and returns a Pending whose Await may
// block on another.
//
// # Extensions
//
// Extensions observe publishes, membership changes, refused edges and
// releases:
//
//	ctx := dataflow.NewEntity(
//	    dataflow.WithExtension(extensions.NewLoggingExtension(logger)),
//	)
//
// # Best Practices
//
//  1. Publish distinct types for distinct meanings; wrap primitives
//  2. Dispose subscriptions you no longer need
//  3. Prefer Release for contexts that are reused, Dispose for the last use
//  4. Keep factories free of context access so they can run concurrently
package dataflow
