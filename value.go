package dataflow

import (
	"fmt"
	"reflect"
)

// Value is a value tagged with the static type it is published under. The
// type is the key: publishing a *T and an interface it implements fills two
// different slots.
type Value struct {
	typ reflect.Type
	val any
}

// ValueOf tags v with T
func ValueOf[T any](v T) Value {
	return Value{typ: TypeOf[T](), val: v}
}

// Type returns the slot type
func (v Value) Type() reflect.Type {
	return v.typ
}

// Interface returns the payload
func (v Value) Interface() any {
	return v.val
}

func (v Value) String() string {
	if v.typ == nil {
		return "<invalid>"
	}
	return fmt.Sprintf("%v(%v)", v.typ, v.val)
}

// TypeOf returns the slot key for T
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Publisher accepts published values
type Publisher interface {
	PublishValue(v Value)
}

type funcPublisher struct {
	fn func(Value)
}

func (p *funcPublisher) PublishValue(v Value) {
	p.fn(v)
}

// NewPublisherFunc adapts fn to a Publisher. Each call returns a distinct
// publisher, so the result can be registered and broken like any other.
func NewPublisherFunc(fn func(Value)) Publisher {
	return &funcPublisher{fn: fn}
}

// Store is the type-erased surface shared by TypeStore and every Context.
// The generic helpers below give it a typed face.
type Store interface {
	Publisher
	PublishValueForce(v Value)
	Lookup(t reflect.Type) (any, bool)
	Has(t reflect.Type) bool
	Delete(t reflect.Type) bool
	Observe(t reflect.Type) Observable
	HasValue() bool
}

// Publish caches v as the latest T and notifies T subscribers
func Publish[T any](p Publisher, v T) {
	p.PublishValue(ValueOf(v))
}

// PublishForce publishes v even if it is bound to a terminated scope
func PublishForce[T any](s Store, v T) {
	s.PublishValueForce(ValueOf(v))
}

// Get returns the cached T
func Get[T any](s Store) (T, bool) {
	raw, ok := s.Lookup(TypeOf[T]())
	if !ok {
		var zero T
		return zero, false
	}

	v, err := SafeTypeAssertion[T](raw)
	if err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// Contains reports whether a T is cached
func Contains[T any](s Store) bool {
	return s.Has(TypeOf[T]())
}

// Remove drops the cached T without notifying subscribers
func Remove[T any](s Store) bool {
	return s.Delete(TypeOf[T]())
}

// Receive returns the stream of future T publishes. It does not replay the
// cached value, except on a Connection's first bridging subscription.
func Receive[T any](s Store) Stream[T] {
	return StreamOf[T](s.Observe(TypeOf[T]()))
}
