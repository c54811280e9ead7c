package dataflow

import "fmt"

// Tag is a type-safe key for metadata attached to a context
type Tag[T any] struct {
	key string
}

// Tagged is implemented by everything that carries tags
type Tagged interface {
	GetTag(key any) (any, bool)
	SetTag(key any, val any)
}

// NewTag creates a new tag with the given key
func NewTag[T any](key string) Tag[T] {
	return Tag[T]{key: key}
}

// Key returns the tag's key (for debugging)
func (t Tag[T]) Key() string {
	return t.key
}

// Get retrieves the tag value
func (t Tag[T]) Get(target Tagged) (T, bool) {
	val, ok := target.GetTag(t)
	if !ok {
		var zero T
		return zero, false
	}
	return val.(T), true
}

// MustGet retrieves the tag value or panics if not found
func (t Tag[T]) MustGet(target Tagged) T {
	val, ok := t.Get(target)
	if !ok {
		panic("tag " + t.key + " not found")
	}
	return val
}

// GetOrDefault retrieves the tag value or returns a default
func (t Tag[T]) GetOrDefault(target Tagged, defaultVal T) T {
	if val, ok := t.Get(target); ok {
		return val
	}
	return defaultVal
}

// Set stores the tag value
func (t Tag[T]) Set(target Tagged, val T) {
	target.SetTag(t, val)
}

// NameTag labels contexts in logs, traces and rendered graphs
var NameTag = NewTag[string]("dataflow.name")

// NameOf returns the context's name, falling back to its kind and id
func NameOf(c Context) string {
	if c == nil {
		return "<nil>"
	}
	if name, ok := NameTag.Get(c); ok && name != "" {
		return name
	}
	if _, ok := c.(*Connection); ok {
		return fmt.Sprintf("connection#%d", c.ID())
	}
	return fmt.Sprintf("context#%d", c.ID())
}

// tagSet is the lazily allocated tag map shared by Entity and Connection
type tagSet struct {
	tags map[any]any
}

func (s *tagSet) GetTag(key any) (any, bool) {
	val, ok := s.tags[key]
	return val, ok
}

func (s *tagSet) SetTag(key any, val any) {
	if s.tags == nil {
		s.tags = make(map[any]any, 2)
	}
	s.tags[key] = val
}
