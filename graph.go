package dataflow

import "reflect"

// vertex is a node of the propagation graph. Every context owns one; a
// Connection shares the vertex of its aggregate. An edge a -> b means values
// published on a can reach b, either through a broadcast target or through
// connection membership. Edges are counted because the same pair may be
// linked by a membership and by one bridge link per bridged type.
type vertex struct {
	id  uint64
	out map[*vertex]int
}

// noder is implemented by publishers that sit on the propagation graph
type noder interface {
	node() *vertex
}

func newVertex(id uint64) *vertex {
	return &vertex{
		id:  id,
		out: make(map[*vertex]int, 2),
	}
}

// link adds one edge v -> to
func (v *vertex) link(to *vertex) {
	v.out[to]++
}

// unlink removes one edge v -> to
func (v *vertex) unlink(to *vertex) {
	n, ok := v.out[to]
	if !ok {
		return
	}
	if n <= 1 {
		delete(v.out, to)
		return
	}
	v.out[to] = n - 1
}

// reaches reports whether target is reachable from v, v itself included.
// Iterative so deep graphs cannot overflow the stack.
func (v *vertex) reaches(target *vertex) bool {
	if v == target {
		return true
	}

	stack := make([]*vertex, 0, 16)
	stack = append(stack, v)
	visited := make(map[*vertex]bool, 16)
	visited[v] = true

	for len(stack) > 0 {
		// Pop from stack
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for next := range current.out {
			if next == target {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}

	return false
}

// RejectReason explains why an edge was refused
type RejectReason string

const (
	RejectSelf       RejectReason = "self"
	RejectCycle      RejectReason = "cycle"
	RejectTerminated RejectReason = "terminated"
	// RejectUnhashable refuses targets whose dynamic type cannot key a map,
	// such as func adapters or structs holding slices
	RejectUnhashable RejectReason = "unhashable"
)

// checkEdge decides whether from may start propagating into target
func checkEdge(from *vertex, target any) (RejectReason, bool) {
	if !hashable(target) {
		return RejectUnhashable, false
	}
	n, ok := target.(noder)
	if !ok {
		return "", true
	}

	to := n.node()
	if to == from {
		return RejectSelf, false
	}
	if to.reaches(from) {
		return RejectCycle, false
	}
	return "", true
}

// hashable reports whether v can be used as a map key without panicking
func hashable(v any) bool {
	rv := reflect.ValueOf(v)
	return !rv.IsValid() || rv.Comparable()
}

// Utility functions for copy-on-write slices

func appendUnique[T comparable](slice []T, item T) []T {
	for _, existing := range slice {
		if existing == item {
			return slice
		}
	}
	out := make([]T, len(slice), len(slice)+1)
	copy(out, slice)
	return append(out, item)
}

// without returns a fresh slice minus the first occurrence of item, leaving
// the input untouched for iterators holding it
func without[T comparable](slice []T, item T) []T {
	for i, existing := range slice {
		if existing == item {
			out := make([]T, 0, len(slice)-1)
			out = append(out, slice[:i]...)
			return append(out, slice[i+1:]...)
		}
	}
	return slice
}
