package dataflow

// Controller is a typed handle on one slot of a store
type Controller[T any] struct {
	store Store
}

// Accessor returns the controller for T on s
func Accessor[T any](s Store) *Controller[T] {
	return &Controller[T]{store: s}
}

// Get returns the cached value, or the zero value
func (c *Controller[T]) Get() T {
	v, _ := Get[T](c.store)
	return v
}

// Peek retrieves the cached value without side effects
func (c *Controller[T]) Peek() (T, bool) {
	return Get[T](c.store)
}

// Update publishes a new value
func (c *Controller[T]) Update(newVal T) {
	Publish(c.store, newVal)
}

// Set is an alias for Update
func (c *Controller[T]) Set(newVal T) {
	c.Update(newVal)
}

// Release drops the cached value
func (c *Controller[T]) Release() bool {
	return Remove[T](c.store)
}

// IsCached checks if the value is currently cached
func (c *Controller[T]) IsCached() bool {
	return Contains[T](c.store)
}

// Receive returns the stream of future values
func (c *Controller[T]) Receive() Stream[T] {
	return Receive[T](c.store)
}
