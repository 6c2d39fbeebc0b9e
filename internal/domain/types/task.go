package types

// Task carries the outcome of a store operation. Store operations finish their
// disk I/O before returning, so every Task is already resolved when the caller
// receives it; Done is closed and Wait never blocks.
type Task[T any] struct {
	value T
	err   error
}

// Nothing is the value type of tasks that only signal completion.
type Nothing = struct{}

var resolved = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Resolved returns a completed task holding value and err.
func Resolved[T any](value T, err error) Task[T] {
	return Task[T]{value: value, err: err}
}

// Done returns a channel that is already closed.
func (t Task[T]) Done() <-chan struct{} { return resolved }

// Wait returns the task's value and error.
func (t Task[T]) Wait() (T, error) { return t.value, t.err }

// Err returns the task's error, if any.
func (t Task[T]) Err() error { return t.err }
