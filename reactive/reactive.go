// Package reactive is the typed front of the editor's reactive runtime.
//
// Every node is bound to the runtime of the goroutine that created it; the
// editor creates and drives all of its nodes from a single goroutine.
package reactive

import "github.com/AnatoleLucet/lyra/internal"

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

type Signal[T any] struct {
	signal *internal.Signal
}

// NewSignal creates a read/write signal.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		internal.GetRuntime().NewSignal(initial),
	}
}

// Read the current value of the signal, tracking the dependency if within a reactive context.
func (s *Signal[T]) Read() T {
	return as[T](s.signal.Read())
}

// Peek reads the current value without tracking.
func (s *Signal[T]) Peek() T {
	return as[T](s.signal.Value())
}

// Write a new value to the signal, triggering updates to any dependents.
// Writing a value deeply equal to the current one is a no-op.
func (s *Signal[T]) Write(v T) {
	s.signal.Write(v)
}

// Update writes fn(current) back to the signal.
func (s *Signal[T]) Update(fn func(T) T) {
	s.Write(fn(s.Peek()))
}

type Computed[T any] struct {
	computed *internal.Computed
}

// NewComputed creates a computed signal that derives its value from other signals (its a memo).
func NewComputed[T any](compute func() T) *Computed[T] {
	return &Computed[T]{
		internal.GetRuntime().NewComputed(func() any {
			return compute()
		}),
	}
}

// Read the current value of the computed signal, tracking the dependency if within a reactive context.
func (c *Computed[T]) Read() T {
	return as[T](c.computed.Signal.Read())
}

// Dispose stops recomputation and drops every dependency.
func (c *Computed[T]) Dispose() {
	c.computed.Dispose()
}

// NewBatch batches multiple signal writes into a single update cycle,
// instead of triggering updates after each write.
func NewBatch(fn func()) {
	internal.GetRuntime().NewBatch(fn)
}

// NewEffect creates a reactive effect that runs the given function
// whenever its dependencies change.
func NewEffect(fn func()) {
	internal.GetRuntime().NewEffect(internal.EffectUser, fn)
}

// Untrack runs the given function without tracking any reactive dependencies.
func Untrack[T any](fn func() T) T {
	var result T
	internal.GetRuntime().Untrack(func() { result = fn() })
	return result
}

// OnCleanup registers a function to be called when the current owner is disposed
// or when the current effect re-runs.
func OnCleanup(fn func()) {
	internal.GetRuntime().OnCleanup(fn)
}

// Release drops the runtime of the calling goroutine. Call it when a
// goroutine that drove reactive nodes is about to exit.
func Release() {
	internal.ReleaseRuntime()
}

type Owner struct {
	owner *internal.Owner
}

// NewOwner creates a new reactive owner.
// An owner manages the lifecycle of reactive nodes created within its context.
// Created inside another owner, it is disposed along with it.
func NewOwner() *Owner {
	rt := internal.GetRuntime()
	o := rt.NewOwner()

	if parent := rt.CurrentOwner(); parent != nil {
		parent.AddChild(o)
	}

	return &Owner{o}
}

// Run a function within the context of this owner.
// Each reactive node created within the function will be a child of this owner,
// and will be disposed when owner.Dispose() is called on this owner.
func (o *Owner) Run(fn func() error) error {
	var err error
	o.owner.Run(func() { err = fn() })
	return err
}

// Dispose this owner and all its children.
func (o *Owner) Dispose() { o.owner.Dispose() }

// Add a cleanup function to be called ONCE when the owner is disposed.
func (o *Owner) OnCleanup(fn func()) { o.owner.OnCleanup(fn) }

// Add a function to be called when the owner is disposed (each time Dispose is called).
func (o *Owner) OnDispose(fn func()) { o.owner.OnDispose(fn) }

// Add a function to be called when a panic occurs within this owner.
// If no error listener is registered, the panic will propagate as usual.
func (o *Owner) OnError(fn func(any)) { o.owner.OnError(fn) }
