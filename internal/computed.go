package internal

import "slices"

type Computed struct {
	*Owner
	*Signal

	disposed bool
	inHeap   bool

	// called by the heap whenever the node is dirty
	fn func()

	deps []*Signal

	compute func() any
}

func (r *Runtime) NewComputed(compute func() any) *Computed {
	c := r.newComputed(compute)
	c.fn = c.update

	c.update()

	return c
}

func (r *Runtime) newComputed(compute func() any) *Computed {
	c := &Computed{
		Owner:   r.NewOwner(),
		Signal:  r.NewSignal(nil),
		compute: compute,
	}

	if parent := r.CurrentOwner(); parent != nil {
		parent.AddChild(c.Owner)
	}

	c.OnDispose(func() {
		c.disposed = true
		r.heap.Remove(c)
		c.ClearDeps()
	})

	return c
}

// update recomputes the value and marks subscribers dirty when it changed.
func (c *Computed) update() {
	if c.disposed {
		return
	}

	old := c.Value()

	c.Reset()
	c.ClearDeps()

	var value any
	c.Signal.rt.tracker.RunWithComputation(c, func() { value = c.compute() })

	c.value = value
	c.pendingValue = nil

	if !isEqual(old, value) {
		c.Signal.rt.heap.InsertAll(c.subs)
	}
}

// Link creates a bidirectional dependency link between this node (subscriber) and the given node (dependency).
func (c *Computed) Link(dep *Signal) {
	if slices.Contains(c.deps, dep) {
		return
	}

	c.deps = append(c.deps, dep)
	dep.addSub(c)

	if dep.height >= c.height {
		c.height = dep.height + 1
	}
}

// ClearDeps removes all dependencies
func (c *Computed) ClearDeps() {
	for _, dep := range c.deps {
		dep.removeSub(c)
	}

	c.deps = nil
}

func (c *Computed) Deps() []*Signal {
	return c.deps
}

func (c *Computed) Disposed() bool {
	return c.disposed
}
