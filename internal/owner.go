package internal

import "slices"

type Owner struct {
	rt *Runtime

	// cleanup functions to be called when the owner is reset or disposed
	cleanups []func()

	// functions called on every Dispose
	disposers []func()

	// panic error handlers
	catchers []func(any)

	parent   *Owner
	children []*Owner
}

func (r *Runtime) NewOwner() *Owner {
	return &Owner{rt: r}
}

// Run fn with this owner as the current owner.
// A panic is handed to the nearest owner with an error listener,
// and propagates as usual if there is none.
func (o *Owner) Run(fn func()) {
	o.rt.tracker.RunWithOwner(o, fn)
}

func (parent *Owner) AddChild(child *Owner) {
	child.parent = parent
	parent.children = append(parent.children, child)
}

func (parent *Owner) removeChild(child *Owner) {
	parent.children = slices.DeleteFunc(parent.children, func(c *Owner) bool { return c == child })
}

func (o *Owner) Children() []*Owner {
	return o.children
}

// Reset disposes the children (last created first) and runs the cleanups,
// leaving the owner usable.
func (o *Owner) Reset() {
	o.DisposeChildren()

	cleanups := o.cleanups
	o.cleanups = nil
	for _, cleanup := range cleanups {
		cleanup()
	}
}

func (o *Owner) Dispose() {
	o.Reset()

	for _, fn := range o.disposers {
		fn()
	}

	if o.parent != nil {
		o.parent.removeChild(o)
		o.parent = nil
	}
}

func (o *Owner) DisposeChildren() {
	children := o.children
	o.children = nil

	for i := len(children) - 1; i >= 0; i-- {
		children[i].parent = nil
		children[i].Dispose()
	}
}

func (o *Owner) OnCleanup(fn func()) {
	o.cleanups = append(o.cleanups, fn)
}

func (o *Owner) OnDispose(fn func()) {
	o.disposers = append(o.disposers, fn)
}

func (o *Owner) OnError(fn func(any)) {
	o.catchers = append(o.catchers, fn)
}

// handle passes a recovered panic to the closest owner listening for errors.
func (o *Owner) handle(r any) {
	for owner := o; owner != nil; owner = owner.parent {
		if len(owner.catchers) == 0 {
			continue
		}

		for _, catcher := range owner.catchers {
			catcher(r)
		}
		return
	}

	panic(r)
}
