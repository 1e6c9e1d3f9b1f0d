package internal

type EffectType int

const (
	EffectRender EffectType = iota
	EffectUser
)

type Effect struct {
	*Computed

	typ    EffectType
	queued bool
	effect func()
}

func (r *Runtime) NewEffect(typ EffectType, effect func()) *Effect {
	e := &Effect{typ: typ, effect: effect}

	e.Computed = r.newComputed(nil)
	e.fn = func() {
		if e.queued {
			return
		}

		e.queued = true
		r.effectQueue.Enqueue(typ, e.run)
	}

	e.run()

	return e
}

// run disposes what the previous run created, then runs the effect with tracking.
func (e *Effect) run() {
	e.queued = false

	if e.disposed {
		return
	}

	e.Reset()
	e.ClearDeps()

	e.Signal.rt.tracker.RunWithComputation(e.Computed, e.effect)
}
