package internal

// Runtime drives every reactive node created on one goroutine.
// Nodes keep a pointer to the runtime that created them, so a node written
// from elsewhere still flushes through its own graph.
type Runtime struct {
	heap        *PriorityHeap
	tracker     *Tracker
	batcher     *Batcher
	nodeQueue   *NodeQueue
	effectQueue *EffectQueue

	// incremented each time the runtime is flushed, used as the write version
	clock   int
	running bool
}

func NewRuntime() *Runtime {
	return &Runtime{
		heap:        NewHeap(),
		tracker:     NewTracker(),
		batcher:     NewBatcher(),
		nodeQueue:   NewNodeQueue(),
		effectQueue: NewEffectQueue(),
	}
}

// Schedule flushes pending work unless a batch or a flush is already in progress.
func (r *Runtime) Schedule() {
	if r.batcher.IsBatching() || r.running {
		return
	}

	r.Flush()
}

// Flush recomputes dirty nodes in height order, commits pending signal
// values, then runs queued effects until the graph settles.
func (r *Runtime) Flush() {
	if r.running {
		return
	}

	r.running = true
	defer func() { r.running = false }()

	for {
		r.heap.Drain(func(c *Computed) { c.fn() })
		r.nodeQueue.Commit()

		if r.effectQueue.Empty() && r.heap.Empty() {
			break
		}

		r.effectQueue.RunEffects(EffectRender)
		r.effectQueue.RunEffects(EffectUser)
	}

	r.clock++
}

func (r *Runtime) Time() int {
	return r.clock
}

func (r *Runtime) CurrentOwner() *Owner {
	return r.tracker.CurrentOwner()
}

func (r *Runtime) CurrentComputation() *Computed {
	return r.tracker.CurrentComputation()
}

func (r *Runtime) OnCleanup(fn func()) {
	owner := r.CurrentOwner()
	if owner != nil {
		owner.OnCleanup(fn)
	}
}

func (r *Runtime) Untrack(fn func()) {
	r.tracker.RunUntracked(fn)
}
