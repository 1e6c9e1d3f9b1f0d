package internal

type Tracker struct {
	tracking bool

	currentOwner       *Owner    // for lifecycle/cleanup tracking
	currentComputation *Computed // for reactive dependency tracking
}

func NewTracker() *Tracker {
	return &Tracker{
		tracking: true,
	}
}

func (t *Tracker) CurrentOwner() *Owner {
	return t.currentOwner
}

func (t *Tracker) CurrentComputation() *Computed {
	return t.currentComputation
}

func (t *Tracker) RunWithOwner(owner *Owner, fn func()) {
	prev := t.currentOwner
	t.currentOwner = owner

	defer func() {
		t.currentOwner = prev

		if r := recover(); r != nil {
			owner.handle(r)
		}
	}()

	fn()
}

func (t *Tracker) RunWithComputation(node *Computed, fn func()) {
	prevOwner := t.currentOwner
	prevComputation := t.currentComputation

	t.currentOwner = node.Owner
	t.currentComputation = node

	defer func() {
		t.currentOwner = prevOwner
		t.currentComputation = prevComputation

		if r := recover(); r != nil {
			node.Owner.handle(r)
		}
	}()

	fn()
}

func (t *Tracker) RunUntracked(fn func()) {
	prev := t.tracking
	t.tracking = false
	defer func() { t.tracking = prev }()

	fn()
}

func (t *Tracker) Track(node *Signal) {
	if t.ShouldTrack() {
		t.currentComputation.Link(node)
	}
}

func (t *Tracker) ShouldTrack() bool {
	return t.currentComputation != nil && t.tracking
}
