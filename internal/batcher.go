package internal

// Batcher counts nested batches. Writes made while a batch is open are
// flushed once, when the outermost batch closes.
type Batcher struct {
	depth int
}

func NewBatcher() *Batcher {
	return &Batcher{}
}

func (b *Batcher) IsBatching() bool {
	return b.depth > 0
}

func (b *Batcher) begin() {
	b.depth++
}

// end closes a batch and reports whether it was the outermost one.
func (b *Batcher) end() bool {
	b.depth--
	return b.depth == 0
}

func (r *Runtime) NewBatch(fn func()) {
	r.batcher.begin()
	defer func() {
		if r.batcher.end() {
			r.Flush()
		}
	}()

	fn()
}
