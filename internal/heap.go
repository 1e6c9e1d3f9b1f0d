package internal

import "slices"

// PriorityHeap buckets dirty computations by height so that a node is only
// recomputed after every node it depends on.
type PriorityHeap struct {
	min int
	max int

	nodes [][]*Computed // [height]nodes
}

func NewHeap() *PriorityHeap {
	return &PriorityHeap{
		nodes: make([][]*Computed, 16),
	}
}

func (h *PriorityHeap) Insert(node *Computed) {
	if node.inHeap || node.disposed {
		return
	}
	node.inHeap = true

	height := node.height
	for height >= len(h.nodes) {
		h.nodes = append(h.nodes, nil)
	}

	h.nodes[height] = append(h.nodes[height], node)

	if height > h.max {
		h.max = height
	}
}

func (h *PriorityHeap) InsertAll(nodes []*Computed) {
	// subscribers can unsubscribe while being inserted
	for _, node := range slices.Clone(nodes) {
		h.Insert(node)
	}
}

func (h *PriorityHeap) Remove(node *Computed) {
	if !node.inHeap {
		return
	}
	node.inHeap = false

	for height, bucket := range h.nodes {
		if i := slices.Index(bucket, node); i >= 0 {
			h.nodes[height] = slices.Delete(bucket, i, i+1)
			return
		}
	}
}

// Drain processes each entry in topological order with the `process` function leaving the heap empty.
func (h *PriorityHeap) Drain(process func(*Computed)) {
	for h.min = 0; h.min <= h.max; h.min++ {
		for len(h.nodes[h.min]) > 0 {
			node := h.nodes[h.min][0]
			h.nodes[h.min] = h.nodes[h.min][1:]
			node.inHeap = false

			process(node)
		}
	}

	h.min = 0
	h.max = 0
}

func (h *PriorityHeap) Empty() bool {
	for _, bucket := range h.nodes {
		if len(bucket) > 0 {
			return false
		}
	}
	return true
}
