package internal

type EffectQueue struct {
	effects map[EffectType][]func()
}

func NewEffectQueue() *EffectQueue {
	effects := make(map[EffectType][]func())
	effects[EffectRender] = make([]func(), 0)
	effects[EffectUser] = make([]func(), 0)

	return &EffectQueue{effects}
}

func (q *EffectQueue) Enqueue(typ EffectType, fn func()) {
	q.effects[typ] = append(q.effects[typ], fn)
}

func (q *EffectQueue) RunEffects(typ EffectType) {
	effects := q.effects[typ]
	q.effects[typ] = nil

	for _, effect := range effects {
		effect()
	}
}

func (q *EffectQueue) Empty() bool {
	return len(q.effects[EffectRender]) == 0 && len(q.effects[EffectUser]) == 0
}

type NodeQueue struct {
	signals []*Signal
}

func NewNodeQueue() *NodeQueue {
	return &NodeQueue{
		signals: make([]*Signal, 0),
	}
}

func (q *NodeQueue) Enqueue(node *Signal) {
	q.signals = append(q.signals, node)
}

func (q *NodeQueue) Commit() {
	signals := q.signals
	q.signals = q.signals[:0]

	for _, node := range signals {
		node.Commit()
	}
}
