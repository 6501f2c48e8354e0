package discover

import (
	"container/heap"

	"github.com/Fran-cois/MATILDA/internal/rule"
)

// frontier is the strategy-specific store of partial rules awaiting
// expansion. Push order is deterministic, so every strategy yields a
// reproducible rule sequence.
type frontier interface {
	Push(c *rule.Candidate, cost float64) error
	Pop() (*rule.Candidate, bool)
	Len() int
}

func newFrontier(strategy string, cap int) frontier {
	switch strategy {
	case StrategyBFS:
		return &fifoFrontier{}
	case StrategyAStar:
		return &bestFrontier{cap: cap}
	default:
		return &lifoFrontier{}
	}
}

// lifoFrontier drives depth-first search. Memory stays proportional to the
// path depth times the branching factor.
type lifoFrontier struct {
	stack []*rule.Candidate
}

func (f *lifoFrontier) Push(c *rule.Candidate, _ float64) error {
	f.stack = append(f.stack, c)
	return nil
}

func (f *lifoFrontier) Pop() (*rule.Candidate, bool) {
	if len(f.stack) == 0 {
		return nil, false
	}
	c := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return c, true
}

func (f *lifoFrontier) Len() int { return len(f.stack) }

// fifoFrontier drives breadth-first search: a full level is expanded
// before the next begins, so short rules surface first.
type fifoFrontier struct {
	queue []*rule.Candidate
}

func (f *fifoFrontier) Push(c *rule.Candidate, _ float64) error {
	f.queue = append(f.queue, c)
	return nil
}

func (f *fifoFrontier) Pop() (*rule.Candidate, bool) {
	if len(f.queue) == 0 {
		return nil, false
	}
	c := f.queue[0]
	f.queue = f.queue[1:]
	return c, true
}

func (f *fifoFrontier) Len() int { return len(f.queue) }

// bestFrontier drives best-first (A*) traversal: a binary heap keyed by
// f = g + h with insertion order breaking ties, which keeps the pop
// sequence deterministic. Push fails with ErrResourceBound once the cap is
// reached; the engine then downgrades to depth-first.
type bestFrontier struct {
	heap bestHeap
	cap  int
	seq  int64
}

type bestEntry struct {
	c    *rule.Candidate
	cost float64
	seq  int64
}

type bestHeap []bestEntry

func (h bestHeap) Len() int { return len(h) }
func (h bestHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	return h[i].seq < h[j].seq
}
func (h bestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *bestHeap) Push(x any) { *h = append(*h, x.(bestEntry)) }

func (h *bestHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

func (f *bestFrontier) Push(c *rule.Candidate, cost float64) error {
	if len(f.heap) >= f.cap {
		return ErrResourceBound.New(f.cap)
	}
	f.seq++
	heap.Push(&f.heap, bestEntry{c: c, cost: cost, seq: f.seq})
	return nil
}

func (f *bestFrontier) Pop() (*rule.Candidate, bool) {
	if len(f.heap) == 0 {
		return nil, false
	}
	e := heap.Pop(&f.heap).(bestEntry)
	return e.c, true
}

func (f *bestFrontier) Len() int { return len(f.heap) }

// drainInto moves every queued candidate into a depth-first frontier,
// best candidates ending on top of the stack.
func (f *bestFrontier) drainInto(dst *lifoFrontier) {
	var drained []*rule.Candidate
	for {
		c, ok := f.Pop()
		if !ok {
			break
		}
		drained = append(drained, c)
	}
	for i := len(drained) - 1; i >= 0; i-- {
		_ = dst.Push(drained[i], 0)
	}
}
