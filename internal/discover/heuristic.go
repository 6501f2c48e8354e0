package discover

import (
	"math"

	"github.com/Fran-cois/MATILDA/internal/core"
	"github.com/Fran-cois/MATILDA/internal/rule"
)

// Heuristic names.
const (
	HeuristicNaive           = "naive"
	HeuristicTableSize       = "table_size"
	HeuristicJoinSelectivity = "join_selectivity"
	HeuristicHybrid          = "hybrid"
)

// Heuristic maps a partial rule to a non-negative cost; lower is more
// promising. Heuristics are pure over the interner's cached statistics, so
// evaluating one never touches the backend.
type Heuristic interface {
	Name() string
	Cost(c *rule.Candidate) float64
}

var heuristics = map[string]func(in *core.Interner, w HybridWeights) Heuristic{
	HeuristicNaive:           func(in *core.Interner, _ HybridWeights) Heuristic { return naive{} },
	HeuristicTableSize:       func(in *core.Interner, _ HybridWeights) Heuristic { return newTableSize(in) },
	HeuristicJoinSelectivity: func(in *core.Interner, _ HybridWeights) Heuristic { return newJoinSelectivity(in) },
	HeuristicHybrid:          func(in *core.Interner, w HybridWeights) Heuristic { return newHybrid(in, w) },
}

// NewHeuristic resolves a heuristic by name. Unknown names are caught by
// Config.Validate before any run starts.
func NewHeuristic(name string, in *core.Interner, w HybridWeights) Heuristic {
	return heuristics[name](in, w)
}

// Heuristics lists the registered heuristic names.
func Heuristics() []string {
	return []string{HeuristicNaive, HeuristicTableSize, HeuristicJoinSelectivity, HeuristicHybrid}
}

// naive prefers short rules.
type naive struct{}

func (naive) Name() string                   { return HeuristicNaive }
func (naive) Cost(c *rule.Candidate) float64 { return float64(c.Len()) }

// tableSize prefers rules over small tables, whose joins are cheap.
type tableSize struct {
	interner *core.Interner
	rows     map[string]int64
}

func newTableSize(in *core.Interner) *tableSize {
	h := &tableSize{interner: in, rows: make(map[string]int64)}
	for id := 0; id < in.Len(); id++ {
		a := in.Attr(core.AttrID(id))
		h.rows[a.Table] = a.Rows
	}
	return h
}

func (h *tableSize) Name() string { return HeuristicTableSize }

func (h *tableSize) Cost(c *rule.Candidate) float64 {
	cost := 0.0
	for _, t := range c.Tables(h.interner) {
		cost += math.Log1p(float64(h.rows[t]))
	}
	return cost
}

// joinSelectivity estimates the cardinality of the rule's match set as the
// product of the joined tables' sizes and the per-join selectivities
// 1/max(distinct(A), distinct(B)); the cost is the log of the estimate,
// clamped at zero.
type joinSelectivity struct {
	interner *core.Interner
}

func newJoinSelectivity(in *core.Interner) *joinSelectivity {
	return &joinSelectivity{interner: in}
}

func (h *joinSelectivity) Name() string { return HeuristicJoinSelectivity }

func (h *joinSelectivity) Cost(c *rule.Candidate) float64 {
	logEst := 0.0
	for _, o := range c.TableOccurrences(h.interner) {
		logEst += math.Log1p(float64(h.rowsOf(o.Table)))
	}
	for _, j := range c.JIAs {
		ms := j.Members()
		for i := 1; i < len(ms); i++ {
			a := h.interner.Attr(ms[i-1].Attr())
			b := h.interner.Attr(ms[i].Attr())
			d := max(a.Distinct, b.Distinct)
			if d > 0 {
				logEst -= math.Log(float64(d))
			}
		}
	}
	return math.Max(0, logEst)
}

func (h *joinSelectivity) rowsOf(table string) int64 {
	for id := 0; id < h.interner.Len(); id++ {
		if a := h.interner.Attr(core.AttrID(id)); a.Table == table {
			return a.Rows
		}
	}
	return 0
}

// hybrid is the recommended default: a weighted sum of the other three.
type hybrid struct {
	weights HybridWeights
	parts   [3]Heuristic
}

func newHybrid(in *core.Interner, w HybridWeights) *hybrid {
	return &hybrid{
		weights: w,
		parts:   [3]Heuristic{naive{}, newTableSize(in), newJoinSelectivity(in)},
	}
}

func (h *hybrid) Name() string { return HeuristicHybrid }

func (h *hybrid) Cost(c *rule.Candidate) float64 {
	return h.weights.Naive*h.parts[0].Cost(c) +
		h.weights.TableSize*h.parts[1].Cost(c) +
		h.weights.JoinSelectivity*h.parts[2].Cost(c)
}
