package discover

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Fran-cois/MATILDA/internal/cg"
	"github.com/Fran-cois/MATILDA/internal/core"
	"github.com/Fran-cois/MATILDA/internal/inspect"
	"github.com/Fran-cois/MATILDA/internal/rule"
)

// Iterator is the lazy rule stream of one discovery run. The caller drives
// it; each Next call performs at most a bounded amount of expansion work
// and the shared context is polled at every expansion and yield, so
// cancellation takes effect within one node expansion.
type Iterator struct {
	ctx      context.Context
	cfg      Config
	insp     inspect.Inspector
	graph    *cg.Graph
	interner *core.Interner
	log      *logrus.Entry

	frontier frontier
	heur     Heuristic
	limits   rule.Limits
	rows     map[string]int64

	pending []*rule.TGD
	seen    map[uint64]bool
	summary *Summary
	done    bool
}

func newIterator(ctx context.Context, cfg Config, insp inspect.Inspector, g *cg.Graph, log *logrus.Entry, sum *Summary) *Iterator {
	in := g.Interner()
	it := &Iterator{
		ctx:      ctx,
		cfg:      cfg,
		insp:     insp,
		graph:    g,
		interner: in,
		log:      log,
		frontier: newFrontier(cfg.Strategy, cfg.MaxFrontier),
		heur:     NewHeuristic(cfg.Heuristic, in, cfg.Weights),
		limits:   rule.Limits{MaxVars: cfg.MaxVars, MaxTables: cfg.MaxTables},
		rows:     make(map[string]int64),
		seen:     make(map[uint64]bool),
		summary:  sum,
	}
	for id := 0; id < in.Len(); id++ {
		a := in.Attr(core.AttrID(id))
		it.rows[a.Table] = a.Rows
	}
	for _, root := range g.Roots {
		it.push(rule.NewCandidate(g, root))
	}
	return it
}

// emptyIterator yields nothing; used when the constraint graph has no
// roots.
func emptyIterator(sum *Summary) *Iterator {
	return &Iterator{done: true, summary: sum}
}

// Next returns the next accepted rule, or false when the run is over.
// After false the summary is final.
func (it *Iterator) Next() (*rule.TGD, bool) {
	for {
		if !it.done && it.ctx != nil && it.ctx.Err() != nil {
			it.summary.Cancelled = true
			it.done = true
			it.pending = nil
			return nil, false
		}
		if len(it.pending) > 0 {
			t := it.pending[0]
			it.pending = it.pending[1:]
			it.summary.RulesEmitted++
			return t, true
		}
		if it.done {
			return nil, false
		}

		c, ok := it.frontier.Pop()
		if !ok {
			it.done = true
			continue
		}
		if c.Len() >= 2 && it.pathPruning(c) {
			it.summary.RulesConsidered++
			it.evaluate(c)
			if it.done {
				continue
			}
		}
		it.expand(c)
	}
}

// Summary returns the run account. Counts are live until the iterator is
// exhausted.
func (it *Iterator) Summary() *Summary { return it.summary }

// pathPruning is the pre-yield extension point. All syntactically valid
// rules currently pass; data-dependent filtering happens per split in
// evaluate.
func (it *Iterator) pathPruning(_ *rule.Candidate) bool { return true }

// nextNodeTest decides whether the extended rule may enter the frontier:
// the three structural checks, on the whole extended path. Reachability is
// implied because extensions only follow graph edges.
func (it *Iterator) nextNodeTest(ext *rule.Candidate) bool {
	return rule.Valid(ext, it.interner, it.limits)
}

func (it *Iterator) expand(c *rule.Candidate) {
	for _, next := range it.graph.Edges[c.Last()] {
		ext := c.Extend(it.graph, next)
		if !it.nextNodeTest(ext) {
			it.summary.skip(SkipValidation)
			continue
		}
		it.push(ext)
	}
}

func (it *Iterator) push(c *rule.Candidate) {
	cost := float64(c.Len()) + it.heur.Cost(c)
	if err := it.frontier.Push(c, cost); err != nil {
		it.downgrade(c)
	}
}

// downgrade swaps an overflowing best-first frontier for a depth-first
// stack and carries on. Completeness is preserved; only the visit order
// changes from here on.
func (it *Iterator) downgrade(pendingPush *rule.Candidate) {
	best, ok := it.frontier.(*bestFrontier)
	if !ok {
		return
	}
	it.log.Warnf("frontier exceeded %d entries, downgrading to depth-first", it.cfg.MaxFrontier)
	it.summary.Downgraded = true
	stack := &lifoFrontier{}
	best.drainInto(stack)
	_ = stack.Push(pendingPush, 0)
	it.frontier = stack
}

// evaluate scores every split point of an accepted path and queues one
// emission per passing split, ordered by split position. Inspector
// failures skip the rule and the run continues.
func (it *Iterator) evaluate(c *rule.Candidate) {
	for split := 1; split < c.Len(); split++ {
		if err := it.ctx.Err(); err != nil {
			it.summary.Cancelled = true
			it.done = true
			it.pending = nil
			return
		}
		m, reason, err := it.scoreSplit(c, split)
		if err != nil {
			it.log.WithError(err).Debug("rule skipped after inspector failure")
			it.summary.skip(SkipBackend)
			continue
		}
		if reason != "" {
			it.summary.skip(reason)
			continue
		}
		t, err := rule.Materialize(c, split, it.interner, m)
		if err != nil {
			it.log.WithError(err).Debug("rule skipped, fingerprint failed")
			it.summary.skip(SkipBackend)
			continue
		}
		if it.seen[t.Hash] {
			it.summary.skip(SkipDuplicate)
			continue
		}
		it.seen[t.Hash] = true
		it.pending = append(it.pending, t)
	}
}

// scoreSplit computes the metric triple of one (rule, split) pair. The
// support denominator is the row count of the first head JIA's table,
// fixed for the whole run. Zero denominators yield 0, never NaN; negative
// counts are treated as saturation and skip the rule.
func (it *Iterator) scoreSplit(c *rule.Candidate, split int) (rule.Metrics, string, error) {
	q := rule.BuildQuery(c, split, it.interner)

	body, err := it.insp.CountBodyMatches(it.ctx, q)
	if err != nil {
		return rule.Metrics{}, "", err
	}
	both, err := it.insp.CountBothMatches(it.ctx, q)
	if err != nil {
		return rule.Metrics{}, "", err
	}
	if body < 0 || both < 0 {
		it.log.Warn("implausible match count, rule skipped")
		return rule.Metrics{}, SkipSaturated, nil
	}

	m := rule.Metrics{Accuracy: 1}
	if rows := it.rows[q.AnchorTable]; rows > 0 {
		m.Support = float64(both) / float64(rows)
		if m.Support > 1 {
			m.Support = 1
		}
	}
	if body > 0 {
		m.Confidence = float64(both) / float64(body)
		if m.Confidence > 1 {
			m.Confidence = 1
		}
	}

	if m.Support < it.cfg.SupportThreshold || m.Confidence < it.cfg.ConfidenceThreshold {
		return rule.Metrics{}, SkipThreshold, nil
	}
	return m, "", nil
}
