// Package rule models candidate rules, the ordered JIA sequences under
// construction on a traversal frontier, together with the structural
// checks that keep them valid and the materialization of accepted
// candidates into TGD records.
package rule

import (
	"github.com/Fran-cois/MATILDA/internal/cg"
	"github.com/Fran-cois/MATILDA/internal/core"
)

// Candidate is a partial rule: the JIA path walked so far. Candidates are
// built incrementally; Extend copies, so frontier entries never alias.
type Candidate struct {
	JIAs  []core.JIA
	Nodes []cg.NodeID
}

// NewCandidate starts a rule at a root node.
func NewCandidate(g *cg.Graph, root cg.NodeID) *Candidate {
	return &Candidate{
		JIAs:  []core.JIA{g.Nodes[root]},
		Nodes: []cg.NodeID{root},
	}
}

// Extend returns a new candidate with node appended.
func (c *Candidate) Extend(g *cg.Graph, node cg.NodeID) *Candidate {
	jias := make([]core.JIA, len(c.JIAs), len(c.JIAs)+1)
	copy(jias, c.JIAs)
	nodes := make([]cg.NodeID, len(c.Nodes), len(c.Nodes)+1)
	copy(nodes, c.Nodes)
	return &Candidate{
		JIAs:  append(jias, g.Nodes[node]),
		Nodes: append(nodes, node),
	}
}

// Len returns the number of JIAs.
func (c *Candidate) Len() int { return len(c.JIAs) }

// Last returns the most recently appended node.
func (c *Candidate) Last() cg.NodeID { return c.Nodes[len(c.Nodes)-1] }

// TableOccurrences lists the distinct (table, occurrence) pairs of the
// rule in first-appearance order.
func (c *Candidate) TableOccurrences(in *core.Interner) []core.TableOcc {
	var out []core.TableOcc
	seen := make(map[core.TableOcc]bool)
	for _, j := range c.JIAs {
		for _, o := range j.Occurrences(in) {
			if !seen[o] {
				seen[o] = true
				out = append(out, o)
			}
		}
	}
	return out
}

// Tables lists the distinct table names of the rule.
func (c *Candidate) Tables(in *core.Interner) []string {
	var out []string
	seen := make(map[string]bool)
	for _, o := range c.TableOccurrences(in) {
		if !seen[o.Table] {
			seen[o.Table] = true
			out = append(out, o.Table)
		}
	}
	return out
}
