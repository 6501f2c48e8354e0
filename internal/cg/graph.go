// Package cg builds the constraint graph: the finite directed graph whose
// nodes are joined indexed attributes and whose edges encode which JIA may
// legally follow which inside a candidate rule. The graph is built once per
// run and shared read-only by every traversal.
package cg

import (
	"sort"

	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/Fran-cois/MATILDA/internal/core"
)

// ErrGraphEmpty is returned when the builder finds no root nodes. Callers
// surface it as an empty-result success, not a failure.
var ErrGraphEmpty = errors.NewKind("cg: constraint graph has no roots")

// NodeID indexes a JIA node inside its graph.
type NodeID int32

// Graph is the constraint graph. Nodes is indexed by NodeID; Edges holds
// sorted adjacency lists; Roots lists the legal traversal entry points in
// ascending order.
type Graph struct {
	Nodes []core.JIA
	Edges [][]NodeID
	Roots []NodeID

	interner *core.Interner
	byKey    map[string]NodeID
}

// Metrics summarises a built graph for the metrics side file.
type Metrics struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
	Roots int `json:"roots"`
}

// Config bounds the graph construction.
type Config struct {
	// MaxOccurrence bounds how many times one table may appear in a rule.
	MaxOccurrence int
	// MaxTables bounds the distinct (table, occurrence) pairs of a rule.
	MaxTables int
}

// Interner returns the attribute interner the graph was built over.
func (g *Graph) Interner() *core.Interner { return g.interner }

// Lookup resolves a JIA to its node id.
func (g *Graph) Lookup(j core.JIA) (NodeID, bool) {
	id, ok := g.byKey[j.Key()]
	return id, ok
}

// Metrics reports node, edge and root counts.
func (g *Graph) Metrics() Metrics {
	edges := 0
	for _, adj := range g.Edges {
		edges += len(adj)
	}
	return Metrics{Nodes: len(g.Nodes), Edges: edges, Roots: len(g.Roots)}
}

// compatFunc abstracts the compatibility relation so the builder does not
// depend on the analyzer package.
type compatFunc func(a, b core.AttrID) bool

// Build enumerates the JIA universe and edge set.
//
// The universe holds, over the indexed attributes bounded by MaxOccurrence:
// every maximal clique of mutually compatible members, every compatible
// pair, and every singleton. Maximal cliques alone cannot express
// self-join rules, whose variables group the indexed attributes into
// non-maximal sets; pairs and singletons restore that expressiveness
// without enumerating the full exponential subset lattice.
//
// Multi-member JIAs pair distinct compatible attributes, or the same
// attribute across occurrences when that attribute has a compatible
// partner at all. An attribute no other attribute joins with only ever
// appears as a singleton, so a schema without compatible pairs yields no
// joins, no roots, and ErrGraphEmpty.
func Build(in *core.Interner, compatible func(a, b core.AttrID) bool, cfg Config) (*Graph, error) {
	ias := indexedUniverse(in, cfg.MaxOccurrence)
	adj := iaAdjacency(in, ias, compatible)

	keys := make(map[string]core.JIA)
	add := func(j core.JIA) { keys[j.Key()] = j }

	for i := range ias {
		add(core.NewJIA(ias[i]))
		for j := range adj[i] {
			if adj[i][j] && j > i {
				add(core.NewJIA(ias[i], ias[j]))
			}
		}
	}
	for _, clique := range maximalCliques(adj) {
		members := make([]core.IndexedAttr, len(clique))
		for i, idx := range clique {
			members[i] = ias[idx]
		}
		add(core.NewJIA(members...))
	}

	g := &Graph{interner: in, byKey: make(map[string]NodeID)}
	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)
	for _, k := range ordered {
		g.byKey[k] = NodeID(len(g.Nodes))
		g.Nodes = append(g.Nodes, keys[k])
	}

	g.Edges = make([][]NodeID, len(g.Nodes))
	for i := range g.Nodes {
		for j := range g.Nodes {
			if i != j && legalEdge(in, g.Nodes[i], g.Nodes[j], cfg) {
				g.Edges[i] = append(g.Edges[i], NodeID(j))
			}
		}
	}

	for i, n := range g.Nodes {
		if isRoot(in, n) {
			g.Roots = append(g.Roots, NodeID(i))
		}
	}
	if len(g.Roots) == 0 {
		return nil, ErrGraphEmpty.New()
	}
	return g, nil
}

func indexedUniverse(in *core.Interner, maxOcc int) []core.IndexedAttr {
	if maxOcc > core.MaxOccurrenceLimit {
		maxOcc = core.MaxOccurrenceLimit
	}
	var out []core.IndexedAttr
	for id := 0; id < in.Len(); id++ {
		for occ := 0; occ < maxOcc; occ++ {
			out = append(out, core.NewIndexedAttr(core.AttrID(id), occ))
		}
	}
	return out
}

func iaAdjacency(in *core.Interner, ias []core.IndexedAttr, compatible compatFunc) [][]bool {
	joinable := make([]bool, in.Len())
	for a := 0; a < in.Len(); a++ {
		for b := 0; b < in.Len(); b++ {
			if a != b && compatible(core.AttrID(a), core.AttrID(b)) {
				joinable[a] = true
				break
			}
		}
	}

	adj := make([][]bool, len(ias))
	for i := range adj {
		adj[i] = make([]bool, len(ias))
	}
	for i := range ias {
		for j := i + 1; j < len(ias); j++ {
			a, b := ias[i].Attr(), ias[j].Attr()
			ok := false
			if a != b {
				ok = compatible(a, b)
			} else {
				// Identical attributes may share a variable across table
				// occurrences, but only when the attribute joins with
				// anything at all; otherwise such pairs would fabricate
				// joins in schemas with no compatible attributes.
				ok = joinable[a]
			}
			if ok {
				adj[i][j] = true
				adj[j][i] = true
			}
		}
	}
	return adj
}

// maximalCliques is Bron–Kerbosch with pivoting over the IA adjacency
// matrix. Results are deterministic: vertices are processed in index
// order.
func maximalCliques(adj [][]bool) [][]int {
	n := len(adj)
	var out [][]int
	var bk func(r, p, x []int)
	bk = func(r, p, x []int) {
		if len(p) == 0 && len(x) == 0 {
			if len(r) > 0 {
				clique := make([]int, len(r))
				copy(clique, r)
				out = append(out, clique)
			}
			return
		}
		pivot := -1
		best := -1
		for _, v := range append(append([]int{}, p...), x...) {
			deg := 0
			for _, u := range p {
				if adj[v][u] {
					deg++
				}
			}
			if deg > best {
				best = deg
				pivot = v
			}
		}
		for _, v := range append([]int{}, p...) {
			if pivot >= 0 && adj[pivot][v] {
				continue
			}
			var np, nx []int
			for _, u := range p {
				if adj[v][u] {
					np = append(np, u)
				}
			}
			for _, u := range x {
				if adj[v][u] {
					nx = append(nx, u)
				}
			}
			nr := append(append([]int{}, r...), v)
			bk(nr, np, nx)
			for i, u := range p {
				if u == v {
					p = append(p[:i], p[i+1:]...)
					break
				}
			}
			x = append(x, v)
		}
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	bk(nil, all, nil)
	return out
}

// legalEdge decides whether to may follow from in some candidate rule:
// the two JIAs share no indexed attribute, they connect through at least
// one common table occurrence, and their union stays within the table
// budget. Gap-freedom of occurrence indices cannot be decided pairwise
// (earlier JIAs of the rule may fill a gap), so it is left to the
// per-step validation during traversal.
func legalEdge(in *core.Interner, from, to core.JIA, cfg Config) bool {
	for _, m := range to.Members() {
		if from.Contains(m) {
			return false
		}
	}
	fromOccs := from.Occurrences(in)
	toOccs := to.Occurrences(in)
	shared := false
	union := make(map[core.TableOcc]bool)
	for _, o := range fromOccs {
		union[o] = true
	}
	for _, o := range toOccs {
		if union[o] {
			shared = true
		}
		union[o] = true
	}
	return shared && len(union) <= cfg.MaxTables
}

// isRoot marks the legal traversal entry points: JIAs that join at least
// two positions and whose occurrence indices per table form a consecutive
// prefix starting at zero. For single-occurrence JIAs the prefix form is
// the all-zero condition; for self-join seeds like {t.a#0, t.a#1} it
// keeps them reachable. Singletons carry free head variables but cannot
// open a rule: a rule starts at a join.
func isRoot(in *core.Interner, j core.JIA) bool {
	if j.Len() < 2 {
		return false
	}
	perTable := make(map[string]map[int]bool)
	for _, o := range j.Occurrences(in) {
		if perTable[o.Table] == nil {
			perTable[o.Table] = make(map[int]bool)
		}
		perTable[o.Table][o.Occurrence] = true
	}
	for _, occs := range perTable {
		for i := 0; i < len(occs); i++ {
			if !occs[i] {
				return false
			}
		}
	}
	return true
}
