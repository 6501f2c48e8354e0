package rule

import (
	"github.com/Fran-cois/MATILDA/internal/core"
)

// BuildQuery lowers a candidate at a split point into the backend-neutral
// query the inspectors count matches for. JIAs [0, split) form the body,
// [split, len) the head. The full atom list keeps the body's atoms first
// and in the same order, so variable representatives resolved against the
// body remain valid against the full pattern.
func BuildQuery(c *Candidate, split int, in *core.Interner) core.RuleQuery {
	bodyAtoms, bodyIdx := atomsFor(c.JIAs[:split], in, nil, nil)
	fullAtoms, _ := atomsFor(c.JIAs, in, cloneAtoms(bodyAtoms), cloneIndex(bodyIdx))

	var refs []core.ColRef
	firstRef := make(map[int]bool)
	for ai, a := range bodyAtoms {
		for _, b := range a.Bindings {
			if !firstRef[b.Var] {
				firstRef[b.Var] = true
				refs = append(refs, core.ColRef{Atom: ai, Column: b.Column})
			}
		}
	}

	headFirst := c.JIAs[split]
	anchor := in.Attr(headFirst.Members()[0].Attr()).Table

	return core.RuleQuery{
		Body:        bodyAtoms,
		Full:        fullAtoms,
		BodyVarRefs: refs,
		AnchorTable: anchor,
	}
}

// atomsFor lays out one query atom per (table, occurrence) touched by the
// given JIAs and attaches every member binding, with the JIA's position in
// the candidate as its variable id. A seed atom list (the body prefix)
// may be passed in; bindings then accumulate on top of it.
func atomsFor(jias []core.JIA, in *core.Interner, seed []core.QueryAtom, seedIdx map[core.TableOcc]int) ([]core.QueryAtom, map[core.TableOcc]int) {
	atoms := seed
	index := seedIdx
	if index == nil {
		index = make(map[core.TableOcc]int)
	}
	for vi, j := range jias {
		for _, m := range j.Members() {
			a := in.Attr(m.Attr())
			to := core.TableOcc{Table: a.Table, Occurrence: m.Occurrence()}
			ai, ok := index[to]
			if !ok {
				ai = len(atoms)
				index[to] = ai
				atoms = append(atoms, core.QueryAtom{Table: a.Table})
			}
			atoms[ai].Bindings = append(atoms[ai].Bindings, core.ColumnBinding{
				Column: a.Column,
				Var:    vi,
			})
		}
	}
	return atoms, index
}

func cloneAtoms(atoms []core.QueryAtom) []core.QueryAtom {
	out := make([]core.QueryAtom, len(atoms))
	for i, a := range atoms {
		out[i] = core.QueryAtom{Table: a.Table, Bindings: make([]core.ColumnBinding, 0, len(a.Bindings))}
	}
	return out
}

func cloneIndex(idx map[core.TableOcc]int) map[core.TableOcc]int {
	out := make(map[core.TableOcc]int, len(idx))
	for k, v := range idx {
		out[k] = v
	}
	return out
}
