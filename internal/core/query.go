package core

// QueryAtom is one table occurrence inside a match query, with the columns
// it binds to rule variables.
type QueryAtom struct {
	Table    string
	Bindings []ColumnBinding
}

// ColumnBinding ties one column of an atom to a rule variable.
type ColumnBinding struct {
	Column string
	Var    int
}

// ColRef addresses a column of a specific atom by position.
type ColRef struct {
	Atom   int
	Column string
}

// RuleQuery is the backend-neutral form of a candidate rule at a given
// split point. Body holds the atoms and bindings of the body pattern; Full
// additionally carries the head atoms and bindings, with the body's atoms
// first and in the same order. BodyVarRefs lists the variables the match
// counts are taken over, each with a representative column valid in both
// atom lists.
type RuleQuery struct {
	Body []QueryAtom
	Full []QueryAtom
	// BodyVarRefs holds one representative (atom, column) per body
	// variable; atom indices refer to the shared body prefix.
	BodyVarRefs []ColRef
	// AnchorTable is the table whose row count is the support denominator.
	AnchorTable string
}

// EqualityPairs expands an atom list into the pairwise column equalities a
// backend has to enforce: for every variable, each binding after the first
// is equated with the first. The result is deterministic in atom and
// binding order.
func EqualityPairs(atoms []QueryAtom) [][2]ColRef {
	first := make(map[int]ColRef)
	var pairs [][2]ColRef
	for ai, a := range atoms {
		for _, b := range a.Bindings {
			ref := ColRef{Atom: ai, Column: b.Column}
			if f, ok := first[b.Var]; ok {
				pairs = append(pairs, [2]ColRef{f, ref})
			} else {
				first[b.Var] = ref
			}
		}
	}
	return pairs
}
