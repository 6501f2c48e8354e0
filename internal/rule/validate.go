package rule

import (
	"github.com/Fran-cois/MATILDA/internal/core"
)

// Limits bounds a candidate's size.
type Limits struct {
	// MaxVars caps the number of distinct JIAs (one variable each).
	MaxVars int
	// MaxTables caps the distinct (table, occurrence) pairs.
	MaxTables int
}

// CheckMinimal requires every JIA to contribute at least one indexed
// attribute no earlier JIA covered. A rule failing this is equivalent to a
// shorter one and must be discarded.
func CheckMinimal(c *Candidate) bool {
	covered := make(map[core.IndexedAttr]bool)
	for _, j := range c.JIAs {
		fresh := false
		for _, m := range j.Members() {
			if !covered[m] {
				covered[m] = true
				fresh = true
			}
		}
		if !fresh {
			return false
		}
	}
	return true
}

// CheckTableOccurrences requires the occurrence indices used per table to
// be exactly {0, …, k}: no gaps, no index appearing without its
// predecessors.
func CheckTableOccurrences(c *Candidate, in *core.Interner) bool {
	perTable := make(map[string]map[int]bool)
	for _, o := range c.TableOccurrences(in) {
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

// CheckLimits enforces the variable and table budgets.
func CheckLimits(c *Candidate, in *core.Interner, lim Limits) bool {
	if len(c.JIAs) > lim.MaxVars {
		return false
	}
	return len(c.TableOccurrences(in)) <= lim.MaxTables
}

// Valid bundles the three structural checks.
func Valid(c *Candidate, in *core.Interner, lim Limits) bool {
	return CheckMinimal(c) &&
		CheckTableOccurrences(c, in) &&
		CheckLimits(c, in, lim)
}
