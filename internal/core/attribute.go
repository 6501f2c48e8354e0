package core

import (
	"fmt"
	"sort"
	"strings"
)

// Attribute is an ordered (table, column) pair with its cached type class
// and the per-table statistics the compatibility analysis needs.
type Attribute struct {
	Table  string
	Column string
	Class  TypeClass
	// Distinct is the distinct-value count, cached through SetDistinct by
	// the compatibility analysis; it is zero until then.
	Distinct int64
	// Rows is the owning table's tuple count.
	Rows int64
}

// Key renders the canonical "<table>___sep___<column>" form used in side
// files and predicate strings.
func (a Attribute) Key() string {
	return a.Table + Sep + a.Column
}

// AttrID is the dense integer id an interned attribute is referred to by.
type AttrID int32

// occBits is the number of low bits of an IndexedAttr holding the
// occurrence index. It caps MaxOccurrence at 16.
const occBits = 4

// MaxOccurrenceLimit is the largest occurrence bound the packed
// indexed-attribute representation supports.
const MaxOccurrenceLimit = 1 << occBits

// IndexedAttr packs an (attribute id, occurrence index) pair into a single
// small integer. The same attribute may appear several times in one rule
// when a table is joined with itself; the occurrence index disambiguates.
type IndexedAttr int32

// NewIndexedAttr packs id and occurrence. The occurrence must be within
// [0, MaxOccurrenceLimit).
func NewIndexedAttr(id AttrID, occurrence int) IndexedAttr {
	return IndexedAttr(int32(id)<<occBits | int32(occurrence))
}

// Attr returns the attribute id part.
func (ia IndexedAttr) Attr() AttrID { return AttrID(ia >> occBits) }

// Occurrence returns the occurrence index part.
func (ia IndexedAttr) Occurrence() int { return int(ia & (MaxOccurrenceLimit - 1)) }

// Interner assigns dense integer ids to every (table, column) pair of a
// schema snapshot. Ids are stable for a given snapshot because tables are
// visited in sorted order and columns in their declared order.
type Interner struct {
	attrs  []Attribute
	ids    map[string]AttrID
	tables []string
}

// NewInterner interns every column of every table of db.
func NewInterner(db *Database) *Interner {
	in := &Interner{ids: make(map[string]AttrID)}
	for _, t := range db.Tables {
		in.tables = append(in.tables, t.Name)
		for _, c := range t.Columns {
			a := Attribute{Table: t.Name, Column: c.Name, Class: c.Class, Rows: t.RowCount}
			in.ids[a.Key()] = AttrID(len(in.attrs))
			in.attrs = append(in.attrs, a)
		}
	}
	return in
}

// Len returns the number of interned attributes.
func (in *Interner) Len() int { return len(in.attrs) }

// Attr returns the attribute for id. The id must come from this interner.
func (in *Interner) Attr(id AttrID) Attribute { return in.attrs[int(id)] }

// Lookup resolves a (table, column) pair to its id.
func (in *Interner) Lookup(table, column string) (AttrID, bool) {
	id, ok := in.ids[table+Sep+column]
	return id, ok
}

// SetDistinct caches the distinct-value count for an attribute.
func (in *Interner) SetDistinct(id AttrID, n int64) { in.attrs[int(id)].Distinct = n }

// Tables returns the table names in interning order.
func (in *Interner) Tables() []string { return in.tables }

// JIA is a joined indexed attribute: the set of indexed-attribute positions
// a rule asserts to take the same variable. A JIA is never empty, its
// members are pairwise compatible, and it is canonicalized by sorting so
// that two JIAs with the same members in any order are equal.
type JIA struct {
	members []IndexedAttr
}

// NewJIA builds a canonical JIA from members. Duplicates are dropped.
func NewJIA(members ...IndexedAttr) JIA {
	ms := make([]IndexedAttr, 0, len(members))
	seen := make(map[IndexedAttr]bool, len(members))
	for _, m := range members {
		if !seen[m] {
			seen[m] = true
			ms = append(ms, m)
		}
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })
	return JIA{members: ms}
}

// Members returns the canonical (sorted) member slice. Callers must not
// mutate it.
func (j JIA) Members() []IndexedAttr { return j.members }

// Len returns the member count.
func (j JIA) Len() int { return len(j.members) }

// Contains reports membership of a single indexed attribute.
func (j JIA) Contains(ia IndexedAttr) bool {
	for _, m := range j.members {
		if m == ia {
			return true
		}
	}
	return false
}

// Key is the canonical string form JIAs hash and compare by.
func (j JIA) Key() string {
	var b strings.Builder
	for i, m := range j.members {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", int32(m))
	}
	return b.String()
}

// Equal is structural equality over the canonical member sets.
func (j JIA) Equal(o JIA) bool {
	if len(j.members) != len(o.members) {
		return false
	}
	for i := range j.members {
		if j.members[i] != o.members[i] {
			return false
		}
	}
	return true
}

// TableOcc identifies one use of a table inside a rule.
type TableOcc struct {
	Table      string
	Occurrence int
}

// Occurrences lists the distinct (table, occurrence) pairs the JIA touches,
// in member order.
func (j JIA) Occurrences(in *Interner) []TableOcc {
	var out []TableOcc
	seen := make(map[TableOcc]bool)
	for _, m := range j.members {
		to := TableOcc{Table: in.Attr(m.Attr()).Table, Occurrence: m.Occurrence()}
		if !seen[to] {
			seen[to] = true
			out = append(out, to)
		}
	}
	return out
}
