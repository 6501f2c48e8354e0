package rule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fran-cois/MATILDA/internal/core"
)

func clinicInterner(t *testing.T) *core.Interner {
	t.Helper()
	db := &core.Database{
		Tables: []*core.Table{
			{
				Name: "lab",
				Columns: []*core.Column{
					{Name: "patient_id", RawType: "int"},
					{Name: "value", RawType: "text"},
				},
				RowCount: 3,
			},
			{
				Name: "patient",
				Columns: []*core.Column{
					{Name: "id", RawType: "int", PrimaryKey: true},
					{Name: "name", RawType: "varchar(64)"},
				},
				RowCount: 3,
			},
		},
	}
	db.SortTables()
	db.ClassifyColumns()
	return core.NewInterner(db)
}

func ia(t *testing.T, in *core.Interner, table, column string, occ int) core.IndexedAttr {
	t.Helper()
	id, ok := in.Lookup(table, column)
	require.True(t, ok, "unknown attribute %s.%s", table, column)
	return core.NewIndexedAttr(id, occ)
}

// fkJoin is the candidate [ {lab.patient_id#0, patient.id#0}, {patient.name#0} ].
func fkJoin(t *testing.T, in *core.Interner) *Candidate {
	return &Candidate{
		JIAs: []core.JIA{
			core.NewJIA(ia(t, in, "lab", "patient_id", 0), ia(t, in, "patient", "id", 0)),
			core.NewJIA(ia(t, in, "patient", "name", 0)),
		},
	}
}

func TestCheckMinimal(t *testing.T) {
	in := clinicInterner(t)
	c := fkJoin(t, in)
	assert.True(t, CheckMinimal(c))

	// A repeated JIA contributes nothing new.
	c.JIAs = append(c.JIAs, core.NewJIA(ia(t, in, "patient", "name", 0)))
	assert.False(t, CheckMinimal(c))
}

func TestCheckTableOccurrences(t *testing.T) {
	in := clinicInterner(t)
	c := fkJoin(t, in)
	assert.True(t, CheckTableOccurrences(c, in))

	// Occurrence 2 of patient without occurrence 1 is a gap.
	gapped := &Candidate{
		JIAs: []core.JIA{
			core.NewJIA(ia(t, in, "patient", "id", 0), ia(t, in, "patient", "id", 2)),
		},
	}
	assert.False(t, CheckTableOccurrences(gapped, in))
}

func TestCheckLimits(t *testing.T) {
	in := clinicInterner(t)
	c := fkJoin(t, in)

	assert.True(t, CheckLimits(c, in, Limits{MaxVars: 2, MaxTables: 2}))
	assert.False(t, CheckLimits(c, in, Limits{MaxVars: 1, MaxTables: 2}))
	assert.False(t, CheckLimits(c, in, Limits{MaxVars: 2, MaxTables: 1}))
}

func TestBuildQuery(t *testing.T) {
	in := clinicInterner(t)
	c := fkJoin(t, in)

	q := BuildQuery(c, 1, in)

	require.Len(t, q.Body, 2)
	assert.Equal(t, "lab", q.Body[0].Table)
	assert.Equal(t, "patient", q.Body[1].Table)

	// The head binds patient.name on the existing patient atom; the full
	// pattern keeps the body atoms first.
	require.Len(t, q.Full, 2)
	assert.Equal(t, "lab", q.Full[0].Table)
	assert.Equal(t, []core.ColumnBinding{
		{Column: "id", Var: 0},
		{Column: "name", Var: 1},
	}, q.Full[1].Bindings)

	require.Len(t, q.BodyVarRefs, 1)
	assert.Equal(t, core.ColRef{Atom: 0, Column: "patient_id"}, q.BodyVarRefs[0])

	assert.Equal(t, "patient", q.AnchorTable)
}

func TestMaterializePredicateShape(t *testing.T) {
	in := clinicInterner(t)
	c := fkJoin(t, in)

	tgd, err := Materialize(c, 1, in, Metrics{Support: 1, Confidence: 1, Accuracy: 1})
	require.NoError(t, err)

	assert.Equal(t, "TGDRule", tgd.Type)
	require.Len(t, tgd.Body, 2)
	require.Len(t, tgd.Head, 1)
	assert.Contains(t, tgd.Body, "Predicate(variable1='X0', relation='lab___sep___patient_id', variable2='Y0')")
	assert.Contains(t, tgd.Body, "Predicate(variable1='X1', relation='patient___sep___id', variable2='Y0')")
	assert.Equal(t, "Predicate(variable1='X1', relation='patient___sep___name', variable2='Y1')", tgd.Head[0])

	assert.True(t, strings.Contains(tgd.Display, ":-"))
	assert.Equal(t, 1.0, tgd.Support)
	assert.Equal(t, 1.0, tgd.Confidence)
}

func TestFingerprintIdempotent(t *testing.T) {
	in := clinicInterner(t)
	c := fkJoin(t, in)

	h1, err := Fingerprint(c, 1)
	require.NoError(t, err)
	h2, err := Fingerprint(c, 1)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := Fingerprint(c, 1)
	require.NoError(t, err)
	tgd, err := Materialize(c, 1, in, Metrics{})
	require.NoError(t, err)
	assert.Equal(t, h3, tgd.Hash)

	// A longer rule at another split is a different rule.
	other := fkJoin(t, in)
	other.JIAs = append(other.JIAs, core.NewJIA(ia(t, in, "lab", "value", 0)))
	h4, err := Fingerprint(other, 2)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h4)
}
