package cg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fran-cois/MATILDA/internal/core"
)

func clinicInterner() *core.Interner {
	db := &core.Database{
		Tables: []*core.Table{
			{
				Name: "lab",
				Columns: []*core.Column{
					{Name: "patient_id", RawType: "int"},
					{Name: "value", RawType: "text"},
				},
			},
			{
				Name: "patient",
				Columns: []*core.Column{
					{Name: "id", RawType: "int", PrimaryKey: true},
					{Name: "name", RawType: "varchar(64)"},
				},
			},
		},
	}
	db.Tables[0].ForeignKeys = []*core.ForeignKey{
		{Column: "patient_id", ReferencedTable: "patient", ReferencedColumn: "id"},
	}
	db.SortTables()
	db.ClassifyColumns()
	return core.NewInterner(db)
}

// clinicCompatible makes lab.patient_id and patient.id the only
// compatible pair.
func clinicCompatible(in *core.Interner) func(a, b core.AttrID) bool {
	labPID, _ := in.Lookup("lab", "patient_id")
	patID, _ := in.Lookup("patient", "id")
	return func(a, b core.AttrID) bool {
		if a == b {
			return true
		}
		return (a == labPID && b == patID) || (a == patID && b == labPID)
	}
}

func TestBuildRootsAreJoins(t *testing.T) {
	in := clinicInterner()
	g, err := Build(in, clinicCompatible(in), Config{MaxOccurrence: 1, MaxTables: 2})
	require.NoError(t, err)

	require.NotEmpty(t, g.Roots)
	for _, root := range g.Roots {
		j := g.Nodes[root]
		assert.GreaterOrEqual(t, j.Len(), 2, "roots join at least two positions")
		for _, o := range j.Occurrences(in) {
			assert.Equal(t, 0, o.Occurrence, "single-occurrence roots sit at occurrence zero")
		}
	}
}

func TestBuildEdgesConnectAndStayWithinBudget(t *testing.T) {
	in := clinicInterner()
	g, err := Build(in, clinicCompatible(in), Config{MaxOccurrence: 2, MaxTables: 2})
	require.NoError(t, err)

	for from, adj := range g.Edges {
		fromJIA := g.Nodes[from]
		for _, to := range adj {
			toJIA := g.Nodes[to]
			for _, m := range toJIA.Members() {
				assert.False(t, fromJIA.Contains(m), "edge endpoints share no indexed attribute")
			}

			union := make(map[core.TableOcc]bool)
			shared := false
			fromOccs := make(map[core.TableOcc]bool)
			for _, o := range fromJIA.Occurrences(in) {
				union[o] = true
				fromOccs[o] = true
			}
			for _, o := range toJIA.Occurrences(in) {
				if fromOccs[o] {
					shared = true
				}
				union[o] = true
			}
			assert.True(t, shared, "edges connect through a common table occurrence")
			assert.LessOrEqual(t, len(union), 2)
		}
	}
}

func TestBuildOccurrenceBound(t *testing.T) {
	in := clinicInterner()
	g, err := Build(in, clinicCompatible(in), Config{MaxOccurrence: 1, MaxTables: 3})
	require.NoError(t, err)

	for _, j := range g.Nodes {
		for _, m := range j.Members() {
			assert.Equal(t, 0, m.Occurrence())
		}
	}
}

func TestBuildEmptyGraph(t *testing.T) {
	in := clinicInterner()
	none := func(a, b core.AttrID) bool { return a == b }

	_, err := Build(in, none, Config{MaxOccurrence: 2, MaxTables: 3})
	require.Error(t, err)
	assert.True(t, ErrGraphEmpty.Is(err))
}

func TestBuildDeterministic(t *testing.T) {
	in := clinicInterner()
	g1, err := Build(in, clinicCompatible(in), Config{MaxOccurrence: 2, MaxTables: 3})
	require.NoError(t, err)
	g2, err := Build(in, clinicCompatible(in), Config{MaxOccurrence: 2, MaxTables: 3})
	require.NoError(t, err)

	require.Equal(t, len(g1.Nodes), len(g2.Nodes))
	for i := range g1.Nodes {
		assert.Equal(t, g1.Nodes[i].Key(), g2.Nodes[i].Key())
	}
	assert.Equal(t, g1.Edges, g2.Edges)
	assert.Equal(t, g1.Roots, g2.Roots)
}

func TestMetrics(t *testing.T) {
	in := clinicInterner()
	g, err := Build(in, clinicCompatible(in), Config{MaxOccurrence: 1, MaxTables: 2})
	require.NoError(t, err)

	m := g.Metrics()
	assert.Equal(t, len(g.Nodes), m.Nodes)
	assert.Equal(t, len(g.Roots), m.Roots)
	assert.Positive(t, m.Edges)
}
