package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDatabase() *Database {
	db := &Database{
		Name: "clinic",
		Tables: []*Table{
			{
				Name: "patient",
				Columns: []*Column{
					{Name: "id", RawType: "int", PrimaryKey: true},
					{Name: "name", RawType: "varchar(64)"},
				},
				RowCount: 3,
			},
			{
				Name: "lab",
				Columns: []*Column{
					{Name: "patient_id", RawType: "int"},
					{Name: "value", RawType: "text"},
				},
				ForeignKeys: []*ForeignKey{
					{Column: "patient_id", ReferencedTable: "patient", ReferencedColumn: "id"},
				},
				RowCount: 3,
			},
		},
	}
	db.SortTables()
	db.ClassifyColumns()
	return db
}

func TestClassifyColumns(t *testing.T) {
	db := testDatabase()

	patient := db.FindTable("patient")
	require.NotNil(t, patient)
	assert.Equal(t, ClassIdentifier, patient.FindColumn("id").Class)
	assert.Equal(t, ClassTextual, patient.FindColumn("name").Class)

	lab := db.FindTable("lab")
	require.NotNil(t, lab)
	assert.Equal(t, ClassIdentifier, lab.FindColumn("patient_id").Class)
	assert.Equal(t, ClassTextual, lab.FindColumn("value").Class)
}

func TestNumericRawType(t *testing.T) {
	assert.True(t, NumericRawType("INT"))
	assert.True(t, NumericRawType("bigint(20)"))
	assert.True(t, NumericRawType("decimal(10,2)"))
	assert.False(t, NumericRawType("varchar(255)"))
	assert.False(t, NumericRawType("text"))
}

func TestInternerAssignsStableIDs(t *testing.T) {
	in := NewInterner(testDatabase())
	require.Equal(t, 4, in.Len())

	// Tables are sorted, so lab columns intern before patient columns.
	id, ok := in.Lookup("lab", "patient_id")
	require.True(t, ok)
	assert.Equal(t, AttrID(0), id)

	id, ok = in.Lookup("patient", "id")
	require.True(t, ok)
	assert.Equal(t, "patient___sep___id", in.Attr(id).Key())
	assert.Equal(t, int64(3), in.Attr(id).Rows)

	_, ok = in.Lookup("patient", "missing")
	assert.False(t, ok)
}

func TestIndexedAttrPacking(t *testing.T) {
	ia := NewIndexedAttr(AttrID(7), 2)
	assert.Equal(t, AttrID(7), ia.Attr())
	assert.Equal(t, 2, ia.Occurrence())

	ia = NewIndexedAttr(AttrID(0), 0)
	assert.Equal(t, AttrID(0), ia.Attr())
	assert.Equal(t, 0, ia.Occurrence())
}

func TestJIACanonicalForm(t *testing.T) {
	a := NewIndexedAttr(AttrID(1), 0)
	b := NewIndexedAttr(AttrID(3), 1)

	j1 := NewJIA(a, b)
	j2 := NewJIA(b, a)
	j3 := NewJIA(b, a, a)

	assert.True(t, j1.Equal(j2))
	assert.Equal(t, j1.Key(), j2.Key())
	assert.Equal(t, 2, j3.Len())
	assert.True(t, j1.Equal(j3))

	assert.True(t, j1.Contains(a))
	assert.False(t, j1.Contains(NewIndexedAttr(AttrID(2), 0)))
}

func TestJIAOccurrences(t *testing.T) {
	in := NewInterner(testDatabase())
	labPID, _ := in.Lookup("lab", "patient_id")
	patID, _ := in.Lookup("patient", "id")

	j := NewJIA(NewIndexedAttr(labPID, 0), NewIndexedAttr(patID, 0))
	occs := j.Occurrences(in)
	require.Len(t, occs, 2)
	assert.Contains(t, occs, TableOcc{Table: "lab", Occurrence: 0})
	assert.Contains(t, occs, TableOcc{Table: "patient", Occurrence: 0})
}

func TestEqualityPairs(t *testing.T) {
	atoms := []QueryAtom{
		{Table: "lab", Bindings: []ColumnBinding{{Column: "patient_id", Var: 0}}},
		{Table: "patient", Bindings: []ColumnBinding{{Column: "id", Var: 0}, {Column: "name", Var: 1}}},
	}
	pairs := EqualityPairs(atoms)
	require.Len(t, pairs, 1)
	assert.Equal(t, ColRef{Atom: 0, Column: "patient_id"}, pairs[0][0])
	assert.Equal(t, ColRef{Atom: 1, Column: "id"}, pairs[0][1])
}
