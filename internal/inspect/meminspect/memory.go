// Package meminspect provides an in-memory inspector backed by plain
// string-valued tables. It exists for tests and for embedding callers that
// already hold their data; the match counts are computed by nested-loop
// evaluation of the same queries the SQL inspectors push down.
package meminspect

import (
	"context"

	"github.com/Fran-cois/MATILDA/internal/core"
	"github.com/Fran-cois/MATILDA/internal/inspect"
)

// Database is a set of in-memory tables implementing inspect.Inspector.
// It is safe for concurrent reads once populated.
type Database struct {
	name   string
	tables map[string]*Table
	order  []string

	// OnCall, when set, runs before every inspector operation and may
	// return an error to inject backend failures in tests.
	OnCall func(op string) error
}

// Table is one in-memory relation. Values are stored as strings; equality
// of values is string equality.
type Table struct {
	name    string
	columns []*core.Column
	fks     []*core.ForeignKey
	rows    [][]string
	colIdx  map[string]int
}

// NewDatabase creates an empty in-memory database.
func NewDatabase(name string) *Database {
	return &Database{name: name, tables: make(map[string]*Table)}
}

// AddTable registers a table with its columns and rows. Each row must have
// one value per column.
func (d *Database) AddTable(name string, columns []*core.Column, rows [][]string) *Table {
	t := &Table{name: name, columns: columns, rows: rows, colIdx: make(map[string]int)}
	for i, c := range columns {
		t.colIdx[c.Name] = i
	}
	d.tables[name] = t
	d.order = append(d.order, name)
	return t
}

// AddForeignKey declares a foreign key on the table.
func (t *Table) AddForeignKey(column, refTable, refColumn string) *Table {
	t.fks = append(t.fks, &core.ForeignKey{
		Column:           column,
		ReferencedTable:  refTable,
		ReferencedColumn: refColumn,
	})
	return t
}

func (d *Database) hook(op string) error {
	if d.OnCall != nil {
		return d.OnCall(op)
	}
	return nil
}

func (d *Database) table(name string) (*Table, error) {
	t, ok := d.tables[name]
	if !ok {
		return nil, inspect.ErrMissingTable.New(name)
	}
	return t, nil
}

func (d *Database) Tables(_ context.Context) ([]string, error) {
	if err := d.hook("tables"); err != nil {
		return nil, err
	}
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out, nil
}

func (d *Database) Columns(_ context.Context, table string) ([]*core.Column, error) {
	if err := d.hook("columns"); err != nil {
		return nil, err
	}
	t, err := d.table(table)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Column, len(t.columns))
	for i, c := range t.columns {
		cc := *c
		out[i] = &cc
	}
	return out, nil
}

func (d *Database) RowCount(_ context.Context, table string) (int64, error) {
	if err := d.hook("rowcount"); err != nil {
		return 0, err
	}
	t, err := d.table(table)
	if err != nil {
		return 0, err
	}
	return int64(len(t.rows)), nil
}

func (d *Database) DistinctCount(_ context.Context, table, column string) (int64, error) {
	if err := d.hook("distinct"); err != nil {
		return 0, err
	}
	t, err := d.table(table)
	if err != nil {
		return 0, err
	}
	ci, ok := t.colIdx[column]
	if !ok {
		return 0, inspect.ErrMissingColumn.New(table, column)
	}
	seen := make(map[string]bool)
	for _, row := range t.rows {
		seen[row[ci]] = true
	}
	return int64(len(seen)), nil
}

func (d *Database) ForeignKeys(_ context.Context, table string) ([]*core.ForeignKey, error) {
	if err := d.hook("foreignkeys"); err != nil {
		return nil, err
	}
	t, err := d.table(table)
	if err != nil {
		return nil, err
	}
	return t.fks, nil
}

func (d *Database) OverlapRatio(_ context.Context, a, b core.Attribute) (float64, error) {
	if err := d.hook("overlap"); err != nil {
		return 0, err
	}
	va, err := d.values(a.Table, a.Column)
	if err != nil {
		return 0, err
	}
	vb, err := d.values(b.Table, b.Column)
	if err != nil {
		return 0, err
	}
	if len(va) == 0 || len(vb) == 0 {
		return 0, nil
	}
	shared := 0
	for v := range va {
		if vb[v] {
			shared++
		}
	}
	return float64(shared) / float64(min(len(va), len(vb))), nil
}

func (d *Database) values(table, column string) (map[string]bool, error) {
	t, err := d.table(table)
	if err != nil {
		return nil, err
	}
	ci, ok := t.colIdx[column]
	if !ok {
		return nil, inspect.ErrMissingColumn.New(table, column)
	}
	out := make(map[string]bool)
	for _, row := range t.rows {
		out[row[ci]] = true
	}
	return out, nil
}

func (d *Database) CountBodyMatches(_ context.Context, q core.RuleQuery) (int64, error) {
	if err := d.hook("bodymatches"); err != nil {
		return 0, err
	}
	return d.countMatches(q.Body, q.BodyVarRefs)
}

func (d *Database) CountBothMatches(_ context.Context, q core.RuleQuery) (int64, error) {
	if err := d.hook("bothmatches"); err != nil {
		return 0, err
	}
	return d.countMatches(q.Full, q.BodyVarRefs)
}

// countMatches enumerates row assignments for the atoms by nested loops and
// counts the distinct projections onto varRefs. Equality pairs are checked
// as soon as both sides are assigned, which prunes most of the product.
func (d *Database) countMatches(atoms []core.QueryAtom, varRefs []core.ColRef) (int64, error) {
	tables := make([]*Table, len(atoms))
	for i, a := range atoms {
		t, err := d.table(a.Table)
		if err != nil {
			return 0, err
		}
		for _, b := range a.Bindings {
			if _, ok := t.colIdx[b.Column]; !ok {
				return 0, inspect.ErrMissingColumn.New(a.Table, b.Column)
			}
		}
		tables[i] = t
	}

	pairs := core.EqualityPairs(atoms)
	assigned := make([][]string, len(atoms))
	seen := make(map[string]bool)

	var walk func(depth int)
	walk = func(depth int) {
		if depth == len(atoms) {
			key := ""
			for _, ref := range varRefs {
				key += assigned[ref.Atom][tables[ref.Atom].colIdx[ref.Column]] + "\x00"
			}
			seen[key] = true
			return
		}
	next:
		for _, row := range tables[depth].rows {
			assigned[depth] = row
			for _, p := range pairs {
				if p[0].Atom > depth || p[1].Atom > depth {
					continue
				}
				lv := assigned[p[0].Atom][tables[p[0].Atom].colIdx[p[0].Column]]
				rv := assigned[p[1].Atom][tables[p[1].Atom].colIdx[p[1].Column]]
				if lv != rv {
					continue next
				}
			}
			walk(depth + 1)
		}
		assigned[depth] = nil
	}
	walk(0)
	return int64(len(seen)), nil
}
