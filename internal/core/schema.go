// Package core holds the value objects shared by every stage of a discovery
// run: the relational schema model read from an inspector, the attribute
// universe with its interner, and the joined-indexed-attribute (JIA) model
// that candidate rules are made of. Everything in this package is immutable
// after construction and safe to share by reference.
package core

import (
	"sort"
	"strings"
)

// Sep is the column-qualification delimiter used in attribute keys and in
// predicate relation names.
const Sep = "___sep___"

// Database is a snapshot of the schema visible to one discovery run.
type Database struct {
	Name   string   `json:"name,omitempty"`
	Tables []*Table `json:"tables"`
}

// Table describes a single relation and its foreign keys.
type Table struct {
	Name        string        `json:"name"`
	Columns     []*Column     `json:"columns"`
	ForeignKeys []*ForeignKey `json:"foreignKeys,omitempty"`
	// RowCount is the tuple count cached at snapshot time.
	RowCount int64 `json:"rowCount"`
}

// Column describes one attribute position of a table.
type Column struct {
	Name string `json:"name"`
	// RawType is the backend-reported type, e.g. "varchar(255)" or "INTEGER".
	RawType string `json:"rawType,omitempty"`
	// Class is the coarse type class the compatibility analysis works on.
	Class TypeClass `json:"class"`
	// PrimaryKey marks columns that are part of the table's primary key.
	PrimaryKey bool `json:"primaryKey,omitempty"`
}

// ForeignKey is a declared reference from a local column to a column of
// another (or the same) table.
type ForeignKey struct {
	Column           string `json:"column"`
	ReferencedTable  string `json:"referencedTable"`
	ReferencedColumn string `json:"referencedColumn"`
}

// TypeClass is the coarse type partition used when deciding whether two
// attributes may share a variable. Fine-grained SQL types map onto these
// three classes.
type TypeClass string

const (
	ClassNumeric    TypeClass = "numeric"
	ClassTextual    TypeClass = "textual"
	ClassIdentifier TypeClass = "identifier"
)

// FindTable looks up a table by name, case-insensitively.
func (d *Database) FindTable(name string) *Table {
	for _, t := range d.Tables {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// FindColumn looks up a column by name, case-insensitively.
func (t *Table) FindColumn(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// SortTables orders tables by name so that every run over the same schema
// sees the same attribute numbering. Columns keep the order the backend
// reported them in.
func (d *Database) SortTables() {
	sort.Slice(d.Tables, func(i, j int) bool { return d.Tables[i].Name < d.Tables[j].Name })
}

// ClassifyColumns assigns the coarse type class to every column. A column is
// identifier-typed when it is part of a primary key or of either end of a
// declared foreign key; otherwise the raw type decides between numeric and
// textual.
func (d *Database) ClassifyColumns() {
	fkCols := make(map[string]bool)
	for _, t := range d.Tables {
		for _, fk := range t.ForeignKeys {
			fkCols[t.Name+Sep+fk.Column] = true
			fkCols[fk.ReferencedTable+Sep+fk.ReferencedColumn] = true
		}
	}
	for _, t := range d.Tables {
		for _, c := range t.Columns {
			switch {
			case c.PrimaryKey || fkCols[t.Name+Sep+c.Name]:
				c.Class = ClassIdentifier
			case NumericRawType(c.RawType):
				c.Class = ClassNumeric
			default:
				c.Class = ClassTextual
			}
		}
	}
}

// NumericRawType reports whether a backend-reported type string denotes a
// numeric column. The match is deliberately loose: every backend spells
// these differently and an identifier class has already been carved out.
func NumericRawType(raw string) bool {
	raw = strings.ToLower(raw)
	if i := strings.IndexByte(raw, '('); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSpace(raw)
	switch raw {
	case "int", "integer", "tinyint", "smallint", "mediumint", "bigint",
		"float", "double", "real", "decimal", "numeric", "bit", "serial",
		"year", "int2", "int4", "int8", "number":
		return true
	}
	return false
}
