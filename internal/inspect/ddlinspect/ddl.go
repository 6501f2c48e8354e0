// Package ddlinspect serves schema facts from a parsed CREATE TABLE dump.
// There is no data behind it: distinct counts are placeholders so
// attributes do not look empty, overlap evidence is always absent (foreign
// keys remain the only compatibility signal), and match counting reports a
// backend failure. It powers schema-only runs that produce the
// compatibility and graph side files without a live database.
package ddlinspect

import (
	"context"

	"github.com/Fran-cois/MATILDA/internal/core"
	"github.com/Fran-cois/MATILDA/internal/inspect"
)

type inspector struct {
	db *core.Database
}

// New builds an inspector over an already-parsed schema.
func New(db *core.Database) inspect.Inspector {
	return &inspector{db: db}
}

func (i *inspector) Tables(_ context.Context) ([]string, error) {
	out := make([]string, len(i.db.Tables))
	for n, t := range i.db.Tables {
		out[n] = t.Name
	}
	return out, nil
}

func (i *inspector) Columns(_ context.Context, table string) ([]*core.Column, error) {
	t := i.db.FindTable(table)
	if t == nil {
		return nil, inspect.ErrMissingTable.New(table)
	}
	return t.Columns, nil
}

func (i *inspector) RowCount(_ context.Context, table string) (int64, error) {
	if i.db.FindTable(table) == nil {
		return 0, inspect.ErrMissingTable.New(table)
	}
	return 0, nil
}

func (i *inspector) DistinctCount(_ context.Context, table, column string) (int64, error) {
	t := i.db.FindTable(table)
	if t == nil {
		return 0, inspect.ErrMissingTable.New(table)
	}
	if t.FindColumn(column) == nil {
		return 0, inspect.ErrMissingColumn.New(table, column)
	}
	// A placeholder count keeps declared attributes joinable by foreign
	// key evidence.
	return 1, nil
}

func (i *inspector) ForeignKeys(_ context.Context, table string) ([]*core.ForeignKey, error) {
	t := i.db.FindTable(table)
	if t == nil {
		return nil, inspect.ErrMissingTable.New(table)
	}
	return t.ForeignKeys, nil
}

func (i *inspector) OverlapRatio(context.Context, core.Attribute, core.Attribute) (float64, error) {
	return 0, nil
}

func (i *inspector) CountBodyMatches(context.Context, core.RuleQuery) (int64, error) {
	return 0, inspect.ErrBackend.New()
}

func (i *inspector) CountBothMatches(context.Context, core.RuleQuery) (int64, error) {
	return 0, inspect.ErrBackend.New()
}
