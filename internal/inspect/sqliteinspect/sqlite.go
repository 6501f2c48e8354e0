// Package sqliteinspect implements the inspector over a SQLite database
// opened through the cgo-free modernc driver. Schema facts come from
// sqlite_master and the table_info/foreign_key_list pragmas; counting
// queries are pushed down like the MySQL inspector does.
package sqliteinspect

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Fran-cois/MATILDA/internal/core"
	"github.com/Fran-cois/MATILDA/internal/inspect"
)

func init() {
	inspect.Register("sqlite", New)
}

type inspector struct {
	db *sql.DB
}

// New builds a SQLite inspector over an open connection pool.
func New(db *sql.DB) inspect.Inspector {
	return &inspector{db: db}
}

func (i *inspector) Tables(ctx context.Context) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, inspect.ErrBackend.Wrap(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, inspect.ErrBackend.Wrap(err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (i *inspector) Columns(ctx context.Context, table string) ([]*core.Column, error) {
	rows, err := i.db.QueryContext(ctx,
		"SELECT name, type, pk FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, inspect.ErrBackend.Wrap(err)
	}
	defer rows.Close()

	var out []*core.Column
	for rows.Next() {
		var name, rawType string
		var pk int
		if err := rows.Scan(&name, &rawType, &pk); err != nil {
			return nil, inspect.ErrBackend.Wrap(err)
		}
		out = append(out, &core.Column{Name: name, RawType: rawType, PrimaryKey: pk > 0})
	}
	if err := rows.Err(); err != nil {
		return nil, inspect.ErrBackend.Wrap(err)
	}
	if len(out) == 0 {
		return nil, inspect.ErrMissingTable.New(table)
	}
	return out, nil
}

func (i *inspector) ForeignKeys(ctx context.Context, table string) ([]*core.ForeignKey, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table)
	if err != nil {
		return nil, inspect.ErrBackend.Wrap(err)
	}
	defer rows.Close()

	var out []*core.ForeignKey
	for rows.Next() {
		var refTable, from string
		var to sql.NullString
		if err := rows.Scan(&refTable, &from, &to); err != nil {
			return nil, inspect.ErrBackend.Wrap(err)
		}
		fk := &core.ForeignKey{Column: from, ReferencedTable: refTable, ReferencedColumn: to.String}
		if !to.Valid {
			// An omitted target column references the primary key.
			fk.ReferencedColumn = i.primaryKeyColumn(ctx, refTable)
		}
		out = append(out, fk)
	}
	return out, rows.Err()
}

func (i *inspector) primaryKeyColumn(ctx context.Context, table string) string {
	var name string
	_ = i.db.QueryRowContext(ctx,
		"SELECT name FROM pragma_table_info(?) WHERE pk = 1", table).Scan(&name)
	return name
}

func (i *inspector) RowCount(ctx context.Context, table string) (int64, error) {
	return i.countQuery(ctx, inspect.RowCountSQL(table, inspect.DoubleQuoter), table)
}

func (i *inspector) DistinctCount(ctx context.Context, table, column string) (int64, error) {
	return i.countQuery(ctx, inspect.DistinctSQL(table, column, inspect.DoubleQuoter), table)
}

func (i *inspector) OverlapRatio(ctx context.Context, a, b core.Attribute) (float64, error) {
	if a.Distinct == 0 || b.Distinct == 0 {
		return 0, nil
	}
	shared, err := i.countQuery(ctx, inspect.OverlapSQL(a, b, inspect.DoubleQuoter), a.Table)
	if err != nil {
		return 0, err
	}
	return float64(shared) / float64(min(a.Distinct, b.Distinct)), nil
}

func (i *inspector) CountBodyMatches(ctx context.Context, q core.RuleQuery) (int64, error) {
	return i.countQuery(ctx, inspect.MatchCountSQL(q.Body, q.BodyVarRefs, inspect.DoubleQuoter), "")
}

func (i *inspector) CountBothMatches(ctx context.Context, q core.RuleQuery) (int64, error) {
	return i.countQuery(ctx, inspect.MatchCountSQL(q.Full, q.BodyVarRefs, inspect.DoubleQuoter), "")
}

func (i *inspector) countQuery(ctx context.Context, query, table string) (int64, error) {
	var n int64
	if err := i.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		if table != "" && strings.Contains(strings.ToLower(err.Error()), "no such table") {
			return 0, inspect.ErrMissingTable.New(table)
		}
		return 0, inspect.ErrBackend.Wrap(err)
	}
	return n, nil
}
