// Package mysqlinspect implements the inspector over a live MySQL, MariaDB
// or TiDB connection. Schema facts come from information_schema; value
// statistics and match counts are pushed down as SQL so the data never
// crosses the wire.
package mysqlinspect

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Fran-cois/MATILDA/internal/core"
	"github.com/Fran-cois/MATILDA/internal/inspect"
)

func init() {
	inspect.Register("mysql", New)
}

type inspector struct {
	db *sql.DB
}

// New builds a MySQL inspector over an open connection pool. The pool's
// current schema (DATABASE()) scopes every catalog query.
func New(db *sql.DB) inspect.Inspector {
	return &inspector{db: db}
}

func (i *inspector) Tables(ctx context.Context) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name
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
	rows, err := i.db.QueryContext(ctx, `
		SELECT c.column_name, c.column_type, c.column_key
		FROM information_schema.columns c
		WHERE c.table_schema = DATABASE() AND c.table_name = ?
		ORDER BY c.ordinal_position
	`, table)
	if err != nil {
		return nil, inspect.ErrBackend.Wrap(err)
	}
	defer rows.Close()

	var out []*core.Column
	for rows.Next() {
		var name, colType, colKey sql.NullString
		if err := rows.Scan(&name, &colType, &colKey); err != nil {
			return nil, inspect.ErrBackend.Wrap(err)
		}
		out = append(out, &core.Column{
			Name:       name.String,
			RawType:    colType.String,
			PrimaryKey: colKey.String == "PRI",
		})
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
	rows, err := i.db.QueryContext(ctx, `
		SELECT k.column_name, k.referenced_table_name, k.referenced_column_name
		FROM information_schema.key_column_usage k
		WHERE k.table_schema = DATABASE()
		  AND k.table_name = ?
		  AND k.referenced_table_name IS NOT NULL
		ORDER BY k.constraint_name, k.ordinal_position
	`, table)
	if err != nil {
		return nil, inspect.ErrBackend.Wrap(err)
	}
	defer rows.Close()

	var out []*core.ForeignKey
	for rows.Next() {
		var col, refTable, refCol string
		if err := rows.Scan(&col, &refTable, &refCol); err != nil {
			return nil, inspect.ErrBackend.Wrap(err)
		}
		out = append(out, &core.ForeignKey{
			Column:           col,
			ReferencedTable:  refTable,
			ReferencedColumn: refCol,
		})
	}
	return out, rows.Err()
}

func (i *inspector) RowCount(ctx context.Context, table string) (int64, error) {
	return i.countQuery(ctx, inspect.RowCountSQL(table, inspect.BacktickQuoter), table)
}

func (i *inspector) DistinctCount(ctx context.Context, table, column string) (int64, error) {
	return i.countQuery(ctx, inspect.DistinctSQL(table, column, inspect.BacktickQuoter), table)
}

func (i *inspector) OverlapRatio(ctx context.Context, a, b core.Attribute) (float64, error) {
	if a.Distinct == 0 || b.Distinct == 0 {
		return 0, nil
	}
	shared, err := i.countQuery(ctx, inspect.OverlapSQL(a, b, inspect.BacktickQuoter), a.Table)
	if err != nil {
		return 0, err
	}
	return float64(shared) / float64(min(a.Distinct, b.Distinct)), nil
}

func (i *inspector) CountBodyMatches(ctx context.Context, q core.RuleQuery) (int64, error) {
	return i.countQuery(ctx, inspect.MatchCountSQL(q.Body, q.BodyVarRefs, inspect.BacktickQuoter), "")
}

func (i *inspector) CountBothMatches(ctx context.Context, q core.RuleQuery) (int64, error) {
	return i.countQuery(ctx, inspect.MatchCountSQL(q.Full, q.BodyVarRefs, inspect.BacktickQuoter), "")
}

func (i *inspector) countQuery(ctx context.Context, query, table string) (int64, error) {
	var n int64
	if err := i.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		if table != "" && missingObject(err) {
			return 0, inspect.ErrMissingTable.New(table)
		}
		return 0, inspect.ErrBackend.Wrap(err)
	}
	return n, nil
}

// missingObject spots the MySQL "table doesn't exist" and "unknown column"
// error texts without depending on driver error codes.
func missingObject(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "doesn't exist") || strings.Contains(msg, "unknown column")
}
