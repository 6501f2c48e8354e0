// Package inspect defines the read-only database access the discovery
// engine runs against. Implementations are registered per driver name, the
// way dialect introspecters register themselves; the engine only ever sees
// the Inspector interface and treats every inspector failure as a
// data-level rejection of the rule at hand, never as a fatal error.
package inspect

import (
	"context"
	"database/sql"
	"sync"

	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/Fran-cois/MATILDA/internal/core"
)

var (
	// ErrMissingTable is returned when a table referenced by a query does
	// not exist in the backend.
	ErrMissingTable = errors.NewKind("inspect: unknown table %s")
	// ErrMissingColumn is returned when a column referenced by a query does
	// not exist in its table.
	ErrMissingColumn = errors.NewKind("inspect: unknown column %s.%s")
	// ErrBackend wraps transient backend failures (I/O, connection loss).
	ErrBackend = errors.NewKind("inspect: backend failure")
	// ErrUnknownDriver is returned by New for an unregistered driver name.
	ErrUnknownDriver = errors.NewKind("inspect: unsupported driver %s")
)

// Inspector is the narrow read-only view of a database the engine consumes.
// Implementations must be safe for concurrent read calls.
type Inspector interface {
	// Tables lists the base table names in a stable order.
	Tables(ctx context.Context) ([]string, error)
	// Columns lists the columns of a table in a stable order.
	Columns(ctx context.Context, table string) ([]*core.Column, error)
	// RowCount returns the tuple count of a table.
	RowCount(ctx context.Context, table string) (int64, error)
	// DistinctCount returns the number of distinct non-null values of an
	// attribute.
	DistinctCount(ctx context.Context, table, column string) (int64, error)
	// ForeignKeys lists the declared foreign keys of a table.
	ForeignKeys(ctx context.Context, table string) ([]*core.ForeignKey, error)
	// OverlapRatio returns |values(a) ∩ values(b)| / min(|values(a)|,
	// |values(b)|), in [0, 1]. Empty attributes yield 0.
	OverlapRatio(ctx context.Context, a, b core.Attribute) (float64, error)
	// CountBodyMatches counts the distinct body-variable bindings that
	// satisfy the body pattern of q.
	CountBodyMatches(ctx context.Context, q core.RuleQuery) (int64, error)
	// CountBothMatches counts the distinct body-variable bindings that
	// satisfy body and head together.
	CountBothMatches(ctx context.Context, q core.RuleQuery) (int64, error)
}

// Opener builds an inspector over an open connection pool.
type Opener func(db *sql.DB) Inspector

var (
	registry = make(map[string]Opener)
	mu       sync.RWMutex
)

// Register installs an opener under a driver name. Drivers register
// themselves from init, so importing a driver package is enough to make it
// available.
func Register(driver string, fn Opener) {
	mu.Lock()
	defer mu.Unlock()
	registry[driver] = fn
}

// New resolves a registered driver name to an inspector over db.
func New(driver string, db *sql.DB) (Inspector, error) {
	mu.RLock()
	fn, ok := registry[driver]
	mu.RUnlock()
	if !ok {
		return nil, ErrUnknownDriver.New(driver)
	}
	return fn(db), nil
}

// Drivers returns the registered driver names.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}

// Snapshot reads the full schema of the backend into a core.Database, with
// row counts cached and type classes assigned.
func Snapshot(ctx context.Context, insp Inspector, name string) (*core.Database, error) {
	tables, err := insp.Tables(ctx)
	if err != nil {
		return nil, err
	}
	db := &core.Database{Name: name}
	for _, t := range tables {
		cols, err := insp.Columns(ctx, t)
		if err != nil {
			return nil, err
		}
		fks, err := insp.ForeignKeys(ctx, t)
		if err != nil {
			return nil, err
		}
		rows, err := insp.RowCount(ctx, t)
		if err != nil {
			return nil, err
		}
		db.Tables = append(db.Tables, &core.Table{
			Name:        t,
			Columns:     cols,
			ForeignKeys: fks,
			RowCount:    rows,
		})
	}
	db.SortTables()
	db.ClassifyColumns()
	return db, nil
}
