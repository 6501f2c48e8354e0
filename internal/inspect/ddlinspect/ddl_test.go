package ddlinspect

import (
	"context"
	"testing"

	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fran-cois/MATILDA/internal/core"
	"github.com/Fran-cois/MATILDA/internal/inspect"
	"github.com/Fran-cois/MATILDA/internal/parser"
)

func TestDDLInspector(t *testing.T) {
	schema, err := parser.NewParser().Parse(`
CREATE TABLE patient (id INT PRIMARY KEY, name VARCHAR(64));
CREATE TABLE lab (
    patient_id INT,
    value TEXT,
    CONSTRAINT fk FOREIGN KEY (patient_id) REFERENCES patient(id)
);
`)
	require.NoError(t, err)

	insp := New(schema)
	ctx := context.Background()

	tables, err := insp.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"lab", "patient"}, tables)

	fks, err := insp.ForeignKeys(ctx, "lab")
	require.NoError(t, err)
	require.Len(t, fks, 1)

	// There is no data behind a dump: rows are zero, distinct counts are
	// placeholders, and match counting is a backend failure.
	rows, err := insp.RowCount(ctx, "patient")
	require.NoError(t, err)
	assert.Zero(t, rows)

	distinct, err := insp.DistinctCount(ctx, "patient", "id")
	require.NoError(t, err)
	assert.Equal(t, int64(1), distinct)

	_, err = insp.CountBodyMatches(ctx, core.RuleQuery{})
	assert.True(t, inspect.ErrBackend.Is(err))

	_, err = insp.Columns(ctx, "absent")
	assert.True(t, inspect.ErrMissingTable.Is(err))

	_, err = insp.DistinctCount(ctx, "patient", "absent")
	assert.True(t, inspect.ErrMissingColumn.Is(err))
}
