package mysqlinspect

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/Fran-cois/MATILDA/internal/core"
	"github.com/Fran-cois/MATILDA/internal/inspect"
)

func setupMySQL(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	mysqlContainer, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(mysqlContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := mysqlContainer.ConnectionString(ctx)
	require.NoError(t, err, "failed to get connection string")

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE patient (id INT PRIMARY KEY, name VARCHAR(64))`,
		`CREATE TABLE lab (
			patient_id INT,
			value TEXT,
			CONSTRAINT fk_lab_patient FOREIGN KEY (patient_id) REFERENCES patient(id)
		)`,
		`INSERT INTO patient VALUES (1, 'ada'), (2, 'grace'), (3, 'edsger')`,
		`INSERT INTO lab VALUES (1, '7.1'), (2, '6.4'), (3, '5.9')`,
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	return db
}

func TestMySQLInspectorIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupMySQL(t)
	insp := New(db)
	ctx := context.Background()

	tables, err := insp.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"lab", "patient"}, tables)

	cols, err := insp.Columns(ctx, "patient")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Name)
	assert.True(t, cols[0].PrimaryKey)

	fks, err := insp.ForeignKeys(ctx, "lab")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "patient_id", fks[0].Column)
	assert.Equal(t, "patient", fks[0].ReferencedTable)
	assert.Equal(t, "id", fks[0].ReferencedColumn)

	rows, err := insp.RowCount(ctx, "lab")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rows)

	distinct, err := insp.DistinctCount(ctx, "patient", "id")
	require.NoError(t, err)
	assert.Equal(t, int64(3), distinct)

	ratio, err := insp.OverlapRatio(ctx,
		core.Attribute{Table: "lab", Column: "patient_id", Distinct: 3},
		core.Attribute{Table: "patient", Column: "id", Distinct: 3})
	require.NoError(t, err)
	assert.Equal(t, 1.0, ratio)

	q := core.RuleQuery{
		Body: []core.QueryAtom{
			{Table: "lab", Bindings: []core.ColumnBinding{{Column: "patient_id", Var: 0}}},
			{Table: "patient", Bindings: []core.ColumnBinding{{Column: "id", Var: 0}}},
		},
		Full: []core.QueryAtom{
			{Table: "lab", Bindings: []core.ColumnBinding{{Column: "patient_id", Var: 0}}},
			{Table: "patient", Bindings: []core.ColumnBinding{
				{Column: "id", Var: 0},
				{Column: "name", Var: 1},
			}},
		},
		BodyVarRefs: []core.ColRef{{Atom: 0, Column: "patient_id"}},
		AnchorTable: "patient",
	}

	body, err := insp.CountBodyMatches(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(3), body)

	both, err := insp.CountBothMatches(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(3), both)

	_, err = insp.RowCount(ctx, "absent")
	assert.True(t, inspect.ErrMissingTable.Is(err))
}
