package inspect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fran-cois/MATILDA/internal/core"
)

func TestMatchCountSQL(t *testing.T) {
	atoms := []core.QueryAtom{
		{Table: "lab", Bindings: []core.ColumnBinding{{Column: "patient_id", Var: 0}}},
		{Table: "patient", Bindings: []core.ColumnBinding{
			{Column: "id", Var: 0},
			{Column: "name", Var: 1},
		}},
	}
	refs := []core.ColRef{{Atom: 0, Column: "patient_id"}}

	sql := MatchCountSQL(atoms, refs, BacktickQuoter)
	assert.Equal(t,
		"SELECT COUNT(*) FROM (SELECT DISTINCT a0.`patient_id` AS v0 "+
			"FROM `lab` AS a0, `patient` AS a1 "+
			"WHERE a0.`patient_id` = a1.`id`) AS m",
		sql)
}

func TestMatchCountSQLNoJoins(t *testing.T) {
	atoms := []core.QueryAtom{
		{Table: "t", Bindings: []core.ColumnBinding{{Column: "x", Var: 0}}},
	}
	refs := []core.ColRef{{Atom: 0, Column: "x"}}

	sql := MatchCountSQL(atoms, refs, DoubleQuoter)
	assert.Equal(t,
		`SELECT COUNT(*) FROM (SELECT DISTINCT a0."x" AS v0 FROM "t" AS a0) AS m`,
		sql)
}

func TestQuoters(t *testing.T) {
	assert.Equal(t, "`we``ird`", BacktickQuoter("we`ird"))
	assert.Equal(t, `"we""ird"`, DoubleQuoter(`we"ird`))
}

// flaky fails every operation a set number of times before succeeding.
type flaky struct {
	failures int
	calls    int
	permErr  error
}

func (f *flaky) step() error {
	f.calls++
	if f.permErr != nil {
		return f.permErr
	}
	if f.calls <= f.failures {
		return ErrBackend.New()
	}
	return nil
}

func (f *flaky) Tables(context.Context) ([]string, error) {
	if err := f.step(); err != nil {
		return nil, err
	}
	return []string{"t"}, nil
}

func (f *flaky) Columns(context.Context, string) ([]*core.Column, error) {
	if err := f.step(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *flaky) RowCount(context.Context, string) (int64, error) {
	if err := f.step(); err != nil {
		return 0, err
	}
	return 1, nil
}

func (f *flaky) DistinctCount(context.Context, string, string) (int64, error) {
	return 0, f.step()
}

func (f *flaky) ForeignKeys(context.Context, string) ([]*core.ForeignKey, error) {
	return nil, f.step()
}

func (f *flaky) OverlapRatio(context.Context, core.Attribute, core.Attribute) (float64, error) {
	return 0, f.step()
}

func (f *flaky) CountBodyMatches(context.Context, core.RuleQuery) (int64, error) {
	return 0, f.step()
}

func (f *flaky) CountBothMatches(context.Context, core.RuleQuery) (int64, error) {
	return 0, f.step()
}

func TestRetryRecoversOneFailure(t *testing.T) {
	f := &flaky{failures: 1}
	insp := WithRetry(f)

	tables, err := insp.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, tables)
	assert.Equal(t, 2, f.calls)
}

func TestRetryGivesUpAfterSecondFailure(t *testing.T) {
	f := &flaky{failures: 2}
	insp := WithRetry(f)

	_, err := insp.Tables(context.Background())
	require.Error(t, err)
	assert.True(t, ErrBackend.Is(err))
	assert.Equal(t, 2, f.calls)
}

func TestRetrySkipsSchemaErrors(t *testing.T) {
	f := &flaky{permErr: ErrMissingTable.New("gone")}
	insp := WithRetry(f)

	_, err := insp.Tables(context.Background())
	require.Error(t, err)
	assert.True(t, ErrMissingTable.Is(err))
	assert.Equal(t, 1, f.calls, "schema errors are not retried")
}

func TestRegistry(t *testing.T) {
	_, err := New("no-such-driver", nil)
	require.Error(t, err)
	assert.True(t, ErrUnknownDriver.Is(err))
}
