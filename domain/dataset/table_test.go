package dataset

import (
	"math"
	"testing"

	"startupstats/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(
		NewNumericColumn("total_funding_usd", []float64{1000, math.NaN(), 3000}),
		NewCategoricalColumn("status", []string{"Success", "", "Failure"}, []bool{false, true, false}),
	)
	require.NoError(t, err)
	return table
}

func TestTableLookup(t *testing.T) {
	table := sampleTable(t)

	assert.Equal(t, 3, table.Rows())
	assert.Equal(t, 2, table.Width())
	assert.Equal(t, []string{"total_funding_usd", "status"}, table.Names())

	funding, err := table.Numeric("total_funding_usd")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, funding[0])
	assert.True(t, math.IsNaN(funding[1]))

	status, err := table.Categorical("status")
	require.NoError(t, err)
	v, ok := status.Text(0)
	assert.True(t, ok)
	assert.Equal(t, "Success", v)
	_, ok = status.Text(1)
	assert.False(t, ok)
	assert.Equal(t, 2, status.NonNull())
}

func TestTableMissingAndMistypedColumns(t *testing.T) {
	table := sampleTable(t)

	_, err := table.Numeric("founder_count")
	assert.Equal(t, errors.CodeMissingColumn, errors.GetCode(err))
	assert.Contains(t, err.Error(), "founder_count")

	_, err = table.Numeric("status")
	assert.Equal(t, errors.CodeMalformedData, errors.GetCode(err))

	_, err = table.Categorical("total_funding_usd")
	assert.Equal(t, errors.CodeMalformedData, errors.GetCode(err))
}

func TestNumericReturnsCopy(t *testing.T) {
	table := sampleTable(t)

	funding, err := table.Numeric("total_funding_usd")
	require.NoError(t, err)
	funding[0] = -1

	again, err := table.Numeric("total_funding_usd")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, again[0])
}

func TestAddColumn(t *testing.T) {
	table := sampleTable(t)

	derived := NewNumericColumn("is_success", []float64{1, 0, 0})
	require.NoError(t, table.AddColumn(derived))
	// identical re-derivation is accepted
	require.NoError(t, table.AddColumn(NewNumericColumn("is_success", []float64{1, 0, 0})))
	assert.Equal(t, 3, table.Width())

	err := table.AddColumn(NewNumericColumn("is_success", []float64{1, 1, 0}))
	assert.Equal(t, errors.CodeMalformedData, errors.GetCode(err))

	err = table.AddColumn(NewNumericColumn("short", []float64{1}))
	assert.Equal(t, errors.CodeMalformedData, errors.GetCode(err))
}

func TestHead(t *testing.T) {
	table := sampleTable(t)

	head := table.Head(2)
	assert.Equal(t, [][]string{{"1000", "Success"}, {"NaN", "NaN"}}, head)
	assert.Len(t, table.Head(10), 3)
}
