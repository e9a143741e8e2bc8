package xlchunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe_Fixture(t *testing.T) {
	path := createFixtureXLSX(t, "describe_fixture.xlsx")
	output, err := Describe(path)
	require.NoError(t, err)

	assert.Contains(t, output, "File: "+path)
	assert.Contains(t, output, "Format: Excel2007 (streaming: true)")
	assert.Contains(t, output, "Range: A1:E10 (10 rows x 5 columns)")
	assert.Contains(t, output, "Headers:")
	assert.Contains(t, output, "  A: Colonne A")
	assert.Contains(t, output, "  E: Colonne E")
	// headers are listed in column order
	assert.Less(t, strings.Index(output, "A: Colonne A"), strings.Index(output, "E: Colonne E"))
}

func TestDescribe_CSV(t *testing.T) {
	output, err := Describe(createFixtureCSV(t, "describe_fixture.csv"))
	require.NoError(t, err)
	assert.Contains(t, output, "Format: CSV")
	assert.Contains(t, output, "(10 rows x 5 columns)")
}

func TestDescribe_BadPath(t *testing.T) {
	output, err := Describe("/nonexistent/workbook.xlsx")
	assert.ErrorIs(t, err, ErrFileUnreadable)
	assert.Empty(t, output)
}

func TestDescribe_TopLevelFunction(t *testing.T) {
	path := createFixtureXLSX(t, "describe_top_level.xlsx")

	output1, err1 := Describe(path)
	require.NoError(t, err1)

	r := loadedReader(t, path)
	output2, err2 := r.Describe()
	require.NoError(t, err2)

	assert.Equal(t, output1, output2)
}

func TestDescribe_NotLoaded(t *testing.T) {
	_, err := NewReader().Describe()
	assert.ErrorIs(t, err, ErrNotLoaded)
}
