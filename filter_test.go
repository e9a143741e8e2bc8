package xlchunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersOnly(t *testing.T) {
	f := HeadersOnly{}
	assert.True(t, f.ShouldInclude(1))
	assert.False(t, f.ShouldInclude(2))
	assert.False(t, f.ShouldInclude(1000))
	assert.Equal(t, 1, f.LastRow())
}

func TestChunkWindow_Bounds(t *testing.T) {
	w := NewChunkWindow(5, 3)

	tests := []struct {
		row  int
		want bool
	}{
		{1, true},
		{2, false},
		{4, false},
		{5, true},
		{7, true},
		{8, true},
		{9, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.ShouldInclude(tt.row), "row %d", tt.row)
	}
	assert.Equal(t, 5, w.Start())
	assert.Equal(t, 8, w.LastRow())
}

func TestChunkWindow_SetWindow(t *testing.T) {
	w := NewChunkWindow(1, 20)
	w.SetWindow(21, 20)

	assert.False(t, w.ShouldInclude(20))
	assert.True(t, w.ShouldInclude(21))
	assert.True(t, w.ShouldInclude(41))
	assert.False(t, w.ShouldInclude(42))
	assert.True(t, w.ShouldInclude(1))
}

func TestChunkWindow_IsBounded(t *testing.T) {
	var f RowFilter = NewChunkWindow(10, 5)
	assert.Equal(t, 15, stopAfter(f))
	assert.Equal(t, 1, stopAfter(HeadersOnly{}))
	assert.Equal(t, 0, stopAfter(nil))
}

func TestExprFilter(t *testing.T) {
	f, err := NewExprFilter("row >= 10 && row < 12")
	require.NoError(t, err)
	assert.Equal(t, "row >= 10 && row < 12", f.String())

	assert.True(t, f.ShouldInclude(1), "header row is always accepted")
	assert.False(t, f.ShouldInclude(9))
	assert.True(t, f.ShouldInclude(10))
	assert.True(t, f.ShouldInclude(11))
	assert.False(t, f.ShouldInclude(12))
	assert.Equal(t, 0, stopAfter(f))
}

func TestExprFilter_CompileErrors(t *testing.T) {
	_, err := NewExprFilter("row +")
	assert.Error(t, err)

	_, err = NewExprFilter("row * 2")
	assert.Error(t, err, "non-boolean expression")

	_, err = NewExprFilter("column == 1")
	assert.Error(t, err, "unknown variable")
}
