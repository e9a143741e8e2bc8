package xlchunk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCellValueType(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  CellType
	}{
		{"zero", "0", CellNumeric},
		{"single digit", "5", CellNumeric},
		{"integer", "123", CellNumeric},
		{"leading zero", "05", CellString},
		{"postal code", "0475", CellString},
		{"zero decimal", "0.5", CellString},
		{"decimal", "12.5", CellNumeric},
		{"negative", "-5", CellNumeric},
		{"exponent", "1e3", CellNumeric},
		{"leading space", " 42", CellNumeric},
		{"text", "abc", CellString},
		{"mixed", "12abc", CellString},
		{"empty", "", CellString},
		{"int", 12, CellNumeric},
		{"int zero", 0, CellNumeric},
		{"float", 3.25, CellNumeric},
		{"negative float", -0.5, CellNumeric},
		{"bool", true, CellString},
		{"nil", nil, CellString},
		{"struct", struct{}{}, CellString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CellValueType(tt.value))
		})
	}
}

func TestIsNumeric(t *testing.T) {
	for _, s := range []string{"0", "1", "+1", "-1", "1.", ".5", "1.5e-3", "  7  ", "00"} {
		assert.True(t, IsNumeric(s), s)
	}
	for _, s := range []string{"", " ", "e3", "1e", "0x1A", "1,5", "--1", "."} {
		assert.False(t, IsNumeric(s), s)
	}
}

func TestIsScalar(t *testing.T) {
	type code string
	for _, v := range []any{"a", 1, int64(2), uint8(3), 1.5, float32(2.5), true, nil, code("x")} {
		assert.True(t, isScalar(v), "%T", v)
	}
	for _, v := range []any{struct{}{}, map[string]int{}, []int{1}, []byte("x"), &struct{}{}, time.Now()} {
		assert.False(t, isScalar(v), "%T", v)
	}
}

func TestCellText(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"x", "x"},
		{42, "42"},
		{uint(7), "7"},
		{1.5, "1.5"},
		{float32(0.25), "0.25"},
		{1e21, "1000000000000000000000"},
		{false, "false"},
		{nil, ""},
	}
	for _, tt := range tests {
		got, ok := cellText(tt.value)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got)
	}
}

func TestCellType_String(t *testing.T) {
	assert.Equal(t, "Numeric", CellNumeric.String())
	assert.Equal(t, "String", CellString.String())
}
