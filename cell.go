package xlchunk

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// CellType is the data type a value is written with.
type CellType int

const (
	CellString CellType = iota
	CellNumeric
)

// String returns a human-readable name for the CellType.
func (ct CellType) String() string {
	if ct == CellNumeric {
		return "Numeric"
	}
	return "String"
}

// numericPattern accepts the same strings as PHP's is_numeric: optional
// surrounding whitespace, an optional sign, a decimal mantissa and an
// optional exponent.
var numericPattern = regexp.MustCompile(`^[ \t\n\r\v\f]*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?[ \t\n\r\v\f]*$`)

// IsNumeric reports whether s is a numeric string.
func IsNumeric(s string) bool {
	return numericPattern.MatchString(s)
}

// CellValueType decides how a scalar value is stored. A numeric value is
// written as a number unless it starts with '0' and is longer than one
// character, which keeps leading zeros ("01", "0475", postal codes) intact.
// Everything else is a string:
//
//	"0" -> Numeric   "5" -> Numeric   "123" -> Numeric
//	"05" -> String   "abc" -> String  "" -> String
func CellValueType(v any) CellType {
	s, ok := cellText(v)
	if !ok || !IsNumeric(s) {
		return CellString
	}
	if s[0] != '0' || len(s) == 1 {
		return CellNumeric
	}
	return CellString
}

// isScalar reports whether v can be written to a cell. Structs, maps,
// slices, pointers and the like cannot and are skipped by the writer.
func isScalar(v any) bool {
	_, ok := cellText(v)
	return ok
}

// cellText returns the text form of a scalar value.
func cellText(v any) (string, bool) {
	if v == nil {
		return "", true
	}
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return "", false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	}
	return "", false
}

// parseNumeric converts a numeric string accepted by IsNumeric into a float.
func parseNumeric(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
