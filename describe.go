package xlchunk

import (
	"fmt"
	"strings"
)

// Describe loads the file at path and returns a short human-readable summary:
// format, whether chunk reads stream, dimensions and the header row.
func Describe(path string, opts ...ReaderOption) (string, error) {
	r := NewReader(opts...)
	if err := r.Load(path, FormatAuto); err != nil {
		return "", err
	}
	defer r.Close()
	return r.Describe()
}

// Describe summarizes the loaded file.
func (r *Reader) Describe() (string, error) {
	if r.state != ReaderLoaded {
		return "", ErrNotLoaded
	}
	rows, err := r.NumberOfRows()
	if err != nil {
		return "", fmt.Errorf("count rows: %w", err)
	}
	cols, err := r.NumberOfColumns()
	if err != nil {
		return "", fmt.Errorf("count columns: %w", err)
	}
	headers, err := r.ColumnHeaders()
	if err != nil {
		return "", fmt.Errorf("read headers: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", r.path)
	fmt.Fprintf(&b, "Format: %s (streaming: %t)\n", r.format, r.Streaming())
	last := "A1"
	if rows > 0 && cols > 0 {
		last = fmt.Sprintf("%s%d", columnName(cols), rows)
	}
	fmt.Fprintf(&b, "Range: A1:%s (%d rows x %d columns)\n", last, rows, cols)
	if len(headers) > 0 {
		b.WriteString("Headers:\n")
		for _, c := range headers.Columns() {
			fmt.Fprintf(&b, "  %s: %s\n", c, headers[c])
		}
	}
	return b.String(), nil
}
