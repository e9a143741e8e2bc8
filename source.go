package xlchunk

import (
	"errors"
	"fmt"
	"io/fs"
)

// TabularSource materializes the rows of one sheet of a spreadsheet file.
//
// Every Load is a fresh pass over the file restricted by filter (nil accepts
// every row). Streaming sources read rows in order and stop as soon as a
// Bounded filter cannot accept any further row; other sources parse the whole
// workbook on every pass. Both honour the same chunk contract.
type TabularSource interface {
	Load(filter RowFilter) (*Sheet, error)
	Streaming() bool
	Close() error
}

// SourceConfig carries the settings a source needs to open a file.
type SourceConfig struct {
	Sheet     string // sheet name; empty selects the active (or first) sheet
	Delimiter rune   // CSV field delimiter
	Charset   string // CSV / XLS text encoding
}

// Sheet is the in-memory result of one load pass. It holds only the rows the
// filter accepted. Call Release once the needed rows have been copied out.
type Sheet struct {
	Name       string
	rows       map[int][]string
	highestRow int
	highestCol int
}

func newSheet(name string) *Sheet {
	return &Sheet{Name: name, rows: make(map[int][]string)}
}

// set stores the cells of a 1-based row, trimming trailing empty cells.
// Rows without any value are not stored and do not count toward the
// highest row or column.
func (s *Sheet) set(row int, cells []string) {
	last := -1
	for i, c := range cells {
		if c != "" {
			last = i
		}
	}
	if last < 0 {
		return
	}
	s.rows[row] = cells[:last+1]
	if row > s.highestRow {
		s.highestRow = row
	}
	if last+1 > s.highestCol {
		s.highestCol = last + 1
	}
}

// HighestRow returns the highest populated row number, or 0 for an empty sheet.
func (s *Sheet) HighestRow() int { return s.highestRow }

// HighestColumn returns the highest populated column number, or 0.
func (s *Sheet) HighestColumn() int { return s.highestCol }

// Row returns the given 1-based row padded to cols columns. Rows that were
// empty or filtered out come back with every column set to "".
func (s *Sheet) Row(n, cols int) Row {
	out := make(Row, cols)
	cells := s.rows[n]
	for c := 1; c <= cols; c++ {
		v := ""
		if c <= len(cells) {
			v = cells[c-1]
		}
		out[columnName(c)] = v
	}
	return out
}

// Release drops the materialized rows.
func (s *Sheet) Release() {
	if s == nil {
		return
	}
	clear(s.rows)
	s.rows = nil
}

// OpenSource returns the TabularSource for path in the given format, which
// must not be FormatAuto.
func OpenSource(path string, format Format, cfg SourceConfig) (TabularSource, error) {
	if cfg.Delimiter == 0 {
		cfg.Delimiter = DefaultDelimiter
	}
	if cfg.Charset == "" {
		cfg.Charset = DefaultCharset
	}
	switch format {
	case FormatXLSX:
		return newXLSXSource(path, cfg), nil
	case FormatXLS:
		return newXLSSource(path, cfg), nil
	case FormatCSV:
		return newCSVSource(path, cfg)
	case FormatODS:
		return newODSSource(path, cfg), nil
	case FormatAuto:
		return nil, fmt.Errorf("open source: %w: format not identified", ErrInvalidArgument)
	default:
		return nil, newFileError("load", path, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format))
	}
}

// stopAfter returns the last row a bounded filter can accept, or 0 when the
// whole sheet has to be scanned.
func stopAfter(filter RowFilter) int {
	if b, ok := filter.(Bounded); ok {
		return b.LastRow()
	}
	return 0
}

func accepts(filter RowFilter, row int) bool {
	return filter == nil || filter.ShouldInclude(row)
}

// classifyOpenError maps a failure to open path onto ErrFileUnreadable when the
// file system refused it and onto ErrUnrecognizedFormat when the content could
// not be parsed.
func classifyOpenError(path string, err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return newFileError("load", path, fmt.Errorf("%w: %v", ErrFileUnreadable, err))
	}
	return newFileError("load", path, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err))
}
