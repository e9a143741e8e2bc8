package xlchunk

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// xlsxSource reads Office Open XML workbooks through the excelize row iterator.
type xlsxSource struct {
	path string
	cfg  SourceConfig
}

func newXLSXSource(path string, cfg SourceConfig) *xlsxSource {
	return &xlsxSource{path: path, cfg: cfg}
}

func (s *xlsxSource) Streaming() bool { return true }
func (s *xlsxSource) Close() error    { return nil }

func (s *xlsxSource) Load(filter RowFilter) (*Sheet, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, classifyOpenError(s.path, err)
	}
	defer f.Close()

	name, err := s.sheetName(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("iterate rows of sheet %q: %w", name, err)
	}
	defer rows.Close()

	sheet := newSheet(name)
	last := stopAfter(filter)
	for n := 1; rows.Next(); n++ {
		if last > 0 && n > last {
			break
		}
		if !accepts(filter, n) {
			continue
		}
		cols, err := rows.Columns()
		if err != nil {
			sheet.Release()
			return nil, fmt.Errorf("read row %d of sheet %q: %w", n, name, err)
		}
		sheet.set(n, cols)
	}
	if err := rows.Error(); err != nil {
		sheet.Release()
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return sheet, nil
}

// sheetName resolves the configured sheet, or the workbook's active sheet.
func (s *xlsxSource) sheetName(f *excelize.File) (string, error) {
	if s.cfg.Sheet != "" {
		if idx, _ := f.GetSheetIndex(s.cfg.Sheet); idx == -1 {
			return "", fmt.Errorf("%w: %q", ErrSheetNotFound, s.cfg.Sheet)
		}
		return s.cfg.Sheet, nil
	}
	if name := f.GetSheetName(f.GetActiveSheetIndex()); name != "" {
		return name, nil
	}
	list := f.GetSheetList()
	if len(list) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	return list[0], nil
}
