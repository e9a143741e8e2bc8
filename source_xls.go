package xlchunk

import (
	"fmt"
	"os"

	"github.com/extrame/xls"
)

// xlsSource reads legacy BIFF workbooks. The parser has no row iterator, so
// every load pass decodes the whole workbook.
type xlsSource struct {
	path string
	cfg  SourceConfig
}

func newXLSSource(path string, cfg SourceConfig) *xlsSource {
	return &xlsSource{path: path, cfg: cfg}
}

func (s *xlsSource) Streaming() bool { return false }
func (s *xlsSource) Close() error    { return nil }

func (s *xlsSource) Load(filter RowFilter) (*Sheet, error) {
	fh, err := os.Open(s.path)
	if err != nil {
		return nil, classifyOpenError(s.path, err)
	}
	defer fh.Close()

	wb, err := xls.OpenReader(fh, s.cfg.Charset)
	if err == nil && wb == nil {
		err = fmt.Errorf("no Workbook stream")
	}
	if err != nil {
		return nil, classifyOpenError(s.path, err)
	}

	ws, err := s.worksheet(wb)
	if err != nil {
		return nil, err
	}

	sheet := newSheet(ws.Name)
	last := stopAfter(filter)
	for i := 0; i <= int(ws.MaxRow); i++ {
		n := i + 1
		if last > 0 && n > last {
			break
		}
		if !accepts(filter, n) {
			continue
		}
		row := sheetRow(ws, i)
		if row == nil {
			continue
		}
		cells := make([]string, row.LastCol())
		for j := range cells {
			cells[j] = row.Col(j)
		}
		sheet.set(n, cells)
	}
	return sheet, nil
}

// sheetRow returns the zero based row i, or nil when the sheet holds no
// record for it. WorkSheet.Row dereferences a missing map entry.
func sheetRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

func (s *xlsSource) worksheet(wb *xls.WorkBook) (*xls.WorkSheet, error) {
	if s.cfg.Sheet == "" {
		if ws := wb.GetSheet(0); ws != nil {
			return ws, nil
		}
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	for i := 0; i < wb.NumSheets(); i++ {
		if ws := wb.GetSheet(i); ws != nil && ws.Name == s.cfg.Sheet {
			return ws, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, s.cfg.Sheet)
}
