package xlchunk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// WriterState is the lifecycle state of a Writer.
type WriterState int

const (
	WriterEmpty    WriterState = iota // no workbook yet
	WriterBuilding                    // a workbook is open for writing
	WriterClosed                      // output was produced and the workbook released
)

func (s WriterState) String() string {
	switch s {
	case WriterBuilding:
		return "Building"
	case WriterClosed:
		return "Closed"
	default:
		return "Empty"
	}
}

// DefaultLocale is the document language used when DocumentProperties.Locale is empty.
const DefaultLocale = "fr_FR"

const maxColumnWidth = 255

// DocumentProperties describes a new workbook.
type DocumentProperties struct {
	Name   string // default attachment name for OutputFile; not a path
	Title  string
	Author string
	Locale string // e.g. "en_US"; defaults to DefaultLocale
}

// Writer builds a workbook sheet by sheet from Records and writes it to disk
// or to an HTTP response. Saving or streaming consumes the Writer.
// A Writer is not safe for concurrent use.
type Writer struct {
	opts *writerOptions

	state    WriterState
	file     *excelize.File
	doc      DocumentProperties
	path     string
	rowIndex int

	numberOfRows int
	numberOfCols int

	// widths of auto-sized columns, keyed by column number
	autoSize map[int]int
}

// NewWriter creates an empty Writer.
func NewWriter(opts ...WriterOption) *Writer {
	o := defaultWriterOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Writer{opts: o, rowIndex: 1}
}

// CreateDocument starts a new workbook with a single sheet.
func (w *Writer) CreateDocument(props DocumentProperties) error {
	if w.state == WriterClosed {
		return ErrWriterClosed
	}
	if err := w.checkCache(); err != nil {
		return err
	}
	if props.Locale == "" {
		props.Locale = DefaultLocale
	}

	w.release()
	f := excelize.NewFile(w.excelizeOptions())
	err := f.SetDocProps(&excelize.DocProperties{
		Created:        time.Now().UTC().Format(time.RFC3339),
		Creator:        props.Author,
		LastModifiedBy: props.Author,
		Title:          props.Title,
		Language:       strings.ReplaceAll(props.Locale, "_", "-"),
	})
	if err != nil {
		f.Close()
		return fmt.Errorf("set document properties: %w", err)
	}

	w.file = f
	w.doc = props
	w.path = ""
	w.state = WriterBuilding
	if err := w.GotoSheetByIndex(0); err != nil {
		return err
	}
	w.rowIndex = 1
	w.numberOfRows, w.numberOfCols = 0, 0
	return nil
}

// LoadFile opens an existing file for appending. Workbooks in xlsx format are
// opened as-is; xls and csv files are imported cell by cell into a new
// workbook. The row cursor is reset to 1.
func (w *Writer) LoadFile(path string, format Format) error {
	if w.state == WriterClosed {
		return ErrWriterClosed
	}
	fh, err := os.Open(path)
	if err != nil {
		return newFileError("load", path, fmt.Errorf("%w: %v", ErrFileUnreadable, err))
	}
	fh.Close()

	if format == FormatAuto {
		if format, err = Identify(path); err != nil {
			return err
		}
	}
	if err := w.checkCache(); err != nil {
		return err
	}

	var f *excelize.File
	if format == FormatXLSX {
		f, err = excelize.OpenFile(path, w.excelizeOptions())
		if errors.Is(err, excelize.ErrOptionsUnzipSizeLimit) {
			return fmt.Errorf("%w: %v", ErrCacheConfiguration, err)
		}
		if err != nil {
			return classifyOpenError(path, err)
		}
	} else if f, err = w.importFile(path, format); err != nil {
		return err
	}

	w.release()
	w.file = f
	w.doc = DocumentProperties{Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	w.path = path
	w.state = WriterBuilding
	w.rowIndex = 1
	if err := w.countSheet(); err != nil {
		return err
	}
	w.opts.logger.Debug("workbook loaded for writing", "path", path, "format", format.String(), "rows", w.numberOfRows)
	return nil
}

// importFile reads a non-xlsx file through its TabularSource into a new workbook.
func (w *Writer) importFile(path string, format Format) (*excelize.File, error) {
	src, err := OpenSource(path, format, SourceConfig{Delimiter: w.opts.delimiter})
	if err != nil {
		return nil, err
	}
	defer src.Close()

	sheet, err := src.Load(nil)
	if err != nil {
		return nil, err
	}
	defer sheet.Release()

	f := excelize.NewFile(w.excelizeOptions())
	name := f.GetSheetName(0)
	cols := sheet.HighestColumn()
	for n := 1; n <= sheet.HighestRow(); n++ {
		row := sheet.Row(n, cols)
		for c := 1; c <= cols; c++ {
			v := row[columnName(c)]
			if v == "" {
				continue
			}
			if err := setCell(f, name, c, n, v); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

// State returns the lifecycle state.
func (w *Writer) State() WriterState { return w.state }

// File returns the underlying excelize workbook for operations the Writer
// does not cover, or nil when no workbook is open.
func (w *Writer) File() *excelize.File { return w.file }

// GotoSheetByIndex makes the 0-based sheet index active.
func (w *Writer) GotoSheetByIndex(index int) error {
	if err := w.requireOpen(); err != nil {
		return err
	}
	list := w.file.GetSheetList()
	if index < 0 || index >= len(list) {
		return fmt.Errorf("%w: index %d of %d", ErrSheetNotFound, index, len(list))
	}
	w.file.SetActiveSheet(index)
	return w.countSheet()
}

// GotoSheetByTitle makes the sheet called title active.
func (w *Writer) GotoSheetByTitle(title string) error {
	if err := w.requireOpen(); err != nil {
		return err
	}
	idx, err := w.file.GetSheetIndex(title)
	if err != nil || idx == -1 {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, title)
	}
	w.file.SetActiveSheet(idx)
	return w.countSheet()
}

// SetSheetTitle renames the active sheet.
func (w *Writer) SetSheetTitle(title string) error {
	if err := w.requireOpen(); err != nil {
		return err
	}
	if err := w.file.SetSheetName(w.activeSheet(), title); err != nil {
		return fmt.Errorf("rename sheet to %q: %w", title, err)
	}
	return nil
}

// AddSheet appends a sheet called title and makes it active.
func (w *Writer) AddSheet(title string) error {
	if err := w.requireOpen(); err != nil {
		return err
	}
	if idx, _ := w.file.GetSheetIndex(title); idx != -1 {
		return fmt.Errorf("%w: sheet %q already exists", ErrInvalidArgument, title)
	}
	idx, err := w.file.NewSheet(title)
	if err != nil {
		return fmt.Errorf("add sheet %q: %w", title, err)
	}
	w.file.SetActiveSheet(idx)
	return w.countSheet()
}

// FillSheet writes records to the active sheet starting at row 1. When
// useFieldNamesAsHeader is set, the field names of the first record form
// row 1 and their columns are sized to fit. Non-scalar values are skipped
// and do not take up a column.
func (w *Writer) FillSheet(records []Record, useFieldNamesAsHeader bool) error {
	if err := w.requireOpen(); err != nil {
		return err
	}
	w.rowIndex = 1
	w.autoSize = make(map[int]int)

	sheet := w.activeSheet()
	if useFieldNamesAsHeader && len(records) > 0 {
		col := 1
		for _, fld := range records[0] {
			if !isScalar(fld.Value) {
				continue
			}
			if err := w.writeCell(sheet, col, w.rowIndex, fld.Name); err != nil {
				return err
			}
			w.autoSize[col] = 0
			w.track(col, fld.Name)
			col++
		}
		w.rowIndex++
	}

	if err := w.populate(sheet, records); err != nil {
		return err
	}
	return w.applyAutoSize(sheet)
}

// AppendData writes records below the last populated row of the active sheet.
func (w *Writer) AppendData(records []Record) error {
	if err := w.requireOpen(); err != nil {
		return err
	}
	w.rowIndex = w.numberOfRows + 1
	return w.populate(w.activeSheet(), records)
}

// NumberOfRows returns the highest populated row of the active sheet.
func (w *Writer) NumberOfRows() (int, error) {
	if err := w.requireOpen(); err != nil {
		return 0, err
	}
	return w.numberOfRows, nil
}

// NumberOfColumns returns the highest populated column of the active sheet.
func (w *Writer) NumberOfColumns() (int, error) {
	if err := w.requireOpen(); err != nil {
		return 0, err
	}
	return w.numberOfCols, nil
}

// RowIndex returns the 1-based row the next record would be written to.
func (w *Writer) RowIndex() int { return w.rowIndex }

// SetRowIndex moves the write cursor.
func (w *Writer) SetRowIndex(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: row index %d", ErrInvalidArgument, n)
	}
	w.rowIndex = n
	return nil
}

// Close releases the workbook without writing it.
func (w *Writer) Close() error {
	err := w.release()
	if w.state != WriterEmpty {
		w.state = WriterClosed
	}
	return err
}

func (w *Writer) populate(sheet string, records []Record) error {
	for _, rec := range records {
		col := 1
		for _, fld := range rec {
			if !isScalar(fld.Value) {
				continue
			}
			if err := w.writeCell(sheet, col, w.rowIndex, fld.Value); err != nil {
				return err
			}
			w.track(col, fld.Value)
			w.numberOfCols = max(w.numberOfCols, col)
			col++
		}
		w.rowIndex++
	}
	w.numberOfRows = max(w.numberOfRows, w.rowIndex-1)
	return nil
}

func (w *Writer) writeCell(sheet string, col, row int, v any) error {
	if err := setCell(w.file, sheet, col, row, v); err != nil {
		return err
	}
	w.numberOfCols = max(w.numberOfCols, col)
	w.numberOfRows = max(w.numberOfRows, row)
	return nil
}

// setCell writes a scalar using the CellValueType rule.
func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	text, _ := cellText(v)
	if CellValueType(text) == CellNumeric {
		num, err := parseNumeric(text)
		if err == nil {
			return f.SetCellFloat(sheet, cell, num, -1, 64)
		}
	}
	return f.SetCellStr(sheet, cell, text)
}

// track widens an auto-sized column to fit v.
func (w *Writer) track(col int, v any) {
	width, ok := w.autoSize[col]
	if !ok {
		return
	}
	text, _ := cellText(v)
	w.autoSize[col] = max(width, utf8.RuneCountInString(text))
}

func (w *Writer) applyAutoSize(sheet string) error {
	for col, chars := range w.autoSize {
		name := columnName(col)
		width := min(float64(chars)*1.1+2, maxColumnWidth)
		if err := w.file.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("size column %s: %w", name, err)
		}
	}
	w.autoSize = nil
	return nil
}

// countSheet caches the dimensions of the active sheet.
func (w *Writer) countSheet() error {
	rows, err := w.file.GetRows(w.activeSheet())
	if err != nil {
		return fmt.Errorf("count rows: %w", err)
	}
	w.numberOfRows = len(rows)
	w.numberOfCols = 0
	for _, r := range rows {
		w.numberOfCols = max(w.numberOfCols, len(r))
	}
	return nil
}

func (w *Writer) activeSheet() string {
	return w.file.GetSheetName(w.file.GetActiveSheetIndex())
}

func (w *Writer) requireOpen() error {
	switch w.state {
	case WriterBuilding:
		return nil
	case WriterClosed:
		return ErrWriterClosed
	default:
		return ErrNotLoaded
	}
}

// checkCache validates the spill settings before a workbook is created.
func (w *Writer) checkCache() error {
	o := w.opts
	if o.unzipSizeLimit < 0 || o.unzipXMLSizeLimit < 0 {
		return fmt.Errorf("%w: negative size limit", ErrCacheConfiguration)
	}
	if o.unzipSizeLimit > 0 && o.unzipXMLSizeLimit > o.unzipSizeLimit {
		return fmt.Errorf("%w: xml limit %d exceeds total limit %d", ErrCacheConfiguration, o.unzipXMLSizeLimit, o.unzipSizeLimit)
	}
	if o.tempDir == "" {
		return nil
	}
	probe, err := os.CreateTemp(o.tempDir, "xlchunk-*")
	if err != nil {
		return fmt.Errorf("%w: temp dir %q: %v", ErrCacheConfiguration, o.tempDir, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

func (w *Writer) excelizeOptions() excelize.Options {
	return excelize.Options{
		TmpDir:            w.opts.tempDir,
		UnzipSizeLimit:    w.opts.unzipSizeLimit,
		UnzipXMLSizeLimit: w.opts.unzipXMLSizeLimit,
	}
}

// release closes the workbook, dropping its in-memory and spilled data.
func (w *Writer) release() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.autoSize = nil
	return err
}
