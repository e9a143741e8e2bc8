package xlchunk

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// ReaderState is the lifecycle state of a Reader.
type ReaderState int

const (
	ReaderUnloaded ReaderState = iota
	ReaderLoaded
)

func (s ReaderState) String() string {
	if s == ReaderLoaded {
		return "Loaded"
	}
	return "Unloaded"
}

// sheetCounts caches the dimensions found by a full load pass.
type sheetCounts struct {
	rows int
	cols int
}

// Reader reads the active sheet of a spreadsheet file in bounded chunks.
//
// Each chunk is produced by a fresh load pass over the file restricted by a
// ChunkWindow; the reader never keeps a parsed workbook between calls. A
// Reader is not safe for concurrent use.
type Reader struct {
	opts *readerOptions

	state     ReaderState
	path      string
	format    Format
	source    TabularSource
	chunkSize int
	rowIndex  int
	counts    *sheetCounts
	window    *ChunkWindow
}

// NewReader creates an unloaded Reader.
func NewReader(opts ...ReaderOption) *Reader {
	o := defaultReaderOptions()
	for _, opt := range opts {
		opt(o)
	}
	r := &Reader{opts: o}
	r.reset()
	return r
}

// Load opens path for reading. When format is FormatAuto the format is
// identified from the file content. Any state from a previous Load is
// discarded first, so a failed Load leaves the Reader unloaded.
func (r *Reader) Load(path string, format Format) error {
	r.reset()

	f, err := os.Open(path)
	if err != nil {
		return newFileError("load", path, fmt.Errorf("%w: %v", ErrFileUnreadable, err))
	}
	f.Close()

	if format == FormatAuto {
		if format, err = Identify(path); err != nil {
			return err
		}
	}

	src, err := OpenSource(path, format, SourceConfig{
		Sheet:     r.opts.sheet,
		Delimiter: r.opts.delimiter,
		Charset:   r.opts.charset,
	})
	if err != nil {
		return err
	}

	r.path = path
	r.format = format
	r.source = src
	r.state = ReaderLoaded
	r.opts.logger.Debug("workbook loaded", "path", path, "format", format.String(), "streaming", src.Streaming())
	return nil
}

// State returns the lifecycle state.
func (r *Reader) State() ReaderState { return r.state }

// Format returns the format of the loaded file.
func (r *Reader) Format() Format { return r.format }

// Streaming reports whether the loaded source can stop a load pass early
// instead of parsing the whole file for every chunk.
func (r *Reader) Streaming() bool {
	return r.source != nil && r.source.Streaming()
}

// ColumnHeaders returns the first row of the sheet.
func (r *Reader) ColumnHeaders() (Row, error) {
	if r.state != ReaderLoaded {
		return nil, ErrNotLoaded
	}
	sheet, err := r.pass(HeadersOnly{})
	if err != nil {
		return nil, err
	}
	defer sheet.Release()
	return sheet.Row(1, sheet.HighestColumn()), nil
}

// NumberOfRows returns the highest populated row of the sheet. The first call
// performs a full load pass; the result is cached until the next Load.
func (r *Reader) NumberOfRows() (int, error) {
	if err := r.count(); err != nil {
		return 0, err
	}
	return r.counts.rows, nil
}

// NumberOfColumns returns the highest populated column number of the sheet.
func (r *Reader) NumberOfColumns() (int, error) {
	if err := r.count(); err != nil {
		return 0, err
	}
	return r.counts.cols, nil
}

// HighestColumn returns the letter of the highest populated column, "" for an empty sheet.
func (r *Reader) HighestColumn() (string, error) {
	n, err := r.NumberOfColumns()
	if err != nil || n == 0 {
		return "", err
	}
	return columnName(n), nil
}

// RowIndex returns the 1-based cursor of the next ReadNextRows call.
func (r *Reader) RowIndex() int { return r.rowIndex }

// SetRowIndex moves the cursor. Counts and the chunk size are kept.
func (r *Reader) SetRowIndex(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: row index %d", ErrInvalidArgument, n)
	}
	r.rowIndex = n
	return nil
}

// ChunkSize returns the number of rows ReadNextRows returns by default.
func (r *Reader) ChunkSize() int { return r.chunkSize }

// ReadNextRows returns the next chunk of at most size rows starting at the
// cursor, numbered from 1 within the chunk. A size of 0 reuses the previous
// size; a positive size becomes the new default.
//
// The cursor always advances by the nominal size, even when the last chunk
// is short. Once the cursor is past the last row io.EOF is returned.
func (r *Reader) ReadNextRows(size int) (Rows, error) {
	return r.ReadNextRowsAt(size, 0)
}

// ReadNextRowsAt is ReadNextRows with the cursor first moved to startAt
// (ignored when 0).
func (r *Reader) ReadNextRowsAt(size, startAt int) (Rows, error) {
	if r.state != ReaderLoaded {
		return nil, ErrNotLoaded
	}
	if size < 0 || startAt < 0 {
		return nil, fmt.Errorf("%w: size %d, start %d", ErrInvalidArgument, size, startAt)
	}
	if startAt > 0 {
		r.rowIndex = startAt
	}
	if size > 0 {
		r.chunkSize = size
	}
	if err := r.count(); err != nil {
		return nil, err
	}

	current := r.chunkSize
	if r.rowIndex+r.chunkSize > r.counts.rows {
		current = r.counts.rows - r.rowIndex + 1
	}
	if current <= 0 {
		return nil, io.EOF
	}

	r.applyWindow(r.rowIndex, current)
	sheet, err := r.pass(r.window)
	if err != nil {
		return nil, err
	}
	defer sheet.Release()

	cols := r.width(sheet)
	out := make(Rows, current)
	for i := 0; i < current; i++ {
		out[i+1] = sheet.Row(r.rowIndex+i, cols)
	}

	r.rowIndex += r.chunkSize
	return out, nil
}

// Read returns rows fromRow..toRow keyed by their sheet position, reading
// them chunk by chunk. fromRow 0 means 1 and toRow 0 means the last row.
// The cursor is left where it was.
func (r *Reader) Read(fromRow, toRow int) (Rows, error) {
	if r.state != ReaderLoaded {
		return nil, ErrNotLoaded
	}
	if fromRow < 0 || toRow < 0 {
		return nil, fmt.Errorf("%w: rows %d..%d", ErrInvalidArgument, fromRow, toRow)
	}

	previous := r.rowIndex
	defer func() { r.rowIndex = previous }()

	if fromRow == 0 {
		fromRow = 1
	}
	// strides share one width only once the sheet has been measured
	if err := r.count(); err != nil {
		return nil, err
	}
	if toRow == 0 {
		toRow = r.counts.rows
	}

	out := make(Rows)
	for r.rowIndex = fromRow; r.rowIndex <= toRow; r.rowIndex += r.chunkSize {
		if err := r.readStride(out, min(r.rowIndex+r.chunkSize-1, toRow)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadWhere runs a single load pass with a caller-supplied filter and
// returns every accepted row keyed by its sheet position. The cursor is not
// used or moved.
func (r *Reader) ReadWhere(filter RowFilter) (Rows, error) {
	if r.state != ReaderLoaded {
		return nil, ErrNotLoaded
	}
	if filter == nil {
		return nil, fmt.Errorf("%w: nil filter", ErrInvalidArgument)
	}
	sheet, err := r.pass(filter)
	if err != nil {
		return nil, err
	}
	defer sheet.Release()

	cols := r.width(sheet)
	out := make(Rows)
	for n := 1; n <= sheet.HighestRow(); n++ {
		if filter.ShouldInclude(n) {
			out[n] = sheet.Row(n, cols)
		}
	}
	return out, nil
}

// readStride loads one window at the cursor and copies rows up to last into out.
func (r *Reader) readStride(out Rows, last int) error {
	r.applyWindow(r.rowIndex, r.chunkSize)
	sheet, err := r.pass(r.window)
	if err != nil {
		return err
	}
	defer sheet.Release()

	cols := r.width(sheet)
	for n := r.rowIndex; n <= last; n++ {
		out[n] = sheet.Row(n, cols)
	}
	return nil
}

// Close releases the source and returns the Reader to the unloaded state.
func (r *Reader) Close() error {
	err := r.closeSource()
	r.reset()
	return err
}

// applyWindow repositions the reader's single ChunkWindow.
func (r *Reader) applyWindow(start, size int) {
	if r.window == nil {
		r.window = NewChunkWindow(start, size)
		return
	}
	r.window.SetWindow(start, size)
}

// count performs the full counting pass once per Load.
func (r *Reader) count() error {
	if r.state != ReaderLoaded {
		return ErrNotLoaded
	}
	if r.counts != nil {
		return nil
	}
	sheet, err := r.pass(nil)
	if err != nil {
		return err
	}
	defer sheet.Release()
	r.counts = &sheetCounts{rows: sheet.HighestRow(), cols: sheet.HighestColumn()}
	return nil
}

// width is the number of columns rows of a pass are padded to.
func (r *Reader) width(sheet *Sheet) int {
	if r.counts != nil {
		return max(r.counts.cols, sheet.HighestColumn())
	}
	return sheet.HighestColumn()
}

// pass runs one load pass through the source.
func (r *Reader) pass(filter RowFilter) (*Sheet, error) {
	start := time.Now()
	sheet, err := r.source.Load(filter)
	if err != nil {
		return nil, err
	}
	r.opts.logger.Debug("load pass",
		append(filterAttrs(filter),
			slog.String("path", r.path),
			slog.String("format", r.format.String()),
			slog.Int("highest_row", sheet.HighestRow()),
			slog.Duration("elapsed", time.Since(start)),
		)...,
	)
	return sheet, nil
}

func filterAttrs(filter RowFilter) []any {
	switch f := filter.(type) {
	case nil:
		return []any{slog.String("filter", "all")}
	case HeadersOnly:
		return []any{slog.String("filter", "headers")}
	case *ChunkWindow:
		return []any{slog.String("filter", "window"), slog.Int("window_start", f.Start()), slog.Int("window_end", f.LastRow())}
	default:
		return []any{slog.String("filter", fmt.Sprintf("%T", f))}
	}
}

func (r *Reader) closeSource() error {
	if r.source == nil {
		return nil
	}
	return r.source.Close()
}

// reset clears every per-file field. It runs on construction, before every
// Load and on Close.
func (r *Reader) reset() {
	_ = r.closeSource()
	r.state = ReaderUnloaded
	r.path = ""
	r.format = FormatAuto
	r.source = nil
	r.chunkSize = r.opts.chunkSize
	r.rowIndex = 1
	r.counts = nil
	r.window = nil
}
