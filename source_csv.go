package xlchunk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// csvSource reads delimited text, one record per row.
type csvSource struct {
	path string
	cfg  SourceConfig
	enc  encoding.Encoding
}

func newCSVSource(path string, cfg SourceConfig) (*csvSource, error) {
	enc, err := lookupCharset(cfg.Charset)
	if err != nil {
		return nil, err
	}
	return &csvSource{path: path, cfg: cfg, enc: enc}, nil
}

func (s *csvSource) Streaming() bool { return true }
func (s *csvSource) Close() error    { return nil }

func (s *csvSource) Load(filter RowFilter) (*Sheet, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, classifyOpenError(s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(transform.NewReader(f, unicode.BOMOverride(s.enc.NewDecoder())))
	r.Comma = s.cfg.Delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	name := s.cfg.Sheet
	if name == "" {
		name = defaultSheetTitle
	}
	sheet := newSheet(name)
	last := stopAfter(filter)
	// encoding/csv skips blank lines; they still occupy a row number, so rows
	// are numbered from the line each record starts on.
	n, next := 0, 1
	for last == 0 || n < last {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			sheet.Release()
			return nil, newFileError("load", s.path, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err))
		}
		line, _ := r.FieldPos(0)
		n += 1 + line - next
		end, _ := r.FieldPos(len(rec) - 1)
		next = end + strings.Count(rec[len(rec)-1], "\n") + 1
		if last > 0 && n > last {
			break
		}
		if !accepts(filter, n) {
			continue
		}
		sheet.set(n, append([]string(nil), rec...))
	}
	return sheet, nil
}

// lookupCharset resolves an encoding label such as "utf-8" or "windows-1252".
func lookupCharset(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown charset %q", ErrInvalidArgument, name)
	}
	return enc, nil
}
