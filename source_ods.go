package xlchunk

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// odsSource reads OpenDocument spreadsheets by streaming the table markup
// of content.xml, so a bounded pass stops at its last row.
type odsSource struct {
	path string
	cfg  SourceConfig
}

func newODSSource(path string, cfg SourceConfig) *odsSource {
	return &odsSource{path: path, cfg: cfg}
}

func (s *odsSource) Streaming() bool { return true }
func (s *odsSource) Close() error    { return nil }

var errODSDone = errors.New("ods: last row reached")

func (s *odsSource) Load(filter RowFilter) (*Sheet, error) {
	zr, err := zip.OpenReader(s.path)
	if err != nil {
		return nil, classifyOpenError(s.path, err)
	}
	defer zr.Close()

	rc, err := zr.Open("content.xml")
	if err != nil {
		return nil, classifyOpenError(s.path, fmt.Errorf("open content.xml: %v", err))
	}
	defer rc.Close()

	p := &odsParser{
		dec:    xml.NewDecoder(rc),
		filter: filter,
		last:   stopAfter(filter),
	}
	sheet, err := p.table(s.cfg.Sheet)
	if err != nil {
		if errors.Is(err, ErrSheetNotFound) {
			return nil, err
		}
		return nil, newFileError("load", s.path, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err))
	}
	return sheet, nil
}

// odsParser walks content.xml one token at a time.
type odsParser struct {
	dec    *xml.Decoder
	filter RowFilter
	last   int
	sheet  *Sheet
	n      int // rows consumed so far
}

// table finds the named table, or the first one when name is empty, and
// collects its rows.
func (p *odsParser) table(name string) (*Sheet, error) {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "table" {
			continue
		}
		title := odsAttr(start, "name")
		if name != "" && title != name {
			if err := p.dec.Skip(); err != nil {
				return nil, err
			}
			continue
		}
		p.sheet = newSheet(title)
		if err := p.rows(); err != nil && !errors.Is(err, errODSDone) {
			p.sheet.Release()
			return nil, err
		}
		return p.sheet, nil
	}
	if name != "" {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
}

// rows consumes the current table. Row groups and header rows are walked
// into; everything that is not a row is skipped.
func (p *odsParser) rows() error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == "table" {
				return nil
			}
		case xml.StartElement:
			switch t.Name.Local {
			case "table-row":
				if err := p.row(t); err != nil {
					return err
				}
			case "table-header-rows", "table-row-group", "table-rows":
			default:
				if err := p.dec.Skip(); err != nil {
					return err
				}
			}
		}
	}
}

// row reads one table-row and stores it once per repetition.
func (p *odsParser) row(start xml.StartElement) error {
	repeat := odsRepeat(start, "number-rows-repeated")
	cells, err := p.cells()
	if err != nil {
		return err
	}
	if len(cells) == 0 {
		// blank runs, often the padding to the end of the sheet
		p.n += repeat
		if p.last > 0 && p.n >= p.last {
			return errODSDone
		}
		return nil
	}
	for range repeat {
		p.n++
		if p.last > 0 && p.n > p.last {
			return errODSDone
		}
		if accepts(p.filter, p.n) {
			p.sheet.set(p.n, append([]string(nil), cells...))
		}
	}
	if p.last > 0 && p.n >= p.last {
		return errODSDone
	}
	return nil
}

// cells reads the cells of the current row. Trailing blank cells are not
// expanded, so a repeated empty cell spanning the sheet costs nothing.
func (p *odsParser) cells() ([]string, error) {
	var (
		out   []string
		blank int
	)
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == "table-row" {
				return out, nil
			}
		case xml.StartElement:
			if t.Name.Local != "table-cell" && t.Name.Local != "covered-table-cell" {
				if err := p.dec.Skip(); err != nil {
					return nil, err
				}
				continue
			}
			repeat := odsRepeat(t, "number-columns-repeated")
			v, err := p.cell(t)
			if err != nil {
				return nil, err
			}
			if v == "" {
				blank += repeat
				continue
			}
			for ; blank > 0; blank-- {
				out = append(out, "")
			}
			for range repeat {
				out = append(out, v)
			}
		}
	}
}

// cell returns the value of a table cell. Numbers come from office:value,
// everything else from the cell's paragraphs.
func (p *odsParser) cell(start xml.StartElement) (string, error) {
	var (
		b     strings.Builder
		paras int
		inP   int
	)
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			switch t.Name.Local {
			case start.Name.Local:
				switch odsAttr(start, "value-type") {
				case "float", "percentage", "currency":
					if v := odsAttr(start, "value"); v != "" {
						return v, nil
					}
				}
				return b.String(), nil
			case "p", "h":
				inP--
			}
		case xml.StartElement:
			switch t.Name.Local {
			case "p", "h":
				if paras > 0 {
					b.WriteByte('\n')
				}
				paras++
				inP++
			case "s":
				b.WriteString(strings.Repeat(" ", odsRepeat(t, "c")))
			case "tab":
				b.WriteByte('\t')
			case "line-break":
				b.WriteByte('\n')
			case "annotation":
				if err := p.dec.Skip(); err != nil {
					return "", err
				}
			}
		case xml.CharData:
			if inP > 0 {
				b.Write(t)
			}
		}
	}
}

func odsAttr(start xml.StartElement, local string) string {
	for _, a := range start.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// odsRepeat reads a repetition count attribute; absent or invalid means 1.
func odsRepeat(start xml.StartElement, local string) int {
	n, err := strconv.Atoi(odsAttr(start, local))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
