package xlchunk

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Format identifies a spreadsheet file format.
type Format int

const (
	FormatAuto     Format = iota // detect from file content
	FormatXLS                    // legacy BIFF workbook (Excel5)
	FormatXLSX                   // Office Open XML workbook (Excel2007)
	FormatXML2003                // SpreadsheetML 2003
	FormatODS                    // OpenDocument spreadsheet (OOCalc)
	FormatGnumeric               // gzipped Gnumeric XML
	FormatCSV                    // delimited text
)

// String returns the PHPExcel-style name of the format.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "Auto"
	case FormatXLS:
		return "Excel5"
	case FormatXLSX:
		return "Excel2007"
	case FormatXML2003:
		return "Excel2003XML"
	case FormatODS:
		return "OOCalc"
	case FormatGnumeric:
		return "Gnumeric"
	case FormatCSV:
		return "CSV"
	default:
		return "Unknown"
	}
}

// Extension returns the usual file extension, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatXLS:
		return "xls"
	case FormatXLSX:
		return "xlsx"
	case FormatXML2003:
		return "xml"
	case FormatODS:
		return "ods"
	case FormatGnumeric:
		return "gnumeric"
	case FormatCSV:
		return "csv"
	default:
		return ""
	}
}

// ContentType returns the MIME type sent when streaming a file of this format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLS:
		return "application/vnd.ms-excel"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatXML2003:
		return "application/xml"
	case FormatODS:
		return "application/vnd.oasis.opendocument.spreadsheet"
	case FormatGnumeric:
		return "application/x-gnumeric"
	case FormatCSV:
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat accepts a short name ("xls", "xlsx", "csv", "ods", "xml",
// "gnumeric") or a PHPExcel type name ("Excel5", "Excel2007", ...).
// The empty string and "auto" map to FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "auto":
		return FormatAuto, nil
	case "xls", "excel5":
		return FormatXLS, nil
	case "xlsx", "xlsm", "excel2007":
		return FormatXLSX, nil
	case "xml", "excel2003xml":
		return FormatXML2003, nil
	case "ods", "oocalc":
		return FormatODS, nil
	case "gnumeric":
		return FormatGnumeric, nil
	case "csv", "txt":
		return FormatCSV, nil
	}
	return FormatAuto, fmt.Errorf("%w: %q", ErrUnrecognizedFormat, s)
}

var (
	oleMagic  = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
	gzipMagic = []byte{0x1F, 0x8B}
)

const (
	odsMimeType      = "application/vnd.oasis.opendocument.spreadsheet"
	spreadsheetMLURN = "urn:schemas-microsoft-com:office:spreadsheet"
	sniffLen         = 4096
)

// Identify detects the format of the file at path from its content, falling
// back to the extension for delimited text.
func Identify(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatAuto, newFileError("identify", path, fmt.Errorf("%w: %v", ErrFileUnreadable, err))
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatAuto, newFileError("identify", path, fmt.Errorf("%w: %v", ErrFileUnreadable, err))
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, oleMagic):
		return FormatXLS, nil
	case bytes.HasPrefix(head, zipMagic):
		if isODS(path) {
			return FormatODS, nil
		}
		return FormatXLSX, nil
	case bytes.HasPrefix(head, gzipMagic):
		return FormatGnumeric, nil
	case bytes.Contains(head, []byte(spreadsheetMLURN)):
		return FormatXML2003, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".csv" || ext == ".txt" || looksLikeText(head) {
		return FormatCSV, nil
	}
	return FormatAuto, newFileError("identify", path, ErrUnrecognizedFormat)
}

// isODS reports whether the zip archive at path carries the OpenDocument
// spreadsheet mimetype entry.
func isODS(path string) bool {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	defer zr.Close()
	for _, zf := range zr.File {
		if zf.Name != "mimetype" {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return false
		}
		defer rc.Close()
		b, err := io.ReadAll(io.LimitReader(rc, 128))
		if err != nil {
			return false
		}
		return strings.TrimSpace(string(b)) == odsMimeType
	}
	return false
}

func looksLikeText(b []byte) bool {
	if len(b) == 0 || bytes.IndexByte(b, 0) >= 0 {
		return false
	}
	// A sniff window may cut a multi-byte rune in half.
	for i := 0; i < utf8.UTFMax && len(b) > 0 && !utf8.Valid(b); i++ {
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}
