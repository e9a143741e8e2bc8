package xlchunk

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Attachment describes a workbook streamed by OutputFile.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
}

// OutputFile streams the workbook to rw as a file download named
// name.<ext>, with spaces in name replaced by underscores. An empty name
// falls back to the document name. Only FormatXLSX and FormatCSV can be
// written; FormatXLS and every other format return ErrUnsupportedFormat
// before anything is sent.
//
// OutputFile is terminal: once the response is written the workbook is
// released and every later call on the Writer returns ErrWriterClosed.
// Callers handling an HTTP request should return right after it.
func (w *Writer) OutputFile(rw http.ResponseWriter, name string, format Format) (Attachment, error) {
	if err := w.requireOpen(); err != nil {
		return Attachment{}, err
	}
	if err := checkWritable(format); err != nil {
		return Attachment{}, err
	}
	if name == "" {
		name = w.doc.Name
	}
	if name == "" {
		name = "export"
	}
	defer w.finish()

	var buf bytes.Buffer
	if err := w.encode(&buf, format); err != nil {
		return Attachment{}, newFileError("output", name, err)
	}

	att := Attachment{
		Filename:    fmt.Sprintf("%s.%s", strings.ReplaceAll(name, " ", "_"), format.Extension()),
		ContentType: format.ContentType(),
		Size:        int64(buf.Len()),
	}
	h := rw.Header()
	h.Set("Content-Type", att.ContentType)
	h.Set("Content-Disposition", `attachment;filename="`+att.Filename+`"`)
	h.Set("Cache-Control", "max-age=0")
	h.Set("Content-Length", strconv.FormatInt(att.Size, 10))
	rw.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(rw); err != nil {
		return att, newFileError("output", att.Filename, err)
	}
	w.opts.logger.Info("workbook streamed", "filename", att.Filename, "format", format.String(), "bytes", att.Size)
	return att, nil
}

// SaveFile writes the workbook to path and releases it. Unless canOverwrite
// is set an existing file is left untouched and ErrFileAlreadyExists is
// returned. FormatAuto picks the format from the path extension. As with
// OutputFile, formats other than FormatXLSX and FormatCSV, xls included,
// return ErrUnsupportedFormat.
func (w *Writer) SaveFile(path string, format Format, canOverwrite bool) error {
	if err := w.requireOpen(); err != nil {
		return err
	}
	if format == FormatAuto {
		f, err := ParseFormat(filepath.Ext(path))
		if err != nil {
			return newFileError("save", path, err)
		}
		format = f
	}
	if err := checkWritable(format); err != nil {
		return newFileError("save", path, err)
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !canOverwrite {
		flag = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	out, err := os.OpenFile(path, flag, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return newFileError("save", path, ErrFileAlreadyExists)
	}
	if err != nil {
		return newFileError("save", path, err)
	}

	defer w.finish()
	if err := w.encode(out, format); err != nil {
		out.Close()
		os.Remove(path)
		return newFileError("save", path, err)
	}
	if err := out.Close(); err != nil {
		return newFileError("save", path, err)
	}
	w.opts.logger.Info("workbook saved", "path", path, "format", format.String(), "rows", w.numberOfRows)
	return nil
}

// encode serializes the workbook in format.
func (w *Writer) encode(out io.Writer, format Format) error {
	switch format {
	case FormatXLSX:
		return w.file.Write(out)
	case FormatCSV:
		return w.encodeCSV(out)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// encodeCSV writes the active sheet as delimited text, one line per row.
func (w *Writer) encodeCSV(out io.Writer) error {
	rows, err := w.file.GetRows(w.activeSheet())
	if err != nil {
		return fmt.Errorf("read active sheet: %w", err)
	}
	cw := csv.NewWriter(out)
	cw.Comma = w.opts.delimiter
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// finish releases the workbook after an output and closes the Writer.
func (w *Writer) finish() {
	if err := w.release(); err != nil {
		w.opts.logger.Warn("release workbook", "error", err)
	}
	w.state = WriterClosed
}

// checkWritable rejects formats the Writer cannot produce.
func checkWritable(format Format) error {
	switch format {
	case FormatXLSX, FormatCSV:
		return nil
	}
	return fmt.Errorf("%w: cannot write %s", ErrUnsupportedFormat, format)
}
