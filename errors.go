package xlchunk

import (
	"errors"
	"fmt"
)

// ErrFileUnreadable indicates the source path does not exist or cannot be opened for reading.
var ErrFileUnreadable = errors.New("file is not readable")

// ErrUnrecognizedFormat indicates the spreadsheet format could not be identified or parsed.
var ErrUnrecognizedFormat = errors.New("unrecognized spreadsheet format")

// ErrUnsupportedFormat indicates the format was identified but no reader or writer exists for it.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// ErrNotLoaded indicates an operation that requires a loaded workbook was called before Load.
var ErrNotLoaded = errors.New("no workbook loaded")

// ErrFileAlreadyExists indicates a save would overwrite an existing file without permission.
var ErrFileAlreadyExists = errors.New("file already exists")

// ErrCacheConfiguration indicates the workbook cache settings were rejected.
var ErrCacheConfiguration = errors.New("unable to apply cache configuration")

// ErrSheetNotFound indicates the requested sheet index or title does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrWriterClosed indicates the writer already produced its output and released its workbook.
var ErrWriterClosed = errors.New("writer is closed")

// ErrInvalidArgument indicates a row index, chunk size or similar argument is out of range.
var ErrInvalidArgument = errors.New("invalid argument")

// FileError records a failed file operation together with the path involved.
type FileError struct {
	Op   string // "load", "save", "output", "identify"
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// newFileError creates a FileError.
func newFileError(op, path string, err error) *FileError {
	return &FileError{Op: op, Path: path, Err: err}
}
