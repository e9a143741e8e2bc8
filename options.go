package xlchunk

import "log/slog"

const (
	// DefaultChunkSize is the number of rows ReadNextRows returns when no size is given.
	DefaultChunkSize = 20
	// DefaultDelimiter separates CSV fields on read and write.
	DefaultDelimiter = ';'
	// DefaultCharset is the text encoding assumed for CSV and XLS input.
	DefaultCharset = "utf-8"

	defaultSheetTitle = "Worksheet"
)

// readerOptions holds configuration for the Reader.
type readerOptions struct {
	chunkSize int
	delimiter rune
	charset   string
	sheet     string
	logger    *slog.Logger
}

func defaultReaderOptions() *readerOptions {
	return &readerOptions{
		chunkSize: DefaultChunkSize,
		delimiter: DefaultDelimiter,
		charset:   DefaultCharset,
		logger:    discardLogger(),
	}
}

// ReaderOption configures the Reader.
type ReaderOption func(*readerOptions)

// WithChunkSize sets the default number of rows per ReadNextRows call (default: 20).
func WithChunkSize(n int) ReaderOption {
	return func(o *readerOptions) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithDelimiter sets the CSV field delimiter (default: ';').
func WithDelimiter(r rune) ReaderOption {
	return func(o *readerOptions) { o.delimiter = r }
}

// WithCharset sets the text encoding of CSV and XLS input (default: "utf-8").
func WithCharset(name string) ReaderOption {
	return func(o *readerOptions) { o.charset = name }
}

// WithSheet reads the named sheet instead of the workbook's active sheet.
func WithSheet(name string) ReaderOption {
	return func(o *readerOptions) { o.sheet = name }
}

// WithLogger sets the logger used for load passes. Logging is off by default.
func WithLogger(l *slog.Logger) ReaderOption {
	return func(o *readerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// writerOptions holds configuration for the Writer.
type writerOptions struct {
	tempDir           string
	unzipSizeLimit    int64
	unzipXMLSizeLimit int64
	delimiter         rune
	logger            *slog.Logger
}

func defaultWriterOptions() *writerOptions {
	return &writerOptions{
		delimiter: DefaultDelimiter,
		logger:    discardLogger(),
	}
}

// WriterOption configures the Writer.
type WriterOption func(*writerOptions)

// WithTempDir sets the directory the workbook engine spills large worksheets to.
// It must be an existing, writable directory.
func WithTempDir(dir string) WriterOption {
	return func(o *writerOptions) { o.tempDir = dir }
}

// WithUnzipSizeLimit bounds the memory used when opening an existing workbook:
// total is the maximum unzipped size, xml the size above which a worksheet is
// spilled to the temp dir. xml must not exceed total. Zero keeps the engine default.
func WithUnzipSizeLimit(total, xml int64) WriterOption {
	return func(o *writerOptions) {
		o.unzipSizeLimit = total
		o.unzipXMLSizeLimit = xml
	}
}

// WithWriterDelimiter sets the CSV field delimiter used by SaveFile (default: ';').
func WithWriterDelimiter(r rune) WriterOption {
	return func(o *writerOptions) { o.delimiter = r }
}

// WithWriterLogger sets the logger used for saves and outputs.
func WithWriterLogger(l *slog.Logger) WriterOption {
	return func(o *writerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
