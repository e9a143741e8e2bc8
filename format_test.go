package xlchunk

import (
	"archive/zip"
	"compress/gzip"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatAuto},
		{"auto", FormatAuto},
		{"xlsx", FormatXLSX},
		{".XLSX", FormatXLSX},
		{"Excel2007", FormatXLSX},
		{"xls", FormatXLS},
		{"Excel5", FormatXLS},
		{"csv", FormatCSV},
		{"txt", FormatCSV},
		{"ods", FormatODS},
		{"OOCalc", FormatODS},
		{"xml", FormatXML2003},
		{"gnumeric", FormatGnumeric},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)
}

func TestFormat_Names(t *testing.T) {
	assert.Equal(t, "Excel2007", FormatXLSX.String())
	assert.Equal(t, "Excel5", FormatXLS.String())
	assert.Equal(t, "xlsx", FormatXLSX.Extension())
	assert.Equal(t, "csv", FormatCSV.Extension())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatXLSX.ContentType())
	assert.Equal(t, "application/vnd.ms-excel", FormatXLS.ContentType())
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
}

func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := testPath(t, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestIdentify(t *testing.T) {
	t.Run("xlsx", func(t *testing.T) {
		got, err := Identify(createFixtureXLSX(t, "identify.xlsx"))
		require.NoError(t, err)
		assert.Equal(t, FormatXLSX, got)
	})

	t.Run("xlsx without extension", func(t *testing.T) {
		src := createFixtureXLSX(t, "identify_src.xlsx")
		data, err := os.ReadFile(src)
		require.NoError(t, err)
		got, err := Identify(writeTestFile(t, "identify_noext", data))
		require.NoError(t, err)
		assert.Equal(t, FormatXLSX, got)
	})

	t.Run("xls", func(t *testing.T) {
		data := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 64)...)
		got, err := Identify(writeTestFile(t, "identify.xls", data))
		require.NoError(t, err)
		assert.Equal(t, FormatXLS, got)
	})

	t.Run("ods", func(t *testing.T) {
		path := testPath(t, "identify.ods")
		out, err := os.Create(path)
		require.NoError(t, err)
		zw := zip.NewWriter(out)
		w, err := zw.Create("mimetype")
		require.NoError(t, err)
		_, err = w.Write([]byte("application/vnd.oasis.opendocument.spreadsheet"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, out.Close())

		got, err := Identify(path)
		require.NoError(t, err)
		assert.Equal(t, FormatODS, got)
	})

	t.Run("gnumeric", func(t *testing.T) {
		path := testPath(t, "identify.gnumeric")
		out, err := os.Create(path)
		require.NoError(t, err)
		gz := gzip.NewWriter(out)
		_, err = gz.Write([]byte(`<?xml version="1.0"?><gnm:Workbook/>`))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		require.NoError(t, out.Close())

		got, err := Identify(path)
		require.NoError(t, err)
		assert.Equal(t, FormatGnumeric, got)
	})

	t.Run("spreadsheetml", func(t *testing.T) {
		data := []byte(`<?xml version="1.0"?><Workbook xmlns="urn:schemas-microsoft-com:office:spreadsheet"></Workbook>`)
		got, err := Identify(writeTestFile(t, "identify.xml", data))
		require.NoError(t, err)
		assert.Equal(t, FormatXML2003, got)
	})

	t.Run("csv", func(t *testing.T) {
		got, err := Identify(createFixtureCSV(t, "identify.csv"))
		require.NoError(t, err)
		assert.Equal(t, FormatCSV, got)
	})

	t.Run("text without extension", func(t *testing.T) {
		got, err := Identify(writeTestFile(t, "identify_text", []byte("a;b\n1;2\n")))
		require.NoError(t, err)
		assert.Equal(t, FormatCSV, got)
	})

	t.Run("binary", func(t *testing.T) {
		_, err := Identify(writeTestFile(t, "identify.bin", []byte{0x7F, 0x00, 0x00, 0x01}))
		assert.ErrorIs(t, err, ErrUnrecognizedFormat)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Identify("testdata/identify_missing.xlsx")
		assert.ErrorIs(t, err, ErrFileUnreadable)
	})
}

func TestLooksLikeText(t *testing.T) {
	assert.True(t, looksLikeText([]byte("plain text")))
	// "é" cut in half by the sniff window
	assert.True(t, looksLikeText([]byte{'c', 'a', 'f', 0xC3}))
	assert.False(t, looksLikeText(nil))
	assert.False(t, looksLikeText([]byte{'a', 0x00, 'b'}))
}
