package xlchunk

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// testdataDir returns the path to testdata directory, creating it if needed.
func testdataDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join("testdata")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

// testPath returns a path under testdata that is removed when the test ends.
func testPath(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(testdataDir(t), name)
	os.Remove(path)
	t.Cleanup(func() { os.Remove(path) })
	return path
}

var fixtureHeader = Row{
	"A": "Colonne A",
	"B": "Colonne B",
	"C": "Colonne C",
	"D": "Colonne D",
	"E": "Colonne E",
}

// fixtureData is a 10 row, 5 column sheet with sparse cells and a blank row 6.
var fixtureData = Rows{
	1:  {"A": "Colonne A", "B": "Colonne B", "C": "Colonne C", "D": "Colonne D", "E": "Colonne E"},
	2:  {"A": "Cellule A2", "B": "Cellule B2", "C": "", "D": "", "E": ""},
	3:  {"A": "", "B": "", "C": "Cellule C3", "D": "", "E": ""},
	4:  {"A": "", "B": "", "C": "", "D": "Cellule D4", "E": ""},
	5:  {"A": "", "B": "", "C": "", "D": "", "E": "Cellule E5"},
	6:  {"A": "", "B": "", "C": "", "D": "", "E": ""},
	7:  {"A": "", "B": "", "C": "Cellule C7", "D": "", "E": ""},
	8:  {"A": "Cellule A8", "B": "", "C": "", "D": "", "E": "Cellule E8"},
	9:  {"A": "", "B": "Cellule B9", "C": "", "D": "", "E": ""},
	10: {"A": "", "B": "", "C": "Cellule C10", "D": "", "E": ""},
}

// createFixtureXLSX writes fixtureData to an xlsx file.
func createFixtureXLSX(t *testing.T, name string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for n, row := range fixtureData {
		for col, v := range row {
			if v == "" {
				continue
			}
			require.NoError(t, f.SetCellStr("Sheet1", fmt.Sprintf("%s%d", col, n), v))
		}
	}

	path := testPath(t, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// createFixtureCSV writes fixtureData as ';' separated text.
func createFixtureCSV(t *testing.T, name string) string {
	t.Helper()
	var b strings.Builder
	for _, n := range fixtureData.Keys() {
		b.WriteString(strings.Join(fixtureData[n].Values(), ";"))
		b.WriteByte('\n')
	}
	path := testPath(t, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

const (
	odsHead = xml.Header + `<office:document-content` +
		` xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"` +
		` xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0"` +
		` xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"` +
		` office:version="1.2"><office:body><office:spreadsheet>`
	odsTail = `</office:spreadsheet></office:body></office:document-content>`
)

// odsContent wraps table markup in an OpenDocument content.xml body.
func odsContent(tables string) string {
	return odsHead + tables + odsTail
}

// createODS writes an OpenDocument spreadsheet whose content.xml is content.
func createODS(t *testing.T, name, content string) string {
	t.Helper()
	path := testPath(t, name)
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)

	mt, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	require.NoError(t, err)
	_, err = mt.Write([]byte(odsMimeType))
	require.NoError(t, err)
	if content != "" {
		cw, err := zw.Create("content.xml")
		require.NoError(t, err)
		_, err = cw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
	return path
}

// fixtureODSTable renders fixtureData as a table named "Sheet1", padded the
// way office suites pad a sheet: repeated blank cells to the right and a
// repeated blank row run to the bottom.
func fixtureODSTable() string {
	var b strings.Builder
	b.WriteString(`<table:table table:name="Sheet1"><table:table-column table:number-columns-repeated="1024"/>`)
	for _, n := range fixtureData.Keys() {
		b.WriteString(`<table:table-row>`)
		blank := 0
		for _, v := range fixtureData[n].Values() {
			if v == "" {
				blank++
				continue
			}
			if blank > 0 {
				fmt.Fprintf(&b, `<table:table-cell table:number-columns-repeated="%d"/>`, blank)
				blank = 0
			}
			fmt.Fprintf(&b, `<table:table-cell office:value-type="string"><text:p>%s</text:p></table:table-cell>`, html.EscapeString(v))
		}
		fmt.Fprintf(&b, `<table:table-cell table:number-columns-repeated="%d"/>`, 1024-5+blank)
		b.WriteString(`</table:table-row>`)
	}
	b.WriteString(`<table:table-row table:number-rows-repeated="1048566"><table:table-cell table:number-columns-repeated="1024"/></table:table-row>`)
	b.WriteString(`</table:table>`)
	return b.String()
}

// createFixtureODS writes fixtureData to an ods file.
func createFixtureODS(t *testing.T, name string) string {
	t.Helper()
	return createODS(t, name, odsContent(fixtureODSTable()))
}

// createNumberedXLSX creates a sheet with a header row followed by rows-1
// data rows. Cell values are "r<row>c<col>" so every row is distinct.
func createNumberedXLSX(t *testing.T, name string, rows, cols int) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for r := 1; r <= rows; r++ {
		values := make([]any, cols)
		for c := range values {
			if r == 1 {
				values[c] = fmt.Sprintf("Header %d", c+1)
			} else {
				values[c] = fmt.Sprintf("r%dc%d", r, c+1)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}

	path := testPath(t, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// loadedReader returns a Reader with path loaded.
func loadedReader(t *testing.T, path string, opts ...ReaderOption) *Reader {
	t.Helper()
	r := NewReader(opts...)
	require.NoError(t, r.Load(path, FormatAuto))
	t.Cleanup(func() { r.Close() })
	return r
}
