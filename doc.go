// Package xlchunk reads spreadsheet files in bounded row chunks and writes
// tabular records back out as xlsx or csv.
//
// A Reader re-reads its file for every chunk, restricted by a RowFilter, so
// memory stays bounded by the chunk size rather than the sheet size:
//
//	r := xlchunk.NewReader(xlchunk.WithChunkSize(500))
//	if err := r.Load("orders.xlsx", xlchunk.FormatAuto); err != nil {
//		return err
//	}
//	defer r.Close()
//	for {
//		rows, err := r.ReadNextRows(0)
//		if err == io.EOF {
//			break
//		}
//		if err != nil {
//			return err
//		}
//		// rows[1] is the first row of the chunk
//	}
//
// A Writer fills a sheet from Records and saves or streams the workbook once:
//
//	w := xlchunk.NewWriter()
//	w.CreateDocument(xlchunk.DocumentProperties{Name: "orders", Author: "ops"})
//	w.FillSheet(records, true)
//	err := w.SaveFile("orders.xlsx", xlchunk.FormatXLSX, false)
package xlchunk
