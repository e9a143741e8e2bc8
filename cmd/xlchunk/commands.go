package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/javajack/xlchunk"
	"github.com/spf13/cobra"
)

// readerFlags are shared by every command that opens an input file.
type readerFlags struct {
	format    string
	sheet     string
	delimiter string
	charset   string
	chunk     int
}

func (f *readerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "auto", "Input format: auto, xlsx, xls, ods, csv")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Sheet to read (default: active sheet)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", ";", "CSV field delimiter")
	cmd.Flags().StringVar(&f.charset, "charset", xlchunk.DefaultCharset, "Text encoding of CSV and XLS input")
	cmd.Flags().IntVar(&f.chunk, "chunk", xlchunk.DefaultChunkSize, "Rows per load pass")
}

// open builds a Reader from the flags and loads path.
func (f *readerFlags) open(path string) (*xlchunk.Reader, error) {
	format, err := xlchunk.ParseFormat(f.format)
	if err != nil {
		return nil, err
	}
	delim := []rune(f.delimiter)
	if len(delim) != 1 {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", f.delimiter)
	}
	r := xlchunk.NewReader(
		xlchunk.WithChunkSize(f.chunk),
		xlchunk.WithSheet(f.sheet),
		xlchunk.WithDelimiter(delim[0]),
		xlchunk.WithCharset(f.charset),
		xlchunk.WithLogger(slog.Default()),
	)
	if err := r.Load(path, format); err != nil {
		return nil, err
	}
	return r, nil
}

func newDescribeCmd() *cobra.Command {
	var rf readerFlags
	cmd := &cobra.Command{
		Use:   "describe FILE",
		Short: "Print format, dimensions and headers of a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rf.open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()
			out, err := r.Describe()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	rf.register(cmd)
	return cmd
}

func newDumpCmd() *cobra.Command {
	var (
		rf       readerFlags
		from, to int
		where    string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print rows chunk by chunk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rf.open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			out := cmd.OutOrStdout()
			switch {
			case where != "":
				filter, err := xlchunk.NewExprFilter(where)
				if err != nil {
					return err
				}
				rows, err := r.ReadWhere(filter)
				if err != nil {
					return err
				}
				return printRows(out, rows, 0, asJSON)
			case from > 0 || to > 0:
				rows, err := r.Read(from, to)
				if err != nil {
					return err
				}
				return printRows(out, rows, 0, asJSON)
			}

			for {
				offset := r.RowIndex() - 1
				rows, err := r.ReadNextRows(0)
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if err := printRows(out, rows, offset, asJSON); err != nil {
					return err
				}
			}
		},
	}
	rf.register(cmd)
	cmd.Flags().IntVar(&from, "from", 0, "First row to print (reads the range in one call)")
	cmd.Flags().IntVar(&to, "to", 0, "Last row to print")
	cmd.Flags().StringVar(&where, "where", "", `Row filter expression over "row", e.g. "row % 2 == 0"`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per row")
	return cmd
}

// printRows writes rows in ascending order; offset is added to chunk-relative numbers.
func printRows(w io.Writer, rows xlchunk.Rows, offset int, asJSON bool) error {
	enc := json.NewEncoder(w)
	for _, n := range rows.Keys() {
		if asJSON {
			if err := enc.Encode(map[string]any{"row": n + offset, "cells": rows[n]}); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(w, "%d\t%s\n", n+offset, strings.Join(rows[n].Values(), "\t"))
	}
	return nil
}

func newConvertCmd() *cobra.Command {
	var (
		rf        readerFlags
		outFormat string
		overwrite bool
		header    bool
		title     string
		author    string
	)
	cmd := &cobra.Command{
		Use:   "convert INPUT OUTPUT",
		Short: "Copy the rows of a spreadsheet into a new xlsx or csv file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := xlchunk.ParseFormat(outFormat)
			if err != nil {
				return err
			}
			r, err := rf.open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			w := xlchunk.NewWriter(xlchunk.WithWriterLogger(slog.Default()))
			defer w.Close()
			if err := w.CreateDocument(xlchunk.DocumentProperties{Title: title, Author: author}); err != nil {
				return err
			}
			if err := copyRows(r, w, header); err != nil {
				return err
			}
			return w.SaveFile(args[1], format, overwrite)
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&outFormat, "to-format", "auto", "Output format: auto (from extension), xlsx, csv")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace OUTPUT if it exists")
	cmd.Flags().BoolVar(&header, "header", false, "Treat the first input row as field names")
	cmd.Flags().StringVar(&title, "title", "", "Document title")
	cmd.Flags().StringVar(&author, "author", "", "Document author")
	return cmd
}

// copyRows streams every chunk of r into w. The first chunk fills the sheet,
// later chunks are appended.
func copyRows(r *xlchunk.Reader, w *xlchunk.Writer, header bool) error {
	var names []string
	if header {
		h, err := r.ColumnHeaders()
		if err != nil {
			return err
		}
		names = h.Values()
		if err := r.SetRowIndex(2); err != nil {
			return err
		}
	}

	first := true
	for {
		rows, err := r.ReadNextRows(0)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		records := toRecords(rows, names)
		if first {
			err = w.FillSheet(records, header)
			first = false
		} else {
			err = w.AppendData(records)
		}
		if err != nil {
			return err
		}
	}
	if first && header {
		return w.FillSheet([]xlchunk.Record{xlchunk.RecordOf(names, stringsToAny(names)...)}, false)
	}
	return nil
}

func toRecords(rows xlchunk.Rows, names []string) []xlchunk.Record {
	records := make([]xlchunk.Record, 0, len(rows))
	for _, n := range rows.Keys() {
		if names == nil {
			records = append(records, rows[n].Record())
			continue
		}
		records = append(records, xlchunk.RecordOf(names, stringsToAny(rows[n].Values())...))
	}
	return records
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
