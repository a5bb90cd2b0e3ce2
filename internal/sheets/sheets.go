// Package sheets turns uploaded spreadsheets into ordered import records.
package sheets

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gudang-app/gudang/internal/platform/httpx"
	"github.com/gudang-app/gudang/internal/reconcile"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = fmt.Errorf("sheets: unsupported file type: %w", httpx.ErrValidation)
	// ErrUnknownEncoding is returned when Options.Encoding names no known character set.
	ErrUnknownEncoding = fmt.Errorf("sheets: unknown encoding: %w", httpx.ErrValidation)
	// ErrUnreadable is returned when the file cannot be decoded as its detected format.
	ErrUnreadable = fmt.Errorf("sheets: file is not readable: %w", httpx.ErrValidation)
)

// Format is a supported tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Options tunes the readers. Zero values pick sensible defaults.
type Options struct {
	// Encoding is a WHATWG label such as "utf-8" or "windows-1256". CSV only.
	Encoding string
	// Comma overrides the detected CSV delimiter.
	Comma rune
	// Sheet selects an XLSX worksheet; the first one is used when empty.
	Sheet string
}

// Detect picks the reader for filename by extension.
func Detect(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm", ".xltx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}

// Read detects the format of filename and reads every record from r.
func Read(filename string, r io.Reader, opts Options) ([]reconcile.ImportRecord, error) {
	format, err := Detect(filename)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return ReadXLSX(r, opts)
	}
	return ReadCSV(r, opts)
}

// File is an uploaded spreadsheet usable as a reconcile.RecordSource.
type File struct {
	Name    string
	Body    io.Reader
	Options Options
}

func (f File) ReadRecords(ctx context.Context) ([]reconcile.ImportRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Read(f.Name, f.Body, f.Options)
}

// Opener adapts the readers to the import handler.
func Opener(opts Options) reconcile.TabularOpener {
	return func(filename string, body io.Reader) reconcile.RecordSource {
		return File{Name: filename, Body: body, Options: opts}
	}
}

// buildRecords treats the first non-empty row as the header row. Empty cells are left
// out of a record and rows without any value are skipped.
func buildRecords(rows [][]string) []reconcile.ImportRecord {
	start := -1
	for i, row := range rows {
		if !isEmptyRow(row) {
			start = i
			break
		}
	}
	records := []reconcile.ImportRecord{}
	if start < 0 {
		return records
	}
	headers := uniqueHeaders(rows[start])
	for _, row := range rows[start+1:] {
		fields := make([]reconcile.Field, 0, len(row))
		for i, cell := range row {
			if cell == "" {
				continue
			}
			fields = append(fields, reconcile.Field{Header: headerAt(headers, i), Value: cell})
		}
		if len(fields) == 0 {
			continue
		}
		records = append(records, reconcile.NewImportRecord(fields...))
	}
	return records
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// uniqueHeaders trims headers, names blank ones after their column letter and
// suffixes repeats with _1, _2...
func uniqueHeaders(row []string) []string {
	used := make(map[string]bool, len(row))
	repeats := make(map[string]int)
	out := make([]string, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		if h == "" {
			h = columnName(i)
		}
		name := h
		for used[name] {
			repeats[h]++
			name = fmt.Sprintf("%s_%d", h, repeats[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func headerAt(headers []string, i int) string {
	if i < len(headers) {
		return headers[i]
	}
	return columnName(i)
}

func columnName(i int) string {
	name, err := excelize.ColumnNumberToName(i + 1)
	if err != nil {
		return fmt.Sprintf("column_%d", i+1)
	}
	return name
}
