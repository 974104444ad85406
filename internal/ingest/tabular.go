// internal/ingest/tabular.go
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "savings-workers/internal/common/errors"
)

// Format is a dataset file layout, chosen from the file extension.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
)

// DetectFormat maps a path extension to its Format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".txt", ".tsv":
		return FormatTSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", apperrors.NewUnsupportedFileFormatError(path)
	}
}

// table is a header row plus the data rows below it.
type table struct {
	header []string
	rows   [][]string
	// numeric marks the columns written as numbers in a workbook.
	numeric []bool
}

func readTable(path string, format Format) (*table, error) {
	switch format {
	case FormatCSV:
		return readDelimited(path, ',')
	case FormatTSV:
		return readDelimited(path, '\t')
	case FormatXLSX:
		return readSheet(path)
	default:
		return nil, apperrors.NewUnsupportedFileFormatError(path)
	}
}

func readDelimited(path string, comma rune) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &table{}, nil
	}
	if err != nil {
		return nil, apperrors.NewInvalidRecordError(path, 0, err)
	}

	t := &table{header: header}
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewInvalidRecordError(path, line, err)
		}
		if blank(rec) {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

// readSheet reads the first worksheet of a workbook.
func readSheet(path string) (*table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &table{}, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewInvalidRecordError(path, 0, err)
	}
	if len(rows) == 0 {
		return &table{}, nil
	}

	t := &table{header: rows[0]}
	for _, rec := range rows[1:] {
		if blank(rec) {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func writeTable(path string, format Format, t *table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewFileWriteFailedError(path, err)
		}
	}

	switch format {
	case FormatCSV:
		return writeDelimited(path, ',', t)
	case FormatTSV:
		return writeDelimited(path, '\t', t)
	case FormatXLSX:
		return writeSheet(path, t)
	default:
		return apperrors.NewUnsupportedFileFormatError(path)
	}
}

func writeDelimited(path string, comma rune, t *table) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewFileWriteFailedError(path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = comma
	if err = w.Write(t.header); err == nil {
		err = w.WriteAll(t.rows)
	}
	if err == nil {
		err = w.Error()
	}
	if err != nil {
		f.Close()
		return apperrors.NewFileWriteFailedError(path, err)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewFileWriteFailedError(path, err)
	}
	return nil
}

const sheetName = "Sheet1"

func writeSheet(path string, t *table) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return apperrors.NewFileWriteFailedError(path, err)
	}

	all := append([][]string{t.header}, t.rows...)
	for i, rec := range all {
		cells := make([]interface{}, len(rec))
		for j, v := range rec {
			cells[j] = sheetValue(t, i, j, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return apperrors.NewFileWriteFailedError(path, err)
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return apperrors.NewFileWriteFailedError(path, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return apperrors.NewFileWriteFailedError(path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewFileWriteFailedError(path, err)
	}
	return nil
}

// sheetValue turns the cells of numeric columns into numbers. The header row
// and empty cells stay text.
func sheetValue(t *table, row, col int, v string) interface{} {
	if row == 0 || v == "" || col >= len(t.numeric) || !t.numeric[col] {
		return v
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	return f
}

func openError(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return apperrors.NewFileNotFoundError(path, err)
	}
	return fmt.Errorf("open %s: %w", path, err)
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
