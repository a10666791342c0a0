package export

import (
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"

	SheetName = "Responses"
)

func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case "", CSV:
		return CSV, true
	case XLSX:
		return XLSX, true
	}
	return "", false
}

func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func (f Format) Extension() string {
	return "." + string(f)
}

// Write serializes t in the given format.
func Write(w io.Writer, t Table, format Format) error {
	if format == XLSX {
		return WriteXLSX(w, t)
	}
	return WriteCSV(w, t)
}

func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return errors.Wrap(err, "csv header")
	}
	for _, row := range t.Rows {
		if err := cw.Write(t.Values(row)); err != nil {
			return errors.Wrap(err, "csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "csv flush")
}

// WriteXLSX writes a single-sheet workbook with a header row.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return errors.Wrap(err, "xlsx sheet")
	}

	write := func(rowIdx int, values []string) error {
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return err
			}
		}
		return nil
	}

	if err := write(1, t.Columns); err != nil {
		return errors.Wrap(err, "xlsx header")
	}
	for i, row := range t.Rows {
		if err := write(i+2, t.Values(row)); err != nil {
			return errors.Wrapf(err, "xlsx row %d", i+1)
		}
	}
	_, err := f.WriteTo(w)
	return errors.Wrap(err, "xlsx write")
}
