// Package export flattens a form and its responses into a table and writes
// it out as CSV or as an XLSX workbook. The transform is one way: checkbox
// sets are joined into a single cell.
package export

import (
	"fmt"
	"time"

	"github.com/mbolis/quick-forms/model"
)

const (
	SubmitterColumn   = "Submitter"
	SubmittedAtColumn = "Submitted At"

	// CheckboxSeparator joins checkbox answers, which are kept in option order.
	CheckboxSeparator = "; "
)

type Row map[string]string

type Table struct {
	Columns []string
	Rows    []Row
}

// Values returns the row's cells in column order.
func (t Table) Values(row Row) []string {
	out := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = row[col]
	}
	return out
}

// ToTable builds one row per response, in the order given. Columns are the
// field labels in schema order followed by the submitter and the submission
// time. Labels used more than once get a " (n)" suffix so no column is lost.
func ToTable(form model.Form, responses []model.Response) Table {
	columns := fieldColumns(form.Fields)
	t := Table{
		Columns: append(append([]string{}, columns...), SubmitterColumn, SubmittedAtColumn),
		Rows:    make([]Row, 0, len(responses)),
	}
	for _, resp := range responses {
		row := make(Row, len(t.Columns))
		for i, field := range form.Fields {
			answer, ok := resp.Answers[field.ID]
			if !ok {
				row[columns[i]] = ""
				continue
			}
			row[columns[i]] = answer.Text()
		}
		row[SubmitterColumn] = resp.SubmitterLabel
		row[SubmittedAtColumn] = resp.CreatedAt.UTC().Format(time.RFC3339)
		t.Rows = append(t.Rows, row)
	}
	return t
}

func fieldColumns(fields []model.Field) []string {
	used := map[string]bool{SubmitterColumn: true, SubmittedAtColumn: true}
	columns := make([]string, len(fields))
	for i, f := range fields {
		name := f.Label
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s (%d)", f.Label, n)
		}
		used[name] = true
		columns[i] = name
	}
	return columns
}
