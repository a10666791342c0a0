package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mbolis/quick-forms/export"
	"github.com/mbolis/quick-forms/model"
)

var (
	submitted = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	survey = model.Form{
		ID:    "f1",
		Title: "Survey",
		Fields: []model.Field{
			{ID: "q1", Type: model.ShortText, Label: "Name"},
			{ID: "q2", Type: model.Checkboxes, Label: "Tags", Options: []string{"a", "b", "c"}},
			{ID: "q3", Type: model.ShortText, Label: "Name"},
		},
	}
)

func TestToTableColumnsAndRows(t *testing.T) {
	responses := []model.Response{
		{
			ID: "r1", FormID: "f1", SubmitterLabel: "a@b.com", CreatedAt: submitted,
			Answers: map[string]model.Answer{
				"q1": model.TextAnswer("Alice"),
				"q2": model.SetAnswer("a", "c"),
			},
		},
		{
			ID: "r2", FormID: "f1", CreatedAt: submitted.Add(time.Hour),
			Answers: map[string]model.Answer{"q3": model.TextAnswer("Bob"), "gone": model.TextAnswer("legacy")},
		},
	}

	table := export.ToTable(survey, responses)

	wantColumns := []string{"Name", "Tags", "Name (2)", export.SubmitterColumn, export.SubmittedAtColumn}
	if diff := cmp.Diff(wantColumns, table.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}

	wantRows := []export.Row{
		{"Name": "Alice", "Tags": "a; c", "Name (2)": "", "Submitter": "a@b.com", "Submitted At": "2024-05-01T12:30:00Z"},
		{"Name": "", "Tags": "", "Name (2)": "Bob", "Submitter": "", "Submitted At": "2024-05-01T13:30:00Z"},
	}
	if diff := cmp.Diff(wantRows, table.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestToTableWithoutResponses(t *testing.T) {
	table := export.ToTable(survey, nil)
	assert.Len(t, table.Columns, 5)
	assert.Empty(t, table.Rows)
}

func TestWriteCSV(t *testing.T) {
	table := export.ToTable(survey, []model.Response{{
		CreatedAt: submitted,
		Answers:   map[string]model.Answer{"q1": model.TextAnswer(`Al, "the" pal`)},
	}})

	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, table, export.CSV))

	want := "Name,Tags,Name (2),Submitter,Submitted At\n" +
		`"Al, ""the"" pal",,,,2024-05-01T12:30:00Z` + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteXLSX(t *testing.T) {
	table := export.ToTable(survey, []model.Response{{
		SubmitterLabel: "x",
		CreatedAt:      submitted,
		Answers:        map[string]model.Answer{"q2": model.SetAnswer("b")},
	}})

	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, table, export.XLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, table.Columns, rows[0])
	assert.Equal(t, "b", rows[1][1])
	assert.Equal(t, "x", rows[1][3])
}

func TestParseFormat(t *testing.T) {
	f, ok := export.ParseFormat("")
	assert.True(t, ok)
	assert.Equal(t, export.CSV, f)

	f, ok = export.ParseFormat("xlsx")
	assert.True(t, ok)
	assert.Equal(t, ".xlsx", f.Extension())

	_, ok = export.ParseFormat("pdf")
	assert.False(t, ok)
}
