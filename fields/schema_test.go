package fields_test

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-forms/fields"
	"github.com/mbolis/quick-forms/model"
)

func TestSanitizeAssignsIDsAndStripsMarkup(t *testing.T) {
	in := []model.Field{
		{Type: model.ShortText, Label: "Your <b>name</b>?"},
		{Type: model.ShortText, Label: "Your name"},
		{ID: "your_name__1", Type: model.ShortText, Label: "Taken"},
		{Type: model.Dropdown, Label: "Pick", Options: []string{"Tom & Jerry", "<script>x</script>ok"}},
	}

	title, out := fields.Sanitize("  ", in)
	assert.Equal(t, fields.UntitledForm, title)
	require.Len(t, out, 4)
	assert.Equal(t, "your_name", out[0].ID)
	assert.Equal(t, "Your name?", out[0].Label)
	assert.Equal(t, "your_name__2", out[1].ID)
	assert.Equal(t, "your_name__1", out[2].ID)
	assert.Equal(t, "pick", out[3].ID)
	assert.Equal(t, []string{"Tom & Jerry", "ok"}, out[3].Options)

	assert.Empty(t, in[0].ID, "input must not be modified")
}

func TestCheckReportsEveryProblem(t *testing.T) {
	bad := []model.Field{
		{ID: "a", Type: "signature", Label: "Sign"},
		{ID: "a", Type: model.ShortText, Label: "Dup"},
		{ID: "b", Type: model.Dropdown, Label: "Pick"},
		{ID: "c", Type: model.LinearScale, Label: "Rate", Min: model.IntPtr(2), Max: model.IntPtr(11)},
		{ID: "d", Type: model.Date, Label: "", Options: []string{"x"}},
		{ID: "e", Type: model.Checkboxes, Label: "Tags", Options: []string{"x", "x", " "}},
	}

	err := fields.Check(bad)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	byField := map[string]int{}
	for _, e := range merr.Errors {
		var serr *fields.SchemaError
		require.ErrorAs(t, e, &serr)
		byField[serr.FieldID]++
	}
	assert.Equal(t, 2, byField["a"])
	assert.Equal(t, 1, byField["b"])
	assert.Equal(t, 2, byField["c"])
	assert.Equal(t, 2, byField["d"])
	assert.Equal(t, 2, byField["e"])
}

func TestCheckScaleContract(t *testing.T) {
	tests := []struct {
		min, max int
		ok       bool
	}{
		{0, 2, true}, {1, 10, true}, {1, 5, true},
		{2, 5, false}, {-1, 5, false}, {1, 1, false}, {0, 11, false}, {1, 2, true},
	}
	for _, tt := range tests {
		err := fields.Check([]model.Field{scaleField(tt.min, tt.max)})
		if tt.ok {
			assert.NoError(t, err, "%d..%d", tt.min, tt.max)
		} else {
			assert.Error(t, err, "%d..%d", tt.min, tt.max)
		}
	}

	err := fields.Check([]model.Field{{ID: "s", Type: model.LinearScale, Label: "Rate"}})
	assert.Error(t, err)
}

func TestEmptyOptionListOnNonChoiceField(t *testing.T) {
	in := []model.Field{
		{ID: "t", Type: model.ShortText, Label: "Name", Options: []string{}},
		{ID: "d", Type: model.Date, Label: "Day", Options: []string{}},
		{ID: "s", Type: model.LinearScale, Label: "Rate", Min: model.IntPtr(1), Max: model.IntPtr(5), Options: []string{}},
	}
	assert.NoError(t, fields.Check(in))

	_, out := fields.Sanitize("Form", in)
	for _, f := range out {
		assert.Nil(t, f.Options, f.ID)
	}
}
