package fields_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-forms/fields"
	"github.com/mbolis/quick-forms/model"
)

func TestListFieldTypesOrder(t *testing.T) {
	var got []model.FieldType
	for _, info := range fields.ListFieldTypes() {
		got = append(got, info.Type)
	}
	want := []model.FieldType{
		model.ShortText, model.Paragraph, model.MultipleChoice, model.Checkboxes,
		model.Dropdown, model.LinearScale, model.Date, model.Time,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("field types mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultsSatisfyTheirOwnContract(t *testing.T) {
	for _, info := range fields.ListFieldTypes() {
		field, err := fields.NewField(info.Type, "q")
		require.NoError(t, err)
		assert.NoError(t, fields.Check([]model.Field{field}), "type %s", info.Type)
		assert.NotEmpty(t, info.DisplayName)

		control := fields.Render(field, model.Answer{}, false)
		assert.NotEmpty(t, control.Widget, "type %s", info.Type)
	}
}

func TestNewFieldDoesNotAliasDefaults(t *testing.T) {
	field, err := fields.NewField(model.Dropdown, "q")
	require.NoError(t, err)
	field.Options[0] = "changed"

	again, err := fields.NewField(model.Dropdown, "q2")
	require.NoError(t, err)
	assert.Equal(t, "Option 1", again.Options[0])

	scale, err := fields.NewField(model.LinearScale, "s")
	require.NoError(t, err)
	*scale.Max = 9
	fresh, err := fields.NewField(model.LinearScale, "s")
	require.NoError(t, err)
	assert.Equal(t, 5, *fresh.Max)
}

func TestNewFieldUnknownType(t *testing.T) {
	_, err := fields.NewField("signature", "q")
	assert.Error(t, err)
}
