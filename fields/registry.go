// Package fields holds the catalog of supported field types together with
// the per-type schema checks, value validation and control rendering.
//
// Each field type is one Kind. The catalog is the list of kinds, so a type
// cannot be listed without also implementing its checks and its renderer.
package fields

import (
	"fmt"

	"github.com/jinzhu/copier"

	"github.com/mbolis/quick-forms/model"
)

// Kind is implemented only by the types in this package.
type Kind interface {
	Type() model.FieldType
	DisplayName() string
	// Default returns the configuration a new field of this kind starts with.
	Default() model.Field

	check(f model.Field) []string
	normalize(f model.Field, raw any) (model.Answer, *ValidationError)
	control(f model.Field, current model.Answer, c *Control)
}

var catalog = []Kind{
	textKind{typ: model.ShortText, name: "Short answer", placeholder: "Enter text here"},
	textKind{typ: model.Paragraph, name: "Paragraph", placeholder: "Enter longer text here", multiline: true},
	choiceKind{typ: model.MultipleChoice, name: "Multiple choice", label: "Choose one", widget: WidgetRadio},
	checkboxKind{},
	choiceKind{typ: model.Dropdown, name: "Dropdown", label: "Select an option", widget: WidgetSelect},
	scaleKind{},
	temporalKind{typ: model.Date, name: "Date", label: "Select date", layouts: []string{DateLayout}},
	temporalKind{typ: model.Time, name: "Time", label: "Select time", layouts: []string{TimeLayout, TimeLayout + ":05"}},
}

var byType = func() map[model.FieldType]Kind {
	m := make(map[model.FieldType]Kind, len(catalog))
	for _, k := range catalog {
		m[k.Type()] = k
	}
	return m
}()

// FieldTypeInfo is one catalog entry as exposed to builders.
type FieldTypeInfo struct {
	Type        model.FieldType `json:"type"`
	DisplayName string          `json:"displayName"`
	Default     model.Field     `json:"defaultConfig"`
}

// ListFieldTypes returns the catalog in display order.
func ListFieldTypes() []FieldTypeInfo {
	out := make([]FieldTypeInfo, 0, len(catalog))
	for _, k := range catalog {
		out = append(out, FieldTypeInfo{
			Type:        k.Type(),
			DisplayName: k.DisplayName(),
			Default:     k.Default(),
		})
	}
	return out
}

func Lookup(t model.FieldType) (Kind, bool) {
	k, ok := byType[t]
	return k, ok
}

// NewField returns a fresh field of type t preloaded with the kind's default
// configuration. The result shares no memory with the catalog.
func NewField(t model.FieldType, id string) (model.Field, error) {
	k, ok := Lookup(t)
	if !ok {
		return model.Field{}, fmt.Errorf("unknown field type %q", t)
	}
	def := k.Default()
	var field model.Field
	if err := copier.CopyWithOption(&field, &def, copier.Option{DeepCopy: true}); err != nil {
		return model.Field{}, err
	}
	field.ID = id
	return field, nil
}

func defaultOptions() []string {
	return []string{"Option 1", "Option 2", "Option 3"}
}
