package model

import "time"

type FieldType string

const (
	ShortText      FieldType = "short_text"
	Paragraph      FieldType = "paragraph"
	MultipleChoice FieldType = "multiple_choice"
	Checkboxes     FieldType = "checkboxes"
	Dropdown       FieldType = "dropdown"
	LinearScale    FieldType = "linear_scale"
	Date           FieldType = "date"
	Time           FieldType = "time"
)

// Field is one question of a form. Options are only meaningful for choice
// types, Min/Max/MinLabel/MaxLabel only for linear scales.
type Field struct {
	ID          string    `json:"id" yaml:"id"`
	Type        FieldType `json:"type" yaml:"type"`
	Label       string    `json:"label" yaml:"label"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool      `json:"required" yaml:"required"`
	Options     []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Min         *int      `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *int      `json:"max,omitempty" yaml:"max,omitempty"`
	MinLabel    string    `json:"minLabel,omitempty" yaml:"minLabel,omitempty"`
	MaxLabel    string    `json:"maxLabel,omitempty" yaml:"maxLabel,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

type Form struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	Title     string    `json:"title"`
	OwnerID   string    `json:"ownerId"`
	Fields    []Field   `json:"fields"`
	CreatedAt time.Time `json:"createdAt"`
}

// Field returns the field with the given id.
func (f Form) Field(id string) (Field, bool) {
	for _, field := range f.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return Field{}, false
}

// IntPtr is a small helper for building scale fields in code and tests.
func IntPtr(n int) *int {
	return &n
}
