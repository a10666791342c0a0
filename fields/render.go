package fields

import "github.com/mbolis/quick-forms/model"

type Widget string

const (
	WidgetText          Widget = "text"
	WidgetTextarea      Widget = "textarea"
	WidgetRadio         Widget = "radio"
	WidgetCheckboxGroup Widget = "checkbox_group"
	WidgetSelect        Widget = "select"
	WidgetScale         Widget = "scale"
	WidgetDate          Widget = "date"
	WidgetTime          Widget = "time"
)

// Control describes everything a UI needs to draw one field.
type Control struct {
	FieldID     string          `json:"fieldId"`
	Type        model.FieldType `json:"type"`
	Widget      Widget          `json:"widget"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Required    bool            `json:"required"`
	Disabled    bool            `json:"disabled"`
	Placeholder string          `json:"placeholder,omitempty"`
	Value       string          `json:"value,omitempty"`
	Choices     []Choice        `json:"choices,omitempty"`
	Min         *int            `json:"min,omitempty"`
	Max         *int            `json:"max,omitempty"`
	MinLabel    string          `json:"minLabel,omitempty"`
	MaxLabel    string          `json:"maxLabel,omitempty"`
}

type Choice struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// Render builds the control for field showing current. With preview set the
// control is disabled, which is how the builder shows a read-only form.
// Unknown types render as a disabled text control.
func Render(field model.Field, current model.Answer, preview bool) Control {
	c := Control{
		FieldID:     field.ID,
		Type:        field.Type,
		Label:       field.Label,
		Description: field.Description,
		Required:    field.Required,
		Disabled:    preview,
	}
	k, ok := Lookup(field.Type)
	if !ok {
		c.Widget = WidgetText
		c.Disabled = true
		return c
	}
	k.control(field, current, &c)
	return c
}

// RenderForm renders every field of form in order.
func RenderForm(form model.Form, answers map[string]model.Answer, preview bool) []Control {
	controls := make([]Control, 0, len(form.Fields))
	for _, field := range form.Fields {
		controls = append(controls, Render(field, answers[field.ID], preview))
	}
	return controls
}

func choices(options, selected []string) []Choice {
	out := make([]Choice, 0, len(options))
	for _, opt := range options {
		out = append(out, Choice{Value: opt, Selected: indexOf(selected, opt) >= 0})
	}
	return out
}
