package fields

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/mbolis/quick-forms/model"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	MinScaleLow  = 0
	MinScaleHigh = 1
	MaxScaleLow  = 2
	MaxScaleHigh = 10

	// MaxTextLength is the most characters a spreadsheet cell holds, so text
	// answers always export whole.
	MaxTextLength = 32767
)

type textKind struct {
	typ         model.FieldType
	name        string
	placeholder string
	multiline   bool
}

func (k textKind) Type() model.FieldType { return k.typ }
func (k textKind) DisplayName() string   { return k.name }

func (k textKind) Default() model.Field {
	return model.Field{Type: k.typ, Label: k.name, Placeholder: k.placeholder}
}

func (k textKind) check(f model.Field) []string {
	return append(noOptions(f), noScale(f)...)
}

func (k textKind) normalize(f model.Field, raw any) (model.Answer, *ValidationError) {
	s, ok := raw.(string)
	if !ok {
		return model.Answer{}, invalid(f.ID, InvalidFormat, "expected text, got %T", raw)
	}
	if n := utf8.RuneCountInString(s); n > MaxTextLength {
		return model.Answer{}, invalid(f.ID, InvalidFormat, "text is %d characters long, at most %d allowed", n, MaxTextLength)
	}
	return model.TextAnswer(s), nil
}

func (k textKind) control(f model.Field, current model.Answer, c *Control) {
	c.Widget = WidgetText
	if k.multiline {
		c.Widget = WidgetTextarea
	}
	c.Placeholder = f.Placeholder
	c.Value = current.Text()
}

// choiceKind covers the single-selection types.
type choiceKind struct {
	typ    model.FieldType
	name   string
	label  string
	widget Widget
}

func (k choiceKind) Type() model.FieldType { return k.typ }
func (k choiceKind) DisplayName() string   { return k.name }

func (k choiceKind) Default() model.Field {
	return model.Field{Type: k.typ, Label: k.label, Options: defaultOptions()}
}

func (k choiceKind) check(f model.Field) []string {
	return append(checkOptions(f), noScale(f)...)
}

func (k choiceKind) normalize(f model.Field, raw any) (model.Answer, *ValidationError) {
	s, ok := raw.(string)
	if !ok {
		return model.Answer{}, invalid(f.ID, InvalidFormat, "expected a single option, got %T", raw)
	}
	s = strings.TrimSpace(s)
	if indexOf(f.Options, s) < 0 {
		return model.Answer{}, invalid(f.ID, InvalidOption, "%q is not an option", s)
	}
	return model.TextAnswer(s), nil
}

func (k choiceKind) control(f model.Field, current model.Answer, c *Control) {
	c.Widget = k.widget
	if k.widget == WidgetSelect {
		c.Placeholder = "Select an option"
	}
	c.Value = current.Text()
	c.Choices = choices(f.Options, current.Values())
}

type checkboxKind struct{}

func (checkboxKind) Type() model.FieldType { return model.Checkboxes }
func (checkboxKind) DisplayName() string   { return "Checkboxes" }

func (checkboxKind) Default() model.Field {
	return model.Field{Type: model.Checkboxes, Label: "Checkboxes", Options: defaultOptions()}
}

func (checkboxKind) check(f model.Field) []string {
	return append(checkOptions(f), noScale(f)...)
}

// normalize returns the selected options in option order, without duplicates.
func (checkboxKind) normalize(f model.Field, raw any) (model.Answer, *ValidationError) {
	values, ok := toStrings(raw)
	if !ok {
		return model.Answer{}, invalid(f.ID, InvalidFormat, "expected a list of options, got %T", raw)
	}
	picked := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if indexOf(f.Options, v) < 0 {
			return model.Answer{}, invalid(f.ID, InvalidOption, "%q is not an option", v)
		}
		picked[v] = true
	}
	set := make([]string, 0, len(picked))
	for _, opt := range f.Options {
		if picked[opt] {
			set = append(set, opt)
		}
	}
	return model.SetAnswer(set...), nil
}

func (checkboxKind) control(f model.Field, current model.Answer, c *Control) {
	c.Widget = WidgetCheckboxGroup
	c.Choices = choices(f.Options, current.Values())
}

type scaleKind struct{}

func (scaleKind) Type() model.FieldType { return model.LinearScale }
func (scaleKind) DisplayName() string   { return "Linear scale" }

func (scaleKind) Default() model.Field {
	return model.Field{Type: model.LinearScale, Label: "Linear scale", Min: model.IntPtr(1), Max: model.IntPtr(5)}
}

func (scaleKind) check(f model.Field) []string {
	issues := noOptions(f)
	if f.Min == nil || f.Max == nil {
		return append(issues, "linear scale needs both min and max")
	}
	if *f.Min < MinScaleLow || *f.Min > MinScaleHigh {
		issues = append(issues, "min must be 0 or 1")
	}
	if *f.Max < MaxScaleLow || *f.Max > MaxScaleHigh {
		issues = append(issues, "max must be between 2 and 10")
	}
	if *f.Max <= *f.Min {
		issues = append(issues, "max must be greater than min")
	}
	return issues
}

func (scaleKind) normalize(f model.Field, raw any) (model.Answer, *ValidationError) {
	n, ok := toInt(raw)
	if !ok {
		return model.Answer{}, invalid(f.ID, InvalidFormat, "expected an integer, got %v", raw)
	}
	lo, hi := scaleBounds(f)
	if n < lo || n > hi {
		return model.Answer{}, invalid(f.ID, OutOfRange, "%d is outside [%d, %d]", n, lo, hi)
	}
	return model.TextAnswer(strconv.Itoa(n)), nil
}

func (scaleKind) control(f model.Field, current model.Answer, c *Control) {
	c.Widget = WidgetScale
	lo, hi := scaleBounds(f)
	c.Min, c.Max = model.IntPtr(lo), model.IntPtr(hi)
	c.MinLabel, c.MaxLabel = f.MinLabel, f.MaxLabel
	c.Value = current.Text()
	steps := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		steps = append(steps, strconv.Itoa(i))
	}
	c.Choices = choices(steps, current.Values())
}

func scaleBounds(f model.Field) (int, int) {
	lo, hi := 1, 5
	if f.Min != nil {
		lo = *f.Min
	}
	if f.Max != nil {
		hi = *f.Max
	}
	return lo, hi
}

// temporalKind accepts any of its layouts; the first one is the canonical
// format shown to users.
type temporalKind struct {
	typ     model.FieldType
	name    string
	label   string
	layouts []string
}

func (k temporalKind) Type() model.FieldType { return k.typ }
func (k temporalKind) DisplayName() string   { return k.name }

func (k temporalKind) Default() model.Field {
	return model.Field{Type: k.typ, Label: k.label}
}

func (k temporalKind) check(f model.Field) []string {
	return append(noOptions(f), noScale(f)...)
}

func (k temporalKind) normalize(f model.Field, raw any) (model.Answer, *ValidationError) {
	s, ok := raw.(string)
	if !ok {
		return model.Answer{}, invalid(f.ID, InvalidFormat, "expected %s as text, got %T", k.layouts[0], raw)
	}
	s = strings.TrimSpace(s)
	for _, layout := range k.layouts {
		if _, err := time.Parse(layout, s); err == nil {
			return model.TextAnswer(s), nil
		}
	}
	return model.Answer{}, invalid(f.ID, InvalidFormat, "%q does not match %s", s, k.layouts[0])
}

func (k temporalKind) control(f model.Field, current model.Answer, c *Control) {
	c.Widget = WidgetDate
	if k.typ == model.Time {
		c.Widget = WidgetTime
	}
	c.Placeholder = k.layouts[0]
	c.Value = current.Text()
}

func noOptions(f model.Field) []string {
	if len(f.Options) > 0 {
		return []string{"options are only allowed on choice fields"}
	}
	return nil
}

func noScale(f model.Field) []string {
	if f.Min != nil || f.Max != nil {
		return []string{"min/max are only allowed on linear scale fields"}
	}
	return nil
}

func checkOptions(f model.Field) []string {
	if len(f.Options) == 0 {
		return []string{"at least one option is required"}
	}
	var issues []string
	seen := make(map[string]bool, len(f.Options))
	for i, opt := range f.Options {
		switch {
		case strings.TrimSpace(opt) == "":
			issues = append(issues, "option #"+strconv.Itoa(i+1)+" is blank")
		case seen[opt]:
			issues = append(issues, "option "+strconv.Quote(opt)+" is repeated")
		}
		seen[opt] = true
	}
	return issues
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}

func toStrings(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case string:
		return []string{v}, true
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}
