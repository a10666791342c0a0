package fields

import (
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/mbolis/quick-forms/model"
)

// Validate checks raw against the field's constraints and returns the
// normalized answer. An empty, non-required value yields the zero Answer.
func Validate(field model.Field, raw any) (model.Answer, error) {
	k, ok := Lookup(field.Type)
	if !ok {
		return model.Answer{}, invalid(field.ID, InvalidFormat, "unknown field type %q", field.Type)
	}
	if isEmpty(raw) {
		if field.Required {
			return model.Answer{}, &ValidationError{FieldID: field.ID, Reason: MissingRequiredValue}
		}
		return model.Answer{}, nil
	}
	answer, verr := k.normalize(field, raw)
	if verr != nil {
		return model.Answer{}, verr
	}
	if answer.IsZero() && field.Required {
		return model.Answer{}, &ValidationError{FieldID: field.ID, Reason: MissingRequiredValue}
	}
	return answer, nil
}

// ValidateAll validates a whole submission against the form's schema. Every
// field of the form is checked, whether or not answers carries its key, and
// keys that match no field are rejected. The first failure, in field order,
// is returned; among unknown keys the lowest one is reported.
func ValidateAll(form model.Form, answers map[string]any) (map[string]model.Answer, error) {
	out := make(map[string]model.Answer, len(form.Fields))
	for _, field := range form.Fields {
		answer, err := Validate(field, answers[field.ID])
		if err != nil {
			return nil, err
		}
		if !answer.IsZero() {
			out[field.ID] = answer
		}
	}
	var unknown []string
	for key := range answers {
		if _, ok := form.Field(key); !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &ValidationError{FieldID: unknown[0], Reason: UnknownField, Detail: "no such field in form"}
	}
	return out, nil
}

func isEmpty(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case json.Number:
		return v == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}
