package fields

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/microcosm-cc/bluemonday"

	"github.com/mbolis/quick-forms/model"
)

const UntitledForm = "Untitled form"

var (
	reNoIdent = regexp.MustCompile(`\W+`)

	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// Sanitize strips markup from every user supplied text of a form, fills in
// missing field ids and returns the cleaned copy. The input is not modified.
func Sanitize(title string, in []model.Field) (string, []model.Field) {
	title = PlainText(title)
	if title == "" {
		title = UntitledForm
	}

	out := make([]model.Field, len(in))
	for i, f := range in {
		f.ID = strings.TrimSpace(f.ID)
		f.Label = PlainText(f.Label)
		f.Description = PlainText(f.Description)
		f.Placeholder = PlainText(f.Placeholder)
		f.MinLabel = PlainText(f.MinLabel)
		f.MaxLabel = PlainText(f.MaxLabel)
		if len(f.Options) > 0 {
			opts := make([]string, len(f.Options))
			for j, opt := range f.Options {
				opts[j] = PlainText(opt)
			}
			f.Options = opts
		} else {
			f.Options = nil
		}
		out[i] = f
	}
	assignIDs(out)
	return title, out
}

// assignIDs derives an id from the label for fields that have none, adding a
// "__n" suffix when the same name is already taken.
func assignIDs(fields []model.Field) {
	taken := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.ID != "" {
			taken[f.ID] = true
		}
	}
	for i, f := range fields {
		if f.ID != "" {
			continue
		}
		name := strings.ToLower(f.Label)
		name = reNoIdent.ReplaceAllLiteralString(name, " ")
		name = strings.Join(strings.Fields(name), "_")
		if name == "" {
			name = "field"
		}

		candidate := name
		for n := 1; taken[candidate]; n++ {
			candidate = fmt.Sprintf("%s__%d", name, n)
		}
		taken[candidate] = true
		fields[i].ID = candidate
	}
}

// Check verifies every field against its kind's contract. All problems are
// reported, as a *multierror.Error of *SchemaError.
func Check(fields []model.Field) error {
	var result *multierror.Error
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if f.ID == "" {
			result = multierror.Append(result, &SchemaError{Index: i, Msg: "missing id"})
		} else if seen[f.ID] {
			result = multierror.Append(result, &SchemaError{Index: i, FieldID: f.ID, Msg: "duplicate id"})
		}
		seen[f.ID] = true

		k, ok := Lookup(f.Type)
		if !ok {
			result = multierror.Append(result, &SchemaError{Index: i, FieldID: f.ID, Msg: fmt.Sprintf("unknown type %q", f.Type)})
			continue
		}
		if strings.TrimSpace(f.Label) == "" {
			result = multierror.Append(result, &SchemaError{Index: i, FieldID: f.ID, Msg: "label is required"})
		}
		for _, issue := range k.check(f) {
			result = multierror.Append(result, &SchemaError{Index: i, FieldID: f.ID, Msg: issue})
		}
	}
	return result.ErrorOrNil()
}

// PlainText strips markup from s and trims it.
func PlainText(s string) string {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
