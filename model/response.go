package model

import (
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

type Response struct {
	ID             string            `json:"id"`
	FormID         string            `json:"formId"`
	SubmitterLabel string            `json:"submitterLabel,omitempty"`
	Answers        map[string]Answer `json:"answers"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// Answer is the normalized value stored for a field: a single string for
// every type except checkboxes, which store a set of strings.
type Answer struct {
	text  string
	set   []string
	multi bool
}

func TextAnswer(s string) Answer {
	return Answer{text: s}
}

func SetAnswer(values ...string) Answer {
	return Answer{set: append([]string{}, values...), multi: true}
}

func (a Answer) IsSet() bool {
	return a.multi
}

func (a Answer) IsZero() bool {
	if a.multi {
		return len(a.set) == 0
	}
	return a.text == ""
}

// Text returns the single value, or the set joined with "; ".
func (a Answer) Text() string {
	if a.multi {
		return strings.Join(a.set, "; ")
	}
	return a.text
}

func (a Answer) Values() []string {
	if a.multi {
		return append([]string{}, a.set...)
	}
	if a.text == "" {
		return nil
	}
	return []string{a.text}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.multi {
		if a.set == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.set)
	}
	return json.Marshal(a.text)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case strings.HasPrefix(trimmed, "["):
		var set []string
		if err := json.Unmarshal(data, &set); err != nil {
			return err
		}
		*a = SetAnswer(set...)
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
	case trimmed == "null":
		*a = Answer{}
	default:
		return errors.New("answer must be a string or an array of strings")
	}
	return nil
}
