package prompt

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mbolis/quick-forms/fields"
	"github.com/mbolis/quick-forms/model"
)

// SkipOption is offered first on optional choice and scale questions.
const SkipOption = "(no answer)"

// Fill asks every question of form in order and returns the raw answers,
// keyed by field id. Each answer already passed fields.Validate; invalid
// ones are reported through d and asked again.
func Fill(ctx context.Context, d Driver, form model.Form) (map[string]any, error) {
	if err := d.Info(ctx, form.Title); err != nil {
		return nil, err
	}

	answers := make(map[string]any)
	for _, c := range fields.RenderForm(form, nil, false) {
		field, _ := form.Field(c.FieldID)
		for {
			raw, err := ask(ctx, d, field, c)
			if err != nil {
				return nil, err
			}
			if _, err := fields.Validate(field, raw); err != nil {
				if err := d.Info(ctx, err.Error()); err != nil {
					return nil, err
				}
				continue
			}
			if raw != nil {
				answers[c.FieldID] = raw
			}
			break
		}
	}
	return answers, nil
}

func ask(ctx context.Context, d Driver, field model.Field, c fields.Control) (any, error) {
	message := c.Label
	if c.Required {
		message += " *"
	}

	switch c.Widget {
	case fields.WidgetText, fields.WidgetDate, fields.WidgetTime:
		s, err := d.Input(ctx, InputConfig{
			Message: message,
			Help:    help(c),
			Validator: func(s string) error {
				if strings.TrimSpace(s) == "" && !c.Required {
					return nil
				}
				_, err := fields.Validate(field, s)
				return err
			},
		})
		return text(s), err

	case fields.WidgetTextarea:
		s, err := d.TextArea(ctx, InputConfig{Message: message, Help: help(c)})
		return text(s), err

	case fields.WidgetRadio, fields.WidgetSelect:
		options := make([]string, len(c.Choices))
		for i, ch := range c.Choices {
			options[i] = ch.Value
		}
		return pick(ctx, d, c, SelectConfig{Message: message, Options: options, Help: help(c)})

	case fields.WidgetCheckboxGroup:
		options := make([]string, len(c.Choices))
		for i, ch := range c.Choices {
			options[i] = ch.Value
		}
		picked, err := d.MultiSelect(ctx, SelectConfig{Message: message, Options: options, Help: help(c)})
		if err != nil || len(picked) == 0 {
			return nil, err
		}
		values := make([]string, 0, len(picked))
		for _, i := range picked {
			if i >= 0 && i < len(options) {
				values = append(values, options[i])
			}
		}
		return values, nil

	case fields.WidgetScale:
		var options []string
		for n := *c.Min; n <= *c.Max; n++ {
			options = append(options, strconv.Itoa(n))
		}
		v, err := pick(ctx, d, c, SelectConfig{Message: message, Options: options, Help: scaleHelp(c)})
		if err != nil || v == nil {
			return nil, err
		}
		return strconv.Atoi(v.(string))
	}
	return nil, fmt.Errorf("prompt: unsupported widget %q", c.Widget)
}

// pick asks a single choice, offering SkipOption for optional questions.
func pick(ctx context.Context, d Driver, c fields.Control, cfg SelectConfig) (any, error) {
	options := cfg.Options
	if !c.Required {
		cfg.Options = append([]string{SkipOption}, options...)
	}
	i, err := d.Select(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !c.Required {
		i--
	}
	if i < 0 || i >= len(options) {
		return nil, nil
	}
	return options[i], nil
}

func text(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func help(c fields.Control) string {
	parts := []string{}
	if c.Description != "" {
		parts = append(parts, c.Description)
	}
	switch c.Widget {
	case fields.WidgetDate:
		parts = append(parts, "format YYYY-MM-DD")
	case fields.WidgetTime:
		parts = append(parts, "format HH:MM")
	default:
		if c.Placeholder != "" {
			parts = append(parts, c.Placeholder)
		}
	}
	return strings.Join(parts, " | ")
}

func scaleHelp(c fields.Control) string {
	h := help(c)
	if c.MinLabel == "" && c.MaxLabel == "" {
		return h
	}
	labels := fmt.Sprintf("%d = %s, %d = %s", *c.Min, c.MinLabel, *c.Max, c.MaxLabel)
	if h == "" {
		return labels
	}
	return h + " | " + labels
}
