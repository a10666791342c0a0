package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/export"
	"github.com/mbolis/quick-forms/fields"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/store"
)

type ResponseService struct {
	base
	forms     store.Forms
	responses store.Responses
}

func NewResponseService(forms store.Forms, responses store.Responses, opts ...Option) *ResponseService {
	return &ResponseService{base: newBase(opts), forms: forms, responses: responses}
}

// SubmitResponse validates answers against every field of the form and
// stores them as a new response. A single invalid field rejects the whole
// submission with apperr.ValidationFailed.
func (s *ResponseService) SubmitResponse(ctx context.Context, formID string, answers map[string]any, submitterLabel string) (model.Response, error) {
	form, err := s.forms.GetForm(ctx, formID)
	if err != nil {
		return model.Response{}, err
	}

	normalized, err := fields.ValidateAll(form, answers)
	if err != nil {
		var verr *fields.ValidationError
		if errors.As(err, &verr) {
			log.With(log.Fields{"form": formID, "field": verr.FieldID, "reason": verr.Reason}).Debug("submission rejected")
			return model.Response{}, &apperr.Error{
				Kind:    apperr.ValidationFailed,
				Message: verr.Error(),
				FieldID: verr.FieldID,
				Reason:  string(verr.Reason),
				Err:     verr,
			}
		}
		return model.Response{}, err
	}

	id, err := s.newID()
	if err != nil {
		return model.Response{}, err
	}
	resp := model.Response{
		ID:             id,
		FormID:         form.ID,
		SubmitterLabel: fields.PlainText(submitterLabel),
		Answers:        normalized,
		CreatedAt:      s.now(),
	}
	if err := s.responses.AppendResponse(ctx, resp); err != nil {
		return model.Response{}, err
	}
	return resp, nil
}

// ListResponses returns the form's responses in submission order.
func (s *ResponseService) ListResponses(ctx context.Context, formID string) ([]model.Response, error) {
	if _, err := s.forms.GetForm(ctx, formID); err != nil {
		return nil, err
	}
	return s.responses.ListResponses(ctx, formID)
}

// Export is a serialized response table ready to be sent as a download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (s *ResponseService) ExportResponses(ctx context.Context, formID string, format export.Format) (Export, error) {
	form, err := s.forms.GetForm(ctx, formID)
	if err != nil {
		return Export{}, err
	}
	responses, err := s.responses.ListResponses(ctx, formID)
	if err != nil {
		return Export{}, err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, export.ToTable(form, responses), format); err != nil {
		return Export{}, err
	}
	return Export{
		Filename:    exportName(form) + format.Extension(),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

var reUnsafeName = regexp.MustCompile(`[^\w.-]+`)

func exportName(form model.Form) string {
	name := strings.Trim(reUnsafeName.ReplaceAllString(form.Title, "_"), "_")
	if name == "" {
		name = fmt.Sprintf("responses_%s", form.ID)
	}
	return name
}
