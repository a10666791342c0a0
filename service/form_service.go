package service

import (
	"context"
	"errors"

	"github.com/hashicorp/go-multierror"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/fields"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/store"
)

type FormService struct {
	base
	forms store.Forms
}

func NewFormService(forms store.Forms, opts ...Option) *FormService {
	return &FormService{base: newBase(opts), forms: forms}
}

// CreateForm stores a new form owned by ownerID. The whole schema is checked
// first; nothing is stored if any field is malformed.
func (s *FormService) CreateForm(ctx context.Context, title string, in []model.Field, ownerID string) (model.Form, error) {
	title, schema, err := checkSchema(title, in)
	if err != nil {
		return model.Form{}, err
	}

	id, err := s.newID()
	if err != nil {
		return model.Form{}, err
	}
	form := model.Form{
		ID:        id,
		Version:   1,
		Title:     title,
		OwnerID:   ownerID,
		Fields:    schema,
		CreatedAt: s.now(),
	}
	if err := s.forms.AppendForm(ctx, form); err != nil {
		return model.Form{}, err
	}

	log.With(log.Fields{"form": form.ID, "owner": ownerID, "fields": len(schema)}).Debug("form created")
	return form, nil
}

func (s *FormService) GetForm(ctx context.Context, id string) (model.Form, error) {
	return s.forms.GetForm(ctx, id)
}

// ListForms returns the forms of ownerID, or every form when ownerID is empty.
func (s *FormService) ListForms(ctx context.Context, ownerID string) ([]model.Form, error) {
	return s.forms.ListForms(ctx, ownerID)
}

// UpdateForm replaces title and fields of an existing form. version must be
// the version the caller edited; a stale version fails with apperr.Conflict.
// Stored responses are left untouched, answers to removed fields simply stop
// showing up in exports.
func (s *FormService) UpdateForm(ctx context.Context, id string, version int, title string, in []model.Field) (model.Form, error) {
	title, schema, err := checkSchema(title, in)
	if err != nil {
		return model.Form{}, err
	}

	updated, err := s.forms.ReplaceForm(ctx, model.Form{ID: id, Title: title, Fields: schema}, version)
	if err != nil {
		return model.Form{}, err
	}

	log.With(log.Fields{"form": id, "version": updated.Version}).Debug("form updated")
	return updated, nil
}

// Controls renders the form's fields, empty, for display.
func (s *FormService) Controls(ctx context.Context, id string, preview bool) ([]fields.Control, error) {
	form, err := s.forms.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	return fields.RenderForm(form, nil, preview), nil
}

func checkSchema(title string, in []model.Field) (string, []model.Field, error) {
	title, schema := fields.Sanitize(title, in)
	if err := fields.Check(schema); err != nil {
		aerr := apperr.Wrap(apperr.InvalidSchema, err, "form %q has malformed fields", title)
		var merr *multierror.Error
		if errors.As(err, &merr) {
			for _, e := range merr.Errors {
				aerr.Details = append(aerr.Details, e.Error())
			}
		}
		return "", nil, aerr
	}
	return title, schema, nil
}
