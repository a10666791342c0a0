// Package service implements the form operations on top of a store: form
// authoring, response collection, export and user accounts. Failures are
// reported as *apperr.Error so every caller sees the same error kinds.
package service

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/model"
)

// Option tunes a service; mostly useful to pin ids and clocks in tests.
type Option func(*base)

type base struct {
	now   func() time.Time
	newID func() (string, error)
}

func newBase(opts []Option) base {
	b := base{
		now:   func() time.Time { return time.Now().UTC() },
		newID: newUUID,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

func WithIDs(newID func() (string, error)) Option {
	return func(b *base) { b.newID = newID }
}

func newUUID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", errors.Wrap(err, "uuid")
	}
	return id.String(), nil
}

// CanManage reports whether actor may edit form and read its responses:
// admins can manage every form, users only their own.
func CanManage(actor model.User, form model.Form) error {
	if actor.IsAdmin() || (actor.ID != "" && actor.ID == form.OwnerID) {
		return nil
	}
	return apperr.New(apperr.Forbidden, "form %q belongs to another user", form.ID)
}
