// Package store persists users, forms and responses. Every backend offers
// the same get/append/list capabilities; appends are atomic with respect to
// each other, so concurrent submissions never lose a record.
package store

import (
	"context"
	"time"

	"github.com/mbolis/quick-forms/model"
)

type Forms interface {
	GetForm(ctx context.Context, id string) (model.Form, error)
	AppendForm(ctx context.Context, form model.Form) error
	// ReplaceForm swaps the stored schema for form.ID if the stored version
	// still equals expectedVersion, and bumps the version.
	ReplaceForm(ctx context.Context, form model.Form, expectedVersion int) (model.Form, error)
	// ListForms returns forms in creation order, filtered by owner unless
	// ownerID is empty.
	ListForms(ctx context.Context, ownerID string) ([]model.Form, error)
}

type Responses interface {
	AppendResponse(ctx context.Context, resp model.Response) error
	// ListResponses returns the form's responses in submission order.
	ListResponses(ctx context.Context, formID string) ([]model.Response, error)
}

type Users interface {
	// AppendUser fails with apperr.Conflict if the username is taken.
	AppendUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

// Tokens keeps the refresh token ids handed out by the bearer server.
type Tokens interface {
	StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error
	// ConsumeToken deletes the token and returns its expiration.
	ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (time.Time, error)
}

type Store interface {
	Forms
	Responses
	Users
	Tokens
	Close() error
}
