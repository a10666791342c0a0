package store

import (
	"context"
	"sync"
	"time"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/model"
)

type tokenKey struct {
	username, tokenID, refreshTokenID string
}

// Memory keeps everything in slices guarded by a single lock.
type Memory struct {
	mu        sync.RWMutex
	users     []model.User
	forms     []model.Form
	responses []model.Response
	tokens    map[tokenKey]time.Time

	// afterWrite runs with the write lock held; the JSON store uses it to
	// persist the new state before the append is acknowledged.
	afterWrite func() error
}

func NewMemory() *Memory {
	return &Memory{tokens: make(map[tokenKey]time.Time)}
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) commit(undo func()) error {
	if m.afterWrite == nil {
		return nil
	}
	if err := m.afterWrite(); err != nil {
		undo()
		return err
	}
	return nil
}

func (m *Memory) GetForm(_ context.Context, id string) (model.Form, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, f := range m.forms {
		if f.ID == id {
			return cloneForm(f), nil
		}
	}
	return model.Form{}, apperr.New(apperr.NotFound, "form %q", id)
}

func (m *Memory) AppendForm(_ context.Context, form model.Form) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.forms {
		if f.ID == form.ID {
			return apperr.New(apperr.Conflict, "form %q already exists", form.ID)
		}
	}
	m.forms = append(m.forms, cloneForm(form))
	return m.commit(func() { m.forms = m.forms[:len(m.forms)-1] })
}

func (m *Memory) ReplaceForm(_ context.Context, form model.Form, expectedVersion int) (model.Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, f := range m.forms {
		if f.ID != form.ID {
			continue
		}
		if f.Version != expectedVersion {
			return model.Form{}, apperr.New(apperr.Conflict, "form %q was modified (version %d)", form.ID, f.Version)
		}
		updated := cloneForm(f)
		updated.Title = form.Title
		updated.Fields = cloneForm(form).Fields
		updated.Version++
		m.forms[i] = updated
		if err := m.commit(func() { m.forms[i] = f }); err != nil {
			return model.Form{}, err
		}
		return cloneForm(updated), nil
	}
	return model.Form{}, apperr.New(apperr.NotFound, "form %q", form.ID)
}

func (m *Memory) ListForms(_ context.Context, ownerID string) ([]model.Form, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.Form{}
	for _, f := range m.forms {
		if ownerID == "" || f.OwnerID == ownerID {
			out = append(out, cloneForm(f))
		}
	}
	return out, nil
}

func (m *Memory) AppendResponse(_ context.Context, resp model.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses = append(m.responses, cloneResponse(resp))
	return m.commit(func() { m.responses = m.responses[:len(m.responses)-1] })
}

func (m *Memory) ListResponses(_ context.Context, formID string) ([]model.Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.Response{}
	for _, r := range m.responses {
		if r.FormID == formID {
			out = append(out, cloneResponse(r))
		}
	}
	return out, nil
}

func (m *Memory) AppendUser(_ context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return apperr.New(apperr.Conflict, "username %q is taken", user.Username)
		}
	}
	m.users = append(m.users, user)
	return m.commit(func() { m.users = m.users[:len(m.users)-1] })
}

func (m *Memory) GetUser(_ context.Context, id string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, apperr.New(apperr.NotFound, "user %q", id)
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, apperr.New(apperr.NotFound, "user %q", username)
}

func (m *Memory) ListUsers(_ context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]model.User{}, m.users...), nil
}

func (m *Memory) StoreToken(_ context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[tokenKey{username, tokenID, refreshTokenID}] = expiration
	return nil
}

func (m *Memory) ConsumeToken(_ context.Context, username, tokenID, refreshTokenID string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := tokenKey{username, tokenID, refreshTokenID}
	exp, ok := m.tokens[key]
	if !ok {
		return time.Time{}, apperr.New(apperr.NotFound, "token")
	}
	delete(m.tokens, key)
	return exp, nil
}

func cloneForm(f model.Form) model.Form {
	fields := make([]model.Field, len(f.Fields))
	for i, field := range f.Fields {
		if field.Options != nil {
			field.Options = append([]string{}, field.Options...)
		}
		if field.Min != nil {
			field.Min = model.IntPtr(*field.Min)
		}
		if field.Max != nil {
			field.Max = model.IntPtr(*field.Max)
		}
		fields[i] = field
	}
	f.Fields = fields
	return f
}

func cloneResponse(r model.Response) model.Response {
	answers := make(map[string]model.Answer, len(r.Answers))
	for k, v := range r.Answers {
		if v.IsSet() {
			v = model.SetAnswer(v.Values()...)
		}
		answers[k] = v
	}
	r.Answers = answers
	return r
}
