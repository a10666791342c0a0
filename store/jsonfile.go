package store

import (
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-forms/model"
)

// document is the on-disk layout of the JSON store: one record set holding
// every entity in insertion order. Readers tolerate missing attributes.
type document struct {
	Users     []userRecord     `json:"users"`
	Forms     []model.Form     `json:"forms"`
	Responses []model.Response `json:"responses"`
}

// userRecord differs from model.User only in exposing the password hash.
type userRecord struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"passwordHash"`
	Role         model.Role `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// JSONFile is a Memory store that rewrites its file after every change.
// Refresh tokens are not persisted.
type JSONFile struct {
	*Memory
	path string
}

func OpenJSONFile(path string) (*JSONFile, error) {
	s := &JSONFile{Memory: NewMemory(), path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// start empty, the file is created on first write
	case err != nil:
		return nil, errors.Wrap(err, "json store read")
	default:
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrapf(err, "json store parse %s", path)
		}
		for _, u := range doc.Users {
			role := u.Role
			if role == "" {
				role = model.RoleUser
			}
			s.users = append(s.users, model.User{
				ID:           u.ID,
				Username:     u.Username,
				PasswordHash: u.PasswordHash,
				Role:         role,
				CreatedAt:    u.CreatedAt,
			})
		}
		for _, f := range doc.Forms {
			if f.Version == 0 {
				f.Version = 1
			}
			s.forms = append(s.forms, f)
		}
		for _, r := range doc.Responses {
			if r.Answers == nil {
				r.Answers = map[string]model.Answer{}
			}
			s.responses = append(s.responses, r)
		}
	}

	s.afterWrite = s.flush
	return s, nil
}

// flush is called with the memory lock held.
func (s *JSONFile) flush() error {
	doc := document{
		Users:     make([]userRecord, 0, len(s.users)),
		Forms:     s.forms,
		Responses: s.responses,
	}
	for _, u := range s.users {
		doc.Users = append(doc.Users, userRecord(u))
	}
	if doc.Forms == nil {
		doc.Forms = []model.Form{}
	}
	if doc.Responses == nil {
		doc.Responses = []model.Response{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "json store encode")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "json store temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "json store write")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "json store sync")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "json store close")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "json store rename")
}
