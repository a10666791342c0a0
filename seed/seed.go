// Package seed creates users and forms listed in a YAML file, so a fresh
// instance can start with an admin account.
package seed

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/fields"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/service"
)

type User struct {
	Username string     `yaml:"username"`
	Password string     `yaml:"password"`
	Role     model.Role `yaml:"role"`
}

type Form struct {
	Owner  string        `yaml:"owner"`
	Title  string        `yaml:"title"`
	Fields []model.Field `yaml:"fields"`
}

type File struct {
	Users []User `yaml:"users"`
	Forms []Form `yaml:"forms"`
}

// Result counts what Apply actually created.
type Result struct {
	Users int
	Forms int
}

func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, errors.Wrap(err, "seed.open")
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, errors.Wrap(err, "seed.decode")
	}
	return file, nil
}

// Apply creates the seeded users, skipping taken usernames, then the forms
// whose owner has no form with the same title yet.
func Apply(ctx context.Context, file File, users *service.UserService, forms *service.FormService) (Result, error) {
	var res Result

	for _, u := range file.Users {
		role := u.Role
		if role == "" {
			role = model.RoleUser
		}
		_, err := users.CreateUser(ctx, u.Username, u.Password, role)
		if apperr.IsKind(err, apperr.Conflict) {
			log.Debugf("seed: user %q exists, skipped", u.Username)
			continue
		}
		if err != nil {
			return res, errors.Wrapf(err, "seed user %q", u.Username)
		}
		res.Users++
	}

	for _, f := range file.Forms {
		owner, err := users.GetUserByUsername(ctx, f.Owner)
		if err != nil {
			return res, errors.Wrapf(err, "seed form %q owner %q", f.Title, f.Owner)
		}

		existing, err := forms.ListForms(ctx, owner.ID)
		if err != nil {
			return res, errors.Wrapf(err, "seed form %q", f.Title)
		}
		title, _ := fields.Sanitize(f.Title, nil)
		if hasTitle(existing, title) {
			log.Debugf("seed: form %q of %q exists, skipped", f.Title, f.Owner)
			continue
		}

		if _, err := forms.CreateForm(ctx, f.Title, f.Fields, owner.ID); err != nil {
			return res, errors.Wrapf(err, "seed form %q", f.Title)
		}
		res.Forms++
	}

	log.Infof("seed: created %d users and %d forms", res.Users, res.Forms)
	return res, nil
}

func hasTitle(forms []model.Form, title string) bool {
	for _, f := range forms {
		if f.Title == title {
			return true
		}
	}
	return false
}
