package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/model"
)

// SQLite stores every entity in its own table; forms and responses are
// written in a single transaction together with their fields and answers.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "db.open")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) GetForm(ctx context.Context, id string) (model.Form, error) {
	form := model.Form{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, version, title, owner_id, created_at
		FROM form
		WHERE id = ?`,
		id,
	).Scan(&form.ID, &form.Version, &form.Title, &form.OwnerID, &form.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Form{}, apperr.New(apperr.NotFound, "form %q", id)
	}
	if err != nil {
		return model.Form{}, errors.Wrap(err, "db.get_form")
	}

	form.Fields, err = s.formFields(ctx, s.db, id)
	if err != nil {
		return model.Form{}, err
	}
	return form, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLite) formFields(ctx context.Context, q querier, formID string) ([]model.Field, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, type, label, description, required, options,
			min, max, min_label, max_label, placeholder
		FROM form_field
		WHERE form_id = ?
		ORDER BY position`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_form.fields")
	}
	defer rows.Close()

	fields := []model.Field{}
	for rows.Next() {
		f := model.Field{}
		var opts string
		var min, max sql.NullInt64
		err = rows.Scan(
			&f.ID, &f.Type, &f.Label, &f.Description, &f.Required, &opts,
			&min, &max, &f.MinLabel, &f.MaxLabel, &f.Placeholder,
		)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_form.fields.scan")
		}

		if opts != "" {
			err = json.Unmarshal([]byte(opts), &f.Options)
			if err != nil {
				return nil, errors.Wrap(err, "db.get_form.fields.parse_options")
			}
		}
		if min.Valid {
			f.Min = model.IntPtr(int(min.Int64))
		}
		if max.Valid {
			f.Max = model.IntPtr(int(max.Int64))
		}

		fields = append(fields, f)
	}
	return fields, errors.Wrap(rows.Err(), "db.get_form.fields.rows")
}

func (s *SQLite) AppendForm(ctx context.Context, form model.Form) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "db.begin_tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO form (id, version, title, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		form.ID, form.Version, form.Title, form.OwnerID, form.CreatedAt,
	)
	if isConstraint(err) {
		return apperr.New(apperr.Conflict, "form %q already exists", form.ID)
	}
	if err != nil {
		return errors.Wrap(err, "db.insert_form")
	}

	if err := insertFields(ctx, tx, form); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "db.insert_form.commit")
}

func insertFields(ctx context.Context, tx *sql.Tx, form model.Form) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO form_field (form_id, position, id, type, label, description, required,
			options, min, max, min_label, max_label, placeholder)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "db.insert_form.fields.prepare")
	}
	defer stmt.Close()

	for i, f := range form.Fields {
		var optionsJson []byte
		if f.Options != nil {
			optionsJson, err = json.Marshal(f.Options)
			if err != nil {
				return errors.Wrap(err, "db.insert_form.fields.encode_options")
			}
		}
		_, err := stmt.ExecContext(ctx,
			form.ID, i, f.ID, string(f.Type), f.Label, f.Description, f.Required,
			string(optionsJson), nullInt(f.Min), nullInt(f.Max), f.MinLabel, f.MaxLabel, f.Placeholder,
		)
		if err != nil {
			return errors.Wrap(err, "db.insert_form.fields.insert")
		}
	}
	return nil
}

func (s *SQLite) ReplaceForm(ctx context.Context, form model.Form, expectedVersion int) (model.Form, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Form{}, errors.Wrap(err, "db.begin_tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE form
		SET
			title = ?,
			version = version+1
		WHERE id = ?
			AND version = ?`,
		form.Title,
		form.ID,
		expectedVersion,
	)
	if err != nil {
		return model.Form{}, errors.Wrap(err, "db.update_form")
	}
	// optimistic lock
	n, err := res.RowsAffected()
	if err != nil {
		return model.Form{}, errors.Wrap(err, "db.update_form.verify")
	}
	if n < 1 {
		var exists bool
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM form WHERE id = ?`, form.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return model.Form{}, apperr.New(apperr.NotFound, "form %q", form.ID)
		}
		return model.Form{}, apperr.New(apperr.Conflict, "form %q was modified", form.ID)
	}

	// delete all fields, then recreate them
	_, err = tx.ExecContext(ctx, `DELETE FROM form_field WHERE form_id = ?`, form.ID)
	if err != nil {
		return model.Form{}, errors.Wrap(err, "db.update_form.delete_fields")
	}
	if err := insertFields(ctx, tx, form); err != nil {
		return model.Form{}, err
	}

	updated := model.Form{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, version, title, owner_id, created_at FROM form WHERE id = ?`,
		form.ID,
	).Scan(&updated.ID, &updated.Version, &updated.Title, &updated.OwnerID, &updated.CreatedAt)
	if err != nil {
		return model.Form{}, errors.Wrap(err, "db.update_form.reload")
	}
	updated.Fields, err = s.formFields(ctx, tx, form.ID)
	if err != nil {
		return model.Form{}, err
	}

	return updated, errors.Wrap(tx.Commit(), "db.update_form.commit")
}

func (s *SQLite) ListForms(ctx context.Context, ownerID string) ([]model.Form, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id
		FROM form
		WHERE ? = '' OR owner_id = ?
		ORDER BY rowid`,
		ownerID, ownerID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_forms")
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "db.get_forms.scan")
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "db.get_forms.rows")
	}

	forms := make([]model.Form, 0, len(ids))
	for _, id := range ids {
		form, err := s.GetForm(ctx, id)
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, nil
}

func (s *SQLite) AppendResponse(ctx context.Context, resp model.Response) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "db.begin_tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO response (id, form_id, submitter, created_at) VALUES (?, ?, ?, ?)`,
		resp.ID,
		resp.FormID,
		resp.SubmitterLabel,
		resp.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "db.insert_response")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO response_answer (response_id, field_id, value)
		VALUES (?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "db.insert_response.answers.prepare")
	}
	defer stmt.Close()

	for fieldID, answer := range resp.Answers {
		valueJson, err := json.Marshal(answer)
		if err != nil {
			return errors.Wrap(err, "db.insert_response.answers.encode_value")
		}
		_, err = stmt.ExecContext(ctx, resp.ID, fieldID, string(valueJson))
		if err != nil {
			return errors.Wrap(err, "db.insert_response.answers.insert")
		}
	}

	return errors.Wrap(tx.Commit(), "db.insert_response.commit")
}

func (s *SQLite) ListResponses(ctx context.Context, formID string) ([]model.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			r.id, r.submitter, r.created_at,
			a.field_id, a.value
		FROM response r
		LEFT OUTER JOIN response_answer a ON (r.id = a.response_id)
		WHERE r.form_id = ?
		ORDER BY r.rowid`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_responses")
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		r := model.Response{FormID: formID}
		var fieldID, value sql.NullString
		err = rows.Scan(&r.ID, &r.SubmitterLabel, &r.CreatedAt, &fieldID, &value)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_responses.scan")
		}

		lastIdx := len(responses) - 1
		if lastIdx < 0 || responses[lastIdx].ID != r.ID {
			r.Answers = map[string]model.Answer{}
			responses = append(responses, r)
			lastIdx++
		}
		if !fieldID.Valid {
			continue
		}

		var answer model.Answer
		err = json.Unmarshal([]byte(value.String), &answer)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_responses.parse_value")
		}
		responses[lastIdx].Answers[fieldID.String] = answer
	}
	return responses, errors.Wrap(rows.Err(), "db.get_responses.rows")
}

func (s *SQLite) AppendUser(ctx context.Context, user model.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user (id, username, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, string(user.Role), user.CreatedAt,
	)
	if isConstraint(err) {
		return apperr.New(apperr.Conflict, "username %q is taken", user.Username)
	}
	return errors.Wrap(err, "db.insert_user")
}

const userColumns = `id, username, password_hash, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	u := model.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

func (s *SQLite) GetUser(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM user WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperr.New(apperr.NotFound, "user %q", id)
	}
	return u, errors.Wrap(err, "db.get_user")
}

func (s *SQLite) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM user WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperr.New(apperr.NotFound, "user %q", username)
	}
	return u, errors.Wrap(err, "db.get_user")
}

func (s *SQLite) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM user ORDER BY rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_users")
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_users.scan")
		}
		users = append(users, u)
	}
	return users, errors.Wrap(rows.Err(), "db.get_users.rows")
}

func (s *SQLite) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO token (username, token_id, refresh_token_id, expiration) VALUES (?, ?, ?, ?)",
		username,
		tokenID,
		refreshTokenID,
		expiration,
	)
	return errors.Wrap(err, "db.insert_token")
}

func (s *SQLite) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (time.Time, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "db.begin_tx")
	}
	defer tx.Rollback()

	var expiration time.Time
	err = tx.QueryRowContext(ctx, `
		SELECT expiration FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`,
		username,
		tokenID,
		refreshTokenID,
	).Scan(&expiration)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, apperr.New(apperr.NotFound, "token")
	}
	if err != nil {
		return time.Time{}, errors.Wrap(err, "db.get_token")
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`,
		username,
		tokenID,
		refreshTokenID,
	)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "db.delete_token")
	}
	return expiration, errors.Wrap(tx.Commit(), "db.delete_token.commit")
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func isConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
