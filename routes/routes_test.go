package routes_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes"
	"github.com/mbolis/quick-forms/store"
)

type server struct {
	t       *testing.T
	app     app.App
	handler http.Handler
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := config.Config{
		TokenSecret: "test-secret",
		TokenTTL:    time.Minute,
		CORSOrigins: []string{"http://localhost:3000"},
	}
	a := app.New(cfg, store.NewMemory())
	a.Users.WithHashCost(bcrypt.MinCost)

	ctx := context.Background()
	for _, u := range []struct {
		name string
		role model.Role
	}{{"root", model.RoleAdmin}, {"alice", model.RoleUser}, {"bob", model.RoleUser}} {
		_, err := a.Users.CreateUser(ctx, u.name, u.name+"-pw", u.role)
		require.NoError(t, err)
	}

	return &server{t, a, routes.Wire(a)}
}

func (s *server) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *server) request(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("content-type", "application/json")
	if token != "" {
		req.Header.Set("authorization", "Bearer "+token)
	}
	return s.do(req)
}

func (s *server) login(username string) (httpx.TokenBody, []*http.Cookie) {
	s.t.Helper()
	req := httptest.NewRequest("POST", "/api/login", nil)
	req.SetBasicAuth(username, username+"-pw")
	rec := s.do(req)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	var token httpx.TokenBody
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &token))
	require.NotEmpty(s.t, token.AccessToken)
	return token, rec.Result().Cookies()
}

func (s *server) createForm(token string) model.Form {
	s.t.Helper()
	rec := s.request("POST", "/api/forms", token, map[string]any{
		"title": "Event RSVP",
		"fields": []map[string]any{
			{"id": "name", "type": "short_text", "label": "Name", "required": true},
			{"id": "diet", "type": "checkboxes", "label": "Diet", "options": []string{"Vegan", "Gluten free"}},
			{"id": "mood", "type": "linear_scale", "label": "Mood", "min": 1, "max": 5},
		},
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var form model.Form
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &form))
	return form
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestListFieldTypes(t *testing.T) {
	s := newServer(t)

	rec := s.request("GET", "/api/field-types", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Types []struct {
			Type        string `json:"type"`
			DisplayName string `json:"displayName"`
		} `json:"types"`
	}](t, rec)
	require.Len(t, body.Types, 8)
	assert.Equal(t, "short_text", body.Types[0].Type)
	assert.Equal(t, "time", body.Types[7].Type)
}

func TestFormLifecycle(t *testing.T) {
	s := newServer(t)
	alice, _ := s.login("alice")
	form := s.createForm(alice.AccessToken)
	assert.Equal(t, 1, form.Version)
	require.Len(t, form.Fields, 3)

	rec := s.request("GET", "/api/forms/"+form.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Event RSVP", decode[model.Form](t, rec).Title)

	rec = s.request("GET", "/api/forms/"+form.ID+"/controls?preview=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	controls := decode[struct {
		Controls []struct {
			FieldID  string `json:"fieldId"`
			Widget   string `json:"widget"`
			Disabled bool   `json:"disabled"`
		} `json:"controls"`
	}](t, rec).Controls
	require.Len(t, controls, 3)
	assert.Equal(t, "checkbox_group", controls[1].Widget)
	assert.True(t, controls[0].Disabled)

	rec = s.request("POST", "/api/forms/"+form.ID+"/responses", "", map[string]any{
		"submitter": "guest",
		"answers":   map[string]any{"name": "Ann", "diet": []string{"Gluten free", "Vegan"}, "mood": 4},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.request("POST", "/api/forms/"+form.ID+"/responses", "", map[string]any{
		"answers": map[string]any{"diet": []string{"Vegan"}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errBody := decode[httpx.ErrorBody](t, rec)
	assert.Equal(t, "validation_failed", string(errBody.Error))
	assert.Equal(t, "name", errBody.Field)
	assert.Equal(t, "missing_required_value", errBody.Reason)

	rec = s.request("GET", "/api/forms/"+form.ID+"/responses", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	responses := decode[struct {
		Responses []model.Response `json:"responses"`
	}](t, rec).Responses
	require.Len(t, responses, 1)
	assert.Equal(t, "guest", responses[0].SubmitterLabel)
	assert.Equal(t, []string{"Vegan", "Gluten free"}, responses[0].Answers["diet"].Values())

	rec = s.request("GET", "/api/forms/"+form.ID+"/export?format=csv", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("content-type"), "text/csv")
	assert.Contains(t, rec.Header().Get("content-disposition"), `filename="Event_RSVP.csv"`)
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Name", "Diet", "Mood", "Submitter", "Submitted At"}, records[0])
	assert.Equal(t, []string{"Ann", "Vegan; Gluten free", "4", "guest"}, records[1][:4])
}

func TestSubmitMalformedBody(t *testing.T) {
	s := newServer(t)
	alice, _ := s.login("alice")
	form := s.createForm(alice.AccessToken)

	req := httptest.NewRequest("POST", "/api/forms/"+form.ID+"/responses", bytes.NewBufferString("{not json"))
	rec := s.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownForm(t *testing.T) {
	s := newServer(t)

	rec := s.request("GET", "/api/forms/missing", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", string(decode[httpx.ErrorBody](t, rec).Error))

	rec = s.request("POST", "/api/forms/missing/responses", "", map[string]any{"answers": map[string]any{}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateFormInvalidSchema(t *testing.T) {
	s := newServer(t)
	alice, _ := s.login("alice")

	rec := s.request("POST", "/api/forms", alice.AccessToken, map[string]any{
		"title":  "Broken",
		"fields": []map[string]any{{"id": "x", "type": "hologram", "label": "X"}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[httpx.ErrorBody](t, rec)
	assert.Equal(t, "invalid_schema", string(body.Error))
	assert.NotEmpty(t, body.Details)
}

func TestManagementRequiresAuth(t *testing.T) {
	s := newServer(t)
	alice, _ := s.login("alice")
	bob, _ := s.login("bob")
	form := s.createForm(alice.AccessToken)

	rec := s.request("GET", "/api/forms/"+form.ID+"/responses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.request("GET", "/api/forms/"+form.ID+"/responses", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.request("GET", "/api/forms/"+form.ID+"/responses", bob.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.request("GET", "/api/forms/"+form.ID+"/export", bob.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	root, _ := s.login("root")
	rec = s.request("GET", "/api/forms/"+form.ID+"/responses", root.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateForm(t *testing.T) {
	s := newServer(t)
	alice, _ := s.login("alice")
	bob, _ := s.login("bob")
	form := s.createForm(alice.AccessToken)

	update := map[string]any{
		"version": 1,
		"title":   "Event RSVP v2",
		"fields":  []map[string]any{{"id": "name", "type": "short_text", "label": "Full name"}},
	}

	rec := s.request("PUT", "/api/forms/"+form.ID, bob.AccessToken, update)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.request("PUT", "/api/forms/"+form.ID, alice.AccessToken, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Form](t, rec)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Event RSVP v2", updated.Title)

	rec = s.request("PUT", "/api/forms/"+form.ID, alice.AccessToken, update)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListForms(t *testing.T) {
	s := newServer(t)
	alice, _ := s.login("alice")
	bob, _ := s.login("bob")
	root, _ := s.login("root")
	s.createForm(alice.AccessToken)
	s.createForm(bob.AccessToken)

	type list struct {
		Forms []model.Form `json:"forms"`
	}

	rec := s.request("GET", "/api/forms", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[list](t, rec).Forms, 1)

	rec = s.request("GET", "/api/forms?all=1", alice.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.request("GET", "/api/forms?all=1", root.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[list](t, rec).Forms, 2)
}

func TestAdminUsers(t *testing.T) {
	s := newServer(t)
	alice, _ := s.login("alice")
	root, _ := s.login("root")

	rec := s.request("GET", "/api/admin/users", alice.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.request("GET", "/api/admin/users", root.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "asswordHash")
	users := decode[struct {
		Users []model.User `json:"users"`
	}](t, rec).Users
	assert.Len(t, users, 3)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newServer(t)

	rec := s.request("POST", "/api/register", "", map[string]any{"username": "carol", "password": "carol-pw"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, model.RoleUser, decode[model.User](t, rec).Role)

	rec = s.request("POST", "/api/register", "", map[string]any{"username": "carol", "password": "other"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.request("POST", "/api/register", "", map[string]any{"username": "dave", "password": strings.Repeat("p", 80)})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_failed", string(decode[httpx.ErrorBody](t, rec).Error))

	s.login("carol")

	req := httptest.NewRequest("POST", "/api/login", nil)
	req.SetBasicAuth("carol", "wrong")
	assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)

	req = httptest.NewRequest("POST", "/api/login", nil)
	assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)
}

func TestRefresh(t *testing.T) {
	s := newServer(t)
	alice, _ := s.login("alice")

	req := httptest.NewRequest("POST", "/api/refresh", nil)
	req.Header.Set("authorization", "Refresh "+alice.RefreshToken)
	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	refreshed := decode[httpx.TokenBody](t, rec)
	assert.NotEmpty(t, refreshed.AccessToken)

	rec = s.request("GET", "/api/forms", refreshed.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// refresh tokens are single use
	req = httptest.NewRequest("POST", "/api/refresh", nil)
	req.Header.Set("authorization", "Refresh "+alice.RefreshToken)
	assert.NotEqual(t, http.StatusOK, s.do(req).Code)
}

func TestExportWithCookies(t *testing.T) {
	s := newServer(t)
	alice, cookies := s.login("alice")
	form := s.createForm(alice.AccessToken)

	req := httptest.NewRequest("GET", "/api/forms/"+form.ID+"/export?format=xlsx", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("content-type"))
	assert.NotZero(t, rec.Body.Len())

	// a stale access token is swapped using the refresh cookie
	req = httptest.NewRequest("GET", "/api/forms/"+form.ID+"/export", nil)
	for _, c := range cookies {
		if c.Name == httpx.AccessTokenCookie {
			c.Value = "stale"
		}
		req.AddCookie(c)
	}
	rec = s.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	names := []string{}
	for _, c := range rec.Result().Cookies() {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{httpx.AccessTokenCookie, httpx.RefreshTokenCookie}, names)

	req = httptest.NewRequest("GET", "/api/forms/"+form.ID+"/export", nil)
	assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)

	rec = s.request("GET", "/api/forms/"+form.ID+"/export?format=pdf", alice.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
