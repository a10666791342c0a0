package routes

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/export"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
	"github.com/mbolis/quick-forms/service"
)

type formBody struct {
	Version int           `json:"version"`
	Title   string        `json:"title"`
	Fields  []model.Field `json:"fields"`
}

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := formBody{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		user, _ := middlewares.CurrentUser(r)

		form, err := app.Forms.CreateForm(r.Context(), body.Title, body.Fields, user.ID)
		if err != nil {
			httpx.LogError(w, r, "create_form", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, form)
	}
}

// ListForms lists the caller's forms; admins may ask for all of them with ?all=1.
func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middlewares.CurrentUser(r)

		ownerID := user.ID
		if all := r.URL.Query().Get("all"); all != "" {
			wantAll, err := strconv.ParseBool(all)
			if err != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.all")
				return
			}
			if wantAll {
				if !user.IsAdmin() {
					httpx.LogError(w, r, "list_forms", apperr.New(apperr.Forbidden, "only admins can list all forms"))
					return
				}
				ownerID = ""
			}
		}

		forms, err := app.Forms.ListForms(r.Context(), ownerID)
		if err != nil {
			httpx.LogError(w, r, "list_forms", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := managedForm(app, w, r, "update_form")
		if !ok {
			return
		}

		body := formBody{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		form, err = app.Forms.UpdateForm(r.Context(), form.ID, body.Version, body.Title, body.Fields)
		if err != nil {
			httpx.LogError(w, r, "update_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := managedForm(app, w, r, "list_responses")
		if !ok {
			return
		}

		responses, err := app.Responses.ListResponses(r.Context(), form.ID)
		if err != nil {
			httpx.LogError(w, r, "list_responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

func ExportResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format, ok := export.ParseFormat(r.URL.Query().Get("format"))
		if !ok {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.format",
				"unsupported format %q", r.URL.Query().Get("format"))
			return
		}

		form, ok := managedForm(app, w, r, "export_responses")
		if !ok {
			return
		}

		out, err := app.Responses.ExportResponses(r.Context(), form.ID, format)
		if err != nil {
			httpx.LogError(w, r, "export_responses", err)
			return
		}

		w.Header().Set("content-type", out.ContentType)
		w.Header().Set("content-disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
		w.Header().Set("content-length", strconv.Itoa(len(out.Data)))
		_, err = w.Write(out.Data)
		if err != nil {
			log.Errorf("export_responses.write: %s", err)
		}
	}
}

func ListUsers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := app.Users.ListUsers(r.Context())
		if err != nil {
			httpx.LogError(w, r, "list_users", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"users": users,
		})
	}
}

// managedForm loads the {id} form and checks that the caller may manage it.
func managedForm(app app.App, w http.ResponseWriter, r *http.Request, code string) (model.Form, bool) {
	form, err := app.Forms.GetForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.LogError(w, r, code, err)
		return model.Form{}, false
	}

	user, _ := middlewares.CurrentUser(r)
	if err := service.CanManage(user, form); err != nil {
		httpx.LogError(w, r, code, err)
		return model.Form{}, false
	}
	return form, true
}
