package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/fields"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
)

func ListFieldTypes(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"types": fields.ListFieldTypes(),
		})
	}
}

func PublicGetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := app.Forms.GetForm(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogError(w, r, "get_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func PublicGetControls(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var preview bool
		if p := r.URL.Query().Get("preview"); p != "" {
			var err error
			preview, err = strconv.ParseBool(p)
			if err != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.preview")
				return
			}
		}

		controls, err := app.Forms.Controls(r.Context(), chi.URLParam(r, "id"), preview)
		if err != nil {
			httpx.LogError(w, r, "get_controls", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"controls": controls,
		})
	}
}

type submission struct {
	Submitter string         `json:"submitter"`
	Answers   map[string]any `json:"answers"`
}

func PublicSubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := submission{}
		err := render.DecodeJSON(r.Body, &sub)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		resp, err := app.Responses.SubmitResponse(r.Context(), chi.URLParam(r, "id"), sub.Answers, sub.Submitter)
		if err != nil {
			httpx.LogError(w, r, "submit_response", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": resp.ID,
		})
	}
}
