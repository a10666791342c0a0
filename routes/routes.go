package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)
	root.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	root.Mount("/api", apiRouter(app))
	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.LogNotFound(w, "route", r.URL.Path)
	})

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()
	authenticated := middlewares.Authenticated(app.TokenSecret, app.Users)

	api.Get("/field-types", ListFieldTypes(app))

	api.Get("/forms/{id}", PublicGetForm(app))
	api.Get("/forms/{id}/controls", PublicGetControls(app))
	api.Post("/forms/{id}/responses", PublicSubmitResponse(app))

	api.Post("/register", Register(app))
	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Group(func(r chi.Router) {
		r.Use(authenticated)

		r.Post("/forms", CreateForm(app))
		r.Get("/forms", ListForms(app))
		r.Put("/forms/{id}", UpdateForm(app))
		r.Get("/forms/{id}/responses", ListResponses(app))

		r.With(middlewares.Admin).Get("/admin/users", ListUsers(app))
	})

	api.
		With(middlewares.CookieAuth(app.BearerServer), authenticated).
		Get("/forms/{id}/export", ExportResponses(app))

	return api
}
