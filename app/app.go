package app

import (
	"github.com/go-chi/oauth"

	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/service"
	"github.com/mbolis/quick-forms/store"
)

type App struct {
	store.Store
	*oauth.BearerServer
	config.Config

	Forms     *service.FormService
	Responses *service.ResponseService
	Users     *service.UserService
}

// New wires the services and the bearer server on top of st.
func New(cfg config.Config, st store.Store, opts ...service.Option) App {
	users := service.NewUserService(st, opts...)
	return App{
		Store:        st,
		BearerServer: httpx.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, users, st),
		Config:       cfg,
		Forms:        service.NewFormService(st, opts...),
		Responses:    service.NewResponseService(st, st, opts...),
		Users:        users,
	}
}
