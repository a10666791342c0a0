package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/routes"
	"github.com/mbolis/quick-forms/seed"
	"github.com/mbolis/quick-forms/store"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	st, err := store.Open(cfg.Store, cfg.DBUrl)
	if err != nil {
		log.Fatal("main.store.open:", err)
	}
	defer st.Close()

	app := app.New(cfg, st)

	if cfg.SeedFile != "" {
		file, err := seed.Load(cfg.SeedFile)
		if err != nil {
			log.Fatal("main.seed.load:", err)
		}
		if _, err := seed.Apply(context.Background(), file, app.Users, app.Forms); err != nil {
			log.Fatal("main.seed.apply:", err)
		}
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Infof("Listening on %s (store: %s)", cfg.Url(), cfg.Store)
	return srv.ListenAndServe()
}
