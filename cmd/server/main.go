// cmd/server/main.go
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/driplinehq/dripline-backend/internal/config"
	"github.com/driplinehq/dripline-backend/internal/controller"
	"github.com/driplinehq/dripline-backend/internal/db"
	"github.com/driplinehq/dripline-backend/internal/logging"
	"github.com/driplinehq/dripline-backend/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// fine in production, env comes from the platform
	}

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	conn, err := db.Open(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	if err := db.EnsureSchema(conn); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}

	recipientCtrl := &controller.RecipientController{
		Repo: &repository.RecipientRepository{DB: conn},
	}
	dripStepCtrl := &controller.DripStepController{
		Repo: &repository.DripStepRepository{DB: conn},
	}
	scheduledSendCtrl := &controller.ScheduledSendController{
		Repo: &repository.ScheduledSendRepository{DB: conn},
		Zone: cfg.ReferenceZone(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("OK"))
	})

	// Recipient directory (operator edits nickname/tags only)
	r.Post("/recipients", recipientCtrl.Enroll)
	r.Get("/recipients", recipientCtrl.List)
	r.Get("/recipients/{id}", recipientCtrl.Get)
	r.Patch("/recipients/{id}", recipientCtrl.UpdateProfile)

	// Drip steps
	r.Post("/drip-steps", dripStepCtrl.Create)
	r.Get("/drip-steps", dripStepCtrl.List)
	r.Get("/drip-steps/{id}", dripStepCtrl.Get)
	r.Put("/drip-steps/{id}", dripStepCtrl.Update)
	r.Delete("/drip-steps/{id}", dripStepCtrl.Delete)

	// Scheduled sends (editable while pending)
	r.Post("/scheduled-sends", scheduledSendCtrl.Create)
	r.Get("/scheduled-sends", scheduledSendCtrl.List)
	r.Get("/scheduled-sends/{id}", scheduledSendCtrl.Get)
	r.Put("/scheduled-sends/{id}", scheduledSendCtrl.Update)
	r.Delete("/scheduled-sends/{id}", scheduledSendCtrl.Delete)

	log.Info().Str("port", cfg.Port).Msg("operator API listening")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
