// cmd/seeder/main.go
//
// Seeds demo data: a handful of recipients enrolled over the past week, the
// two classic onboarding steps, and one pending broadcast.
package main

import (
	"time"

	"github.com/joho/godotenv"

	"github.com/driplinehq/dripline-backend/internal/config"
	"github.com/driplinehq/dripline-backend/internal/db"
	"github.com/driplinehq/dripline-backend/internal/logging"
	"github.com/driplinehq/dripline-backend/internal/model"
	"github.com/driplinehq/dripline-backend/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, true)

	conn, err := db.Open(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	if err := db.EnsureSchema(conn); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}

	recipients := &repository.RecipientRepository{DB: conn}
	steps := &repository.DripStepRepository{DB: conn}
	sends := &repository.ScheduledSendRepository{DB: conn}

	now := time.Now().UTC()
	demo := []model.Recipient{
		{ID: "U0001", DisplayName: "Aiko", Tags: model.NewTagSet("vip"), EnrolledAt: now.AddDate(0, 0, -1)},
		{ID: "U0002", DisplayName: "Ben", Tags: model.NewTagSet(), EnrolledAt: now.AddDate(0, 0, -3)},
		{ID: "U0003", DisplayName: "Chika", Tags: model.NewTagSet("vip", "beta"), EnrolledAt: now.AddDate(0, 0, -7)},
	}
	for i := range demo {
		demo[i].SentSteps = model.StepSet{}
		if err := recipients.Enroll(&demo[i]); err != nil {
			log.Fatal().Err(err).Str("id", demo[i].ID).Msg("failed to seed recipient")
		}
	}

	for _, s := range []model.DripStep{
		{DaysAfter: 1, MessageText: "Thanks for joining us! Looking forward to chatting."},
		{DaysAfter: 3, MessageText: "Getting the hang of it? Message us any time if something is unclear!"},
	} {
		step := s
		if err := steps.Create(&step); err != nil {
			log.Fatal().Err(err).Msg("failed to seed drip step")
		}
	}

	broadcast := &model.ScheduledSend{
		Segment: &model.SegmentFilter{
			Include: model.NewTagSet("vip"),
			Exclude: model.NewTagSet(),
		},
		MessageText: "A little thank-you for our regulars: reply SPECIAL for this week's offer.",
		SendAt:      now.Add(10 * time.Minute),
	}
	if err := sends.Create(broadcast); err != nil {
		log.Fatal().Err(err).Msg("failed to seed scheduled send")
	}

	log.Info().Msg("database seeding completed")
}
