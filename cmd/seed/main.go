package main

import (
	"context"
	"os"
	"time"

	"github.com/14kear/council-voting/internal/config"
	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/lib/logger"
	"github.com/14kear/council-voting/internal/repo/storage"
	"github.com/14kear/council-voting/internal/services"
	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	store, err := storage.New(cfg.Storage.Driver, cfg.Storage.DSN, log)
	if err != nil {
		log.Error("failed to open storage", sl.Err(err))
		os.Exit(1)
	}
	defer store.Close()

	if cfg.Storage.AutoMigrate {
		if err := store.Migrate(); err != nil {
			log.Error("failed to migrate", sl.Err(err))
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := services.NewUsers(log, store)
	err = users.Seed(ctx,
		services.UserInput{
			Email:    cfg.Seed.AdminEmail,
			Name:     cfg.Seed.AdminName,
			Password: cfg.Seed.AdminPassword,
			Role:     entity.RoleAdmin,
		},
		services.UserInput{
			Email:    cfg.Seed.CouncilorEmail,
			Name:     cfg.Seed.CouncilorName,
			Password: cfg.Seed.CouncilorPassword,
			Role:     entity.RoleCouncilor,
		},
	)
	if err != nil {
		log.Error("seed failed", sl.Err(err))
		os.Exit(1)
	}

	log.Info("seed complete")
}
