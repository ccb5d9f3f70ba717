package app

import (
	"context"
	"errors"
	"log/slog"

	httpapp "github.com/14kear/council-voting/internal/app/http"
	"github.com/14kear/council-voting/internal/config"
	"github.com/14kear/council-voting/internal/export"
	"github.com/14kear/council-voting/internal/handlers"
	"github.com/14kear/council-voting/internal/middleware"
	"github.com/14kear/council-voting/internal/realtime"
	"github.com/14kear/council-voting/internal/repo/storage"
	"github.com/14kear/council-voting/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	HTTPServer *httpapp.App
	Voting     *services.Voting
	Users      *services.Users
	Hub        *realtime.Hub

	storage *storage.Storage
	stopHub context.CancelFunc
}

func NewApp(log *slog.Logger, cfg *config.Config) *App {
	store, err := storage.New(cfg.Storage.Driver, cfg.Storage.DSN, log)
	if err != nil {
		panic(err)
	}
	if cfg.Storage.AutoMigrate {
		if err := store.Migrate(); err != nil {
			panic(err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := realtime.NewHub(log, realtime.Config{
		SendBuffer:   cfg.Realtime.SendBuffer,
		QueueSize:    cfg.Realtime.QueueSize,
		PingInterval: cfg.Realtime.PingInterval,
		AllowOrigins: cfg.HTTP.AllowOrigins,
	}, registry)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	renderer := export.NewRenderer(cfg.Export.ChamberName, cfg.Export.Location())

	votingService := services.NewVoting(log, store, store, hub, renderer, registry)
	usersService := services.NewUsers(log, store)
	authService := services.NewAuth(log, store, cfg.Auth.Secret, cfg.Auth.TokenTTL)

	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	httpApp := httpapp.NewApp(log, cfg.Env, cfg.HTTP, httpapp.Handlers{
		Voting:   handlers.NewVotingHandler(log, votingService, cfg.Export.Location()),
		Users:    handlers.NewUsersHandler(log, usersService),
		Auth:     handlers.NewAuthHandler(log, authService),
		Realtime: hub,
		Ping:     handlers.Ping(log, store),
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, authMiddleware.Middleware())

	return &App{
		HTTPServer: httpApp,
		Voting:     votingService,
		Users:      usersService,
		Hub:        hub,
		storage:    store,
		stopHub:    stopHub,
	}
}

// Stop drains HTTP, disconnects live clients and closes the database.
func (a *App) Stop(ctx context.Context) error {
	httpErr := a.HTTPServer.Stop(ctx)

	a.stopHub()
	select {
	case <-a.Hub.Done():
	case <-ctx.Done():
	}

	return errors.Join(httpErr, a.storage.Close())
}
