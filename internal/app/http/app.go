package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/14kear/council-voting/internal/config"
	"github.com/14kear/council-voting/internal/handlers"
	"github.com/14kear/council-voting/internal/lib/logger"
	"github.com/14kear/council-voting/internal/middleware"
	"github.com/14kear/council-voting/internal/routes"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Voting   *handlers.VotingHandler
	Users    *handlers.UsersHandler
	Auth     *handlers.AuthHandler
	Realtime http.Handler
	Ping     gin.HandlerFunc
	Metrics  http.Handler
}

type App struct {
	log    *slog.Logger
	engine *gin.Engine
	server *http.Server
}

// NewApp builds the gin engine and mounts every route. API routes live
// under /api; /ping and /metrics sit at the root.
func NewApp(
	log *slog.Logger,
	env string,
	cfg config.HTTPConfig,
	h Handlers,
	authMiddleware gin.HandlerFunc,
) *App {
	if env != logger.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(log))

	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		AllowWebSockets:  true,
	}
	if len(cfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")
	{
		routes.RegisterPublicRoutes(api, h.Voting, h.Auth, h.Realtime)

		private := api.Group("", authMiddleware)
		routes.RegisterPrivateRoutes(private, h.Voting, h.Users, h.Auth)
	}

	r.GET("/ping", h.Ping)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		log:    log,
		engine: r,
		server: server,
	}
}

// Run blocks serving HTTP until Stop is called.
func (a *App) Run() error {
	a.log.Info("HTTP server is running", slog.String("addr", a.server.Addr))
	return a.server.ListenAndServe()
}

func (a *App) Stop(ctx context.Context) error {
	a.log.Info("HTTP server is stopping")
	return a.server.Shutdown(ctx)
}

func (a *App) Engine() *gin.Engine {
	return a.engine
}
