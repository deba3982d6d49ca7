package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caseflow-app/caseflow/internal/app"
	"github.com/caseflow-app/caseflow/internal/assignment"
	"github.com/caseflow-app/caseflow/internal/auth"
	"github.com/caseflow-app/caseflow/internal/authz"
	"github.com/caseflow-app/caseflow/internal/catalog"
	"github.com/caseflow-app/caseflow/internal/observability"
	"github.com/caseflow-app/caseflow/internal/platform/cache"
	"github.com/caseflow-app/caseflow/internal/platform/db"
	"github.com/caseflow-app/caseflow/internal/roles"
	"github.com/caseflow-app/caseflow/internal/shared"
	"github.com/caseflow-app/caseflow/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	bypass, err := cfg.BypassTable()
	if err != nil {
		logger.Error("build bypass table", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "caseflow_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	metrics := observability.NewMetrics()

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)
	catalogRegistrar := catalog.NewRegistrar(catalogRepo, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService, catalogRegistrar)

	rolesService := roles.NewService(roles.NewRepository(dbpool))
	rolesHandler := roles.NewHandler(logger, rolesService)

	assignmentService := assignment.NewService(assignment.NewRepository(dbpool), logger)
	assignmentHandler := assignment.NewHandler(logger, assignmentService)

	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(dbpool)))

	engine := authz.NewEngine(authz.NewStore(dbpool), bypass, logger, metrics)
	authzMiddleware := authz.Middleware{Engine: engine, Logger: logger}

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		AuthHandler:       authHandler,
		CatalogHandler:    catalogHandler,
		RolesHandler:      rolesHandler,
		AssignmentHandler: assignmentHandler,
		UsersHandler:      usersHandler,
		AuthzMiddleware:   authzMiddleware,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
