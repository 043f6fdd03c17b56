// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tomtom215/wayfinder/internal/api"
	"github.com/tomtom215/wayfinder/internal/config"
	"github.com/tomtom215/wayfinder/internal/database"
	"github.com/tomtom215/wayfinder/internal/evaluate"
	"github.com/tomtom215/wayfinder/internal/events"
	"github.com/tomtom215/wayfinder/internal/graph"
	"github.com/tomtom215/wayfinder/internal/logging"
	"github.com/tomtom215/wayfinder/internal/navigator"
	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/reports"
	"github.com/tomtom215/wayfinder/internal/stage"
	"github.com/tomtom215/wayfinder/internal/supervisor"
	"github.com/tomtom215/wayfinder/internal/supervisor/services"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("graph", cfg.Graph.Path).
		Str("db_driver", cfg.Database.Driver).
		Str("db_path", cfg.Database.Path).
		Bool("require_consent", cfg.Privacy.RequireConsent).
		Msg("Starting Wayfinder")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Wayfinder stopped with an error")
	}
	logging.Info().Msg("Wayfinder stopped")
}

//nolint:gocyclo // sequential component wiring
func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Privacy.Salt == config.DefaultSalt {
		logging.Warn().Msg("Using the built-in user hash salt; set USER_HASH_SALT in production")
	}

	hasher, err := database.NewHasher(cfg.Privacy.HashAlgorithm, cfg.Privacy.Salt)
	if err != nil {
		return err
	}
	store, err := database.New(&cfg.Database, hasher, logging.WithComponent("database"))
	if err != nil {
		return fmt.Errorf("open interaction store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing interaction store")
		}
	}()

	holder, err := graph.OpenHolder(cfg.Graph.Path, logging.WithComponent("graph"))
	if err != nil {
		return err
	}
	summary := holder.Current().Summarize()
	logging.Info().
		Int("directories", summary.TotalDirectories).
		Int("connections", summary.TotalConnections).
		Strs("pathways", summary.Pathways).
		Int("dangling_refs", len(summary.DanglingRefs)).
		Msg("Resource graph loaded")

	engineCfg := buildEngineConfig(cfg)
	engine, err := recommend.NewEngine(engineCfg, holder, logging.WithComponent("recommend"))
	if err != nil {
		return err
	}
	if version, err := engine.WarmStart(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to restore re-ranker checkpoint")
	} else if version > 0 {
		logging.Info().Int("model_version", version).Msg("Re-ranker restored from checkpoint")
	}

	classifier := stage.NewDefault()
	evaluator, err := evaluate.New(engineCfg, holder, classifier, logging.WithComponent("evaluate"))
	if err != nil {
		return err
	}

	archive, err := reports.Open(reportsConfig(cfg), logging.WithComponent("reports"))
	if err != nil {
		return fmt.Errorf("open report archive: %w", err)
	}
	defer func() {
		if err := archive.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing report archive")
		}
	}()

	bus := events.NewBus(events.DefaultConfig(), logging.WithComponent("events"))
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	nav, err := navigator.New(navigator.Deps{
		Graphs:     holder,
		Store:      store,
		Engine:     engine,
		Classifier: classifier,
		Evaluator:  evaluator,
		Archive:    archive,
		Bus:        bus,
	}, navigatorOptions(cfg), logging.WithComponent("navigator"))
	if err != nil {
		return err
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	router := api.NewRouter(
		api.NewHandler(nav),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)),
		logging.WithComponent("api"),
	)
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	server := &http.Server{
		Addr:              addr,
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	if err := addServices(tree, cfg, server, nav, holder, archive, bus); err != nil {
		return err
	}

	logging.Info().Str("addr", addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}
	return nil
}

func addServices(
	tree *supervisor.SupervisorTree,
	cfg *config.Config,
	server *http.Server,
	nav *navigator.Navigator,
	holder *graph.Holder,
	archive *reports.Archive,
	bus *events.Bus,
) error {
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout, logging.Logger()))

	retrain, err := services.NewRetrainService(nav, bus, retrainServiceConfig(cfg), logging.Logger())
	if err != nil {
		return err
	}
	tree.AddTrainingService(retrain)

	if cfg.Graph.Watch {
		tree.AddDataService(services.NewGraphWatchService(holder, nav.GraphReloaded, logging.Logger()))
		logging.Info().Str("path", holder.Path()).Msg("Resource graph hot reload enabled")
	}
	if cfg.Reports.Path != "" {
		tree.AddDataService(services.NewArchiveGCService(archive, services.DefaultArchiveGCInterval, logging.Logger()))
	}
	return nil
}
