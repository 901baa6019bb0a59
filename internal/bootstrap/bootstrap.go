package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"studyscribe-server-go/internal/domain/eventbus"
	"studyscribe-server-go/internal/domain/media"
	"studyscribe-server-go/internal/domain/transcription"
	"studyscribe-server-go/internal/domain/transcription/cache"
	"studyscribe-server-go/internal/domain/usage"
	platformconfig "studyscribe-server-go/internal/platform/config"
	platformerrors "studyscribe-server-go/internal/platform/errors"
	platformlogging "studyscribe-server-go/internal/platform/logging"
	platformobservability "studyscribe-server-go/internal/platform/observability"
	platformstorage "studyscribe-server-go/internal/platform/storage"
	"studyscribe-server-go/internal/providers/host"
	"studyscribe-server-go/internal/providers/stt"
	httptransport "studyscribe-server-go/internal/transport/http"

	// Register STT provider factories.
	_ "studyscribe-server-go/internal/providers/stt/openai"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	configPath string

	config                *platformconfig.Config
	configOrigin          string
	logProvider           *platformlogging.Logger
	slogger               *slog.Logger
	observabilityShutdown platformobservability.ShutdownFunc
	db                    *gorm.DB
	cacheStore            *cache.TwoTier
	usageRecorder         *usage.Recorder
	pipeline              *transcription.Service
}

// Run starts the whole service lifecycle: configuration, dependency
// initialisation, HTTP serving and graceful shutdown.
func Run(ctx context.Context, configPath string) error {
	state := &appState{configPath: configPath}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	config := state.config
	logger := state.slogger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}
	if state.pipeline == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"pipeline not initialised",
		)
	}

	logBootstrapGraph(steps, logger)

	if shutdown := state.observabilityShutdown; shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("observability shutdown failed", "error", err)
			}
		}()
	}

	defer eventbus.Shutdown()
	defer func() {
		if state.cacheStore != nil {
			if err := state.cacheStore.Close(); err != nil {
				logger.Warn("cache close failed", "error", err)
			}
		}
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.Info("service stopped cleanly")
	state.logProvider.Close()
	return nil
}

func logBootstrapGraph(steps []initStep, logger *slog.Logger) {
	logger.Info("bootstrap graph")
	for _, step := range steps {
		logger.Info("bootstrap step",
			"id", step.ID,
			"title", step.Title,
			"depends_on", strings.Join(step.DependsOn, ","))
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Initialise database",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "cache:init",
			Title:     "Initialise transcript cache",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindStorage,
			Execute:   initCacheStep,
		},
		{
			ID:        "usage:init-recorder",
			Title:     "Initialise usage recorder",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initUsageStep,
		},
		{
			ID:        "pipeline:init",
			Title:     "Initialise transcription pipeline",
			DependsOn: []string{"observability:setup-hooks", "cache:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initPipelineStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader(state.configPath).Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}
	state.config = result.Config
	state.configOrigin = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "logging:init-provider", "config not loaded")
	}

	logProvider, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logProvider = logProvider
	state.slogger = logProvider.Slog()
	state.slogger.Info("logging ready",
		"level", state.config.Log.Level,
		"config", state.configOrigin)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	if state.slogger == nil || state.config == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "observability:setup-hooks", "config/logger not initialised")
	}

	cfg := platformobservability.Config{
		Enabled: strings.EqualFold(state.config.Log.Level, "debug"),
	}
	shutdown, err := platformobservability.Setup(ctx, cfg, state.slogger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.observabilityShutdown = shutdown
	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(platformerrors.KindStorage, "storage:init-database", "config not loaded")
	}

	// The database backs both the durable cache tier and usage accounting;
	// skip it entirely when neither needs it.
	needsDB := state.config.Cache.Driver == cache.DriverSQLite ||
		state.config.Cache.Driver == "" ||
		state.config.Usage.Enabled
	if !needsDB {
		return nil
	}

	dsn := state.config.Cache.SQLite.DSN
	if dsn == "" {
		dsn = "data/studyscribe.db"
	}
	db, err := platformstorage.Open(dsn)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-database", "failed to open database", err)
	}
	state.db = db
	return nil
}

func initCacheStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(platformerrors.KindStorage, "cache:init", "config not loaded")
	}

	store, err := cache.NewTwoTier(state.config.Cache, cache.Dependencies{SQLiteDB: state.db})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "cache:init", "failed to build transcript cache", err)
	}
	state.cacheStore = store
	state.slogger.Info("transcript cache ready",
		"driver", state.config.Cache.Driver,
		"ttl", state.config.Cache.TTL)
	return nil
}

func initUsageStep(_ context.Context, state *appState) error {
	if state.config == nil || state.slogger == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "usage:init-recorder", "config/logger not initialised")
	}
	if !state.config.Usage.Enabled {
		return nil
	}
	if state.db == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "usage:init-recorder", "usage accounting requires the database")
	}

	recorder := usage.NewRecorder(state.db, state.slogger)
	if err := recorder.Subscribe(eventbus.GetAsync()); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "usage:init-recorder", "failed to subscribe usage recorder", err)
	}
	state.usageRecorder = recorder
	return nil
}

func initPipelineStep(_ context.Context, state *appState) error {
	if state.config == nil || state.slogger == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "pipeline:init", "config/logger not initialised")
	}

	sttName := state.config.Selected.STT
	sttCfg, ok := state.config.STT[sttName]
	if !ok {
		return platformerrors.New(platformerrors.KindConfig, "pipeline:init",
			fmt.Sprintf("selected STT provider %q not configured", sttName))
	}

	provider, err := stt.Create(sttCfg, state.slogger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "pipeline:init", "failed to create STT provider", err)
	}

	runner := &media.ExecRunner{}
	acquirer := media.NewAcquirer(runner, state.config.Media, state.slogger)
	splitter := media.NewSplitter(runner, state.config.Media, state.slogger)

	var hostClient host.Client
	if state.config.Host.Enabled && state.config.Host.BaseURL != "" {
		hostClient = host.NewHTTPClient(state.config.Host, state.slogger)
	}

	state.pipeline = transcription.NewService(transcription.Options{
		Config:     state.config.Transcription,
		MediaCfg:   state.config.Media,
		Acquirer:   acquirer,
		Splitter:   splitter,
		Provider:   provider,
		HostClient: hostClient,
		Cache:      state.cacheStore,
		Logger:     state.slogger,
	})

	state.slogger.Info("transcription pipeline ready",
		"stt_provider", provider.Name(),
		"host_fast_path", hostClient != nil,
		"chunk_seconds", state.config.Transcription.ChunkSeconds,
		"max_concurrency", state.config.Transcription.MaxConcurrency)
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	config := state.config
	logger := state.slogger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config: config,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	router := httpRouter.Engine

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httptransport.APIResponse{
			Success: false,
			Data:    gin.H{},
			Message: "not found",
			Code:    http.StatusNotFound,
		})
	})

	apiService, err := httptransport.NewService(state.pipeline, logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "http:new-service", "failed to create api service", err)
	}
	if err := apiService.Register(groupCtx, httpRouter.API); err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "http:register-routes", "failed to register api routes", err)
	}

	httpServer := &http.Server{
		Addr:    config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		logger.Info("http server listening", "addr", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown failed", "error", err)
			} else {
				logger.Info("http server shut down cleanly")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			return err
		}
		return nil
	})

	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *slog.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.Info("shutdown signal received", "cause", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown finished with errors", "error", err)
			return err
		}
		logger.Info("all services stopped")
	case <-time.After(15 * time.Second):
		logger.Error("shutdown timed out")
		return errors.New("shutdown timed out")
	}
	return nil
}

// loadConfigAndLogger runs the front of the init graph. Test helper.
func loadConfigAndLogger(configPath string) (*platformconfig.Config, *platformlogging.Logger, error) {
	state := &appState{configPath: configPath}

	steps := []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
	}

	if err := executeInitSteps(context.Background(), steps, state); err != nil {
		return nil, nil, err
	}
	return state.config, state.logProvider, nil
}
