package cli

import (
	"fmt"
	"log/slog"

	"github.com/eshaffer321/orderrecon/internal/adapters/platforms"
	"github.com/eshaffer321/orderrecon/internal/application/service"
	"github.com/eshaffer321/orderrecon/internal/domain/reconciler"
	"github.com/eshaffer321/orderrecon/internal/infrastructure/cache"
	"github.com/eshaffer321/orderrecon/internal/infrastructure/config"
	"github.com/eshaffer321/orderrecon/internal/infrastructure/logging"
	"github.com/eshaffer321/orderrecon/internal/infrastructure/storage"
)

// app is the wired set of components shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	engine  reconciler.Config
	store   storage.Repository
	service *service.ReconcileService
}

func loadConfig(opts *RootOptions) *config.Config {
	cfg := config.LoadOrEnvWithPath(opts.ConfigPath)
	if opts.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	return cfg
}

// newApp wires the service. With withHistory false no database is opened.
func newApp(cfg *config.Config, component string, withHistory bool) (*app, error) {
	logger := logging.NewComponentLogger(cfg.Observability.Logging, component)

	engineCfg, err := cfg.Reconcile.ToReconciler()
	if err != nil {
		return nil, fmt.Errorf("invalid reconcile config: %w", err)
	}

	var store storage.Repository
	if withHistory {
		s, err := storage.NewStorage(cfg.Storage.DatabasePath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open run history %s: %w", cfg.Storage.DatabasePath, err)
		}
		store = s
	}

	ttl, err := config.ParseDuration("outcome_ttl", cfg.Server.OutcomeTTL)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	svc := service.NewReconcileService(
		reconciler.New(engineCfg, logger),
		platforms.DefaultRegistry(logger),
		store,
		cache.NewOutcomeCache(ttl),
		logger,
	)

	return &app{cfg: cfg, logger: logger, engine: engineCfg, store: store, service: svc}, nil
}

func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
