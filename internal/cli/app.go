package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/palaver"
	"github.com/aretw0/palaver/internal/config"
	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/pkg/adapters/file"
	"github.com/aretw0/palaver/pkg/adapters/memory"
	redisadapter "github.com/aretw0/palaver/pkg/adapters/redis"
	"github.com/aretw0/palaver/pkg/observability"
	"github.com/aretw0/palaver/pkg/persistence/middleware"
	"github.com/aretw0/palaver/pkg/ports"
	"github.com/aretw0/palaver/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App bundles a configured Game with the resources behind it.
type App struct {
	Game     *palaver.Game
	World    *file.World
	Store    ports.SessionStore
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Logger   *slog.Logger

	closers []func() error
}

// NewApp loads the world and wires the game to the configured session store.
// Lifecycle hooks always feed the metrics registry; node-level logging is
// visible at debug level.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	world, err := file.Load(cfg.World)
	if err != nil {
		return nil, fmt.Errorf("error loading world: %w", err)
	}

	store, locker, closer, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	opts := []palaver.Option{
		palaver.WithRegistry(registry.NewDefault()),
		palaver.WithObjectCatalog(world.Catalog()),
		palaver.WithSessionStore(store),
		palaver.WithLifecycleHooks(observability.Combine(observability.LoggingHooks(logger), metrics.Hooks())),
		palaver.WithLogger(logger),
		palaver.WithDebug(cfg.Debug),
		palaver.WithStartMoney(cfg.StartMoney),
	}
	if locker != nil {
		opts = append(opts, palaver.WithLocker(locker))
	}

	app := &App{
		Game:     palaver.New(world.ScriptStore(), opts...),
		World:    world,
		Store:    store,
		Registry: reg,
		Metrics:  metrics,
		Logger:   logger,
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	logger.Debug("world loaded", "path", cfg.World, "owners", len(world.Owners), "store", cfg.Store)
	return app, nil
}

// Close releases the session store connection, if any.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenStore builds the session store selected by cfg.Store, sealed when a
// session key is configured. The redis backend also yields a distributed
// locker and a closer.
func OpenStore(ctx context.Context, cfg config.Config) (ports.SessionStore, ports.DistributedLocker, func() error, error) {
	seal, err := sealing(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	store, locker, closer, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if seal != nil {
		store = middleware.Chain(store, seal)
	}
	return store, locker, closer, nil
}

func openBackend(ctx context.Context, cfg config.Config) (ports.SessionStore, ports.DistributedLocker, func() error, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil, nil
	case config.StoreFile, "":
		return file.NewStore(cfg.SessionDir), nil, nil, nil
	case config.StoreRedis:
		var opts []redisadapter.Option
		if cfg.SessionTTL > 0 {
			opts = append(opts, redisadapter.WithTTL(cfg.SessionTTL))
		}
		store := redisadapter.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, nil, nil, fmt.Errorf("error connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		locker := redisadapter.NewLocker(store.Client(), "palaver:")
		return store, locker, store.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

// sealing returns the encryption middleware, or nil without a session key.
func sealing(cfg config.Config) (middleware.Middleware, error) {
	if strings.TrimSpace(cfg.SessionKey) == "" {
		return nil, nil
	}
	active, err := middleware.ParseKey(cfg.SessionKey)
	if err != nil {
		return nil, err
	}
	var fallbacks [][]byte
	for i, raw := range cfg.SessionKeyFallbacks {
		key, err := middleware.ParseKey(raw)
		if err != nil {
			return nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		fallbacks = append(fallbacks, key)
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallbacks})
}

// NewLogger builds the process logger. Debug forces the debug level.
func NewLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return logging.NewFromConfig(cfg.LogFormat, level)
}
