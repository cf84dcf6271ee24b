package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/supplydesk/internal/adapter/storage"
	"github.com/rl1809/supplydesk/internal/config"
	"github.com/rl1809/supplydesk/internal/core/service"
	"github.com/rl1809/supplydesk/internal/port"
)

type store interface {
	port.DatabaseRepository
	Close() error
}

type migrator interface {
	Migrate(ctx context.Context) error
}

// app holds the wired services and everything that must be closed.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     store
	redis     *redis.Client
	inventory *service.InventoryService
	requests  *service.RequestService
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store, error) {
	var (
		s   store
		err error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		return storage.NewMemoryAdapter(), nil
	case config.DriverSQLite:
		s, err = storage.OpenSQLite(cfg.DSN)
	case config.DriverMySQL:
		s, err = storage.OpenMySQL(cfg.DSN, cfg.MaxOpenConns)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if m, ok := s.(migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// newApp opens the store, connects Redis when configured and builds the
// services on top of them.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	logger.Info("store ready", "driver", cfg.Store.Driver)

	a := &app{cfg: cfg, logger: logger, store: s}
	a.inventory = service.NewInventoryService(s, logger)

	opts := []service.Option{service.WithLogger(logger)}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			s.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("connected to redis", "addr", cfg.Redis.Addr)

		cache := storage.NewRedisAdapter(rdb,
			storage.WithLockTTL(cfg.Redis.LockTTL),
			storage.WithIdempotencyTTL(cfg.Redis.IdempotencyTTL),
		)
		opts = append(opts, service.WithCache(cache), service.WithLocker(cache))
		a.redis = rdb
	}

	a.requests = service.NewRequestService(s, s, a.inventory, opts...)

	// The memory store starts empty and requests need a submitter.
	if cfg.Store.Driver == config.DriverMemory {
		if _, err := service.Seed(ctx, a.inventory, s); err != nil {
			a.Close()
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		logger.Info("seeded memory store")
	}
	return a, nil
}

func (a *app) Close() error {
	if a.redis != nil {
		a.redis.Close()
	}
	return a.store.Close()
}
