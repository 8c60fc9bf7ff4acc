package app

import (
	"context"
	"fmt"

	"github.com/example/reservation-service/internal/adapter/customs"
	"github.com/example/reservation-service/internal/adapter/httpapi"
	"github.com/example/reservation-service/internal/adapter/kv"
	"github.com/example/reservation-service/internal/adapter/lock"
	"github.com/example/reservation-service/internal/config"
	"github.com/example/reservation-service/internal/domain"
	"github.com/example/reservation-service/internal/usecase"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// App — собранные зависимости сервиса: хранилище, блокировка и use-cases.
// Общая сборка для HTTP-сервера и resvctl.
type App struct {
	Config config.Config
	Logger logrus.FieldLogger

	Store      domain.KVStore
	Locker     domain.Locker
	Reconciler *usecase.Reconciler
	Repo       *usecase.ReservationRepository
	Registry   *usecase.Registry
	Inspect    usecase.InspectStore
	Wipe       usecase.WipeData
	KV         usecase.KeyValue
	Customs    *customs.Client

	closers []func()
}

func New(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	var redisClient redis.UniversalClient

	switch cfg.Backend {
	case config.BackendMemory:
		a.Store = kv.NewMemoryStore()
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		redisClient = client
		a.Store = kv.NewRedisStore(client, cfg.Namespace)
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := kv.EnsureSchema(ctx, pool); err != nil {
			a.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
		a.Store = kv.NewPostgresStore(pool, cfg.Namespace)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	a.Locker = lock.Noop{}
	if cfg.LockMode == config.LockRedis {
		if redisClient == nil {
			a.Close()
			return nil, fmt.Errorf("redis lock requires the redis backend, got %q", cfg.Backend)
		}
		locker := lock.NewRedisLocker(redisClient, cfg.Namespace)
		locker.OnReleaseError = func(key string, err error) {
			logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("lock release failed")
		}
		a.Locker = locker
	}

	a.wire(a.Store)
	if cfg.UnipassAPIKey != "" {
		a.Customs = customs.NewClient(cfg.UnipassBaseURL, cfg.UnipassAPIKey)
	}

	logger.WithFields(logrus.Fields{
		"backend":   cfg.Backend,
		"namespace": cfg.Namespace,
		"lock":      cfg.LockMode,
		"canonical": cfg.Layout.CanonicalKey,
	}).Info("store ready")
	return a, nil
}

// NewWithStore собирает use-cases поверх готового хранилища, без внешних подключений.
func NewWithStore(cfg config.Config, store domain.KVStore, logger logrus.FieldLogger) *App {
	a := &App{Config: cfg, Logger: logger, Store: store, Locker: lock.Noop{}}
	a.wire(store)
	return a
}

func (a *App) wire(store domain.KVStore) {
	layout := a.Config.Layout.WithDefaults()
	a.Reconciler = usecase.NewReconciler(store, layout, a.Locker, a.Logger)
	a.Repo = usecase.NewReservationRepository(a.Reconciler)
	a.Registry = usecase.NewRegistry(store)
	a.Inspect = usecase.InspectStore{Store: store, Layout: layout}
	a.Wipe = usecase.WipeData{Store: store, Layout: layout, Logger: a.Logger}
	a.KV = usecase.KeyValue{Store: store, Layout: layout}
}

// HTTPDeps — зависимости для httpapi.NewServer.
func (a *App) HTTPDeps() httpapi.Deps {
	d := httpapi.Deps{
		Repo:     a.Repo,
		Inspect:  a.Inspect,
		Wipe:     a.Wipe,
		KV:       a.KV,
		Registry: a.Registry,
		Logger:   a.Logger,
	}
	// типизированный nil в интерфейсе не должен выглядеть как настроенный клиент
	if a.Customs != nil {
		d.Customs = a.Customs
	}
	return d
}

// Close закрывает подключения в обратном порядке.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
