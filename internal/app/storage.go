package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/mateicos-storefront/internal/domain/cart"
	"github.com/xenking/mateicos-storefront/internal/domain/catalog"
	"github.com/xenking/mateicos-storefront/internal/storage/memory"
	"github.com/xenking/mateicos-storefront/internal/storage/postgres"
	"github.com/xenking/mateicos-storefront/internal/storage/redis"
	"github.com/xenking/mateicos-storefront/pkg/health"
)

// backend is the opened storage: where carts live, where products come from,
// and how to release both.
type backend struct {
	slots   cart.SlotProvider
	catalog catalog.Repository
	close   func()
}

// openBackend connects the configured storage and registers its readiness
// check on hs.
func openBackend(ctx context.Context, lg *zap.Logger, cfg StorageConfig, hs *health.Health) (*backend, error) {
	switch cfg.Backend {
	case BackendRedis:
		return openRedis(ctx, lg, cfg, hs)
	case BackendPostgres:
		return openPostgres(ctx, lg, cfg, hs)
	default:
		products, err := catalog.Embedded()
		if err != nil {
			return nil, errors.Wrap(err, "load catalog")
		}
		slots := memory.New()
		slots.SetQuota(cfg.MemoryQuota)
		lg.Warn("Carts are kept in process memory and lost on restart")
		return &backend{slots: slots, catalog: products, close: func() {}}, nil
	}
}

func openRedis(ctx context.Context, lg *zap.Logger, cfg StorageConfig, hs *health.Health) (*backend, error) {
	opt, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := goredis.NewClient(opt)

	slots := redis.New(client,
		redis.WithPrefix(cfg.RedisPrefix),
		redis.WithTTL(cfg.CartTTL),
	)
	if err := slots.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	hs.AddReadinessCheck("redis", 2*time.Second, health.PingCheck(slots))

	products, err := catalog.Embedded()
	if err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "load catalog")
	}
	lg.Info("Carts stored in Redis", zap.String("addr", opt.Addr), zap.Duration("ttl", cfg.CartTTL))
	return &backend{
		slots:   slots,
		catalog: products,
		close:   func() { _ = client.Close() },
	}, nil
}

func openPostgres(ctx context.Context, lg *zap.Logger, cfg StorageConfig, hs *health.Health) (*backend, error) {
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	hs.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))

	products := postgres.NewCatalogRepository(pool)
	if err := seedIfEmpty(ctx, lg, products); err != nil {
		pool.Close()
		return nil, err
	}
	lg.Info("Carts stored in PostgreSQL")
	return &backend{
		slots:   postgres.NewSlots(pool),
		catalog: products,
		close:   pool.Close,
	}, nil
}

// seedIfEmpty loads the embedded catalog into a fresh database.
func seedIfEmpty(ctx context.Context, lg *zap.Logger, repo *postgres.CatalogRepository) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	if len(existing) > 0 {
		return nil
	}

	seed, err := catalog.DefaultSeed()
	if err != nil {
		return errors.Wrap(err, "parse embedded catalog")
	}
	if err := repo.Seed(ctx, seed); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	lg.Info("Seeded empty catalog", zap.Int("products", len(seed.Products)))
	return nil
}
