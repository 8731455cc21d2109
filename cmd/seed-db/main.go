// Command seed-db loads a product catalog into PostgreSQL.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/mateicos-storefront/internal/domain/catalog"
	"github.com/xenking/mateicos-storefront/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		catalogFile string
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "", "path to a catalog JSON file (defaults to the bundled catalog)")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, catalogFile); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, catalogFile string) error {
	seed, err := loadSeed(lg, catalogFile)
	if err != nil {
		return err
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	lg.Info("Upserting catalog",
		zap.Int("categories", len(seed.Categories)),
		zap.Int("products", len(seed.Products)),
	)
	if err := postgres.NewCatalogRepository(pool).Seed(ctx, seed); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	return nil
}

func loadSeed(lg *zap.Logger, path string) (*catalog.Seed, error) {
	if path == "" {
		lg.Info("Using bundled catalog")
		return catalog.DefaultSeed()
	}

	lg.Info("Reading catalog file", zap.String("path", path))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog file")
	}
	return catalog.ParseSeed(data)
}
