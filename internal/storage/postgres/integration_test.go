//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/mateicos-storefront/db"
	"github.com/xenking/mateicos-storefront/internal/domain/cart"
	"github.com/xenking/mateicos-storefront/internal/domain/catalog"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "storefront",
				"POSTGRES_PASSWORD": "storefront",
				"POSTGRES_DB":       "storefront",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://storefront:storefront@%s:%s/storefront?sslmode=disable", host, port.Port())
}

func TestIntegration_CatalogAndSlots(t *testing.T) {
	ctx := context.Background()

	pool, err := NewPool(ctx, startPostgres(t))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	// Migrations are idempotent.
	require.NoError(t, RunMigrations(ctx, pool))

	seed, err := catalog.ParseSeed(db.Catalog)
	require.NoError(t, err)

	repo := NewCatalogRepository(pool)
	require.NoError(t, repo.Seed(ctx, seed))

	products, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, products, len(seed.Products))

	mate, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(15000).Equal(mate.Price))

	categories, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(seed.Categories))

	slots := NewSlots(pool)
	store := cart.Open(ctx, slots.Slot("cart:it"))
	require.NoError(t, store.Add(ctx, mate.CartProduct()))
	require.NoError(t, store.Add(ctx, mate.CartProduct()))

	restored := cart.Open(ctx, slots.Slot("cart:it"))
	assert.Equal(t, 2, restored.ItemCount())
	assert.True(t, decimal.NewFromInt(30000).Equal(restored.Total()))
}
