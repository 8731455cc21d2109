package main

import (
	"bytes"
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/mateicos-storefront/internal/domain/cart"
	"github.com/xenking/mateicos-storefront/internal/domain/catalog"
	"github.com/xenking/mateicos-storefront/internal/domain/checkout"
	"github.com/xenking/mateicos-storefront/internal/storage/file"
)

func newTestCLI(t *testing.T, path string, opener checkout.Opener) (*cli, *bytes.Buffer) {
	t.Helper()
	products, err := catalog.Embedded()
	require.NoError(t, err)

	var opts []checkout.Option
	if opener != nil {
		opts = append(opts, checkout.WithOpener(opener))
	}
	handoff, err := checkout.New(checkout.Config{}, opts...)
	require.NoError(t, err)

	out := new(bytes.Buffer)
	return &cli{
		out:     out,
		store:   cart.Open(context.Background(), file.New(path), cart.WithLogger(zap.NewNop())),
		catalog: products,
		handoff: handoff,
	}, out
}

func TestCLI_CartSurvivesRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cart.json")

	c, _ := newTestCLI(t, path, nil)
	require.NoError(t, c.run(ctx, []string{"add", "1"}))
	require.NoError(t, c.run(ctx, []string{"add", "1"}))
	require.NoError(t, c.run(ctx, []string{"inc", "1"}))

	c, out := newTestCLI(t, path, nil)
	require.NoError(t, c.run(ctx, []string{"list"}))
	assert.Contains(t, out.String(), "Mate Imperial Premium")
	assert.Contains(t, out.String(), "$45.000")
}

func TestCLI_Quantity(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCLI(t, filepath.Join(t.TempDir(), "cart.json"), nil)

	require.NoError(t, c.run(ctx, []string{"add", "8"}))
	require.NoError(t, c.run(ctx, []string{"qty", "8", "abc"}))
	assert.Equal(t, 1, c.store.ItemCount())

	require.NoError(t, c.run(ctx, []string{"qty", "8", "4"}))
	require.NoError(t, c.run(ctx, []string{"dec", "8"}))
	assert.Equal(t, 3, c.store.ItemCount())

	require.NoError(t, c.run(ctx, []string{"remove", "8"}))
	assert.True(t, c.store.IsEmpty())
}

func TestCLI_Errors(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCLI(t, filepath.Join(t.TempDir(), "cart.json"), nil)

	require.ErrorIs(t, c.run(ctx, []string{"add", "999"}), catalog.ErrNotFound)
	require.ErrorIs(t, c.run(ctx, []string{"checkout"}), checkout.ErrEmptyCart)
	require.Error(t, c.run(ctx, []string{"add"}))
	require.Error(t, c.run(ctx, []string{"qty", "1"}))
	require.Error(t, c.run(ctx, []string{"frobnicate"}))
}

func TestCLI_Checkout(t *testing.T) {
	ctx := context.Background()

	var opened string
	c, out := newTestCLI(t, filepath.Join(t.TempDir(), "cart.json"),
		checkout.OpenerFunc(func(_ context.Context, u string) error {
			opened = u
			return nil
		}),
	)
	require.NoError(t, c.run(ctx, []string{"add", "5"}))
	out.Reset()

	require.NoError(t, c.run(ctx, []string{"checkout"}))
	link := strings.TrimSpace(out.String())
	assert.Equal(t, opened, link)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/2995901714", u.Path)
	assert.Contains(t, u.Query().Get("text"), "Yerbero Artesanal de Madera")
	assert.Equal(t, 1, c.store.ItemCount(), "checkout leaves the cart untouched")
}

func TestCLI_Catalog(t *testing.T) {
	ctx := context.Background()
	c, out := newTestCLI(t, filepath.Join(t.TempDir(), "cart.json"), nil)

	require.NoError(t, c.run(ctx, []string{"catalog", "yerberos"}))
	assert.Contains(t, out.String(), "Yerbero de Cerámica Premium")
	assert.NotContains(t, out.String(), "Bombilla")
}

func TestCLI_EmptyList(t *testing.T) {
	c, out := newTestCLI(t, filepath.Join(t.TempDir(), "cart.json"), nil)
	require.NoError(t, c.run(context.Background(), []string{"list"}))
	assert.Equal(t, "Tu carrito está vacío\n", out.String())
}
