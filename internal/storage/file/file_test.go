package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/mateicos-storefront/internal/domain/cart"
)

func TestSlot_LoadMissing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "cart.json"))
	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, cart.ErrNoState)
}

func TestSlot_SaveCreatesDirectories(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "mateicos", "cart.json")
	s := New(path)

	require.NoError(t, s.Save(ctx, []byte("[]")))
	require.NoError(t, s.Save(ctx, []byte(`[{"id":"m1"}]`)))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"m1"}]`, string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
}

func TestSlot_SaveUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	// The parent "directory" is a regular file.
	s := New(filepath.Join(blocker, "cart.json"))
	require.Error(t, s.Save(context.Background(), []byte("[]")))
}

func TestSlot_CartRestoresAcrossSessions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cart.json")

	first := cart.Open(ctx, New(path))
	require.NoError(t, first.Add(ctx, cart.Product{ID: "1", Name: "Mate Imperial Premium", Price: decimal.NewFromInt(15000), Image: "assets/images/mate3.webp"}))
	require.NoError(t, first.SetQuantity(ctx, "1", 4))

	second := cart.Open(ctx, New(path))
	assert.Equal(t, first.Lines(), second.Lines())
}

func TestSlot_CorruptFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	store := cart.Open(ctx, New(path))
	assert.True(t, store.IsEmpty())
}

func TestDir_Slot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d := NewDir(root)

	require.NoError(t, d.Slot("cart:4f0c/../x").Save(ctx, []byte("[]")))

	_, err := os.Stat(filepath.Join(root, "cart_4f0c_.._x.json"))
	require.NoError(t, err)
}
