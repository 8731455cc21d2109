package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded(t *testing.T) {
	ctx := context.Background()
	repo, err := Embedded()
	require.NoError(t, err)

	products, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 8)

	categories, err := repo.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "mates", categories[0].ID)
	assert.Len(t, categories[0].Subcategories, 3)
}

func TestStatic_GetByID(t *testing.T) {
	ctx := context.Background()
	repo, err := Embedded()
	require.NoError(t, err)

	p, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Mate Imperial Premium", p.Name)
	assert.True(t, decimal.NewFromInt(15000).Equal(p.Price))

	_, err = repo.GetByID(ctx, "999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStatic_ListByCategory(t *testing.T) {
	ctx := context.Background()
	repo, err := Embedded()
	require.NoError(t, err)

	tests := []struct {
		category string
		wantIDs  []string
	}{
		{category: "mates", wantIDs: []string{"1", "2", "3", "4"}},
		{category: "yerberos", wantIDs: []string{"5", "6"}},
		{category: "bombillas", wantIDs: []string{"7", "8"}},
		{category: "termos", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			products, err := repo.ListByCategory(ctx, tt.category)
			require.NoError(t, err)

			var ids []string
			for _, p := range products {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestStatic_ListIsCopy(t *testing.T) {
	ctx := context.Background()
	repo, err := Embedded()
	require.NoError(t, err)

	products, err := repo.List(ctx)
	require.NoError(t, err)
	products[0].Name = "changed"

	p, err := repo.GetByID(ctx, products[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", p.Name)
}

func TestProduct_CartProduct(t *testing.T) {
	p := Product{
		ID:          "7",
		Name:        "Bombilla Alpaca Premium",
		Description: "Bombilla de alpaca",
		Price:       decimal.NewFromInt(6500),
		Image:       "assets/images/bombilla2.webp",
		Category:    "bombillas",
		Subcategory: "bombillas-alpaca",
	}

	cp := p.CartProduct()
	assert.Equal(t, "7", cp.ID)
	assert.Equal(t, p.Name, cp.Name)
	assert.True(t, p.Price.Equal(cp.Price))
	assert.Equal(t, p.Image, cp.Image)
}

func TestParseSeed_Invalid(t *testing.T) {
	const categories = `"categories":[{"id":"mates","name":"Mates","subcategories":[{"id":"mates-imperiales","name":"Imperiales"}]}]`

	tests := []struct {
		name string
		data string
	}{
		{name: "malformed", data: `{`},
		{name: "zero price", data: `{` + categories + `,"products":[{"id":"1","name":"A","price":"0","image":"a","category":"mates","subcategory":"mates-imperiales"}]}`},
		{name: "missing image", data: `{` + categories + `,"products":[{"id":"1","name":"A","price":"10","category":"mates","subcategory":"mates-imperiales"}]}`},
		{name: "unknown subcategory", data: `{` + categories + `,"products":[{"id":"1","name":"A","price":"10","image":"a","category":"mates","subcategory":"termos"}]}`},
		{name: "category mismatch", data: `{` + categories + `,"products":[{"id":"1","name":"A","price":"10","image":"a","category":"yerberos","subcategory":"mates-imperiales"}]}`},
		{name: "duplicate id", data: `{` + categories + `,"products":[` +
			`{"id":"1","name":"A","price":"10","image":"a","category":"mates","subcategory":"mates-imperiales"},` +
			`{"id":"1","name":"B","price":"10","image":"b","category":"mates","subcategory":"mates-imperiales"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed([]byte(tt.data))
			require.Error(t, err)
		})
	}
}
