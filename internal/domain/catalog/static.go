package catalog

import (
	"context"
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/mateicos-storefront/db"
)

var _ Repository = (*Static)(nil)

// Static is an in-memory Repository over a fixed seed.
type Static struct {
	seed  *Seed
	index map[string]int
}

// NewStatic returns a Static repository serving s.
func NewStatic(s *Seed) *Static {
	index := make(map[string]int, len(s.Products))
	for i, p := range s.Products {
		index[p.ID] = i
	}
	return &Static{seed: s, index: index}
}

// DefaultSeed parses the catalog bundled with the binary.
func DefaultSeed() (*Seed, error) {
	s, err := ParseSeed(db.Catalog)
	if err != nil {
		return nil, errors.Wrap(err, "embedded catalog")
	}
	return s, nil
}

// Embedded returns a Static repository over the catalog bundled with the
// binary.
func Embedded() (*Static, error) {
	s, err := DefaultSeed()
	if err != nil {
		return nil, err
	}
	return NewStatic(s), nil
}

// List returns all products in catalog order.
func (r *Static) List(_ context.Context) ([]Product, error) {
	return slices.Clone(r.seed.Products), nil
}

// ListByCategory returns the products of one category. Unknown categories
// yield an empty list.
func (r *Static) ListByCategory(_ context.Context, category string) ([]Product, error) {
	var out []Product
	for _, p := range r.seed.Products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByID returns the product with the given id or ErrNotFound.
func (r *Static) GetByID(_ context.Context, id string) (*Product, error) {
	i, ok := r.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := r.seed.Products[i]
	return &p, nil
}

// Categories returns the category tree.
func (r *Static) Categories(_ context.Context) ([]Category, error) {
	out := make([]Category, len(r.seed.Categories))
	for i, c := range r.seed.Categories {
		c.Subcategories = slices.Clone(c.Subcategories)
		out[i] = c
	}
	return out, nil
}
