package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/mateicos-storefront/internal/domain/catalog"
)

const (
	productColumns = `id, name, description, price, image, category, subcategory`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY position, id`

	listProductsByCategorySQL = `SELECT ` + productColumns + ` FROM products
		WHERE category = $1 ORDER BY position, id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	listCategoriesSQL = `SELECT c.id, c.name,
			COALESCE(s.id, ''), COALESCE(s.name, ''), COALESCE(s.image, ''), COALESCE(s.description, '')
		FROM categories c
		LEFT JOIN subcategories s ON s.category_id = c.id
		ORDER BY c.position, c.id, s.position, s.id`

	upsertCategorySQL = `INSERT INTO categories (id, name, position) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, position = EXCLUDED.position`

	upsertSubcategorySQL = `INSERT INTO subcategories (id, category_id, name, image, description, position)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET category_id = EXCLUDED.category_id, name = EXCLUDED.name,
			image = EXCLUDED.image, description = EXCLUDED.description, position = EXCLUDED.position`

	upsertProductSQL = `INSERT INTO products (id, name, description, price, image, category, subcategory, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description,
			price = EXCLUDED.price, image = EXCLUDED.image, category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory, position = EXCLUDED.position`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	db DB
}

// NewCatalogRepository returns a CatalogRepository that uses conn.
func NewCatalogRepository(conn DB) *CatalogRepository {
	return &CatalogRepository{db: conn}
}

// List returns all products in catalog order.
func (r *CatalogRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListByCategory returns the products of one category.
func (r *CatalogRepository) ListByCategory(ctx context.Context, category string) ([]catalog.Product, error) {
	rows, err := r.db.Query(ctx, listProductsByCategorySQL, category)
	if err != nil {
		return nil, errors.Wrapf(err, "list products of %q", category)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.db.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// Categories returns the category tree.
func (r *CatalogRepository) Categories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.db.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	defer rows.Close()

	var out []catalog.Category
	for rows.Next() {
		var (
			categoryID, categoryName string
			sub                      catalog.Subcategory
		)
		if err := rows.Scan(&categoryID, &categoryName, &sub.ID, &sub.Name, &sub.Image, &sub.Description); err != nil {
			return nil, errors.Wrap(err, "scan category")
		}
		if len(out) == 0 || out[len(out)-1].ID != categoryID {
			out = append(out, catalog.Category{ID: categoryID, Name: categoryName})
		}
		// Categories without subcategories come back with an empty id.
		if sub.ID == "" {
			continue
		}
		c := &out[len(out)-1]
		c.Subcategories = append(c.Subcategories, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate categories")
	}
	return out, nil
}

// Seed upserts every category, subcategory and product of s, keeping the
// seed order as display order.
func (r *CatalogRepository) Seed(ctx context.Context, s *catalog.Seed) error {
	for i, c := range s.Categories {
		if _, err := r.db.Exec(ctx, upsertCategorySQL, c.ID, c.Name, i); err != nil {
			return errors.Wrapf(err, "upsert category %s", c.ID)
		}
		for j, sc := range c.Subcategories {
			if _, err := r.db.Exec(ctx, upsertSubcategorySQL, sc.ID, c.ID, sc.Name, sc.Image, sc.Description, j); err != nil {
				return errors.Wrapf(err, "upsert subcategory %s", sc.ID)
			}
		}
	}
	for i, p := range s.Products {
		if _, err := r.db.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Description, p.Price, p.Image, p.Category, p.Subcategory, i,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Category, &p.Subcategory)
	return p, err
}
