package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/mateicos-storefront/internal/domain/catalog"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		products []catalog.Product
		err      error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		products, err = h.catalog.ListByCategory(ctx, category)
	} else {
		products, err = h.catalog.List(ctx)
	}
	if err != nil {
		writeErr(ctx, w, err)
		return
	}

	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			h.encodeProduct(e, h.formatter, p)
		}
	})
	writeJSON(w, http.StatusOK, e.Bytes())
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := h.catalog.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		writeErr(ctx, w, err)
		return
	}

	var e jx.Encoder
	h.encodeProduct(&e, h.formatter, *p)
	writeJSON(w, http.StatusOK, e.Bytes())
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		writeErr(ctx, w, err)
		return
	}

	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, c := range categories {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
				e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
				e.Field("subcategories", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for _, sc := range c.Subcategories {
							e.Obj(func(e *jx.Encoder) {
								e.Field("id", func(e *jx.Encoder) { e.Str(sc.ID) })
								e.Field("name", func(e *jx.Encoder) { e.Str(sc.Name) })
								e.Field("image", func(e *jx.Encoder) { e.Str(h.cfg.ImageBaseURL + sc.Image) })
								e.Field("description", func(e *jx.Encoder) { e.Str(sc.Description) })
							})
						}
					})
				})
			})
		}
	})
	writeJSON(w, http.StatusOK, e.Bytes())
}
