package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/mateicos-storefront/internal/domain/cart"
	"github.com/xenking/mateicos-storefront/internal/domain/checkout"
)

func writeCart(w http.ResponseWriter, st *cart.Store) {
	writeJSON(w, http.StatusOK, encodeSnapshot(st.Formatter(), st.Snapshot()))
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	st, release := h.store(w, r)
	defer release()
	writeCart(w, st)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := readBody(r)
	if err != nil {
		writeErr(ctx, w, err)
		return
	}
	id, err := decodeAddItem(d)
	if err != nil {
		writeErr(ctx, w, err)
		return
	}
	// The catalog is the source of name, price and image; the client only
	// names the product.
	p, err := h.catalog.GetByID(ctx, id)
	if err != nil {
		writeErr(ctx, w, err)
		return
	}

	st, release := h.store(w, r)
	defer release()
	if err := st.Add(ctx, p.CartProduct()); err != nil {
		writeErr(ctx, w, err)
		return
	}
	writeCart(w, st)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := readBody(r)
	if err != nil {
		writeErr(ctx, w, err)
		return
	}
	u, err := decodeQuantityUpdate(d)
	if err != nil {
		writeErr(ctx, w, err)
		return
	}

	st, release := h.store(w, r)
	defer release()
	id := r.PathValue("id")
	if u.hasDelta {
		err = st.AdjustQuantity(ctx, id, u.delta)
	} else {
		err = st.SetQuantity(ctx, id, u.quantity)
	}
	if err != nil {
		writeErr(ctx, w, err)
		return
	}
	writeCart(w, st)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, release := h.store(w, r)
	defer release()
	if err := st.Remove(ctx, r.PathValue("id")); err != nil {
		writeErr(ctx, w, err)
		return
	}
	writeCart(w, st)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, release := h.store(w, r)
	defer release()
	if err := st.Clear(ctx); err != nil {
		writeErr(ctx, w, err)
		return
	}
	writeCart(w, st)
}

// checkout returns the conversation URL; opening it is up to the client.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, release := h.store(w, r)
	defer release()

	// One read, so the URL and the message describe the same cart.
	snap := st.Snapshot()
	if len(snap.Lines) == 0 {
		writeErr(ctx, w, checkout.ErrEmptyCart)
		return
	}
	msg := st.Formatter().OrderMessage(snap.Lines)

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("url", func(e *jx.Encoder) { e.Str(h.handoff.MessageURL(msg)) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
	writeJSON(w, http.StatusOK, e.Bytes())
}
