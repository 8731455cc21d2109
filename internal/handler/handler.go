// Package handler serves the storefront cart and catalog over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/mateicos-storefront/internal/domain/cart"
	"github.com/xenking/mateicos-storefront/internal/domain/catalog"
	"github.com/xenking/mateicos-storefront/internal/domain/checkout"
	"github.com/xenking/mateicos-storefront/pkg/httpmiddleware"
)

// SessionCookie names the cookie carrying the cart session id.
const SessionCookie = "cart_session"

// Notice is returned alongside a cart whose last change could not be saved.
const Notice = "No pudimos guardar tu carrito. Los cambios se mantienen mientras sigas navegando."

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in catalog responses.
	ImageBaseURL string
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
	// SessionTTL is the lifetime of the session cookie.
	SessionTTL time.Duration
}

// Handler serves the cart API.
type Handler struct {
	cfg       HandlerConfig
	catalog   catalog.Repository
	sessions  *Sessions
	handoff   *checkout.Handoff
	formatter *cart.Formatter
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	products catalog.Repository,
	sessions *Sessions,
	handoff *checkout.Handoff,
) *Handler {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	return &Handler{
		cfg:       cfg,
		catalog:   products,
		sessions:  sessions,
		handoff:   handoff,
		formatter: cart.DefaultFormatter(),
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/catalog", h.listProducts)
	mux.HandleFunc("GET /api/catalog/categories", h.listCategories)
	mux.HandleFunc("GET /api/catalog/{id}", h.getProduct)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("POST /api/cart/items", h.addItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.updateItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeItem)
	mux.HandleFunc("POST /api/cart/checkout", h.checkout)
}

// store returns the cart of the requesting session, starting a new session
// when the request carries no valid one. The caller must call release once
// it is done with the store.
func (h *Handler) store(w http.ResponseWriter, r *http.Request) (st *cart.Store, release func()) {
	session := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			session = id.String()
		}
	}
	if session == "" {
		session = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    session,
			Path:     "/",
			MaxAge:   int(h.cfg.SessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.cfg.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		})
		zctx.From(r.Context()).Debug("Started cart session", zap.String("session", session))
	}
	return h.sessions.Get(r.Context(), session)
}

// writeErr maps domain errors to HTTP responses.
func writeErr(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *cart.ValidationError
	switch {
	case errors.As(err, &verr):
		httpmiddleware.WriteError(w, http.StatusUnprocessableEntity, verr.Error())
	case errors.Is(err, catalog.ErrNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		httpmiddleware.WriteError(w, http.StatusConflict, err.Error())
	case isBadRequest(err):
		httpmiddleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		zctx.From(ctx).Error("Request failed", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
