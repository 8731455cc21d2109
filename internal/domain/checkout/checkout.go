// Package checkout hands a cart over to a chat conversation with the store by
// building a prefilled message URL.
package checkout

import (
	"context"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/skratchdot/open-golang/open"
	"go.uber.org/zap"
)

// Default destination of the order conversation.
const (
	DefaultEndpoint    = "https://wa.me"
	DefaultDestination = "2995901714"
)

// ErrEmptyCart is returned when checking out a cart without lines.
var ErrEmptyCart = errors.New("cart is empty")

// Cart is the part of the cart store the handoff reads.
type Cart interface {
	IsEmpty() bool
	OrderMessage() string
}

// Opener opens a URL in a new browsing context.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, url string) error

// Open calls f(ctx, url).
func (f OpenerFunc) Open(ctx context.Context, url string) error { return f(ctx, url) }

// BrowserOpener opens URLs with the desktop's default browser.
type BrowserOpener struct{}

// Open starts the system URL handler for u.
func (BrowserOpener) Open(_ context.Context, u string) error {
	if err := open.Start(u); err != nil {
		return errors.Wrap(err, "start browser")
	}
	return nil
}

// Config holds the handoff destination.
type Config struct {
	Endpoint    string `default:"https://wa.me" yaml:"endpoint"`
	Destination string `default:"2995901714" yaml:"destination"`
}

// Option configures a Handoff.
type Option func(*Handoff)

// WithOpener sets the opener used by Checkout.
func WithOpener(o Opener) Option {
	return func(h *Handoff) { h.opener = o }
}

// WithLogger sets the logger.
func WithLogger(lg *zap.Logger) Option {
	return func(h *Handoff) { h.lg = lg }
}

// Handoff builds checkout URLs and optionally opens them.
type Handoff struct {
	base   *url.URL
	opener Opener
	lg     *zap.Logger
}

// New validates cfg and returns a Handoff. Empty fields fall back to the
// defaults.
func New(cfg Config, opts ...Option) (*Handoff, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Destination == "" {
		cfg.Destination = DefaultDestination
	}

	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "parse endpoint")
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, errors.Errorf("endpoint %q must be an absolute URL", cfg.Endpoint)
	}

	h := &Handoff{
		base: endpoint.JoinPath(cfg.Destination),
		lg:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// URL returns the handoff URL carrying the cart's order message.
func (h *Handoff) URL(c Cart) (string, error) {
	if c.IsEmpty() {
		return "", ErrEmptyCart
	}
	return h.MessageURL(c.OrderMessage()), nil
}

// MessageURL returns the handoff URL for an already rendered message.
func (h *Handoff) MessageURL(msg string) string {
	u := *h.base
	u.RawQuery = url.Values{"text": {msg}}.Encode()
	return u.String()
}

// Checkout builds the handoff URL and, when an opener is configured, opens it.
// The cart is left untouched.
func (h *Handoff) Checkout(ctx context.Context, c Cart) (string, error) {
	u, err := h.URL(c)
	if err != nil {
		return "", err
	}
	if h.opener == nil {
		return u, nil
	}
	if err := h.opener.Open(ctx, u); err != nil {
		return u, errors.Wrap(err, "open checkout")
	}
	h.lg.Info("Opened checkout conversation")
	return u, nil
}
