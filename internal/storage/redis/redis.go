// Package redis stores cart slots in Redis with an idle expiry.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/mateicos-storefront/internal/domain/cart"
)

const (
	// DefaultPrefix is prepended to every slot name.
	DefaultPrefix = "storefront:"
	// DefaultTTL is how long an untouched cart is kept.
	DefaultTTL = 30 * 24 * time.Hour
)

var _ cart.SlotProvider = (*Slots)(nil)

// Option configures Slots.
type Option func(*Slots)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Slots) { s.prefix = prefix }
}

// WithTTL sets the expiry refreshed on every write. Zero keeps keys forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Slots) { s.ttl = ttl }
}

// Slots hands out Redis-backed slots.
type Slots struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New returns Slots using client.
func New(client redis.UniversalClient, opts ...Option) *Slots {
	s := &Slots{
		client: client,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Slot returns the slot with the given name.
func (s *Slots) Slot(name string) cart.Slot {
	return &slot{slots: s, key: s.prefix + name}
}

// Ping checks connectivity to Redis.
func (s *Slots) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	return nil
}

type slot struct {
	slots *Slots
	key   string
}

func (s *slot) Load(ctx context.Context) ([]byte, error) {
	data, err := s.slots.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cart.ErrNoState
		}
		return nil, errors.Wrap(err, "redis get cart")
	}
	return data, nil
}

func (s *slot) Save(ctx context.Context, data []byte) error {
	if err := s.slots.client.Set(ctx, s.key, data, s.slots.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set cart")
	}
	return nil
}
