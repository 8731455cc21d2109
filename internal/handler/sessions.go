package handler

import (
	"context"
	"math"
	"sync"

	"github.com/hashicorp/golang-lru/simplelru"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/mateicos-storefront/internal/domain/cart"
)

// DefaultMaxOpenCarts bounds the number of carts kept open in memory.
const DefaultMaxOpenCarts = 10_000

type session struct {
	store *cart.Store
	refs  int
}

// Sessions opens one cart store per browser session on demand. Every store
// persists to the slot "cart:<session>", so a store dropped from memory is
// restored from its slot on the next request.
//
// A session has at most one live store. Stores in use by a request or holding
// changes their slot did not accept are never evicted, so the open count may
// exceed maxOpen until they are released or saved.
type Sessions struct {
	slots   cart.SlotProvider
	opts    []cart.Option
	maxOpen int
	opening singleflight.Group

	mu sync.Mutex
	// lru maps session id to *session, least recently used first.
	lru *simplelru.LRU
}

// NewSessions returns a registry opening stores on slots with opts.
func NewSessions(slots cart.SlotProvider, maxOpen int, opts ...cart.Option) *Sessions {
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenCarts
	}
	// Capacity is enforced by evictLocked; the LRU only keeps the order.
	lru, err := simplelru.NewLRU(math.MaxInt, nil)
	if err != nil {
		panic(err)
	}
	return &Sessions{
		slots:   slots,
		opts:    opts,
		maxOpen: maxOpen,
		lru:     lru,
	}
}

// SlotName returns the slot backing the cart of session.
func SlotName(session string) string {
	return "cart:" + session
}

// Get returns the store of id, opening it if needed. The store stays pinned
// in memory until release is called.
func (s *Sessions) Get(ctx context.Context, id string) (*cart.Store, func()) {
	for {
		st := s.lookup(ctx, id)

		s.mu.Lock()
		v, ok := s.lru.Get(id)
		if !ok || v.(*session).store != st {
			// Evicted between open and pin; look it up again.
			s.mu.Unlock()
			continue
		}
		sess := v.(*session)
		sess.refs++
		s.mu.Unlock()

		var once sync.Once
		return st, func() { once.Do(func() { s.release(sess) }) }
	}
}

// lookup returns the open store of id. Concurrent opens of the same session
// share one slot read.
func (s *Sessions) lookup(ctx context.Context, id string) *cart.Store {
	if st := s.peek(id); st != nil {
		return st
	}
	v, _, _ := s.opening.Do(id, func() (any, error) {
		if st := s.peek(id); st != nil {
			return st, nil
		}
		st := cart.Open(ctx, s.slots.Slot(SlotName(id)), s.opts...)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.lru.Add(id, &session{store: st})
		s.evictLocked(id)
		return st, nil
	})
	return v.(*cart.Store)
}

func (s *Sessions) peek(id string) *cart.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.lru.Peek(id); ok {
		return v.(*session).store
	}
	return nil
}

func (s *Sessions) release(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.refs--
	s.evictLocked("")
}

// evictLocked drops least recently used idle stores until at most maxOpen
// remain. keep is never evicted. Must be called with s.mu held.
func (s *Sessions) evictLocked(keep string) {
	if s.lru.Len() <= s.maxOpen {
		return
	}
	for _, k := range s.lru.Keys() {
		if s.lru.Len() <= s.maxOpen {
			return
		}
		id := k.(string)
		if id == keep {
			continue
		}
		v, _ := s.lru.Peek(id)
		sess := v.(*session)
		// The in-memory cart is the only copy of an unsaved change.
		if sess.refs > 0 || sess.store.PersistErr() != nil {
			continue
		}
		s.lru.Remove(id)
	}
}

// Len returns the number of open stores.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}
