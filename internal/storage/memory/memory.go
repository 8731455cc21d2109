// Package memory provides cart slots held in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/mateicos-storefront/internal/domain/cart"
)

// ErrQuotaExceeded is returned by Save when the write would push the total
// stored size over the configured quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

var _ cart.SlotProvider = (*Slots)(nil)

// Slots is a set of named in-memory slots sharing one optional size quota.
type Slots struct {
	mu    sync.Mutex
	data  map[string][]byte
	quota int
}

// New returns an empty slot set without a quota.
func New() *Slots {
	return &Slots{data: make(map[string][]byte)}
}

// SetQuota limits the total stored bytes across all slots. Zero disables the
// limit. Values already stored are kept.
func (s *Slots) SetQuota(bytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quota = bytes
}

// Slot returns the slot with the given name.
func (s *Slots) Slot(name string) cart.Slot {
	return &slot{slots: s, name: name}
}

// Len returns the number of non-empty slots.
func (s *Slots) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *Slots) load(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.data[name]
	if !ok {
		return nil, cart.ErrNoState
	}
	return append([]byte(nil), data...), nil
}

func (s *Slots) save(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quota > 0 {
		used := len(data)
		for k, v := range s.data {
			if k != name {
				used += len(v)
			}
		}
		if used > s.quota {
			return errors.Wrapf(ErrQuotaExceeded, "slot %s needs %d of %d bytes", name, used, s.quota)
		}
	}
	s.data[name] = append([]byte(nil), data...)
	return nil
}

type slot struct {
	slots *Slots
	name  string
}

func (s *slot) Load(_ context.Context) ([]byte, error) {
	return s.slots.load(s.name)
}

func (s *slot) Save(_ context.Context, data []byte) error {
	return s.slots.save(s.name, data)
}
