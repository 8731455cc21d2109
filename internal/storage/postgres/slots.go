package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/mateicos-storefront/internal/domain/cart"
)

const (
	loadSlotSQL = `SELECT data FROM cart_slots WHERE name = $1`

	saveSlotSQL = `INSERT INTO cart_slots (name, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
)

var _ cart.SlotProvider = (*Slots)(nil)

// Slots hands out slots stored as rows of the cart_slots table.
type Slots struct {
	db DB
}

// NewSlots returns Slots backed by conn.
func NewSlots(conn DB) *Slots {
	return &Slots{db: conn}
}

// Slot returns the slot with the given name.
func (s *Slots) Slot(name string) cart.Slot {
	return &slot{db: s.db, name: name}
}

type slot struct {
	db   DB
	name string
}

func (s *slot) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	if err := s.db.QueryRow(ctx, loadSlotSQL, s.name).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNoState
		}
		return nil, errors.Wrapf(err, "load slot %q", s.name)
	}
	return data, nil
}

func (s *slot) Save(ctx context.Context, data []byte) error {
	if _, err := s.db.Exec(ctx, saveSlotSQL, s.name, data); err != nil {
		return errors.Wrapf(err, "save slot %q", s.name)
	}
	return nil
}
