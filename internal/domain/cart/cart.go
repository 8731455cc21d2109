// Package cart implements the storefront shopping cart: an ordered collection
// of product lines kept in memory, mirrored into a single persisted slot after
// every change, and reduced into a checkout message.
package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNoState is returned by a Slot when nothing has been persisted yet.
var ErrNoState = errors.New("no persisted cart")

// Product is the descriptor the catalog hands over when a customer adds an item.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Image string
}

// MaxQuantity is the largest quantity a line can hold. Larger requests
// saturate to it, which also keeps ItemCount from overflowing.
const MaxQuantity = 9999

// clampQuantity bounds q to [1, MaxQuantity].
func clampQuantity(q int) int {
	return min(max(q, 1), MaxQuantity)
}

// Line is a single product entry in the cart.
//
// Name, UnitPrice and Image are captured when the line is first created and
// are never refreshed from later Add calls.
type Line struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Image     string
	Quantity  int
}

// Subtotal returns UnitPrice * Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is the cart state delivered to observers after a mutation.
type Snapshot struct {
	Lines     []Line
	ItemCount int
	Total     decimal.Decimal
	// PersistErr is set when the durable write that followed the mutation
	// failed. The in-memory state is still authoritative.
	PersistErr error
}

// Observer is notified synchronously after every successful mutation.
type Observer interface {
	CartChanged(s Snapshot)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(s Snapshot)

// CartChanged calls f(s).
func (f ObserverFunc) CartChanged(s Snapshot) { f(s) }

// Slot is one named unit of persisted state. Save always overwrites the whole
// value; Load returns ErrNoState when the slot is empty.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// SlotProvider hands out named slots, one per cart.
type SlotProvider interface {
	Slot(name string) Slot
}

// ValidationError reports a mutating call that was rejected because of a
// malformed product or id. The cart is left untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a failed write of the cart to its slot.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persist cart: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DeserializationError wraps persisted data that could not be decoded into a
// valid cart.
type DeserializationError struct {
	Err error
}

func (e *DeserializationError) Error() string {
	return "decode persisted cart: " + e.Err.Error()
}

func (e *DeserializationError) Unwrap() error { return e.Err }

func validateProduct(p Product) error {
	switch {
	case p.ID == "":
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	case p.Name == "":
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	case p.Image == "":
		return &ValidationError{Field: "image", Reason: "must not be empty"}
	case !p.Price.IsPositive():
		return &ValidationError{Field: "price", Reason: "must be greater than 0"}
	}
	return nil
}

func validateID(id string) error {
	if id == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	return nil
}
