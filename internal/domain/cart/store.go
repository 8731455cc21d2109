package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	lg        *zap.Logger
	formatter *Formatter
	observers []Observer
	mp        metric.MeterProvider
	tp        trace.TracerProvider
}

// WithLogger sets the logger used for load and persistence failures.
func WithLogger(lg *zap.Logger) Option {
	return func(o *options) { o.lg = lg }
}

// WithFormatter sets the formatter used by OrderMessage.
func WithFormatter(f *Formatter) Option {
	return func(o *options) { o.formatter = f }
}

// WithObserver registers an observer for the lifetime of the Store.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// WithMeterProvider sets the meter provider for cart metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.mp = mp }
}

// WithTracerProvider sets the tracer provider for persistence spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

type subscription struct {
	obs Observer
}

// Store owns the cart lines and keeps its Slot in sync with them.
//
// Every mutation validates its input first, then changes the in-memory lines,
// overwrites the slot with the full cart and finally notifies observers, all
// before returning. A rejected call changes nothing and notifies no one.
type Store struct {
	mu         sync.Mutex
	lines      []Line
	slot       Slot
	persistErr error

	subMu sync.Mutex
	subs  []*subscription

	lg        *zap.Logger
	formatter *Formatter
	tm        *telemetry
}

// Open creates a Store backed by slot, restoring any previously persisted
// cart. Missing, unreadable or malformed state is logged and replaced by an
// empty cart; Open never fails.
func Open(ctx context.Context, slot Slot, opts ...Option) *Store {
	o := options{
		lg:        zap.NewNop(),
		formatter: DefaultFormatter(),
		mp:        metricnoop.NewMeterProvider(),
		tp:        tracenoop.NewTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	tm, err := newTelemetry(o.mp, o.tp)
	if err != nil {
		o.lg.Warn("Cart telemetry disabled", zap.Error(err))
		tm, _ = newTelemetry(metricnoop.NewMeterProvider(), tracenoop.NewTracerProvider())
	}

	s := &Store{
		slot:      slot,
		lg:        o.lg,
		formatter: o.formatter,
		tm:        tm,
	}
	for _, obs := range o.observers {
		s.subs = append(s.subs, &subscription{obs: obs})
	}
	s.lines = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []Line {
	data, err := s.slot.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoState) {
			s.lg.Warn("Failed to read persisted cart, starting empty", zap.Error(err))
		}
		return nil
	}

	lines, err := Decode(data)
	if err != nil {
		s.lg.Warn("Discarding unreadable persisted cart",
			zap.Error(err),
			zap.Int("bytes", len(data)),
		)
		return nil
	}

	s.lg.Debug("Restored cart", zap.Int("lines", len(lines)))
	return lines
}

// Subscribe registers obs and returns a function that removes it again.
func (s *Store) Subscribe(obs Observer) (unsubscribe func()) {
	sub := &subscription{obs: obs}

	s.subMu.Lock()
	s.subs = append(s.subs, sub)
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(x *subscription) bool { return x == sub })
	}
}

// Add puts one unit of p into the cart. An existing line with the same id has
// its quantity incremented and keeps its original name, price and image.
func (s *Store) Add(ctx context.Context, p Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	s.apply(ctx, "add", func() {
		if i := s.index(p.ID); i >= 0 {
			s.lines[i].Quantity = clampQuantity(s.lines[i].Quantity + 1)
			return
		}
		s.lines = append(s.lines, Line{
			ID:        p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Image:     p.Image,
			Quantity:  1,
		})
	})
	return nil
}

// Remove deletes the line with the given id. Removing an id that is not in
// the cart is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	s.apply(ctx, "remove", func() {
		s.lines = slices.DeleteFunc(s.lines, func(l Line) bool { return l.ID == id })
	})
	return nil
}

// SetQuantity sets the quantity of the line with the given id. Values below 1
// are raised to 1 and values above MaxQuantity lowered to it: lines are only
// ever deleted by Remove.
func (s *Store) SetQuantity(ctx context.Context, id string, quantity int) error {
	if err := validateID(id); err != nil {
		return err
	}
	s.apply(ctx, "set_quantity", func() {
		if i := s.index(id); i >= 0 {
			s.lines[i].Quantity = clampQuantity(quantity)
		}
	})
	return nil
}

// AdjustQuantity adds delta to the quantity of the line with the given id,
// with the same bounds as SetQuantity.
func (s *Store) AdjustQuantity(ctx context.Context, id string, delta int) error {
	if err := validateID(id); err != nil {
		return err
	}
	s.apply(ctx, "adjust_quantity", func() {
		if i := s.index(id); i >= 0 {
			// Both operands are within ±MaxQuantity, so the sum cannot overflow.
			delta = min(max(delta, -MaxQuantity), MaxQuantity)
			s.lines[i].Quantity = clampQuantity(s.lines[i].Quantity + delta)
		}
	})
	return nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.apply(ctx, "clear", func() {
		s.lines = nil
	})
	return nil
}

// Lines returns a copy of the cart lines in display order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines)
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// ItemCount returns the sum of all line quantities.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemCount(s.lines)
}

// Total returns the sum of UnitPrice * Quantity over all lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.lines)
}

// Snapshot returns the current state together with the outcome of the most
// recent durable write.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// PersistErr returns the error of the most recent durable write, or nil if it
// succeeded.
func (s *Store) PersistErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistErr
}

// OrderMessage renders the checkout message for the current cart.
func (s *Store) OrderMessage() string {
	return s.formatter.OrderMessage(s.Lines())
}

// Formatter returns the formatter used for order messages.
func (s *Store) Formatter() *Formatter {
	return s.formatter
}

// apply runs mutate under the lock, persists the result and notifies
// observers. Callers validate their input before calling apply.
func (s *Store) apply(ctx context.Context, op string, mutate func()) {
	s.mu.Lock()
	mutate()
	snap := s.persist(ctx)
	s.mu.Unlock()

	s.tm.mutated(ctx, op)
	s.notify(snap)
}

// persist overwrites the slot with the full cart. Must be called with s.mu held.
func (s *Store) persist(ctx context.Context) Snapshot {
	snap := s.snapshot()

	ctx, span := s.tm.tracer.Start(ctx, "cart.persist",
		trace.WithAttributes(attribute.Int("cart.lines", len(s.lines))),
	)
	defer span.End()

	s.persistErr = nil
	if err := s.slot.Save(ctx, Encode(s.lines)); err != nil {
		perr := &PersistenceError{Err: err}
		span.RecordError(perr)
		span.SetStatus(codes.Error, "persist cart")
		s.tm.persistFailed(ctx)
		s.lg.Error("Failed to persist cart, keeping in-memory state", zap.Error(err))
		s.persistErr = perr
	}
	snap.PersistErr = s.persistErr
	return snap
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.obs.CartChanged(snap)
	}
}

func (s *Store) snapshot() Snapshot {
	return Snapshot{
		Lines:      slices.Clone(s.lines),
		ItemCount:  itemCount(s.lines),
		Total:      total(s.lines),
		PersistErr: s.persistErr,
	}
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.lines, func(l Line) bool { return l.ID == id })
}

func itemCount(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}
