package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/outbox"
)

// Memory is a process-local Catalog and Store for tests and single-instance demos whose catalog
// comes from a seed file (see LoadSeedFile). Nothing publishes its domain events; the most recent
// maxEvents are retained for inspection. Per-calendar locks are buffered channels so waits can
// honor context deadlines.
type Memory struct {
	mu        sync.RWMutex
	calendars map[string]model.Calendar
	services  map[string]model.Service
	blackouts map[string][]model.Blackout
	bookings  map[string]model.Booking
	events    []outbox.Event
	maxEvents int

	locksMu     sync.Mutex
	locks       map[string]chan struct{}
	lockTimeout time.Duration
}

var (
	_ booking.Catalog = (*Memory)(nil)
	_ booking.Store   = (*Memory)(nil)
)

const defaultMaxEvents = 1000

func NewMemory(lockTimeout time.Duration) *Memory {
	return &Memory{
		calendars:   map[string]model.Calendar{},
		services:    map[string]model.Service{},
		blackouts:   map[string][]model.Blackout{},
		bookings:    map[string]model.Booking{},
		maxEvents:   defaultMaxEvents,
		locks:       map[string]chan struct{}{},
		lockTimeout: lockTimeout,
	}
}

func (m *Memory) PutCalendar(c model.Calendar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Rules = append([]model.WeeklyRule(nil), c.Rules...)
	m.calendars[c.ID] = c
}

func (m *Memory) PutService(s model.Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[s.ID] = s
}

func (m *Memory) AddBlackout(b model.Blackout) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blackouts[b.CalendarID] = append(m.blackouts[b.CalendarID], b)
}

// Events returns the most recently committed outbox events, oldest first.
func (m *Memory) Events() []outbox.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]outbox.Event(nil), m.events...)
}

func (m *Memory) Calendar(_ context.Context, calendarID string) (model.Calendar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.calendars[calendarID]
	if !ok {
		return model.Calendar{}, model.ErrNotFound
	}
	c.Rules = append([]model.WeeklyRule(nil), c.Rules...)
	return c, nil
}

func (m *Memory) Service(_ context.Context, serviceID string) (model.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.services[serviceID]
	if !ok {
		return model.Service{}, model.ErrNotFound
	}
	return s, nil
}

func (m *Memory) ListBlackouts(_ context.Context, calendarID string, window interval.Interval) ([]model.Blackout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Blackout
	for _, b := range m.blackouts[calendarID] {
		if interval.Overlaps(interval.Interval{Start: b.Start, End: b.End}, window) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *Memory) ListConfirmed(_ context.Context, calendarID string, window interval.Interval) ([]model.Booking, error) {
	return m.filter(func(b model.Booking) bool {
		return b.CalendarID == calendarID && b.Confirmed() && overlapsBooking(b, window)
	}, func(a, b model.Booking) bool { return a.Start.Before(b.Start) }, 0), nil
}

func (m *Memory) ListByCalendar(_ context.Context, calendarID string, window interval.Interval) ([]model.Booking, error) {
	return m.filter(func(b model.Booking) bool {
		return b.CalendarID == calendarID && overlapsBooking(b, window)
	}, func(a, b model.Booking) bool { return a.Start.Before(b.Start) }, 0), nil
}

func (m *Memory) ListByCustomer(_ context.Context, customerID string, limit int) ([]model.Booking, error) {
	return m.filter(func(b model.Booking) bool {
		return b.CustomerID == customerID
	}, func(a, b model.Booking) bool { return a.Start.After(b.Start) }, limit), nil
}

func (m *Memory) filter(keep func(model.Booking) bool, less func(a, b model.Booking) bool, limit int) []model.Booking {
	m.mu.RLock()
	var out []model.Booking
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return less(out[i], out[j])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *Memory) WithCalendarLock(ctx context.Context, calendarID string, fn func(booking.Tx) error) error {
	m.mu.RLock()
	_, ok := m.calendars[calendarID]
	m.mu.RUnlock()
	if !ok {
		return model.ErrNotFound
	}

	release, err := m.lock(ctx, calendarID)
	if err != nil {
		return err
	}
	defer release()

	tx := &memoryTx{store: m}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

func (m *Memory) WithBookingLock(ctx context.Context, bookingID string, fn func(booking.Tx, model.Booking) error) error {
	m.mu.RLock()
	b, ok := m.bookings[bookingID]
	m.mu.RUnlock()
	if !ok {
		return model.ErrNotFound
	}

	release, err := m.lock(ctx, b.CalendarID)
	if err != nil {
		return err
	}
	defer release()

	m.mu.RLock()
	b = m.bookings[bookingID]
	m.mu.RUnlock()

	tx := &memoryTx{store: m}
	if err := fn(tx, b); err != nil {
		return err
	}
	return tx.commit()
}

func (m *Memory) lock(ctx context.Context, calendarID string) (func(), error) {
	m.locksMu.Lock()
	ch, ok := m.locks[calendarID]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[calendarID] = ch
	}
	m.locksMu.Unlock()

	if m.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.lockTimeout)
		defer cancel()
	}

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("calendar %s lock: %w", calendarID, ctx.Err())
	}
}

func overlapsBooking(b model.Booking, window interval.Interval) bool {
	return interval.Overlaps(interval.Interval{Start: b.Start, End: b.End}, window)
}

// memoryTx stages writes and applies them only on commit.
type memoryTx struct {
	store     *Memory
	inserts   []model.Booking
	cancels   map[string]time.Time
	events    []outbox.Event
	committed bool
}

func (tx *memoryTx) HasOverlap(_ context.Context, calendarID string, iv interval.Interval) (bool, error) {
	for _, b := range tx.inserts {
		if b.CalendarID == calendarID && overlapsBooking(b, iv) {
			return true, nil
		}
	}
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	for _, b := range tx.store.bookings {
		if _, cancelled := tx.cancels[b.ID]; cancelled {
			continue
		}
		if b.CalendarID == calendarID && b.Confirmed() && overlapsBooking(b, iv) {
			return true, nil
		}
	}
	return false, nil
}

func (tx *memoryTx) InsertBooking(_ context.Context, b model.Booking) error {
	tx.store.mu.RLock()
	_, exists := tx.store.bookings[b.ID]
	tx.store.mu.RUnlock()
	if exists {
		return fmt.Errorf("booking %s already exists", b.ID)
	}
	tx.inserts = append(tx.inserts, b)
	return nil
}

func (tx *memoryTx) CancelBooking(_ context.Context, bookingID string, at time.Time) error {
	tx.store.mu.RLock()
	_, exists := tx.store.bookings[bookingID]
	tx.store.mu.RUnlock()
	if !exists {
		return model.ErrNotFound
	}
	if tx.cancels == nil {
		tx.cancels = map[string]time.Time{}
	}
	tx.cancels[bookingID] = at
	return nil
}

func (tx *memoryTx) Enqueue(_ context.Context, evt outbox.Event) error {
	tx.events = append(tx.events, evt)
	return nil
}

func (tx *memoryTx) commit() error {
	if tx.committed {
		return nil
	}
	tx.committed = true

	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range tx.inserts {
		s.bookings[b.ID] = b
	}
	for id, at := range tx.cancels {
		b := s.bookings[id]
		b.Status = model.StatusCancelled
		cancelledAt := at
		b.CancelledAt = &cancelledAt
		s.bookings[id] = b
	}
	s.events = append(s.events, tx.events...)
	if over := len(s.events) - s.maxEvents; over > 0 {
		s.events = append(s.events[:0:0], s.events[over:]...)
	}
	return nil
}
