package booking

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/outbox"
)

// Catalog reads the provider-managed configuration. Lookups of unknown ids return model.ErrNotFound.
type Catalog interface {
	Calendar(ctx context.Context, calendarID string) (model.Calendar, error)
	Service(ctx context.Context, serviceID string) (model.Service, error)
}

// Store persists bookings. Reads outside the lock methods see committed state only.
type Store interface {
	ListBlackouts(ctx context.Context, calendarID string, window interval.Interval) ([]model.Blackout, error)
	ListConfirmed(ctx context.Context, calendarID string, window interval.Interval) ([]model.Booking, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]model.Booking, error)
	ListByCalendar(ctx context.Context, calendarID string, window interval.Interval) ([]model.Booking, error)

	// WithCalendarLock runs fn holding the calendar's exclusive lock. fn returning nil commits;
	// any error discards every write fn made and releases the lock.
	WithCalendarLock(ctx context.Context, calendarID string, fn func(Tx) error) error
	// WithBookingLock loads the booking row-locked and runs fn with the same commit rules.
	WithBookingLock(ctx context.Context, bookingID string, fn func(Tx, model.Booking) error) error
}

// Tx is the write side of one unit of work.
type Tx interface {
	HasOverlap(ctx context.Context, calendarID string, iv interval.Interval) (bool, error)
	InsertBooking(ctx context.Context, b model.Booking) error
	CancelBooking(ctx context.Context, bookingID string, at time.Time) error
	Enqueue(ctx context.Context, evt outbox.Event) error
}

// Clock returns the current instant.
type Clock func() time.Time
