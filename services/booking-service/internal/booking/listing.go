package booking

import (
	"context"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	maxCalendarRange = 31 * 24 * time.Hour
)

// CustomerBookings lists a customer's bookings, latest start first.
func (s *Service) CustomerBookings(ctx context.Context, customerID string, limit int) ([]model.Booking, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, invalidf("customer id is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	out, err := s.store.ListByCustomer(ctx, customerID, limit)
	if err != nil {
		return nil, classify(err, "list customer bookings")
	}
	return out, nil
}

// CalendarBookings lists every booking of a calendar intersecting [from, to) for its provider.
func (s *Service) CalendarBookings(ctx context.Context, providerID, calendarID string, from, to time.Time) ([]model.Booking, error) {
	calendarID = strings.TrimSpace(calendarID)
	if calendarID == "" {
		return nil, invalidf("calendar_id is required")
	}
	window := interval.Interval{Start: from, End: to}
	if window.Empty() {
		return nil, invalidf("to must be after from")
	}
	if window.End.Sub(window.Start) > maxCalendarRange {
		return nil, invalidf("range must not exceed %d days", int(maxCalendarRange/(24*time.Hour)))
	}

	cal, err := s.catalog.Calendar(ctx, calendarID)
	if err != nil {
		return nil, classify(err, "calendar not found")
	}
	if cal.ProviderID != providerID {
		return nil, &Error{Kind: KindForbidden, Message: "calendar belongs to another provider"}
	}

	out, err := s.store.ListByCalendar(ctx, cal.ID, window)
	if err != nil {
		return nil, classify(err, "list calendar bookings")
	}
	return out, nil
}
