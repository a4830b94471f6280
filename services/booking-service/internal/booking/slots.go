package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ListSlots returns the bookable [start, start+duration) intervals for serviceID on day.
// It takes no lock; the result may be stale by the time a booking is attempted.
func (s *Service) ListSlots(ctx context.Context, calendarID, serviceID string, day availability.Day) ([]interval.Interval, error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "booking.ListSlots", trace.WithAttributes(
		attribute.String("calendar.id", calendarID),
		attribute.String("service.id", serviceID),
		attribute.String("day", day.String()),
	))
	defer span.End()

	cal, svc, err := s.resolve(ctx, calendarID, serviceID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	window := day.Window(s.loc)
	blackouts, err := s.store.ListBlackouts(ctx, cal.ID, window)
	if err != nil {
		span.RecordError(err)
		return nil, classify(err, "list blackouts")
	}
	confirmed, err := s.store.ListConfirmed(ctx, cal.ID, window)
	if err != nil {
		span.RecordError(err)
		return nil, classify(err, "list bookings")
	}

	occupied := make([]interval.Interval, 0, len(blackouts)+len(confirmed))
	for _, b := range blackouts {
		occupied = append(occupied, interval.Interval{Start: b.Start, End: b.End})
	}
	for _, b := range confirmed {
		if b.Confirmed() {
			occupied = append(occupied, interval.Interval{Start: b.Start, End: b.End})
		}
	}

	starts := availability.ComputeSlots(availability.Request{
		Rules:    cal.RulesFor(day.Weekday()),
		Occupied: occupied,
		Day:      day,
		Location: s.loc,
		Duration: svc.Duration,
		Now:      s.now(),
	}, s.policy)

	slots := make([]interval.Interval, 0, len(starts))
	for _, t := range starts {
		slots = append(slots, interval.New(t, svc.Duration))
	}

	span.SetAttributes(attribute.Int("slots.count", len(slots)))
	if s.metrics != nil {
		s.metrics.SlotComputeSeconds.Observe(time.Since(started).Seconds())
		s.metrics.SlotsReturned.Observe(float64(len(slots)))
	}
	return slots, nil
}

// resolve loads the calendar and a bookable service belonging to it.
func (s *Service) resolve(ctx context.Context, calendarID, serviceID string) (model.Calendar, model.Service, error) {
	calendarID = strings.TrimSpace(calendarID)
	serviceID = strings.TrimSpace(serviceID)
	if calendarID == "" {
		return model.Calendar{}, model.Service{}, invalidf("calendar_id is required")
	}
	if serviceID == "" {
		return model.Calendar{}, model.Service{}, invalidf("service_id is required")
	}

	cal, err := s.catalog.Calendar(ctx, calendarID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Calendar{}, model.Service{}, invalidf("unknown calendar %q", calendarID)
	}
	if err != nil {
		return model.Calendar{}, model.Service{}, classify(err, "load calendar")
	}

	svc, err := s.catalog.Service(ctx, serviceID)
	if errors.Is(err, model.ErrNotFound) || (err == nil && svc.CalendarID != cal.ID) {
		return model.Calendar{}, model.Service{}, invalidf("unknown service %q for calendar %q", serviceID, calendarID)
	}
	if err != nil {
		return model.Calendar{}, model.Service{}, classify(err, "load service")
	}
	if !svc.Active {
		return model.Calendar{}, model.Service{}, invalidf("service %q is not bookable", serviceID)
	}
	if svc.Duration <= 0 {
		return model.Calendar{}, model.Service{}, invalidf("service %q has no duration", serviceID)
	}
	return cal, svc, nil
}
