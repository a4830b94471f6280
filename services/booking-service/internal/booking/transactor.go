package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/outbox"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type CreateRequest struct {
	CalendarID string
	ServiceID  string
	CustomerID string
	Start      time.Time
	Notes      string
}

// CreateBooking confirms [Start, Start+duration) if no confirmed booking on the calendar
// overlaps it. The overlap check runs under the calendar lock and uses the bare service
// interval; the slot buffer is not enforced here.
func (s *Service) CreateBooking(ctx context.Context, req CreateRequest) (b model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.CreateBooking", trace.WithAttributes(
		attribute.String("calendar.id", req.CalendarID),
		attribute.String("service.id", req.ServiceID),
	))
	defer func() {
		s.count("create", createOutcome(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(KindOf(err)))
		}
		span.End()
	}()

	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.Notes = strings.TrimSpace(req.Notes)
	if req.CustomerID == "" {
		return model.Booking{}, invalidf("customer id is required")
	}
	if req.Start.IsZero() {
		return model.Booking{}, invalidf("start_time is required")
	}
	if len(req.Notes) > maxNotesLen {
		return model.Booking{}, invalidf("notes must be at most %d characters", maxNotesLen)
	}

	cal, svc, err := s.resolve(ctx, req.CalendarID, req.ServiceID)
	if err != nil {
		return model.Booking{}, err
	}

	now := s.now()
	candidate := model.Booking{
		ID:         s.newID(),
		CalendarID: cal.ID,
		ServiceID:  svc.ID,
		CustomerID: req.CustomerID,
		Start:      req.Start,
		End:        req.Start.Add(svc.Duration),
		Status:     model.StatusConfirmed,
		Notes:      req.Notes,
		CreatedAt:  now,
	}
	evt, err := outbox.BookingEvent(outbox.EventBookingConfirmed, candidate, now)
	if err != nil {
		return model.Booking{}, err
	}

	locked := time.Now()
	err = s.store.WithCalendarLock(ctx, cal.ID, func(tx Tx) error {
		overlap, err := tx.HasOverlap(ctx, cal.ID, interval.Interval{Start: candidate.Start, End: candidate.End})
		if err != nil {
			return err
		}
		if overlap {
			return &Error{Kind: KindConflict, Message: "slot no longer available"}
		}
		if err := tx.InsertBooking(ctx, candidate); err != nil {
			return err
		}
		return tx.Enqueue(ctx, evt)
	})
	if s.metrics != nil {
		s.metrics.LockWait.Observe(time.Since(locked).Seconds())
	}
	if err != nil {
		err = classify(err, "create booking")
		if Retryable(err) {
			s.logger.WarnContext(ctx, "booking transaction aborted", "calendar_id", cal.ID, "err", err)
		}
		return model.Booking{}, err
	}

	span.SetAttributes(attribute.String("booking.id", candidate.ID))
	s.logger.InfoContext(ctx, "booking confirmed",
		"booking_id", candidate.ID,
		"calendar_id", cal.ID,
		"start", candidate.Start.UTC().Format(time.RFC3339),
	)
	return candidate, nil
}

func createOutcome(err error) string {
	if err == nil {
		return "confirmed"
	}
	return outcomeOf(err)
}

// CancelBooking flips a confirmed booking to cancelled. Cancelling an already cancelled
// booking succeeds without writing anything.
func (s *Service) CancelBooking(ctx context.Context, bookingID, customerID string) (b model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.CancelBooking", trace.WithAttributes(
		attribute.String("booking.id", bookingID),
	))
	outcome := "cancelled"
	defer func() {
		if err != nil {
			outcome = outcomeOf(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, string(KindOf(err)))
		}
		s.count("cancel", outcome)
		span.End()
	}()

	bookingID = strings.TrimSpace(bookingID)
	customerID = strings.TrimSpace(customerID)
	if bookingID == "" {
		return model.Booking{}, invalidf("booking_id is required")
	}
	if customerID == "" {
		return model.Booking{}, invalidf("customer id is required")
	}

	err = s.store.WithBookingLock(ctx, bookingID, func(tx Tx, current model.Booking) error {
		if current.CustomerID != customerID {
			return &Error{Kind: KindForbidden, Message: "booking belongs to another customer"}
		}
		b = current
		if !current.Confirmed() {
			outcome = "already_cancelled"
			return nil
		}

		now := s.now()
		b.Status = model.StatusCancelled
		b.CancelledAt = &now
		if err := tx.CancelBooking(ctx, b.ID, now); err != nil {
			return err
		}
		evt, err := outbox.BookingEvent(outbox.EventBookingCancelled, b, now)
		if err != nil {
			return err
		}
		return tx.Enqueue(ctx, evt)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Booking{}, &Error{Kind: KindNotFound, Message: "booking not found", Err: err}
		}
		return model.Booking{}, classify(err, "cancel booking")
	}

	if outcome == "cancelled" {
		s.logger.InfoContext(ctx, "booking cancelled", "booking_id", b.ID, "calendar_id", b.CalendarID)
	}
	return b, nil
}
