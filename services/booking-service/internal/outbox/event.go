package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
)

// The Kafka topic equals the event type.
const (
	AggregateBooking = "booking"

	EventBookingConfirmed = "booking.booking.confirmed.v1"
	EventBookingCancelled = "booking.booking.cancelled.v1"
)

// Event is the domain event envelope written to the outbox table in the same
// transaction as the state change it describes.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type bookingPayload struct {
	BookingID   string `json:"booking_id"`
	CalendarID  string `json:"calendar_id"`
	ServiceID   string `json:"service_id"`
	CustomerID  string `json:"customer_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Status      string `json:"status"`
	Notes       string `json:"notes,omitempty"`
	CancelledAt string `json:"cancelled_at,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

// BookingEvent renders b as an event of the given type.
func BookingEvent(eventType string, b model.Booking, occurredAt time.Time) (Event, error) {
	p := bookingPayload{
		BookingID:  b.ID,
		CalendarID: b.CalendarID,
		ServiceID:  b.ServiceID,
		CustomerID: b.CustomerID,
		StartTime:  b.Start.UTC().Format(time.RFC3339),
		EndTime:    b.End.UTC().Format(time.RFC3339),
		Status:     string(b.Status),
		Notes:      b.Notes,
		OccurredAt: occurredAt.UTC().Format(time.RFC3339Nano),
	}
	if b.CancelledAt != nil {
		p.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateBooking,
		AggregateID:   b.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
