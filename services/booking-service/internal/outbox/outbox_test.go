package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/md-rashed-zaman/bookora/libs/kafkax"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
	"github.com/stretchr/testify/require"
)

func TestBookingEvent(t *testing.T) {
	start := time.Date(2026, 1, 26, 10, 0, 0, 0, time.UTC)
	cancelled := start.Add(-time.Hour)
	b := model.Booking{
		ID:          "bk-1",
		CalendarID:  "cal-1",
		ServiceID:   "svc-1",
		CustomerID:  "cust-1",
		Start:       start,
		End:         start.Add(30 * time.Minute),
		Status:      model.StatusCancelled,
		CancelledAt: &cancelled,
	}

	evt, err := BookingEvent(EventBookingCancelled, b, cancelled)
	require.NoError(t, err)
	require.Equal(t, AggregateBooking, evt.AggregateType)
	require.Equal(t, "bk-1", evt.AggregateID)
	require.Equal(t, EventBookingCancelled, evt.EventType)

	var body map[string]string
	require.NoError(t, json.Unmarshal(evt.Payload, &body))
	require.Equal(t, "2026-01-26T10:00:00Z", body["start_time"])
	require.Equal(t, "2026-01-26T10:30:00Z", body["end_time"])
	require.Equal(t, "CANCELLED", body["status"])
	require.Equal(t, "2026-01-26T09:00:00Z", body["cancelled_at"])
	_, hasNotes := body["notes"]
	require.False(t, hasNotes)
}

func TestMessage(t *testing.T) {
	msg := Message(context.Background(), Record{
		EventID:     "3f1c",
		AggregateID: "bk-1",
		EventType:   EventBookingConfirmed,
		Payload:     []byte(`{}`),
	})
	require.Equal(t, EventBookingConfirmed, msg.Topic)
	require.Equal(t, "bk-1", string(msg.Key))

	meta := kafkax.ExtractEventMeta(msg)
	require.Equal(t, "3f1c", meta.EventID)
	require.Equal(t, EventBookingConfirmed, meta.EventType)
}
