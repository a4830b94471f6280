package kafkax

import (
	"errors"
	"fmt"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestEventMetaRoundTrip(t *testing.T) {
	meta := EventMeta{EventID: "evt-1", EventType: "booking.booking.confirmed.v1"}
	msg := kafka.Message{Topic: meta.EventType, Key: []byte("cal-1"), Headers: meta.Headers()}
	if got := ExtractEventMeta(msg); got != meta {
		t.Fatalf("expected %+v, got %+v", meta, got)
	}
}

func TestEventMetaFallbacks(t *testing.T) {
	msg := kafka.Message{Topic: "catalog.calendar.changed.v1", Partition: 2, Offset: 41, Key: []byte("cal-7")}
	got := ExtractEventMeta(msg)
	if got.EventType != "catalog.calendar.changed.v1" {
		t.Fatalf("expected topic as event type, got %q", got.EventType)
	}
	if got.EventID != "catalog.calendar.changed.v1/2/41" {
		t.Fatalf("unexpected fallback id %q", got.EventID)
	}

	next := msg
	next.Offset++
	if ExtractEventMeta(next).EventID == got.EventID {
		t.Fatal("two changes to the same key must not share an id")
	}
}

func TestPermanent(t *testing.T) {
	cause := errors.New("decode catalog change: unexpected EOF")
	err := fmt.Errorf("handle: %w", Permanent(cause))
	if !IsPermanent(err) || !errors.Is(err, cause) {
		t.Fatalf("expected permanent wrapper around cause, got %v", err)
	}
	if IsPermanent(cause) || Permanent(nil) != nil {
		t.Fatal("plain errors are retryable")
	}
}

func TestHeaderCarrierSetAppends(t *testing.T) {
	c := &headerCarrier{headers: EventMeta{EventID: "e", EventType: "t"}.Headers()}
	c.Set("traceparent", "00-abc-def-01")
	c.Set(HeaderEventID, "e2")
	if len(c.headers) != 3 {
		t.Fatalf("expected 3 headers, got %d", len(c.headers))
	}
	if c.Get("traceparent") != "00-abc-def-01" || c.Get(HeaderEventID) != "e2" {
		t.Fatalf("unexpected headers %+v", c.headers)
	}
}
