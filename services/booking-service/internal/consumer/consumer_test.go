package consumer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/bookora/libs/kafkax"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/inbox"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

const topic = "catalog.calendar.changed.v1"

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) == 0 {
		r.mu.Unlock()
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	r.mu.Unlock()
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func message(id string, offset int64) kafka.Message {
	meta := kafkax.EventMeta{EventID: id, EventType: topic}
	return kafka.Message{Topic: topic, Offset: offset, Key: []byte("cal-1"), Headers: meta.Headers()}
}

func newConsumer(reader *fakeReader, box Inbox, handler Handler) *Consumer {
	return &Consumer{
		reader:    reader,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		inbox:     box,
		handler:   handler,
		retryBase: time.Millisecond,
		retryMax:  5 * time.Millisecond,
	}
}

func TestConsumerDeduplicatesAndRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		msgs:   []kafka.Message{message("e1", 0), message("e1", 1), message("e2", 2), message("e3", 3)},
		cancel: cancel,
	}
	box := inbox.NewMemory(10)
	var handled []string
	failedOnce := false
	c := newConsumer(reader, box, func(_ context.Context, msg kafka.Message) error {
		id := kafkax.ExtractEventMeta(msg).EventID
		handled = append(handled, id)
		if id == "e2" && !failedOnce {
			failedOnce = true
			return errors.New("redis: connection refused")
		}
		return nil
	})

	c.Run(ctx)

	require.Equal(t, []string{"e1", "e2", "e2", "e3"}, handled)
	require.Equal(t, []int64{0, 1, 2, 3}, reader.committed)
	require.True(t, reader.closed)
	seen, err := box.Seen(context.Background(), "e2")
	require.NoError(t, err)
	require.True(t, seen)
}

func TestConsumerHandlesEveryHeaderlessChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var msgs []kafka.Message
	for i, svc := range []string{"a", "b", "c"} {
		msgs = append(msgs, kafka.Message{
			Topic:  topic,
			Offset: int64(10 + i),
			Key:    []byte("cal-1"),
			Value:  []byte(fmt.Sprintf(`{"service_id":%q}`, svc)),
		})
	}
	reader := &fakeReader{msgs: msgs, cancel: cancel}
	var handled []string
	c := newConsumer(reader, inbox.NewMemory(10), func(_ context.Context, msg kafka.Message) error {
		handled = append(handled, string(msg.Value))
		return nil
	})

	c.Run(ctx)

	require.Equal(t, []string{`{"service_id":"a"}`, `{"service_id":"b"}`, `{"service_id":"c"}`}, handled)
}

func TestConsumerDoesNotRecordFailedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{msgs: []kafka.Message{message("e1", 0)}, cancel: cancel}
	box := inbox.NewMemory(10)
	attempts := 0
	c := newConsumer(reader, box, func(context.Context, kafka.Message) error {
		attempts++
		if attempts == 3 {
			cancel()
		}
		return errors.New("redis: connection refused")
	})

	c.Run(ctx)

	require.Equal(t, 3, attempts)
	require.Empty(t, reader.committed, "failed events keep their offset uncommitted")
	seen, err := box.Seen(context.Background(), "e1")
	require.NoError(t, err)
	require.False(t, seen, "failed events must stay eligible for redelivery")
}

func TestConsumerSkipsPermanentFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{msgs: []kafka.Message{message("bad", 0), message("good", 1)}, cancel: cancel}
	box := inbox.NewMemory(10)
	var handled []string
	c := newConsumer(reader, box, func(_ context.Context, msg kafka.Message) error {
		id := kafkax.ExtractEventMeta(msg).EventID
		handled = append(handled, id)
		if id == "bad" {
			return kafkax.Permanent(errors.New("decode catalog change: unexpected EOF"))
		}
		return nil
	})

	c.Run(ctx)

	require.Equal(t, []string{"bad", "good"}, handled)
	require.Equal(t, []int64{0, 1}, reader.committed)
}
