package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/bookora/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// ChangeEvent is published by the provider administration flow whenever a calendar's rules
// or services change.
type ChangeEvent struct {
	CalendarID string   `json:"calendar_id"`
	ServiceID  string   `json:"service_id,omitempty"`
	ServiceIDs []string `json:"service_ids,omitempty"`
}

// HandleChange invalidates every cache entry named by a catalog change message. Malformed
// messages are permanent failures; Redis errors are returned as is so the consumer retries.
func (c *Cache) HandleChange(ctx context.Context, msg kafka.Message) error {
	var evt ChangeEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return kafkax.Permanent(fmt.Errorf("decode catalog change: %w", err))
	}
	if evt.CalendarID == "" {
		evt.CalendarID = string(msg.Key)
	}
	ids := evt.ServiceIDs
	if evt.ServiceID != "" {
		ids = append(ids, evt.ServiceID)
	}
	if evt.CalendarID == "" && len(ids) == 0 {
		return kafkax.Permanent(errors.New("catalog change names nothing to invalidate"))
	}
	if err := c.Invalidate(ctx, evt.CalendarID, ids...); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "catalog cache invalidated", "calendar_id", evt.CalendarID, "services", len(ids))
	return nil
}
