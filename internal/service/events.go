package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/zone_service/internal/models"
	"github.com/Skotchmaster/zone_service/pkg/logging"
)

const (
	EventUserZoneChanged = "user_zone_changed"
	EventCartPruned      = "cart_pruned"
	EventCartItemAdded   = "cart_item_added"

	publishTimeout = 5 * time.Second
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// ZoneCache holds the full zone list. Implementations must tolerate being
// unavailable; a miss simply falls through to the repository.
type ZoneCache interface {
	GetZones(ctx context.Context) ([]models.Zone, bool)
	SetZones(ctx context.Context, zones []models.Zone)
	Invalidate(ctx context.Context)
}

// Events publishes domain events keyed by user id. A nil *Events or a nil
// publisher drops everything.
type Events struct {
	Pub   EventPublisher
	Topic string
}

func (e *Events) publish(ctx context.Context, events []map[string]any) {
	if e == nil || e.Pub == nil || len(events) == 0 {
		return
	}
	l := logging.FromContext(ctx)
	for _, ev := range events {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		err := e.Pub.PublishEvent(pctx, e.Topic, fmt.Sprint(ev["user_id"]), ev)
		cancel()
		if err != nil {
			l.Error("kafka_publish_error", "topic", e.Topic, "type", ev["type"], "error", err)
		}
	}
}

func zoneChangedEvent(userID uuid.UUID, from, to *uuid.UUID) map[string]any {
	return map[string]any{
		"type":         EventUserZoneChanged,
		"user_id":      userID,
		"from_zone_id": from,
		"to_zone_id":   to,
		"at":           time.Now().UTC(),
	}
}

func cartPrunedEvent(userID, cartID uuid.UUID, zoneID *uuid.UUID, removed int64) map[string]any {
	return map[string]any{
		"type":    EventCartPruned,
		"user_id": userID,
		"cart_id": cartID,
		"zone_id": zoneID,
		"removed": removed,
		"at":      time.Now().UTC(),
	}
}
