// Package usersink forwards record lifecycle events to a go-users
// ActivitySink.
package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-attrs/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Identity supplies actor identifiers for events that carry none. Record
// events are emitted without actors, so callers usually derive them from ctx.
type Identity func(ctx context.Context) (actorID, userID, tenantID string)

// Hook adapts activity events to a go-users ActivitySink.
type Hook struct {
	Sink     usertypes.ActivitySink
	Identity Identity
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	actorID, userID, tenantID := normalized.ActorID, normalized.UserID, normalized.TenantID
	if h.Identity != nil {
		a, u, tn := h.Identity(ctx)
		actorID = firstNonEmpty(actorID, a)
		userID = firstNonEmpty(userID, u)
		tenantID = firstNonEmpty(tenantID, tn)
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(actorID),
		UserID:     parseUUID(userID),
		TenantID:   parseUUID(tenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       recordData(normalized),
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	return h.Sink.Log(ctx, record)
}

func recordData(event activity.Event) map[string]any {
	var data map[string]any
	if len(event.Metadata) > 0 {
		data = make(map[string]any, len(event.Metadata)+1)
		for key, value := range event.Metadata {
			data[key] = value
		}
	}
	if len(event.Keys) > 0 {
		if data == nil {
			data = map[string]any{}
		}
		if _, ok := data["keys"]; !ok {
			data["keys"] = append([]string{}, event.Keys...)
		}
	}
	return data
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
