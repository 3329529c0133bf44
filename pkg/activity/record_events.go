package activity

import (
	"strings"
	"time"
)

// Record lifecycle verbs.
const (
	VerbRecordCreated   = "record.created"
	VerbRecordCommitted = "record.committed"
	VerbRecordReverted  = "record.reverted"
)

// RecordEventInput carries the fields shared by record lifecycle events.
type RecordEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Keys       []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildRecordCreatedEvent describes a record constructed with initial values
// for Keys.
func BuildRecordCreatedEvent(input RecordEventInput) Event {
	return buildRecordEvent(VerbRecordCreated, input)
}

// BuildRecordCommittedEvent describes Keys accepted as the new baseline.
func BuildRecordCommittedEvent(input RecordEventInput) Event {
	return buildRecordEvent(VerbRecordCommitted, input)
}

// BuildRecordRevertedEvent describes Keys restored to their original values.
func BuildRecordRevertedEvent(input RecordEventInput) Event {
	return buildRecordEvent(VerbRecordReverted, input)
}

func buildRecordEvent(verb string, input RecordEventInput) Event {
	objectType := strings.TrimSpace(input.ObjectType)
	if objectType == "" {
		objectType = "record"
	}
	metadata := cloneMap(input.Metadata)
	if len(input.Keys) > 0 {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["keys"] = append([]string{}, input.Keys...)
	}

	var keys []string
	if len(input.Keys) > 0 {
		keys = append([]string{}, input.Keys...)
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   strings.TrimSpace(input.ObjectID),
		Channel:    strings.TrimSpace(input.Channel),
		Keys:       keys,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
