package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsAndClones(t *testing.T) {
	meta := map[string]any{"k": "v"}
	keys := []string{"name", "age"}
	evt := Event{
		Verb:       " record.committed ",
		ActorID:    " actor ",
		ObjectType: " person ",
		ObjectID:   " 42 ",
		Channel:    " attrs ",
		Keys:       keys,
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "record.committed" || got.ObjectType != "person" || got.ObjectID != "42" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.Channel != "attrs" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["k"] = "changed"
	if meta["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", meta)
	}
	got.Keys[0] = "changed"
	if keys[0] != "name" {
		t.Fatalf("expected original keys untouched: %+v", keys)
	}
}

func TestHooksNotifyDropsIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{Verb: VerbRecordCreated}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, _ Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		capture,
		HookFunc(func(context.Context, Event) error { return boom1 }),
		nil,
		HookFunc(func(context.Context, Event) error { return boom2 }),
	}

	//nolint:staticcheck // nil context is normalized by Notify
	err := hooks.Notify(nil, Event{Verb: VerbRecordCommitted, ObjectType: "person", ObjectID: "1"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterDefaultsChannel(t *testing.T) {
	capture := &CaptureHook{}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), Event{Verb: VerbRecordCreated, ObjectType: "person", ObjectID: "1"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	if NewEmitter(Hooks{nil}, Config{Enabled: true}).Enabled() {
		t.Fatalf("expected emitter with only nil hooks to be disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true})
	if err := enabled.Emit(context.Background(), Event{Verb: VerbRecordCreated, ObjectType: "person", ObjectID: "1"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 || capture.Events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %+v", capture.Events)
	}
}

func TestEmitterPreservesExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "records"})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbRecordReverted,
		ObjectType: "person",
		ObjectID:   "1",
		Channel:    "custom",
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", capture.Events[0].Channel)
	}
	if !capture.Events[0].OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", capture.Events[0].OccurredAt)
	}
}

func TestBuildRecordEvents(t *testing.T) {
	input := RecordEventInput{
		ObjectType: " person ",
		ObjectID:   " rec-1 ",
		Keys:       []string{"name", "age"},
		Metadata:   map[string]any{"source": "test"},
	}

	cases := []struct {
		build func(RecordEventInput) Event
		verb  string
	}{
		{BuildRecordCreatedEvent, VerbRecordCreated},
		{BuildRecordCommittedEvent, VerbRecordCommitted},
		{BuildRecordRevertedEvent, VerbRecordReverted},
	}
	for _, tc := range cases {
		event := tc.build(input)
		if event.Verb != tc.verb {
			t.Fatalf("expected verb %s got %s", tc.verb, event.Verb)
		}
		if event.ObjectType != "person" || event.ObjectID != "rec-1" {
			t.Fatalf("unexpected object fields: %+v", event)
		}
		keys, ok := event.Metadata["keys"].([]string)
		if !ok || len(keys) != 2 || keys[0] != "name" {
			t.Fatalf("expected keys metadata, got %v", event.Metadata["keys"])
		}
		if event.Metadata["source"] != "test" {
			t.Fatalf("expected metadata preserved, got %v", event.Metadata)
		}
	}
	if input.Metadata["keys"] != nil {
		t.Fatalf("expected input metadata untouched, got %v", input.Metadata)
	}

	anonymous := BuildRecordCommittedEvent(RecordEventInput{ObjectID: "x"})
	if anonymous.ObjectType != "record" {
		t.Fatalf("expected fallback object type, got %q", anonymous.ObjectType)
	}
}
