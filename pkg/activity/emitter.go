package activity

import (
	"context"
	"strings"
)

// DefaultChannel is stamped on events emitted without one.
const DefaultChannel = "attrs"

// Config controls emission for one record type.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter forwards events to hooks, applying the configured channel.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
}

// NewEmitter constructs an emitter. It is enabled only when cfg.Enabled is set
// and at least one non-nil hook remains.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	kept := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			kept = append(kept, hook)
		}
	}
	return &Emitter{
		hooks:   kept,
		enabled: cfg.Enabled && len(kept) > 0,
		channel: channel,
	}
}

// Enabled reports whether Emit will reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit forwards event to every hook.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
