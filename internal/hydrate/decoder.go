// Package hydrate decodes serialized record values into Go structs.
package hydrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNonFinite reports a NaN or infinite number reaching the JSON step, which
// has no encoding for it. A BeforeDecode hook can replace such values.
var ErrNonFinite = errors.New("hydrate: non-finite number")

// Context identifies the record a payload came from.
type Context struct {
	Type     string
	RecordID string
}

func (c Context) String() string {
	if c.RecordID == "" {
		return c.Type
	}
	return c.Type + "/" + c.RecordID
}

// PreHook rewrites the payload before decoding. Returning nil keeps the
// payload it was given.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook adjusts or validates the decoded struct.
type PostHook[T any] func(Context, *T) error

// Option configures a Decoder.
type Option[T any] func(*Decoder[T])

// Decoder turns a record payload into T through encoding/json struct tags.
type Decoder[T any] struct {
	before []PreHook
	after  []PostHook[T]
	strict bool
}

// BeforeDecode runs hook on a private copy of the payload.
func BeforeDecode[T any](hook PreHook) Option[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.before = append(d.before, hook)
		}
	}
}

// AfterDecode runs hook on the decoded value.
func AfterDecode[T any](hook PostHook[T]) Option[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.after = append(d.after, hook)
		}
	}
}

// Strict rejects payload keys T has no field for.
func Strict[T any]() Option[T] {
	return func(d *Decoder[T]) {
		d.strict = true
	}
}

// New builds a Decoder.
func New[T any](opts ...Option[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode runs the before hooks, decodes, then runs the after hooks. The
// caller's payload is never mutated.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T
	if payload == nil {
		return zero, fmt.Errorf("hydrate: payload is nil for %s", ctx)
	}

	current := copyMap(payload)
	for i, hook := range d.before {
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: before hook %d for %s: %w", i, ctx, err)
		}
		if next != nil {
			current = next
		}
	}

	if key, ok := firstNonFinite(current); ok {
		return zero, fmt.Errorf("%w in %s field %q", ErrNonFinite, ctx, key)
	}
	buffer, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("hydrate: encode %s: %w", ctx, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	if d.strict {
		decoder.DisallowUnknownFields()
	}
	var result T
	if err := decoder.Decode(&result); err != nil {
		return zero, fmt.Errorf("hydrate: decode %s: %w", ctx, err)
	}

	for i, hook := range d.after {
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: after hook %d for %s: %w", i, ctx, err)
		}
	}
	return result, nil
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = copyValue(value)
	}
	return out
}

func copyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return copyMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = copyValue(item)
		}
		return out
	}
	return value
}

// firstNonFinite returns the top-level key, in sorted order, whose value
// holds a NaN or infinity at any depth.
func firstNonFinite(payload map[string]any) (string, bool) {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if nonFinite(payload[key]) {
			return key, true
		}
	}
	return "", false
}

func nonFinite(value any) bool {
	switch typed := value.(type) {
	case float64:
		return math.IsNaN(typed) || math.IsInf(typed, 0)
	case float32:
		return nonFinite(float64(typed))
	case []any:
		for _, item := range typed {
			if nonFinite(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range typed {
			if nonFinite(item) {
				return true
			}
		}
	}
	return false
}
