package attrs

import "github.com/goliatone/go-attrs/internal/hydrate"

// DecodeContext identifies the record handed to decode hooks.
type DecodeContext = hydrate.Context

// ErrNonFiniteNumber is returned by Decode when a serialized value holds NaN
// or an infinity and no DecodeBefore hook replaced it.
var ErrNonFiniteNumber = hydrate.ErrNonFinite

// DecodeOption configures Decode.
type DecodeOption[T any] func(*decodeConfig[T])

type decodeConfig[T any] struct {
	keys    []string
	lenient bool
	options []hydrate.Option[T]
}

// DecodeKeys limits the payload to keys. Read-only attributes named here are
// included.
func DecodeKeys[T any](keys ...string) DecodeOption[T] {
	return func(cfg *decodeConfig[T]) {
		cfg.keys = append(cfg.keys, keys...)
	}
}

// DecodeLenient lets T omit fields for some serialized attributes.
func DecodeLenient[T any]() DecodeOption[T] {
	return func(cfg *decodeConfig[T]) {
		cfg.lenient = true
	}
}

// DecodeBefore rewrites the serialized payload before it is decoded.
func DecodeBefore[T any](hook func(DecodeContext, map[string]any) (map[string]any, error)) DecodeOption[T] {
	return func(cfg *decodeConfig[T]) {
		cfg.options = append(cfg.options, hydrate.BeforeDecode[T](hook))
	}
}

// DecodeAfter adjusts or validates the decoded value.
func DecodeAfter[T any](hook func(DecodeContext, *T) error) DecodeOption[T] {
	return func(cfg *decodeConfig[T]) {
		cfg.options = append(cfg.options, hydrate.AfterDecode[T](hook))
	}
}

// Decode hydrates the record's serialized values into T using JSON struct
// tags. By default every non read-only attribute is serialized and T must
// have a field for each. NaN numbers cannot travel through JSON: they fail
// with ErrNonFiniteNumber unless a DecodeBefore hook replaces them.
func Decode[T any](rec *Record, opts ...DecodeOption[T]) (T, error) {
	var zero T
	cfg := decodeConfig[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	payload, err := rec.Serialize(cfg.keys...)
	if err != nil {
		return zero, err
	}
	options := cfg.options
	if !cfg.lenient {
		options = append(options, hydrate.Strict[T]())
	}
	ctx := DecodeContext{Type: rec.typ.name, RecordID: rec.id}
	return hydrate.New[T](options...).Decode(ctx, payload)
}
