package attrs

// DefaultType is the type name used when an attribute declares none.
const DefaultType = "default"

// Options is the option bag declared with an attribute and handed to every
// transform call for that attribute.
type Options struct {
	// Default is materialized into the raw store when an attribute is read
	// before any value was written.
	Default any
	// ReadOnly attributes never take part in change tracking and are left out
	// of Serialize calls without explicit keys.
	ReadOnly bool
	// ItemType names the transform applied to each element by the array
	// transform.
	ItemType string
}

// Context is the owner a transform runs against. *Record and *Registry both
// implement it.
type Context interface {
	ResolveTransform(typeName string) Transform
}

// Transform converts a value between its wire (raw store) representation and
// its application representation. Implementations must be stateless and safe
// for concurrent use.
type Transform interface {
	Serialize(ctx Context, opts Options, value any) (any, error)
	Deserialize(ctx Context, opts Options, value any) (any, error)
}

// ConvertFunc is one direction of a Transform.
type ConvertFunc func(ctx Context, opts Options, value any) (any, error)

// TransformFuncs adapts a pair of functions to Transform. A nil direction is
// the identity.
type TransformFuncs struct {
	SerializeFunc   ConvertFunc
	DeserializeFunc ConvertFunc
}

// Serialize implements Transform.
func (t TransformFuncs) Serialize(ctx Context, opts Options, value any) (any, error) {
	if t.SerializeFunc == nil {
		return value, nil
	}
	return t.SerializeFunc(ctx, opts, value)
}

// Deserialize implements Transform.
func (t TransformFuncs) Deserialize(ctx Context, opts Options, value any) (any, error) {
	if t.DeserializeFunc == nil {
		return value, nil
	}
	return t.DeserializeFunc(ctx, opts, value)
}

// Direction selects which half of a Transform runs.
type Direction string

const (
	DirectionSerialize   Direction = "serialize"
	DirectionDeserialize Direction = "deserialize"
)

// Convert runs transform in the requested direction.
func Convert(transform Transform, direction Direction, ctx Context, opts Options, value any) (any, error) {
	if transform == nil {
		return value, nil
	}
	if direction == DirectionSerialize {
		return transform.Serialize(ctx, opts, value)
	}
	return transform.Deserialize(ctx, opts, value)
}
