package attrs

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-attrs/pkg/activity"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stoewer/go-strcase"
)

// TypeOption configures a record Type.
type TypeOption func(*typeConfig)

type typeConfig struct {
	registry        *Registry
	activityHooks   activity.Hooks
	activityConfig  activity.Config
	logger          *zerolog.Logger
	schemaGenerator SchemaGenerator
}

// WithRegistry sets the registry transforms are resolved through. Types
// without one share DefaultRegistry().
func WithRegistry(registry *Registry) TypeOption {
	return func(cfg *typeConfig) {
		cfg.registry = registry
	}
}

// WithActivityHooks attaches hooks notified of record lifecycle events.
// Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) TypeOption {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *typeConfig) {
		cfg.activityHooks = normalized
		cfg.activityConfig.Enabled = len(normalized) > 0
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) TypeOption {
	return func(cfg *typeConfig) {
		cfg.activityConfig.Channel = channel
	}
}

// WithLogger sets the logger used to report activity hook failures.
func WithLogger(logger zerolog.Logger) TypeOption {
	return func(cfg *typeConfig) {
		cfg.logger = &logger
	}
}

// WithSchemaGenerator configures the generator behind Type.Schema.
func WithSchemaGenerator(generator SchemaGenerator) TypeOption {
	return func(cfg *typeConfig) {
		cfg.schemaGenerator = generator
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry shared by types declared without
// WithRegistry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Type is a record type: the ordered set of declared attributes plus the
// registry their transforms resolve through. A Type is immutable once built
// and safe to share.
type Type struct {
	name     string
	parent   *Type
	attrs    []Attribute
	index    map[string]int
	flags    map[string]string
	cfg      typeConfig
	registry *Registry
	emitter  *activity.Emitter
	logger   zerolog.Logger
}

// NewType declares a record type with attributes in declaration order.
func NewType(name string, attributes []Attribute, opts ...TypeOption) (*Type, error) {
	cfg := typeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return buildType(strings.TrimSpace(name), nil, attributes, cfg)
}

// MustType is NewType that panics on error, for package-level declarations.
func MustType(name string, attributes []Attribute, opts ...TypeOption) *Type {
	t, err := NewType(name, attributes, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Extend declares a child type. Parent attributes come first; a child
// attribute with a parent's name replaces it in place. Options not given
// are inherited.
func (t *Type) Extend(name string, attributes []Attribute, opts ...TypeOption) (*Type, error) {
	if t == nil {
		return NewType(name, attributes, opts...)
	}
	cfg := t.cfg
	cfg.activityHooks = cloneActivityHooks(t.cfg.activityHooks)
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	merged := append([]Attribute(nil), t.attrs...)
	positions := make(map[string]int, len(merged))
	for i, attr := range merged {
		positions[attr.Name] = i
	}
	extra := make([]Attribute, 0, len(attributes))
	seen := make(map[string]struct{}, len(attributes))
	for _, attr := range attributes {
		if _, dup := seen[attr.Name]; dup {
			return nil, fmt.Errorf("%w: %q in type %q", ErrDuplicateAttribute, attr.Name, name)
		}
		seen[attr.Name] = struct{}{}
		if i, ok := positions[attr.Name]; ok {
			merged[i] = attr
			continue
		}
		extra = append(extra, attr)
	}
	return buildType(strings.TrimSpace(name), t, append(merged, extra...), cfg)
}

func buildType(name string, parent *Type, attributes []Attribute, cfg typeConfig) (*Type, error) {
	t := &Type{
		name:   name,
		parent: parent,
		attrs:  make([]Attribute, 0, len(attributes)),
		index:  make(map[string]int, len(attributes)),
		flags:  make(map[string]string, len(attributes)),
		cfg:    cfg,
	}
	for _, attr := range attributes {
		if err := attr.validate(); err != nil {
			return nil, fmt.Errorf("attrs: type %q: %w", name, err)
		}
		if _, exists := t.index[attr.Name]; exists {
			return nil, fmt.Errorf("%w: %q in type %q", ErrDuplicateAttribute, attr.Name, name)
		}
		if attr.Type == "" {
			attr.Type = DefaultType
		}
		t.index[attr.Name] = len(t.attrs)
		t.attrs = append(t.attrs, attr)
		t.flags[attr.Name] = FlagName(attr.Name)
	}

	t.registry = cfg.registry
	if t.registry == nil {
		t.registry = DefaultRegistry()
	}
	if cfg.logger != nil {
		t.logger = *cfg.logger
	} else {
		t.logger = log.Logger
	}
	t.emitter = activity.NewEmitter(cfg.activityHooks, cfg.activityConfig)
	return t, nil
}

// FlagName returns the derived per-key flag name, `<lowerCamel(key)>Changed`.
func FlagName(key string) string {
	return strcase.LowerCamelCase(key + "_changed")
}

// Name returns the type name.
func (t *Type) Name() string {
	return t.name
}

// Parent returns the type this one extends, or nil.
func (t *Type) Parent() *Type {
	return t.parent
}

// Registry returns the registry the type resolves transforms through.
func (t *Type) Registry() *Registry {
	return t.registry
}

// AttributeKeys returns attribute names in declaration order.
func (t *Type) AttributeKeys() []string {
	keys := make([]string, len(t.attrs))
	for i, attr := range t.attrs {
		keys[i] = attr.Name
	}
	return keys
}

// Attributes returns a copy of the declarations in declaration order.
func (t *Type) Attributes() []Attribute {
	return append([]Attribute(nil), t.attrs...)
}

// Attribute returns the declaration for key.
func (t *Type) Attribute(key string) (Attribute, bool) {
	i, ok := t.index[key]
	if !ok {
		return Attribute{}, false
	}
	return t.attrs[i], true
}

// New constructs a record and applies initial values in declaration order.
// Initial values are never recorded as changes.
func (t *Type) New(initial map[string]any) (*Record, error) {
	for key := range initial {
		if _, ok := t.index[key]; !ok {
			return nil, wrapAttributeError(t.name, key, "create", ErrUnknownAttribute)
		}
	}

	rec := newRecord(t)
	rec.creating = true
	for _, attr := range t.attrs {
		value, ok := initial[attr.Name]
		if !ok {
			continue
		}
		if _, err := rec.accessor(attr).Write(value); err != nil {
			rec.creating = false
			return nil, err
		}
	}
	rec.creating = false

	keys := make([]string, 0, len(initial))
	for _, attr := range t.attrs {
		if _, ok := initial[attr.Name]; ok {
			keys = append(keys, attr.Name)
		}
	}
	t.emit(activity.BuildRecordCreatedEvent(rec.eventInput(keys)))
	return rec, nil
}

func (t *Type) flagName(key string) string {
	if name, ok := t.flags[key]; ok {
		return name
	}
	return FlagName(key)
}

func (t *Type) emit(event activity.Event) {
	if !t.emitter.Enabled() {
		return
	}
	if err := t.emitter.Emit(context.Background(), event); err != nil {
		t.logger.Warn().
			Err(err).
			Str("type", t.name).
			Str("verb", event.Verb).
			Str("record", event.ObjectID).
			Msg("activity hook failed")
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
