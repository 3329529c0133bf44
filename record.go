package attrs

import (
	"github.com/goliatone/go-attrs/pkg/activity"
	"github.com/google/uuid"
)

// FlagChange describes one derived-flag update made by a ChangeSet mutation.
type FlagChange struct {
	Key     string
	Flag    string
	Changed bool
	Dirty   bool
}

// ChangeObserver is notified synchronously after every flag update.
type ChangeObserver func(FlagChange)

// Record is one instance of a Type. It owns its raw store and ChangeSet and
// is not safe for concurrent use.
type Record struct {
	typ       *Type
	id        string
	data      map[string]any
	changes   *ChangeSet
	flags     map[string]bool
	dirty     bool
	creating  bool
	observers []ChangeObserver
}

func newRecord(t *Type) *Record {
	return &Record{
		typ:   t,
		id:    uuid.NewString(),
		flags: make(map[string]bool),
	}
}

// ID returns the identifier used for activity events.
func (r *Record) ID() string {
	return r.id
}

// Type returns the record's type.
func (r *Record) Type() *Type {
	return r.typ
}

// ResolveTransform implements Context through the type's registry.
func (r *Record) ResolveTransform(typeName string) Transform {
	return r.typ.registry.Resolve(typeName)
}

// OnChange registers an observer for derived-flag updates.
func (r *Record) OnChange(observer ChangeObserver) {
	if observer != nil {
		r.observers = append(r.observers, observer)
	}
}

// Accessor returns the read/write accessor for key.
func (r *Record) Accessor(key string) (*Accessor, error) {
	attr, ok := r.typ.Attribute(key)
	if !ok {
		return nil, wrapAttributeError(r.typ.name, key, "access", ErrUnknownAttribute)
	}
	return r.accessor(attr), nil
}

func (r *Record) accessor(attr Attribute) *Accessor {
	return &Accessor{record: r, attr: attr}
}

// Get reads the application value of key.
func (r *Record) Get(key string) (any, error) {
	accessor, err := r.Accessor(key)
	if err != nil {
		return nil, err
	}
	return accessor.Read()
}

// Set writes value to key and returns the application value now held.
func (r *Record) Set(key string, value any) (any, error) {
	accessor, err := r.Accessor(key)
	if err != nil {
		return nil, err
	}
	return accessor.Write(value)
}

// SetProperties writes several values in declaration order. Unknown keys are
// rejected before anything is written.
func (r *Record) SetProperties(values map[string]any) error {
	for key := range values {
		if _, ok := r.typ.index[key]; !ok {
			return wrapAttributeError(r.typ.name, key, "set", ErrUnknownAttribute)
		}
	}
	for _, attr := range r.typ.attrs {
		value, ok := values[attr.Name]
		if !ok {
			continue
		}
		if _, err := r.accessor(attr).Write(value); err != nil {
			return err
		}
	}
	return nil
}

// IsDirty reports whether any attribute differs from its original value.
func (r *Record) IsDirty() bool {
	return r.dirty
}

// IsClean is the negation of IsDirty.
func (r *Record) IsClean() bool {
	return !r.dirty
}

// Changed reports the derived changed flag for key.
func (r *Record) Changed(key string) bool {
	return r.flags[r.typ.flagName(key)]
}

// Flag returns a derived flag by its full name, e.g. "nameChanged".
func (r *Record) Flag(name string) bool {
	return r.flags[name]
}

// Flags returns a copy of every derived flag set so far.
func (r *Record) Flags() map[string]bool {
	out := make(map[string]bool, len(r.flags))
	for name, value := range r.flags {
		out[name] = value
	}
	return out
}

// Commit accepts current values of keys, or of every changed attribute when
// none are given, as the new baseline. It is a no-op on a clean record.
func (r *Record) Commit(keys ...string) {
	if !r.dirty {
		return
	}
	_, changes := r.state()
	committed := r.trackedAmong(keys)
	if len(keys) == 0 {
		changes.Clear()
	} else if declared := r.declaredAmong(keys); len(declared) > 0 {
		changes.Clear(declared...)
	}
	if len(committed) > 0 {
		r.typ.emit(activity.BuildRecordCommittedEvent(r.eventInput(committed)))
	}
}

// Revert writes tracked originals of keys, or of every changed attribute when
// none are given, back through the write path. It is a no-op on a clean
// record.
func (r *Record) Revert(keys ...string) error {
	if !r.dirty {
		return nil
	}
	_, changes := r.state()
	var filter map[string]struct{}
	if len(keys) > 0 {
		filter = make(map[string]struct{}, len(keys))
		for _, key := range keys {
			filter[key] = struct{}{}
		}
	}

	var reverted []string
	var failed error
	changes.ForEach(func(key string, original any) {
		if failed != nil {
			return
		}
		if filter != nil {
			if _, ok := filter[key]; !ok {
				return
			}
		}
		attr, ok := r.typ.Attribute(key)
		if !ok {
			changes.Remove(key)
			return
		}
		if err := r.accessor(attr).restore(original); err != nil {
			failed = wrapAttributeError(r.typ.name, key, "revert", err)
			return
		}
		changes.Remove(key)
		reverted = append(reverted, key)
	})
	if len(reverted) > 0 {
		r.typ.emit(activity.BuildRecordRevertedEvent(r.eventInput(reverted)))
	}
	return failed
}

// AttributeKeys returns the declared attribute names in declaration order.
func (r *Record) AttributeKeys() []string {
	return r.typ.AttributeKeys()
}

// Attributes returns the application values of every declared attribute.
func (r *Record) Attributes() (map[string]any, error) {
	out := make(map[string]any, len(r.typ.attrs))
	for _, attr := range r.typ.attrs {
		value, err := r.accessor(attr).Read()
		if err != nil {
			return nil, err
		}
		out[attr.Name] = value
	}
	return out, nil
}

// ChangedKeys returns changed attribute names in the order they were first
// changed.
func (r *Record) ChangedKeys() []string {
	if r.changes == nil {
		return []string{}
	}
	return r.changes.Keys()
}

// Changes returns the serialized values of changed attributes. A clean record
// yields an empty map.
func (r *Record) Changes() (map[string]any, error) {
	keys := r.ChangedKeys()
	if len(keys) == 0 {
		return map[string]any{}, nil
	}
	return r.Serialize(keys...)
}

// Serialize returns wire values for keys. Without keys every attribute except
// read-only ones is included; explicit keys are included regardless.
func (r *Record) Serialize(keys ...string) (map[string]any, error) {
	var selected []Attribute
	if len(keys) == 0 {
		for _, attr := range r.typ.attrs {
			if !attr.Options.ReadOnly {
				selected = append(selected, attr)
			}
		}
	} else {
		for _, key := range keys {
			attr, ok := r.typ.Attribute(key)
			if !ok {
				return nil, wrapAttributeError(r.typ.name, key, "serialize", ErrUnknownAttribute)
			}
			selected = append(selected, attr)
		}
	}

	out := make(map[string]any, len(selected))
	for _, attr := range selected {
		value, err := r.accessor(attr).Read()
		if err != nil {
			return nil, err
		}
		transform := r.ResolveTransform(attr.Type)
		serialized, err := transform.Serialize(r, attr.Options, value)
		if err != nil {
			return nil, wrapAttributeError(r.typ.name, attr.Name, "serialize", err)
		}
		out[attr.Name] = serialized
	}
	return out, nil
}

// state lazily creates the raw store and ChangeSet.
func (r *Record) state() (map[string]any, *ChangeSet) {
	if r.data == nil {
		r.data = make(map[string]any)
	}
	if r.changes == nil {
		r.changes = NewChangeSet(r.applyFlag)
	}
	return r.data, r.changes
}

func (r *Record) setKeyChanged(key string, changed bool) {
	_, changes := r.state()
	r.applyFlag(key, changed, changes.Len() > 0)
}

func (r *Record) applyFlag(key string, changed bool, dirty bool) {
	flag := r.typ.flagName(key)
	r.flags[flag] = changed
	r.dirty = dirty
	if len(r.observers) == 0 {
		return
	}
	change := FlagChange{Key: key, Flag: flag, Changed: changed, Dirty: dirty}
	for _, observer := range r.observers {
		observer(change)
	}
}

// declaredAmong drops keys the type never declared.
func (r *Record) declaredAmong(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, ok := r.typ.index[key]; ok {
			out = append(out, key)
		}
	}
	return out
}

func (r *Record) trackedAmong(keys []string) []string {
	tracked := r.ChangedKeys()
	if len(keys) == 0 {
		return tracked
	}
	wanted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		wanted[key] = struct{}{}
	}
	out := make([]string, 0, len(tracked))
	for _, key := range tracked {
		if _, ok := wanted[key]; ok {
			out = append(out, key)
		}
	}
	return out
}

func (r *Record) eventInput(keys []string) activity.RecordEventInput {
	return activity.RecordEventInput{
		ObjectType: r.typ.name,
		ObjectID:   r.id,
		Keys:       append([]string(nil), keys...),
	}
}
