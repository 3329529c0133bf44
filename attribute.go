package attrs

import (
	"fmt"
	"strings"
)

// Attribute is a declared, typed field of a record type.
type Attribute struct {
	Name    string
	Type    string
	Options Options
}

// AttributeOption configures an attribute declaration.
type AttributeOption func(*Options)

// WithDefault sets the value materialized when the attribute is read before
// any write.
func WithDefault(value any) AttributeOption {
	return func(o *Options) {
		o.Default = value
	}
}

// ReadOnly excludes the attribute from change tracking.
func ReadOnly() AttributeOption {
	return func(o *Options) {
		o.ReadOnly = true
	}
}

// WithItemType names the transform the array transform applies per element.
func WithItemType(typeName string) AttributeOption {
	return func(o *Options) {
		o.ItemType = strings.TrimSpace(typeName)
	}
}

// Attr declares an attribute. An empty typeName means DefaultType.
func Attr(name, typeName string, opts ...AttributeOption) Attribute {
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		typeName = DefaultType
	}
	attr := Attribute{
		Name: strings.TrimSpace(name),
		Type: typeName,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&attr.Options)
		}
	}
	return attr
}

// ArrayAttr declares an array attribute whose elements use itemType.
func ArrayAttr(name, itemType string, opts ...AttributeOption) Attribute {
	return Attr(name, ArrayType, append([]AttributeOption{WithItemType(itemType)}, opts...)...)
}

func (a Attribute) validate() error {
	if a.Name == "" {
		return fmt.Errorf("attrs: attribute name must not be empty")
	}
	return nil
}

// Accessor is the read/write protocol for one attribute of one record. It
// reconciles the raw store, the ChangeSet and the attribute's transform.
type Accessor struct {
	record *Record
	attr   Attribute
}

// Attribute returns the declaration the accessor is bound to.
func (a *Accessor) Attribute() Attribute {
	return a.attr
}

// Read returns the application value, materializing the declared default when
// the raw store holds nothing for the key.
func (a *Accessor) Read() (any, error) {
	return a.handle(nil, false)
}

// Write stores value and updates change tracking, returning the application
// value now held. Empty values only materialize the default.
func (a *Accessor) Write(value any) (any, error) {
	return a.handle(value, true)
}

// Raw returns the stored wire value without deserializing it.
func (a *Accessor) Raw() (any, bool) {
	data, _ := a.record.state()
	value, ok := data[a.attr.Name]
	return value, ok
}

func (a *Accessor) handle(value any, writing bool) (any, error) {
	rec := a.record
	key := a.attr.Name
	readOnly := a.attr.Options.ReadOnly
	data, changes := rec.state()

	dataValue, present := data[key]

	if writing && !isEmpty(value) {
		if rec.creating {
			if !readOnly {
				rec.setKeyChanged(key, false)
			}
			data[key] = value
			dataValue, present = value, true
		}
		if !present {
			// a read would have materialized the default, so that is the baseline
			dataValue = a.attr.Options.Default
		}
		if !sameValue(dataValue, value) {
			if !readOnly {
				if original, tracked := changes.Get(key); !tracked {
					changes.Set(key, dataValue)
				} else if sameValue(original, value) {
					changes.Remove(key)
				}
			}
		} else if !readOnly && !changes.Has(key) {
			changes.Remove(key)
		}
		data[key] = value
		dataValue = value
	} else if !present {
		data[key] = a.attr.Options.Default
		dataValue = a.attr.Options.Default
	}

	transform := rec.ResolveTransform(a.attr.Type)
	out, err := transform.Deserialize(rec, a.attr.Options, dataValue)
	if err != nil {
		return nil, wrapAttributeError(rec.typ.name, key, "deserialize", err)
	}
	return out, nil
}

// restore puts original back through the write path. An empty original
// returns the key to the declared default.
func (a *Accessor) restore(original any) error {
	if isEmpty(original) {
		data, _ := a.record.state()
		delete(data, a.attr.Name)
	}
	_, err := a.Write(original)
	return err
}
