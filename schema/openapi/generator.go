package openapi

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	attrs "github.com/goliatone/go-attrs"
)

// Extension keys carried on generated schemas.
const (
	ExtensionTransform = "x-attrs-transform"
	ExtensionOrder     = "x-attrs-order"
	ExtensionFlag      = "x-attrs-flag"
)

type generator struct {
	config generatorConfig
}

// NewGenerator constructs a generator that describes a record type as an
// OpenAPI document with one object schema under components.
func NewGenerator(opts ...GeneratorOption) attrs.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{config: cfg}
}

// Option returns a TypeOption that wires the OpenAPI generator into a type.
func Option(opts ...GeneratorOption) attrs.TypeOption {
	return attrs.WithSchemaGenerator(NewGenerator(opts...))
}

func (g generator) Generate(t *attrs.Type) (attrs.SchemaDocument, error) {
	document := map[string]any{
		"openapi": g.config.openAPIVersion,
		"info":    g.buildInfo(),
		"paths":   map[string]any{},
	}
	if t == nil {
		return attrs.SchemaDocument{Format: attrs.SchemaFormatOpenAPI, Document: document}, nil
	}

	schema, err := SchemaForType(t)
	if err != nil {
		return attrs.SchemaDocument{}, err
	}
	name := g.config.componentName
	if name == "" {
		name = t.Name()
	}
	if name == "" {
		return attrs.SchemaDocument{}, fmt.Errorf("openapi: component name cannot be empty")
	}
	document["components"] = map[string]any{
		"schemas": map[string]any{name: schema},
	}
	return attrs.SchemaDocument{
		Format:   attrs.SchemaFormatOpenAPI,
		Document: document,
	}, nil
}

func (g generator) buildInfo() map[string]any {
	info := map[string]any{
		"title":   g.config.info.Title,
		"version": g.config.info.Version,
	}
	if g.config.info.Description != "" {
		info["description"] = g.config.info.Description
	}
	return info
}

// SchemaForType returns the JSON schema object for the wire form of t.
func SchemaForType(t *attrs.Type) (map[string]any, error) {
	properties := make(map[string]any)
	order := make([]string, 0, len(t.Attributes()))
	for _, attr := range t.Attributes() {
		property, err := schemaForAttribute(attr)
		if err != nil {
			return nil, fmt.Errorf("openapi: attribute %q: %w", attr.Name, err)
		}
		property[ExtensionFlag] = attrs.FlagName(attr.Name)
		properties[attr.Name] = property
		order = append(order, attr.Name)
	}
	return map[string]any{
		"type":         "object",
		"properties":   properties,
		ExtensionOrder: order,
	}, nil
}

func schemaForAttribute(attr attrs.Attribute) (map[string]any, error) {
	schema, err := schemaForTransform(attr.Type, attr.Options)
	if err != nil {
		return nil, err
	}
	if attr.Options.ReadOnly {
		schema["readOnly"] = true
	}
	if attr.Options.Default != nil {
		schema["default"] = attr.Options.Default
	}
	return schema, nil
}

func schemaForTransform(typeName string, opts attrs.Options) (map[string]any, error) {
	switch typeName {
	case attrs.BooleanType:
		return map[string]any{"type": "boolean"}, nil
	case attrs.NumberType:
		return map[string]any{"type": "number", "nullable": true}, nil
	case attrs.StringType:
		return map[string]any{"type": "string", "nullable": true}, nil
	case attrs.ArrayType:
		items, err := schemaForTransform(opts.ItemType, attrs.Options{})
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "array", "items": items}, nil
	case "", attrs.DefaultType:
		if opts.Default == nil {
			return map[string]any{}, nil
		}
		return buildSchema(reflect.ValueOf(opts.Default))
	default:
		return map[string]any{ExtensionTransform: typeName}, nil
	}
}

// buildSchema infers a schema from a Go value, used for attributes whose
// declared default is the only type information available.
func buildSchema(rv reflect.Value) (map[string]any, error) {
	if !rv.IsValid() {
		return map[string]any{}, nil
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return map[string]any{}, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return map[string]any{}, nil
		}
		return buildSchema(rv.Elem())
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Struct:
		if rv.Type() == reflect.TypeOf(time.Time{}) {
			return map[string]any{"type": "string", "format": "date-time"}, nil
		}
		return schemaForStruct(rv)
	case reflect.Map:
		return schemaForMap(rv)
	case reflect.Slice, reflect.Array:
		return schemaForSlice(rv)
	default:
		return nil, fmt.Errorf("openapi: default of kind %s unsupported", rv.Kind())
	}
}

func schemaForMap(rv reflect.Value) (map[string]any, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("openapi: map key type %s unsupported", rv.Type().Key())
	}
	names := make([]string, 0, rv.Len())
	for _, key := range rv.MapKeys() {
		names = append(names, key.String())
	}
	sort.Strings(names)

	properties := make(map[string]any, len(names))
	for _, name := range names {
		child, err := buildSchema(rv.MapIndex(reflect.ValueOf(name)))
		if err != nil {
			return nil, err
		}
		properties[name] = child
	}
	return map[string]any{"type": "object", "properties": properties}, nil
}

func schemaForStruct(rv reflect.Value) (map[string]any, error) {
	rt := rv.Type()
	properties := map[string]any{}
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		child, err := buildSchema(rv.Field(i))
		if err != nil {
			return nil, err
		}
		properties[name] = child
	}
	return map[string]any{"type": "object", "properties": properties}, nil
}

func schemaForSlice(rv reflect.Value) (map[string]any, error) {
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return map[string]any{"type": "string", "format": "byte"}, nil
	}
	items := map[string]any{}
	if rv.Len() > 0 {
		var err error
		if items, err = buildSchema(rv.Index(0)); err != nil {
			return nil, err
		}
	}
	return map[string]any{"type": "array", "items": items}, nil
}
