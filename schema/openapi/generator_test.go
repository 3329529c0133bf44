package openapi

import (
	"encoding/json"
	"reflect"
	"testing"

	attrs "github.com/goliatone/go-attrs"
)

func personType(t *testing.T, opts ...attrs.TypeOption) *attrs.Type {
	t.Helper()
	typ, err := attrs.NewType("person", []attrs.Attribute{
		attrs.Attr("name", attrs.StringType),
		attrs.Attr("age", attrs.NumberType, attrs.WithDefault(0.0)),
		attrs.Attr("active", attrs.BooleanType),
		attrs.ArrayAttr("scores", attrs.NumberType),
		attrs.Attr("id", attrs.StringType, attrs.ReadOnly()),
		attrs.Attr("meta", "", attrs.WithDefault(map[string]any{"tier": "free", "seats": 1})),
		attrs.Attr("price", "cents"),
	}, opts...)
	if err != nil {
		t.Fatalf("NewType: %v", err)
	}
	return typ
}

func TestNewGeneratorOptions(t *testing.T) {
	custom := NewGenerator(
		WithOpenAPIVersion("3.1.0"),
		WithInfo("People", "2.0.0", WithInfoDescription("people schema")),
		WithComponentName("Person"),
	)

	internal, ok := custom.(generator)
	if !ok {
		t.Fatalf("expected generator implementation, got %T", custom)
	}
	if got := internal.config.openAPIVersion; got != "3.1.0" {
		t.Fatalf("expected openapi version 3.1.0, got %q", got)
	}
	if got := internal.config.info.Title; got != "People" {
		t.Fatalf("expected info title People, got %q", got)
	}
	if got := internal.config.info.Description; got != "people schema" {
		t.Fatalf("expected info description, got %q", got)
	}
	if got := internal.config.componentName; got != "Person" {
		t.Fatalf("expected component name Person, got %q", got)
	}
}

func TestGenerateDescribesAttributes(t *testing.T) {
	typ := personType(t, Option(WithComponentName("Person")))

	doc, err := typ.Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if doc.Format != attrs.SchemaFormatOpenAPI {
		t.Fatalf("expected openapi format, got %q", doc.Format)
	}
	document := doc.Document.(map[string]any)
	if document["openapi"] != "3.0.3" {
		t.Fatalf("expected default openapi version, got %v", document["openapi"])
	}
	schemas := document["components"].(map[string]any)["schemas"].(map[string]any)
	person, ok := schemas["Person"].(map[string]any)
	if !ok {
		t.Fatalf("expected Person component, got %v", schemas)
	}

	order := person[ExtensionOrder].([]string)
	want := []string{"name", "age", "active", "scores", "id", "meta", "price"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("expected order %v, got %v", want, order)
	}

	props := person["properties"].(map[string]any)
	if got := props["age"].(map[string]any); got["type"] != "number" || got["default"] != 0.0 {
		t.Fatalf("unexpected age schema %v", got)
	}
	if got := props["active"].(map[string]any)["type"]; got != "boolean" {
		t.Fatalf("expected boolean, got %v", got)
	}
	scores := props["scores"].(map[string]any)
	if scores["type"] != "array" || scores["items"].(map[string]any)["type"] != "number" {
		t.Fatalf("unexpected scores schema %v", scores)
	}
	if got := props["id"].(map[string]any)["readOnly"]; got != true {
		t.Fatalf("expected id readOnly, got %v", got)
	}
	meta := props["meta"].(map[string]any)
	if meta["type"] != "object" {
		t.Fatalf("expected meta inferred as object, got %v", meta)
	}
	if seats := meta["properties"].(map[string]any)["seats"].(map[string]any)["type"]; seats != "integer" {
		t.Fatalf("expected seats integer, got %v", seats)
	}
	if got := props["price"].(map[string]any)[ExtensionTransform]; got != "cents" {
		t.Fatalf("expected custom transform extension, got %v", got)
	}
	if got := props["name"].(map[string]any)[ExtensionFlag]; got != "nameChanged" {
		t.Fatalf("expected flag extension, got %v", got)
	}

	if _, err := json.Marshal(doc.Document); err != nil {
		t.Fatalf("document should be JSON-serialisable: %v", err)
	}
}

func TestGenerateNilType(t *testing.T) {
	doc, err := NewGenerator().Generate(nil)
	if err != nil {
		t.Fatalf("Generate(nil): %v", err)
	}
	document := doc.Document.(map[string]any)
	if _, ok := document["components"]; ok {
		t.Fatalf("expected no components for nil type")
	}
}

func TestGenerateRejectsUnsupportedDefault(t *testing.T) {
	typ, err := attrs.NewType("bad", []attrs.Attribute{
		attrs.Attr("fn", "", attrs.WithDefault(func() {})),
	})
	if err != nil {
		t.Fatalf("NewType: %v", err)
	}
	if _, err := NewGenerator().Generate(typ); err == nil {
		t.Fatalf("expected error for func default")
	}
}
