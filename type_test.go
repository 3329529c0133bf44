package attrs

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-attrs/pkg/activity"
)

func TestFlagName(t *testing.T) {
	cases := map[string]string{
		"name":       "nameChanged",
		"first_name": "firstNameChanged",
		"zipCode":    "zipCodeChanged",
	}
	for key, want := range cases {
		if got := FlagName(key); got != want {
			t.Fatalf("FlagName(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestNewTypeValidation(t *testing.T) {
	if _, err := NewType("x", []Attribute{Attr("a", ""), Attr("a", NumberType)}); !errors.Is(err, ErrDuplicateAttribute) {
		t.Fatalf("expected duplicate attribute error, got %v", err)
	}
	if _, err := NewType("x", []Attribute{Attr(" ", NumberType)}); err == nil {
		t.Fatalf("expected error for blank attribute name")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("MustType should panic on invalid declarations")
		}
	}()
	MustType("x", []Attribute{Attr("", "")})
}

func TestTypeAccessors(t *testing.T) {
	typ := personType(t)
	if typ.Name() != "person" || typ.Parent() != nil {
		t.Fatalf("unexpected identity %q parent=%v", typ.Name(), typ.Parent())
	}
	if got := typ.AttributeKeys(); !reflect.DeepEqual(got, []string{"name", "age", "admin", "tags", "id"}) {
		t.Fatalf("unexpected keys %v", got)
	}
	attr, ok := typ.Attribute("tags")
	if !ok || attr.Type != ArrayType || attr.Options.ItemType != StringType {
		t.Fatalf("unexpected tags declaration %+v", attr)
	}
	if _, ok := typ.Attribute("nope"); ok {
		t.Fatalf("unexpected declaration for nope")
	}

	plain, err := NewType("plain", []Attribute{Attr("v", "")})
	if err != nil {
		t.Fatalf("NewType: %v", err)
	}
	if plain.Registry() != DefaultRegistry() {
		t.Fatalf("types without a registry share the default one")
	}
	if attr, _ := plain.Attribute("v"); attr.Type != DefaultType {
		t.Fatalf("expected default type, got %q", attr.Type)
	}
}

func TestExtendMergesAttributes(t *testing.T) {
	base := personType(t)
	child, err := base.Extend("employee", []Attribute{
		Attr("salary", NumberType),
		Attr("age", StringType),
	})
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if child.Parent() != base || child.Registry() != base.Registry() {
		t.Fatalf("child should inherit parent and registry")
	}
	want := []string{"name", "age", "admin", "tags", "id", "salary"}
	if got := child.AttributeKeys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if attr, _ := child.Attribute("age"); attr.Type != StringType {
		t.Fatalf("child declaration should replace parent's, got %q", attr.Type)
	}
	if attr, _ := base.Attribute("age"); attr.Type != NumberType {
		t.Fatalf("parent must be unaffected, got %q", attr.Type)
	}

	if _, err := base.Extend("bad", []Attribute{Attr("x", ""), Attr("x", "")}); !errors.Is(err, ErrDuplicateAttribute) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestNewRejectsUnknownInitialKeys(t *testing.T) {
	_, err := personType(t).New(map[string]any{"nope": 1})
	var attrErr *AttributeError
	if !errors.As(err, &attrErr) || attrErr.Op != "create" || !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("expected create AttributeError, got %v", err)
	}
	if !strings.Contains(err.Error(), "person.nope") {
		t.Fatalf("error should name type and attribute: %v", err)
	}
}

func TestAccessorReadWrite(t *testing.T) {
	rec := newPerson(t, nil)
	accessor, err := rec.Accessor("admin")
	if err != nil {
		t.Fatalf("Accessor: %v", err)
	}
	if accessor.Attribute().Name != "admin" {
		t.Fatalf("unexpected attribute %+v", accessor.Attribute())
	}
	if _, ok := accessor.Raw(); ok {
		t.Fatalf("raw value should be absent before the first read")
	}
	if got, _ := accessor.Read(); got != false {
		t.Fatalf("expected default false, got %#v", got)
	}
	if raw, ok := accessor.Raw(); !ok || raw != false {
		t.Fatalf("read should materialize the default, got %#v %v", raw, ok)
	}

	got, err := accessor.Write("t")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got != true {
		t.Fatalf("expected deserialized true, got %#v", got)
	}
	if raw, _ := accessor.Raw(); raw != "t" {
		t.Fatalf("raw store keeps the written value, got %#v", raw)
	}

	if got, _ := accessor.Write(""); got != true {
		t.Fatalf("empty writes leave the value in place, got %#v", got)
	}

	if _, err := rec.Accessor("nope"); !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("expected unknown attribute, got %v", err)
	}
}

func TestDeserializeErrorsCarryAttribute(t *testing.T) {
	sentinel := errors.New("boom")
	set := Builtins()
	_ = set.Register("broken", TransformFuncs{
		DeserializeFunc: func(Context, Options, any) (any, error) { return nil, sentinel },
	})
	typ, err := NewType("thing", []Attribute{Attr("v", "broken")},
		WithRegistry(NewRegistry(WithLookup(set), WithLookupLogger(nil))))
	if err != nil {
		t.Fatalf("NewType: %v", err)
	}
	rec, _ := typ.New(nil)
	_, err = rec.Get("v")
	var attrErr *AttributeError
	if !errors.As(err, &attrErr) || attrErr.Op != "deserialize" || !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped deserialize error, got %v", err)
	}
}

func TestActivityEvents(t *testing.T) {
	hook := &activity.CaptureHook{}
	typ := personType(t, WithActivityHooks(activity.Hooks{hook}), WithActivityChannel("people"))

	rec, err := typ.New(map[string]any{"name": "Ada", "age": 36})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustSet(t, rec, "name", "Grace")
	mustSet(t, rec, "age", 40)
	rec.Commit("age")
	if err := rec.Revert(); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	rec.Commit()

	want := []string{activity.VerbRecordCreated, activity.VerbRecordCommitted, activity.VerbRecordReverted}
	if got := hook.Verbs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected verbs %v, got %v", want, got)
	}
	created := hook.Events[0]
	if created.ObjectType != "person" || created.ObjectID != rec.ID() || created.Channel != "people" {
		t.Fatalf("unexpected created event %+v", created)
	}
	if !reflect.DeepEqual(created.Keys, []string{"name", "age"}) {
		t.Fatalf("created keys should follow declaration order, got %v", created.Keys)
	}
	if !reflect.DeepEqual(hook.Events[1].Keys, []string{"age"}) {
		t.Fatalf("unexpected committed keys %v", hook.Events[1].Keys)
	}
	if !reflect.DeepEqual(hook.Events[2].Keys, []string{"name"}) {
		t.Fatalf("unexpected reverted keys %v", hook.Events[2].Keys)
	}
}

func TestActivityHookFailureDoesNotFailOperation(t *testing.T) {
	hook := &activity.CaptureHook{Err: errors.New("sink down")}
	typ := personType(t, WithActivityHooks(activity.Hooks{hook}))
	rec, err := typ.New(map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("hook errors must not fail New: %v", err)
	}
	mustSet(t, rec, "name", "Grace")
	rec.Commit()
	if len(hook.Events) != 2 {
		t.Fatalf("expected events to keep flowing, got %d", len(hook.Events))
	}
}

func TestDefaultSchemaDescriptors(t *testing.T) {
	doc, err := personType(t).Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if doc.Format != SchemaFormatDescriptors {
		t.Fatalf("unexpected format %q", doc.Format)
	}
	fields := doc.Document.([]FieldDescriptor)
	paths := make([]string, len(fields))
	for i, field := range fields {
		paths[i] = field.Path
	}
	if !reflect.DeepEqual(paths, []string{"name", "age", "admin", "tags", "id"}) {
		t.Fatalf("descriptors should follow declaration order, got %v", paths)
	}
	if fields[2].Default != false || fields[2].Flag != "adminChanged" {
		t.Fatalf("unexpected admin descriptor %+v", fields[2])
	}
	if !fields[4].ReadOnly || fields[3].ItemType != StringType {
		t.Fatalf("unexpected options in %+v", fields)
	}
}

type failingGenerator struct{}

func (failingGenerator) Generate(*Type) (SchemaDocument, error) {
	return SchemaDocument{}, errors.New("nope")
}

func TestSchemaGeneratorErrorsAreWrapped(t *testing.T) {
	_, err := personType(t, WithSchemaGenerator(failingGenerator{})).Schema()
	if err == nil || !strings.Contains(err.Error(), `type "person"`) {
		t.Fatalf("expected wrapped generator error, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	type person struct {
		Name  string   `json:"name"`
		Age   float64  `json:"age"`
		Admin bool     `json:"admin"`
		Tags  []string `json:"tags"`
	}
	rec := newPerson(t, map[string]any{"name": "Ada", "age": "36", "tags": []any{"math", 1}})

	got, err := Decode[person](rec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := person{Name: "Ada", Age: 36, Tags: []string{"math", "1"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %#v, got %#v", want, got)
	}

	type nameOnly struct {
		Name string `json:"name"`
	}
	if _, err := Decode[nameOnly](rec); err == nil {
		t.Fatalf("expected unknown fields to be rejected")
	}
	only, err := Decode[nameOnly](rec, DecodeKeys[nameOnly]("name"))
	if err != nil || only.Name != "Ada" {
		t.Fatalf("expected name-only decode, got %#v %v", only, err)
	}
	lenient, err := Decode[nameOnly](rec, DecodeLenient[nameOnly]())
	if err != nil || lenient.Name != "Ada" {
		t.Fatalf("expected lenient decode, got %#v %v", lenient, err)
	}
}

func TestDecodeHooks(t *testing.T) {
	type scored struct {
		Name  string   `json:"name"`
		Age   *float64 `json:"age"`
		Owner string   `json:"-"`
	}
	rec := newPerson(t, map[string]any{"name": "Ada", "age": "not a number"})
	keys := DecodeKeys[scored]("name", "age")

	if _, err := Decode[scored](rec, keys); !errors.Is(err, ErrNonFiniteNumber) {
		t.Fatalf("expected ErrNonFiniteNumber for NaN age, got %v", err)
	}

	got, err := Decode[scored](rec, keys,
		DecodeBefore[scored](func(_ DecodeContext, payload map[string]any) (map[string]any, error) {
			if age, ok := payload["age"].(float64); ok && math.IsNaN(age) {
				payload["age"] = nil
			}
			return payload, nil
		}),
		DecodeAfter[scored](func(ctx DecodeContext, out *scored) error {
			out.Owner = ctx.Type + "/" + ctx.RecordID
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != "Ada" || got.Age != nil {
		t.Fatalf("unexpected decode %#v", got)
	}
	if got.Owner != "person/"+rec.ID() {
		t.Fatalf("expected after hook to see record context, got %q", got.Owner)
	}

	sentinel := errors.New("invalid")
	_, err = Decode[scored](rec, DecodeKeys[scored]("name"), DecodeAfter[scored](func(DecodeContext, *scored) error {
		return sentinel
	}))
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected after hook error, got %v", err)
	}
}
