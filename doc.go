// Package attrs tracks typed attributes on record-like values.
//
// A Type declares ordered attributes, each naming a Transform that converts
// between the raw stored value and the value the application sees. Records
// built from a Type keep a ChangeSet of original values, so callers can ask
// what changed, commit the current values as the new baseline, or revert.
//
//	person := attrs.MustType("person", []attrs.Attribute{
//		attrs.Attr("name", attrs.StringType),
//		attrs.Attr("age", attrs.NumberType),
//	})
//	rec, _ := person.New(map[string]any{"name": "Ada"})
//	rec.Set("age", "36")    // read back as float64(36)
//	rec.Changes()           // map[age:36]
//	rec.Commit()
//
// Transforms resolve through a Registry by exact name first, then by the
// built-in scoped name ("attrs:number"), then fall back to the default
// pass-through transform with a logged warning. ScriptTransform builds
// transforms from expr, CEL or JavaScript expressions.
package attrs
