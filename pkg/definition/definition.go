// Package definition declares record types and script transforms in TOML.
//
//	name = "product"
//
//	[[transforms]]
//	name = "cents"
//	engine = "expr"
//	serialize = "value * 100"
//	deserialize = "value / 100"
//
//	[[attributes]]
//	name = "price"
//	type = "cents"
package definition

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	attrs "github.com/goliatone/go-attrs"
)

// ErrMissingName is returned when a definition, transform or attribute has
// no name.
var ErrMissingName = errors.New("definition: name is required")

// File is one decoded definition document.
type File struct {
	Name       string          `toml:"name"`
	Transforms []TransformSpec `toml:"transforms"`
	Attributes []AttributeSpec `toml:"attributes"`
}

// TransformSpec declares a script transform.
type TransformSpec struct {
	Name        string         `toml:"name"`
	Engine      string         `toml:"engine"`
	Serialize   string         `toml:"serialize"`
	Deserialize string         `toml:"deserialize"`
	Args        map[string]any `toml:"args"`
}

// AttributeSpec declares one attribute.
type AttributeSpec struct {
	Name     string `toml:"name"`
	Type     string `toml:"type"`
	Default  any    `toml:"default"`
	ReadOnly bool   `toml:"read_only"`
	ItemType string `toml:"item_type"`
}

// Parse decodes a definition from TOML text.
func Parse(data string) (File, error) {
	var raw File
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return File{}, fmt.Errorf("definition: decode: %w", err)
	}
	return finish(raw, meta)
}

// Load decodes the definition stored at path.
func Load(path string) (File, error) {
	var raw File
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return File{}, fmt.Errorf("definition: load %s: %w", path, err)
	}
	return finish(raw, meta)
}

func finish(raw File, meta toml.MetaData) (File, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return File{}, fmt.Errorf("definition: unknown keys %s", strings.Join(keys, ", "))
	}
	if !meta.IsDefined("name") || strings.TrimSpace(raw.Name) == "" {
		return File{}, ErrMissingName
	}

	out := File{Name: strings.TrimSpace(raw.Name)}
	for i, spec := range raw.Transforms {
		spec.Name = strings.TrimSpace(spec.Name)
		if spec.Name == "" {
			return File{}, fmt.Errorf("%w: transforms[%d]", ErrMissingName, i)
		}
		spec.Engine = strings.ToLower(strings.TrimSpace(spec.Engine))
		out.Transforms = append(out.Transforms, spec)
	}
	for i, spec := range raw.Attributes {
		spec.Name = strings.TrimSpace(spec.Name)
		if spec.Name == "" {
			return File{}, fmt.Errorf("%w: attributes[%d]", ErrMissingName, i)
		}
		spec.Type = strings.TrimSpace(spec.Type)
		spec.ItemType = strings.TrimSpace(spec.ItemType)
		spec.Default = normalizeValue(spec.Default)
		out.Attributes = append(out.Attributes, spec)
	}
	return out, nil
}

// normalizeValue folds TOML integers into float64, the number representation
// used by the number transform.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case int64:
		return float64(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeValue(item)
		}
		return out
	default:
		return value
	}
}

// AttributeDecls converts the attribute specs into declarations.
func (f File) AttributeDecls() []attrs.Attribute {
	out := make([]attrs.Attribute, 0, len(f.Attributes))
	for _, spec := range f.Attributes {
		var opts []attrs.AttributeOption
		if spec.Default != nil {
			opts = append(opts, attrs.WithDefault(spec.Default))
		}
		if spec.ReadOnly {
			opts = append(opts, attrs.ReadOnly())
		}
		if spec.ItemType != "" {
			opts = append(opts, attrs.WithItemType(spec.ItemType))
		}
		out = append(out, attrs.Attr(spec.Name, spec.Type, opts...))
	}
	return out
}
