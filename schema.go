package attrs

import "fmt"

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors is a flat list of FieldDescriptor.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI is an OpenAPI document with JSON schema components.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument pairs a generated document with its format. Document must
// be JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
}

// SchemaGenerator describes a record type. Implementations must be safe for
// concurrent use and return an empty document for a nil type.
type SchemaGenerator interface {
	Generate(t *Type) (SchemaDocument, error)
}

// FieldDescriptor describes one declared attribute.
type FieldDescriptor struct {
	Path     string `json:"path"`
	Type     string `json:"type"`
	ItemType string `json:"item_type,omitempty"`
	ReadOnly bool   `json:"read_only,omitempty"`
	Default  any    `json:"default,omitempty"`
	Flag     string `json:"flag"`
}

// DefaultSchemaGenerator returns the descriptor-based generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(t *Type) (SchemaDocument, error) {
	descriptors := []FieldDescriptor{}
	if t != nil {
		for _, attr := range t.attrs {
			descriptors = append(descriptors, FieldDescriptor{
				Path:     attr.Name,
				Type:     attr.Type,
				ItemType: attr.Options.ItemType,
				ReadOnly: attr.Options.ReadOnly,
				Default:  attr.Options.Default,
				Flag:     t.flagName(attr.Name),
			})
		}
	}
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: descriptors,
	}, nil
}

// Schema describes the type with the generator set by WithSchemaGenerator,
// or DefaultSchemaGenerator.
func (t *Type) Schema() (SchemaDocument, error) {
	generator := t.cfg.schemaGenerator
	if generator == nil {
		generator = DefaultSchemaGenerator()
	}
	doc, err := generator.Generate(t)
	if err != nil {
		return SchemaDocument{}, fmt.Errorf("attrs: schema for type %q: %w", t.name, err)
	}
	return doc, nil
}
