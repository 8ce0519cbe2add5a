package model

import "strings"

// FieldType is the editor tag attached to a field. It selects the editor
// variant through the editor registry.
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeText     FieldType = "text"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDate     FieldType = "date"
	FieldTypePassword FieldType = "password"
	FieldTypeEnum     FieldType = "enum"
	FieldTypeAsset    FieldType = "asset"
)

// Field describes one named attribute of a content record. Slug is stable and
// doubles as the DOM control name and the record key.
type Field struct {
	Slug     string            `json:"slug" yaml:"slug"`
	Name     string            `json:"name,omitempty" yaml:"name,omitempty"`
	Type     FieldType         `json:"type" yaml:"type"`
	Model    string            `json:"model,omitempty" yaml:"model,omitempty"`
	Target   string            `json:"target,omitempty" yaml:"target,omitempty"`
	Required bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Options  []any             `json:"options,omitempty" yaml:"options,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// IDKey is the record key carrying the foreign-key identifier of a
// denormalized reference field.
func (f Field) IDKey() string {
	return f.Slug + "-id"
}

// Label returns the display name, falling back to the slug.
func (f Field) Label() string {
	if name := strings.TrimSpace(f.Name); name != "" {
		return name
	}
	return f.Slug
}

// Model describes a content table and its fields in display order.
type Model struct {
	Slug   string  `json:"slug" yaml:"slug"`
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Field looks up a field by slug.
func (m Model) Field(slug string) (Field, bool) {
	for _, field := range m.Fields {
		if field.Slug == slug {
			return field, true
		}
	}
	return Field{}, false
}
