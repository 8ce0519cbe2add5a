package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-editors/pkg/model"
)

// Vendor extensions read from component schemas.
const (
	ExtensionEditor       = "x-editor"
	ExtensionAsset        = "x-asset"
	ExtensionRelationship = "x-relationship"
	ExtensionSlug         = "x-slug"
	ExtensionOrder        = "x-order"
	ExtensionWidget       = "x-widget"
)

const componentPrefix = "#/components/schemas/"

// Models builds a model descriptor for every component schema of an OpenAPI
// document. Models and fields are returned in a stable order: models by slug,
// fields by x-order then name.
func Models(ctx context.Context, data []byte) ([]model.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("schema: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	document, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("schema: load document: %w", err)
	}
	if document.Components == nil || len(document.Components.Schemas) == 0 {
		return nil, nil
	}

	slugs := make(map[string]string, len(document.Components.Schemas))
	for name, ref := range document.Components.Schemas {
		slugs[name] = slugFor(name, ref)
	}

	models := make([]model.Model, 0, len(document.Components.Schemas))
	for name, ref := range document.Components.Schemas {
		if ref == nil || ref.Value == nil {
			continue
		}
		m := model.Model{Slug: slugs[name], Name: ref.Value.Title}
		if m.Name == "" {
			m.Name = name
		}
		m.Fields = fields(m.Slug, ref.Value, slugs)
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Slug < models[j].Slug })
	return models, nil
}

// Find returns the model with slug from models.
func Find(models []model.Model, slug string) (model.Model, bool) {
	for _, m := range models {
		if m.Slug == slug {
			return m, true
		}
	}
	return model.Model{}, false
}

func fields(owner string, schema *openapi3.Schema, slugs map[string]string) []model.Field {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	type ordered struct {
		field model.Field
		order float64
	}
	var list []ordered
	for name, prop := range schema.Properties {
		if prop == nil || prop.Value == nil || prop.Value.ReadOnly {
			continue
		}
		field := model.Field{
			Slug:     name,
			Name:     prop.Value.Title,
			Model:    owner,
			Required: required[name],
		}
		field.Type, field.Target = fieldType(prop, slugs)
		if len(prop.Value.Enum) > 0 {
			field.Options = append([]any(nil), prop.Value.Enum...)
		}
		if widget, ok := prop.Value.Extensions[ExtensionWidget].(string); ok && widget != "" {
			field.Metadata = map[string]string{"widget": widget}
		}
		order, _ := prop.Value.Extensions[ExtensionOrder].(float64)
		list = append(list, ordered{field: field, order: order})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].order != list[j].order {
			return list[i].order < list[j].order
		}
		return list[i].field.Slug < list[j].field.Slug
	})

	out := make([]model.Field, 0, len(list))
	for _, entry := range list {
		out = append(out, entry.field)
	}
	return out
}

func fieldType(ref *openapi3.SchemaRef, slugs map[string]string) (model.FieldType, string) {
	value := ref.Value
	if tag, ok := value.Extensions[ExtensionEditor].(string); ok && tag != "" {
		return model.FieldType(tag), relationshipTarget(ref, slugs)
	}
	if value.Type != nil && value.Type.Is(openapi3.TypeBoolean) {
		return model.FieldTypeBoolean, ""
	}
	switch value.Format {
	case "date":
		return model.FieldTypeDate, ""
	case "password":
		return model.FieldTypePassword, ""
	case "textarea":
		return model.FieldTypeText, ""
	case "asset":
		return model.FieldTypeAsset, ""
	}
	if ref.Ref != "" {
		if isAsset(value) {
			return model.FieldTypeAsset, ""
		}
		return model.FieldTypeEnum, relationshipTarget(ref, slugs)
	}
	if _, ok := value.Extensions[ExtensionRelationship]; ok {
		return model.FieldTypeEnum, relationshipTarget(ref, slugs)
	}
	return model.FieldTypeString, ""
}

func isAsset(schema *openapi3.Schema) bool {
	if flag, ok := schema.Extensions[ExtensionAsset].(bool); ok && flag {
		return true
	}
	return schema.Format == "asset"
}

// relationshipTarget reads the target model from x-relationship (a slug or an
// object with a target key) or from the referenced component.
func relationshipTarget(ref *openapi3.SchemaRef, slugs map[string]string) string {
	switch rel := ref.Value.Extensions[ExtensionRelationship].(type) {
	case string:
		return rel
	case map[string]any:
		if target, ok := rel["target"].(string); ok {
			return target
		}
	}
	if name, ok := strings.CutPrefix(ref.Ref, componentPrefix); ok {
		if slug, ok := slugs[name]; ok {
			return slug
		}
		return strings.ToLower(name)
	}
	return ""
}

func slugFor(name string, ref *openapi3.SchemaRef) string {
	if ref != nil && ref.Value != nil {
		if slug, ok := ref.Value.Extensions[ExtensionSlug].(string); ok && slug != "" {
			return slug
		}
	}
	return strings.ToLower(name)
}
