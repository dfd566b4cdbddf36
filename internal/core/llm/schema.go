package llm

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"
)

const (
	propertiesKey           = "properties"
	additionalPropertiesKey = "additionalProperties"
	typeKey                 = "type"
	requiredKey             = "required"
	itemsKey                = "items"
	schemaMetaKey           = "$schema"
	schemaIDKey             = "$id"
	schemaTypeObject        = "object"
)

// GenerateSchema reflects T into a strict JSON schema accepted by structured
// output endpoints. Every property is required and no extra properties are
// allowed.
func GenerateSchema[T any]() (map[string]interface{}, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}

	var v T

	schemaObj, err := schemaToMap(reflector.Reflect(v))
	if err != nil {
		return nil, err
	}

	delete(schemaObj, schemaMetaKey)
	delete(schemaObj, schemaIDKey)
	ensureStrictCompliance(schemaObj)

	return schemaObj, nil
}

// MustSchema builds a named Schema for T and panics on reflection failure.
// It is meant for package-level schema variables.
func MustSchema[T any](name string) *Schema {
	def, err := GenerateSchema[T]()
	if err != nil {
		panic(fmt.Sprintf("llm: schema %s: %v", name, err))
	}

	return &Schema{Name: name, Definition: def}
}

func schemaToMap(schema *jsonschema.Schema) (map[string]interface{}, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf(errFmtMarshalSchema, err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf(errFmtMarshalSchema, err)
	}

	return m, nil
}

// ensureStrictCompliance walks the schema and marks every object closed with
// all of its properties required, in sorted order.
func ensureStrictCompliance(schema map[string]interface{}) {
	if schemaType, ok := schema[typeKey].(string); ok && schemaType == schemaTypeObject {
		schema[additionalPropertiesKey] = false

		if properties, ok := schema[propertiesKey].(map[string]interface{}); ok {
			requiredFields := make([]string, 0, len(properties))
			for propName := range properties {
				requiredFields = append(requiredFields, propName)
			}

			sort.Strings(requiredFields)

			if len(requiredFields) > 0 {
				schema[requiredKey] = requiredFields
			}
		}
	}

	if properties, ok := schema[propertiesKey].(map[string]interface{}); ok {
		for _, prop := range properties {
			if propMap, ok := prop.(map[string]interface{}); ok {
				ensureStrictCompliance(propMap)
			}
		}
	}

	if items, ok := schema[itemsKey].(map[string]interface{}); ok {
		ensureStrictCompliance(items)
	}

	if additionalProps, ok := schema[additionalPropertiesKey].(map[string]interface{}); ok {
		ensureStrictCompliance(additionalProps)
	}
}
