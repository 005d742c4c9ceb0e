package ai

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects T into a JSON schema accepted by the OpenAI
// structured-output API in strict mode: inlined definitions, no additional
// properties, every declared field required.
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema, err := schemaToMap(reflector.Reflect(v))
	if err != nil {
		panic(err)
	}
	enforceStrictMode(schema)
	return schema
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	raw, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// enforceStrictMode walks the schema marking every object closed and every
// declared property required, as OpenAI strict mode demands.
func enforceStrictMode(schema map[string]any) {
	if kind, ok := schema["type"].(string); ok && kind == "object" {
		schema["additionalProperties"] = false
		if properties, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(properties))
			for name := range properties {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}
	if properties, ok := schema["properties"].(map[string]any); ok {
		for _, property := range properties {
			if child, ok := property.(map[string]any); ok {
				enforceStrictMode(child)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		enforceStrictMode(items)
	}
}
