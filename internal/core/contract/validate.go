// Package contract guards the JSON shape handed to exporters and storage.
package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/results-tracker/internal/entity"
)

var nullableMark = map[string]any{
	"type":    []any{"integer", "null"},
	"minimum": 0,
	"maximum": 200,
}

// ResultSchema describes one finalized student result.
var ResultSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []any{"header", "subjects"},
	"properties": map[string]any{
		"header": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []any{"usn", "name"},
			"properties": map[string]any{
				"usn": map[string]any{
					"type":    []any{"string", "null"},
					"pattern": `^[0-9][A-Z]{2}[0-9]{2}[A-Z]{2}[0-9]{3}$`,
				},
				"name": map[string]any{"type": []any{"string", "null"}, "minLength": 1},
			},
		},
		"subjects": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []any{"subject_code", "internal", "external", "total", "result"},
				"properties": map[string]any{
					"subject_code": map[string]any{
						"type":    "string",
						"pattern": `^[A-Z]{3,5}[0-9]{3,4}[A-Z]?$`,
					},
					"internal": nullableMark,
					"external": nullableMark,
					"total":    nullableMark,
					"result": map[string]any{
						"enum": []any{"P", "F", "A", "X", "W", nil},
					},
				},
			},
		},
	},
}

var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return compile(ResultSchema)
})

// Validate checks a Result against ResultSchema.
func Validate(r entity.Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return ValidateJSON(data)
}

// ValidateJSON checks raw JSON against ResultSchema.
func ValidateJSON(data []byte) error {
	schema, err := compiled()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("result does not match schema: %w", err)
	}
	return nil
}

func compile(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("result.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("result.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
