package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/doctext/internal/common"
)

var locationSchema = map[string]any{
	"type":     "object",
	"required": []string{"Bucket", "Key"},
	"properties": map[string]any{
		"Bucket": map[string]any{"type": "string", "minLength": 1},
		"Key":    map[string]any{"type": "string", "minLength": 1},
	},
}

var (
	startSchema = mustCompile("start-document-text-detection.json", map[string]any{
		"type":     "object",
		"required": []string{"DocumentLocation"},
		"properties": map[string]any{
			"DocumentLocation": map[string]any{
				"type":     "object",
				"required": []string{"S3Object"},
				"properties": map[string]any{
					"S3Object": map[string]any{
						"type":     "object",
						"required": []string{"Bucket", "Name"},
						"properties": map[string]any{
							"Bucket": map[string]any{"type": "string", "minLength": 1},
							"Name":   map[string]any{"type": "string", "minLength": 1},
						},
					},
				},
			},
		},
	})

	getSchema = mustCompile("get-document-text-detection.json", map[string]any{
		"type":     "object",
		"required": []string{"JobId"},
		"properties": map[string]any{
			"JobId":      map[string]any{"type": "string", "minLength": 1},
			"MaxResults": map[string]any{"type": "integer", "minimum": 1, "maximum": 1000},
			"NextToken":  map[string]any{"type": "string"},
		},
	})

	objectSchema = mustCompile("object.json", locationSchema)

	copySchema = mustCompile("copy-object.json", map[string]any{
		"type":     "object",
		"required": []string{"CopySource", "Bucket", "Key"},
		"properties": map[string]any{
			"CopySource": map[string]any{"type": "string", "minLength": 3},
			"Bucket":     map[string]any{"type": "string", "minLength": 1},
			"Key":        map[string]any{"type": "string", "minLength": 1},
		},
	})
)

func mustCompile(name string, schemaMap map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal schema %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// decode validates data against schema and then unmarshals it into dst.
func decode(schema *jsonschema.Schema, data []byte, dst any) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return common.BadRequestf("request body is not valid JSON: %v", err)
	}
	if err := validateValue(schema, v); err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return common.BadRequestf("request body does not match the expected shape: %v", err)
	}
	return nil
}

func validateValue(schema *jsonschema.Schema, v any) error {
	if err := schema.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return common.BadRequestf("invalid request: %s", leafMessage(ve))
		}
		return common.BadRequestf("invalid request: %v", err)
	}
	return nil
}

// leafMessage reports the first concrete failure, e.g. "/JobId: length must be >= 1".
func leafMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}
