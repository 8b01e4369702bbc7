package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// collectionSchema is the JSON Schema every stub collection document must
// satisfy. It pins the document structure (field names and types) so a typo
// like "respnse" fails the load instead of producing a stub that matches
// nothing. Value-level constraints (status ranges, header name syntax,
// version support) stay in the Validate methods.
const collectionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "mockbird stub collection",
  "type": "object",
  "required": ["version", "stubs"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "string"},
    "name": {"type": "string"},
    "stubs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["expectation", "response"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "integer"},
          "name": {"type": "string"},
          "expectation": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
              "method": {"type": "string"},
              "path": {"type": "string"},
              "pathContains": {"type": "string"},
              "pathGlob": {"type": "string"},
              "pathRegex": {"type": "string"},
              "headers": {"$ref": "#/$defs/stringMap"},
              "headerRegexes": {"$ref": "#/$defs/stringMap"},
              "headerExists": {"$ref": "#/$defs/stringList"},
              "query": {"$ref": "#/$defs/stringMap"},
              "queryRegexes": {"$ref": "#/$defs/stringMap"},
              "queryExists": {"$ref": "#/$defs/stringList"},
              "cookies": {"$ref": "#/$defs/stringMap"},
              "cookieRegexes": {"$ref": "#/$defs/stringMap"},
              "body": {"type": "string"},
              "bodyContains": {"type": "string"},
              "bodyRegex": {"type": "string"},
              "jsonBody": {},
              "jsonPartial": {},
              "jsonPath": {
                "type": "array",
                "items": {
                  "type": "object",
                  "required": ["expr"],
                  "additionalProperties": false,
                  "properties": {
                    "expr": {"type": "string"},
                    "exists": {"type": "boolean"},
                    "equals": {}
                  }
                }
              },
              "xmlBody": {"type": "string"},
              "form": {"$ref": "#/$defs/stringMap"},
              "multipart": {
                "type": "array",
                "items": {
                  "type": "object",
                  "required": ["name"],
                  "additionalProperties": false,
                  "properties": {
                    "name": {"type": "string"},
                    "contains": {"type": "string"}
                  }
                }
              },
              "expr": {"type": "string"},
              "limit": {"type": "integer"}
            }
          },
          "response": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
              "status": {"type": "integer"},
              "headers": {"$ref": "#/$defs/stringMap"},
              "body": {},
              "delayMs": {"type": "integer"}
            }
          }
        }
      }
    }
  },
  "$defs": {
    "stringMap": {"type": "object", "additionalProperties": {"type": "string"}},
    "stringList": {"type": "array", "items": {"type": "string"}}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaCompile  error
)

// collectionValidator compiles the embedded schema on first use.
func collectionValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("collection.schema.json", strings.NewReader(collectionSchema)); err != nil {
			schemaCompile = fmt.Errorf("loading embedded schema: %w", err)
			return
		}
		compiledSchema, schemaCompile = compiler.Compile("collection.schema.json")
	})
	return compiledSchema, schemaCompile
}

// validateCollectionDocument checks a generically-decoded document against
// the embedded schema. The document must carry JSON types (map[string]any,
// []any, float64); YAML input is roundtripped by the caller first.
func validateCollectionDocument(doc any) error {
	schema, err := collectionValidator()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			field, message := flattenSchemaError(ve)
			return &ValidationError{Field: field, Message: message}
		}
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// flattenSchemaError digs to the innermost cause, which carries the most
// specific location and message.
func flattenSchemaError(err *jsonschema.ValidationError) (field, message string) {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	return fieldFromPointer(err.InstanceLocation), err.Message
}

// fieldFromPointer converts a JSON Pointer ("/stubs/0/response") to dot
// notation ("stubs.0.response") for error messages.
func fieldFromPointer(pointer string) string {
	if pointer == "" || pointer == "/" {
		return "document"
	}
	pointer = strings.TrimPrefix(pointer, "/")
	return strings.ReplaceAll(pointer, "/", ".")
}
