package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://minimarket.local/schemas/catalog.schema.json"

const catalogSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name", "category", "price"],
    "properties": {
      "id":          {"type": "string", "minLength": 1},
      "name":        {"type": "string", "minLength": 1},
      "category":    {"enum": ["fruits", "vegetables"]},
      "price":       {"type": "number", "minimum": 0},
      "image":       {"type": "string"},
      "description": {"type": "string"},
      "stock":       {"type": "integer", "minimum": 0},
      "unit":        {"type": "string"}
    }
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(catalogSchema)); err != nil {
			compileErr = fmt.Errorf("catalog schema load failed: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("catalog schema compile failed: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// violation reduces a schema validation error to the first offending product
// index (-1 when the document itself is wrong) and a readable reason.
func violation(ve *jsonschema.ValidationError) (int, string) {
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	parts := strings.Split(strings.TrimPrefix(leaf.InstanceLocation, "/"), "/")
	index := -1
	if len(parts) > 0 && parts[0] != "" {
		if n, err := strconv.Atoi(parts[0]); err == nil {
			index = n
		}
	}

	reason := leaf.Message
	if len(parts) > 1 {
		reason = parts[1] + ": " + reason
	}
	return index, reason
}
