package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"minimarket/domain"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Format is a catalog file encoding
type Format string

const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
)

// FormatFromPath picks a format from a file extension. Unknown extensions are
// treated as JSON, which also accepts NDJSON input.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	default:
		return FormatJSON
	}
}

// Decode parses a catalog document and checks it against the catalog schema.
// Any structural problem rejects the whole document with a MalformedCatalogError.
func Decode(data []byte, format Format) ([]domain.Product, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, domain.NewMalformedCatalogError(-1, "empty document")
	}

	var (
		doc any
		err error
	)
	switch format {
	case FormatYAML:
		doc, err = decodeYAML(data)
	case FormatNDJSON:
		doc, err = decodeLines(data)
	case FormatJSON, "":
		// a JSON file that is not an array is read as NDJSON
		if data[0] == '[' {
			doc, err = decodeJSON(data)
		} else {
			doc, err = decodeLines(data)
		}
	default:
		return nil, fmt.Errorf("unknown catalog format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	sch, err := schema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			index, reason := violation(ve)
			return nil, domain.NewMalformedCatalogError(index, reason)
		}
		return nil, domain.NewMalformedCatalogError(-1, err.Error())
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := json.Unmarshal(normalized, &products); err != nil {
		return nil, domain.NewMalformedCatalogError(-1, err.Error())
	}
	if err := check(products); err != nil {
		return nil, err
	}
	for i := range products {
		products[i] = products[i].WithDefaults()
	}
	return products, nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, domain.NewMalformedCatalogError(-1, err.Error())
	}
	if dec.More() {
		return nil, domain.NewMalformedCatalogError(-1, "trailing data after catalog array")
	}
	return doc, nil
}

func decodeLines(data []byte) (any, error) {
	items := make([]any, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var item any
		if err := dec.Decode(&item); err != nil {
			return nil, domain.NewMalformedCatalogError(len(items), err.Error())
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// decodeYAML round-trips through JSON so the schema sees the same value types
// for every input format.
func decodeYAML(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, domain.NewMalformedCatalogError(-1, err.Error())
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, domain.NewMalformedCatalogError(-1, err.Error())
	}
	return decodeJSON(b)
}

// check is the typed pass after the schema: domain rules and unique ids.
func check(products []domain.Product) error {
	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		if err := domain.ValidateProduct(p.WithDefaults()); err != nil {
			return domain.NewMalformedCatalogError(i, err.Error())
		}
		if _, dup := seen[p.ID]; dup {
			return domain.NewMalformedCatalogError(i, fmt.Sprintf("duplicate id %q", p.ID))
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// Encode writes products in the given format.
func Encode(products []domain.Product, format Format) ([]byte, error) {
	if products == nil {
		products = []domain.Product{}
	}
	switch format {
	case FormatJSON, "":
		return json.MarshalIndent(products, "", "  ")
	case FormatNDJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, p := range products {
			if err := enc.Encode(p); err != nil {
				return nil, err
			}
		}
		return buf.Bytes(), nil
	case FormatYAML:
		b, err := json.Marshal(products)
		if err != nil {
			return nil, err
		}
		doc, err := decodeJSON(b)
		if err != nil {
			return nil, err
		}
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unknown catalog format: %s", format)
	}
}
