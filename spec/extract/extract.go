// Package extract projects a parsed document tree into the normalized
// entity collections of the spec model.
//
// Extraction is a total, pure structural projection: absent sections yield
// empty collections, absent fields default to empty strings, and nested
// payloads are carried through as opaque documents without re-validation.
package extract

import (
	"sort"
	"strings"

	"github.com/specdeck/specdeck/spec"
	"github.com/specdeck/specdeck/spec/parser"
)

// httpMethods are the path-item keys treated as operations.
var httpMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// Extract projects doc into the six entity collections under the
// caller-supplied spec name. The descriptor's raw document and digest are
// filled in by the caller, which owns the original bytes.
func Extract(doc *parser.Document, name string) *spec.Extraction {
	ex := &spec.Extraction{
		Name:            name,
		Servers:         []spec.Server{},
		Operations:      []spec.Operation{},
		Schemas:         []spec.Schema{},
		SecuritySchemes: []spec.SecurityScheme{},
		Responses:       []spec.Response{},
	}

	root := objectRoot(doc)
	if root == nil {
		return ex
	}

	extractDescriptor(root, ex)
	extractServers(root, ex)
	extractOperations(root, ex)
	extractSchemas(root, ex)
	extractSecuritySchemes(root, ex)
	extractResponses(root, ex)

	return ex
}

func objectRoot(doc *parser.Document) map[string]any {
	if doc == nil {
		return nil
	}
	root, _ := doc.Root.(map[string]any)
	return root
}

func extractDescriptor(root map[string]any, ex *spec.Extraction) {
	if v := stringField(root, spec.DialectOpenAPI); v != "" {
		ex.Dialect = v
	} else if v := stringField(root, spec.DialectSwagger); v != "" {
		ex.Dialect = v
	}

	info := objectField(root, "info")
	ex.Title = stringField(info, "title")
	ex.Version = stringField(info, "version")
	ex.Summary = stringField(info, "summary")
	if ex.Summary == "" {
		ex.Summary = stringField(info, "description")
	}
}

func extractServers(root map[string]any, ex *spec.Extraction) {
	servers, _ := root["servers"].([]any)
	for _, entry := range servers {
		server, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		ex.Servers = append(ex.Servers, spec.Server{
			URL:         stringField(server, "url"),
			Description: stringField(server, "description"),
		})
	}
}

func extractOperations(root map[string]any, ex *spec.Extraction) {
	paths := objectField(root, "paths")

	// Deterministic order keeps stored tallies and test output stable
	pathKeys := sortedKeys(paths)
	for _, path := range pathKeys {
		item, ok := paths[path].(map[string]any)
		if !ok {
			continue
		}
		for _, method := range httpMethods {
			opVal, ok := item[method]
			if !ok {
				continue
			}
			op, ok := opVal.(map[string]any)
			if !ok {
				// A present but malformed operation still counts as the
				// method+path pair; payloads stay empty
				op = map[string]any{}
			}
			ex.Operations = append(ex.Operations, spec.Operation{
				Method:      strings.ToUpper(method),
				Path:        path,
				Summary:     stringField(op, "summary"),
				Description: stringField(op, "description"),
				Security:    opaque(op["security"]),
				Parameters:  opaque(op["parameters"]),
				Responses:   opaque(op["responses"]),
				RequestBody: opaque(op["requestBody"]),
			})
		}
	}
}

func extractSchemas(root map[string]any, ex *spec.Extraction) {
	schemas := objectField(objectField(root, "components"), "schemas")
	if len(schemas) == 0 {
		// Legacy 2.x keeps schemas under definitions
		schemas = objectField(root, "definitions")
	}

	for _, name := range sortedKeys(schemas) {
		body, _ := schemas[name].(map[string]any)
		ex.Schemas = append(ex.Schemas, spec.Schema{
			Name:        name,
			Description: stringField(body, "description"),
			Payload:     opaque(schemas[name]),
		})
	}
}

func extractSecuritySchemes(root map[string]any, ex *spec.Extraction) {
	schemes := objectField(objectField(root, "components"), "securitySchemes")
	if len(schemes) == 0 {
		schemes = objectField(root, "securityDefinitions")
	}

	for _, name := range sortedKeys(schemes) {
		body, _ := schemes[name].(map[string]any)
		ex.SecuritySchemes = append(ex.SecuritySchemes, spec.SecurityScheme{
			Name:        name,
			Type:        stringField(body, "type"),
			Scheme:      stringField(body, "scheme"),
			Description: stringField(body, "description"),
			Payload:     opaque(schemes[name]),
		})
	}
}

func extractResponses(root map[string]any, ex *spec.Extraction) {
	responses := objectField(objectField(root, "components"), "responses")
	if len(responses) == 0 {
		responses = objectField(root, "responses")
	}

	for _, name := range sortedKeys(responses) {
		body, _ := responses[name].(map[string]any)
		ex.Responses = append(ex.Responses, spec.Response{
			Name:        name,
			Description: stringField(body, "description"),
			Payload:     opaque(responses[name]),
		})
	}
}

// stringField returns obj[key] as a string, or empty.
func stringField(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	s, _ := obj[key].(string)
	return s
}

// objectField returns obj[key] as an object, or nil.
func objectField(obj map[string]any, key string) map[string]any {
	if obj == nil {
		return nil
	}
	inner, _ := obj[key].(map[string]any)
	return inner
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// opaque wraps a nested payload without re-shaping it. Extraction stays
// total: a payload that cannot be re-serialized becomes an empty document.
func opaque(v any) spec.OpaqueDoc {
	if v == nil {
		return spec.OpaqueDoc{}
	}
	doc, err := spec.NewOpaqueDoc(v)
	if err != nil {
		return spec.OpaqueDoc{}
	}
	return doc
}
