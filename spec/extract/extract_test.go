package extract

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specdeck/specdeck/spec/parser"
)

func parseDoc(t *testing.T, content string) *parser.Document {
	t.Helper()
	doc, err := parser.Parse([]byte(content), "")
	require.NoError(t, err)
	return doc
}

const petstore = `{
	"openapi": "3.0.0",
	"info": {"title": "Petstore", "version": "1.2.3", "description": "Pets API"},
	"servers": [
		{"url": "https://api.example.com/v1", "description": "prod"},
		{"url": "https://staging.example.com"}
	],
	"paths": {
		"/pets": {
			"get": {"summary": "List pets", "parameters": [{"name": "limit", "in": "query"}], "responses": {"200": {"description": "ok"}}},
			"post": {"summary": "Create pet", "requestBody": {"content": {}}, "security": [{"api_key": []}]}
		},
		"/pets/{id}": {
			"get": {"summary": "Get pet"},
			"delete": {}
		}
	},
	"components": {
		"schemas": {
			"Pet": {"type": "object", "description": "A pet"},
			"Error": {"type": "object"}
		},
		"securitySchemes": {
			"api_key": {"type": "apiKey", "name": "key", "in": "header", "description": "API key"}
		},
		"responses": {
			"NotFound": {"description": "Entity not found"}
		}
	}
}`

func TestExtractPetstore(t *testing.T) {
	ex := Extract(parseDoc(t, petstore), "petstore")

	assert.Equal(t, "petstore", ex.Name)
	assert.Equal(t, "Petstore", ex.Title)
	assert.Equal(t, "1.2.3", ex.Version)
	assert.Equal(t, "Pets API", ex.Summary)
	assert.Equal(t, "3.0.0", ex.Dialect)

	require.Len(t, ex.Servers, 2)
	assert.Equal(t, "https://api.example.com/v1", ex.Servers[0].URL)
	assert.Equal(t, "prod", ex.Servers[0].Description)
	assert.Equal(t, "", ex.Servers[1].Description)

	require.Len(t, ex.Operations, 4)
	seen := map[string]bool{}
	for _, op := range ex.Operations {
		key := op.Method + " " + op.Path
		assert.False(t, seen[key], "duplicate operation %s", key)
		seen[key] = true
	}
	assert.True(t, seen["GET /pets"])
	assert.True(t, seen["POST /pets"])
	assert.True(t, seen["GET /pets/{id}"])
	assert.True(t, seen["DELETE /pets/{id}"])

	require.Len(t, ex.Schemas, 2)
	assert.Equal(t, "Error", ex.Schemas[0].Name)
	assert.Equal(t, "Pet", ex.Schemas[1].Name)
	assert.Equal(t, "A pet", ex.Schemas[1].Description)

	require.Len(t, ex.SecuritySchemes, 1)
	assert.Equal(t, "api_key", ex.SecuritySchemes[0].Name)
	assert.Equal(t, "apiKey", ex.SecuritySchemes[0].Type)

	require.Len(t, ex.Responses, 1)
	assert.Equal(t, "NotFound", ex.Responses[0].Name)
	assert.Equal(t, "Entity not found", ex.Responses[0].Description)
}

func TestExtractCarriesPayloadsOpaquely(t *testing.T) {
	ex := Extract(parseDoc(t, petstore), "petstore")

	for _, op := range ex.Operations {
		if op.Method == "GET" && op.Path == "/pets" {
			require.False(t, op.Parameters.IsEmpty())

			var params []map[string]any
			require.NoError(t, json.Unmarshal(op.Parameters.Data, &params))
			require.Len(t, params, 1)
			assert.Equal(t, "limit", params[0]["name"])

			var responses map[string]any
			require.NoError(t, json.Unmarshal(op.Responses.Data, &responses))
			assert.Contains(t, responses, "200")
			return
		}
	}
	t.Fatal("GET /pets not extracted")
}

func TestExtractAbsentSectionsYieldEmptyCollections(t *testing.T) {
	ex := Extract(parseDoc(t, `{"openapi":"3.0.0","info":{"title":"T","version":"1"}}`), "minimal")

	assert.NotNil(t, ex.Servers)
	assert.NotNil(t, ex.Operations)
	assert.NotNil(t, ex.Schemas)
	assert.NotNil(t, ex.SecuritySchemes)
	assert.NotNil(t, ex.Responses)
	assert.Empty(t, ex.Servers)
	assert.Empty(t, ex.Operations)
	assert.Empty(t, ex.Schemas)
	assert.Empty(t, ex.SecuritySchemes)
	assert.Empty(t, ex.Responses)
}

func TestExtractSwaggerSections(t *testing.T) {
	content := `{
		"swagger": "2.0",
		"info": {"title": "Legacy", "version": "0.9"},
		"paths": {"/things": {"get": {}}},
		"definitions": {"Thing": {"type": "object", "description": "a thing"}},
		"securityDefinitions": {"basic": {"type": "basic"}},
		"responses": {"Error": {"description": "boom"}}
	}`
	ex := Extract(parseDoc(t, content), "legacy")

	assert.Equal(t, "2.0", ex.Dialect)
	require.Len(t, ex.Operations, 1)
	require.Len(t, ex.Schemas, 1)
	assert.Equal(t, "Thing", ex.Schemas[0].Name)
	assert.Equal(t, "a thing", ex.Schemas[0].Description)
	require.Len(t, ex.SecuritySchemes, 1)
	assert.Equal(t, "basic", ex.SecuritySchemes[0].Type)
	require.Len(t, ex.Responses, 1)
}

func TestExtractIsTotalOnHostileTrees(t *testing.T) {
	cases := []string{
		`{"openapi":"3.0.0","servers":"not-a-list"}`,
		`{"openapi":"3.0.0","paths":{"/x":"not-an-object"}}`,
		`{"openapi":"3.0.0","paths":{"/x":{"get":"not-an-object"}}}`,
		`{"openapi":"3.0.0","info":"not-an-object"}`,
		`{"openapi":"3.0.0","components":{"schemas":{"S":"scalar"}}}`,
	}
	for i, content := range cases {
		ex := Extract(parseDoc(t, content), fmt.Sprintf("hostile-%d", i))
		require.NotNil(t, ex)
		assert.NotNil(t, ex.Operations)
	}

	// Malformed operation body still counts as a method+path pair
	ex := Extract(parseDoc(t, `{"openapi":"3.0.0","paths":{"/x":{"get":"not-an-object"}}}`), "h")
	require.Len(t, ex.Operations, 1)
	assert.Equal(t, "GET", ex.Operations[0].Method)
	assert.True(t, ex.Operations[0].Parameters.IsEmpty())
}

func TestExtractNilAndNonObjectRoots(t *testing.T) {
	assert.NotNil(t, Extract(nil, "none"))

	doc, err := parser.Parse([]byte(`"scalar"`), "s.json")
	require.NoError(t, err)
	ex := Extract(doc, "scalar")
	assert.Empty(t, ex.Operations)
	assert.Equal(t, "scalar", ex.Name)
}

func TestExtractRoundTripCounts(t *testing.T) {
	// N operations and M schemas survive as N and M entries
	const n, m = 7, 5
	pathsJSON := "{"
	for i := 0; i < n; i++ {
		if i > 0 {
			pathsJSON += ","
		}
		pathsJSON += fmt.Sprintf(`"/r%d":{"get":{}}`, i)
	}
	pathsJSON += "}"

	schemasJSON := "{"
	for i := 0; i < m; i++ {
		if i > 0 {
			schemasJSON += ","
		}
		schemasJSON += fmt.Sprintf(`"S%d":{"type":"object"}`, i)
	}
	schemasJSON += "}"

	content := fmt.Sprintf(`{
		"openapi":"3.0.0",
		"info":{"title":"T","version":"1"},
		"paths":%s,
		"components":{"schemas":%s}
	}`, pathsJSON, schemasJSON)

	ex := Extract(parseDoc(t, content), "roundtrip")
	assert.Len(t, ex.Operations, n)
	assert.Len(t, ex.Schemas, m)
}
