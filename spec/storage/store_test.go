package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/specdeck/specdeck/errors"
	qtesting "github.com/specdeck/specdeck/internal/testing"
	"github.com/specdeck/specdeck/spec"
	"github.com/specdeck/specdeck/spec/digest"
)

func testStore(t *testing.T) *SpecStore {
	t.Helper()
	return NewSpecStore(qtesting.CreateTestDB(t), zap.NewNop().Sugar())
}

func testExtraction(name, content string) *spec.Extraction {
	raw := []byte(content)
	return &spec.Extraction{
		Name:        name,
		Title:       "Petstore",
		Summary:     "Pets API",
		Version:     "1.2.3",
		Dialect:     "3.0.0",
		RawDocument: raw,
		Digest:      digest.Sum(raw),
		Servers: []spec.Server{
			{URL: "https://api.example.com/v1", Description: "prod"},
		},
		Operations: []spec.Operation{
			{Method: "GET", Path: "/pets", Summary: "List pets"},
			{Method: "POST", Path: "/pets"},
		},
		Schemas: []spec.Schema{
			{Name: "Pet", Description: "A pet", Payload: mustOpaque(map[string]any{"type": "object"})},
		},
		SecuritySchemes: []spec.SecurityScheme{
			{Name: "api_key", Type: "apiKey"},
		},
		Responses: []spec.Response{
			{Name: "NotFound", Description: "Entity not found"},
		},
	}
}

func mustOpaque(v any) spec.OpaqueDoc {
	doc, err := spec.NewOpaqueDoc(v)
	if err != nil {
		panic(err)
	}
	return doc
}

func TestStoreCreatesSpecWithChildren(t *testing.T) {
	s := testStore(t)

	result, err := s.Store(testExtraction("petstore", `{"openapi":"3.0.0"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, result.SpecID)
	assert.False(t, result.Skipped)
	assert.False(t, result.Replaced)
	assert.Empty(t, result.Failures)
	assert.Equal(t, ChildCounts{Servers: 1, Operations: 2, Schemas: 1, SecuritySchemes: 1, Responses: 1}, result.Inserted)

	d, err := s.GetDescriptor("petstore")
	require.NoError(t, err)
	assert.Equal(t, result.SpecID, d.ID)
	assert.Equal(t, "Petstore", d.Title)
	assert.Equal(t, "3.0.0", d.Dialect)
	assert.Equal(t, []byte(`{"openapi":"3.0.0"}`), d.RawDocument)
	assert.Equal(t, digest.Sum([]byte(`{"openapi":"3.0.0"}`)), d.Digest)
	assert.False(t, d.CreatedAt.IsZero())
}

func TestStoreSkipsUnchangedDigest(t *testing.T) {
	s := testStore(t)

	first, err := s.Store(testExtraction("petstore", `{"openapi":"3.0.0"}`))
	require.NoError(t, err)

	second, err := s.Store(testExtraction("petstore", `{"openapi":"3.0.0"}`))
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, first.SpecID, second.SpecID)
	assert.Zero(t, second.Inserted.Total())

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Specs)
	assert.Equal(t, 2, stats.Operations)
}

func TestStoreReplacesOnChangedContent(t *testing.T) {
	s := testStore(t)

	first, err := s.Store(testExtraction("petstore", `{"openapi":"3.0.0","info":{"version":"1"}}`))
	require.NoError(t, err)

	changed := testExtraction("petstore", `{"openapi":"3.0.0","info":{"version":"2"}}`)
	changed.Operations = []spec.Operation{{Method: "GET", Path: "/pets"}}

	second, err := s.Store(changed)
	require.NoError(t, err)
	assert.False(t, second.Skipped)
	assert.True(t, second.Replaced)
	assert.NotEqual(t, first.SpecID, second.SpecID)

	// Old children are gone with the old descriptor
	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Specs)
	assert.Equal(t, 1, stats.Operations)

	orphans, err := s.GetOperations(first.SpecID)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestStorePreservesCreatedAtAcrossReplace(t *testing.T) {
	s := testStore(t)

	_, err := s.Store(testExtraction("petstore", `v1`))
	require.NoError(t, err)
	before, err := s.GetDescriptor("petstore")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = s.Store(testExtraction("petstore", `v2`))
	require.NoError(t, err)
	after, err := s.GetDescriptor("petstore")
	require.NoError(t, err)

	assert.Equal(t, before.CreatedAt.Unix(), after.CreatedAt.Unix())
	assert.True(t, !after.UpdatedAt.Before(before.UpdatedAt))
}

func TestStoreDuplicateChildIsRecordedNotFatal(t *testing.T) {
	s := testStore(t)

	ex := testExtraction("petstore", `{"openapi":"3.0.0"}`)
	ex.Servers = append(ex.Servers, ex.Servers[0]) // violates UNIQUE(spec_id, url)

	result, err := s.Store(ex)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted.Servers)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "server", result.Failures[0].Kind)
	assert.True(t, errors.Is(result.Failures[0].Err, errors.ErrStorage))

	// Descriptor and the surviving children are intact
	_, err = s.GetDescriptor("petstore")
	assert.NoError(t, err)
}

func TestNewSpecStoreToleratesNilLogger(t *testing.T) {
	s := NewSpecStore(qtesting.CreateTestDB(t), nil)

	result, err := s.Store(testExtraction("petstore", `{"openapi":"3.0.0"}`))
	require.NoError(t, err)
	assert.False(t, result.Skipped)
}

func TestStoreValidation(t *testing.T) {
	s := testStore(t)

	_, err := s.Store(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStorage))

	_, err = s.Store(&spec.Extraction{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestDelete(t *testing.T) {
	s := testStore(t)

	_, err := s.Store(testExtraction("petstore", `{"openapi":"3.0.0"}`))
	require.NoError(t, err)

	removed, err := s.Delete("petstore")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = s.GetDescriptor("petstore")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Specs)
	assert.Zero(t, stats.Operations)

	removed, err = s.Delete("petstore")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestReadAccessorsRoundTrip(t *testing.T) {
	s := testStore(t)

	result, err := s.Store(testExtraction("petstore", `{"openapi":"3.0.0"}`))
	require.NoError(t, err)

	servers, err := s.GetServers(result.SpecID)
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "https://api.example.com/v1", servers[0].URL)

	operations, err := s.GetOperations(result.SpecID)
	require.NoError(t, err)
	require.Len(t, operations, 2)
	assert.Equal(t, "GET", operations[0].Method)
	assert.Equal(t, "POST", operations[1].Method)
	assert.Equal(t, "[]", operations[0].Parameters.JSONString(""))

	schemas, err := s.GetSchemas(result.SpecID)
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	assert.Equal(t, "Pet", schemas[0].Name)
	assert.JSONEq(t, `{"type":"object"}`, string(schemas[0].Payload.Data))

	schemes, err := s.GetSecuritySchemes(result.SpecID)
	require.NoError(t, err)
	require.Len(t, schemes, 1)
	assert.Equal(t, "apiKey", schemes[0].Type)

	responses, err := s.GetResponses(result.SpecID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "NotFound", responses[0].Name)

	all, err := s.ListDescriptors()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "petstore", all[0].Name)
}
