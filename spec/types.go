// Package spec defines the normalized entity model for ingested
// OpenAPI/Swagger documents.
//
// A spec is one ingested document identified by a caller-chosen name. Its
// stored form is a Descriptor plus five child collections; nested payloads
// (parameters, schemas, security requirements, response bodies) are carried
// as opaque documents and never re-interpreted.
package spec

import (
	"encoding/json"
	"time"
)

// Dialect constants for the version marker found in a document.
const (
	DialectOpenAPI = "openapi" // 3.x family
	DialectSwagger = "swagger" // legacy 2.x family
)

// OpaqueDoc is a tagged opaque payload: raw bytes plus a declared content
// type. Storage stays structurally typed while payload internals remain
// schema-less.
type OpaqueDoc struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// NewOpaqueDoc marshals v into an application/json opaque document.
// A nil value yields an empty document.
func NewOpaqueDoc(v any) (OpaqueDoc, error) {
	if v == nil {
		return OpaqueDoc{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return OpaqueDoc{}, err
	}
	return OpaqueDoc{ContentType: "application/json", Data: data}, nil
}

// IsEmpty reports whether the document carries no payload.
func (d OpaqueDoc) IsEmpty() bool {
	return len(d.Data) == 0
}

// JSONString returns the payload as a JSON string, substituting fallback
// when empty. Used when persisting into TEXT columns.
func (d OpaqueDoc) JSONString(fallback string) string {
	if d.IsEmpty() {
		return fallback
	}
	return string(d.Data)
}

// Descriptor is the top-level stored record for a spec. It is created on
// first successful ingest and replaced wholesale (never patched) whenever
// the content digest changes.
type Descriptor struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Version     string    `json:"version"`
	Dialect     string    `json:"dialect"`
	RawDocument []byte    `json:"raw_document"`
	Digest      string    `json:"digest"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Server is one entry of a spec's servers list.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Operation is one method+path pair of a spec. The pair is unique within a
// spec; nested bodies are opaque.
type Operation struct {
	Method      string    `json:"method"`
	Path        string    `json:"path"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Security    OpaqueDoc `json:"security"`
	Parameters  OpaqueDoc `json:"parameters"`
	Responses   OpaqueDoc `json:"responses"`
	RequestBody OpaqueDoc `json:"request_body"`
}

// Schema is one named component schema, unique by name within a spec.
type Schema struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Payload     OpaqueDoc `json:"payload"`
}

// SecurityScheme is one named security scheme, unique by name within a spec.
type SecurityScheme struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Scheme      string    `json:"scheme"`
	Description string    `json:"description"`
	Payload     OpaqueDoc `json:"payload"`
}

// Response is one named reusable response, unique by name within a spec.
type Response struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Payload     OpaqueDoc `json:"payload"`
}

// Extraction is the extractor's output: descriptor summary plus the six
// normalized collections, ready for transactional storage. Collections are
// always non-nil.
type Extraction struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Version     string `json:"version"`
	Dialect     string `json:"dialect"`
	RawDocument []byte `json:"raw_document"`
	Digest      string `json:"digest"`

	Servers         []Server         `json:"servers"`
	Operations      []Operation      `json:"operations"`
	Schemas         []Schema         `json:"schemas"`
	SecuritySchemes []SecurityScheme `json:"security_schemes"`
	Responses       []Response       `json:"responses"`
}
