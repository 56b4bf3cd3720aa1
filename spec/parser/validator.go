package parser

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/specdeck/specdeck/spec"
)

// ValidationResult reports structural compliance of a parsed document.
// Errors block storage only when the orchestrator is configured to skip
// invalid files; Warnings are always advisory.
type ValidationResult struct {
	Valid          bool     `json:"valid"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
	Dialect        string   `json:"dialect,omitempty"`
	DialectVersion string   `json:"dialect_version,omitempty"`
}

// Validate checks the minimal structure every stored spec relies on: a
// version marker, an info object with title and version, and path keys that
// look like paths. It never panics on malformed trees.
func Validate(doc *Document) *ValidationResult {
	result := &ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	root, ok := docRoot(doc)
	if !ok {
		result.Errors = append(result.Errors, "document root must be an object")
		return result
	}

	validateVersionMarker(root, result)
	validateInfo(root, result)
	validatePaths(root, result)

	result.Valid = len(result.Errors) == 0
	return result
}

func docRoot(doc *Document) (map[string]any, bool) {
	if doc == nil {
		return nil, false
	}
	root, ok := doc.Root.(map[string]any)
	if !ok || root == nil {
		return nil, false
	}
	return root, true
}

// validateVersionMarker requires exactly one of the `openapi` (3.x) or
// `swagger` (2.x) fields as a string, and classifies the dialect.
func validateVersionMarker(root map[string]any, result *ValidationResult) {
	openapiVal, hasOpenAPI := root[spec.DialectOpenAPI]
	swaggerVal, hasSwagger := root[spec.DialectSwagger]

	switch {
	case hasOpenAPI && hasSwagger:
		result.Errors = append(result.Errors,
			"document declares both openapi and swagger version fields; exactly one is required")
		return
	case !hasOpenAPI && !hasSwagger:
		result.Errors = append(result.Errors,
			"missing openapi (3.x) or swagger (2.x) version field")
		return
	}

	if hasOpenAPI {
		version, ok := openapiVal.(string)
		if !ok {
			result.Errors = append(result.Errors, "openapi version field must be a string")
			return
		}
		result.Dialect = spec.DialectOpenAPI
		result.DialectVersion = version
		if v, err := semver.NewVersion(version); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("openapi version %q is not a recognizable semantic version", version))
		} else if v.Major() != 3 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("openapi version %q is outside the 3.x family", version))
		}
		return
	}

	version, ok := swaggerVal.(string)
	if !ok {
		result.Errors = append(result.Errors, "swagger version field must be a string")
		return
	}
	result.Dialect = spec.DialectSwagger
	result.DialectVersion = version
	// Legacy documents are accepted but always flagged
	result.Warnings = append(result.Warnings,
		"Swagger 2.x document; consider migrating to OpenAPI 3.x")
}

func validateInfo(root map[string]any, result *ValidationResult) {
	infoVal, ok := root["info"]
	if !ok {
		result.Errors = append(result.Errors, "missing required info object")
		return
	}

	info, ok := infoVal.(map[string]any)
	if !ok {
		result.Errors = append(result.Errors, "info must be an object")
		return
	}

	if _, ok := info["title"].(string); !ok {
		result.Errors = append(result.Errors, "info.title is required and must be a string")
	}
	if _, ok := info["version"].(string); !ok {
		result.Errors = append(result.Errors, "info.version is required and must be a string")
	}
	if _, ok := info["description"].(string); !ok {
		result.Warnings = append(result.Warnings, "info.description is missing")
	}
}

func validatePaths(root map[string]any, result *ValidationResult) {
	pathsVal, ok := root["paths"]
	if !ok {
		return
	}
	paths, ok := pathsVal.(map[string]any)
	if !ok {
		return
	}
	for key := range paths {
		if !strings.HasPrefix(key, "/") {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("path %q does not start with '/'", key))
		}
	}
}
