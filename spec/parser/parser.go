// Package parser turns raw OpenAPI/Swagger text into a generic document tree
// and checks its minimal structure.
//
// Parsing is format-tolerant: the origin hint picks the first format to try
// and the other is attempted on failure, so a misnamed file still loads. Only
// when every attempt fails is a combined error reported.
package parser

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/specdeck/specdeck/errors"
)

// Format identifies the serialization a document was decoded from.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is a decoded document tree. Root is typically a
// map[string]any; non-object roots are accepted here and rejected by
// Validate.
type Document struct {
	Root   any
	Format Format
}

type attempt struct {
	format Format
	decode func([]byte, *any) error
}

func decodeJSON(content []byte, out *any) error {
	return json.Unmarshal(content, out)
}

func decodeYAML(content []byte, out *any) error {
	return yaml.Unmarshal(content, out)
}

// Parse decodes content into a document tree. originHint (a filename, URL,
// or empty) only influences which format is attempted first: a .json hint
// tries JSON before YAML, anything else tries YAML first since JSON is a
// YAML subset in practice but not the other way round.
func Parse(content []byte, originHint string) (*Document, error) {
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil, errors.Mark(errors.New("document is empty"), errors.ErrParse)
	}

	attempts := []attempt{
		{FormatYAML, decodeYAML},
		{FormatJSON, decodeJSON},
	}
	if hintsJSON(originHint) {
		attempts = []attempt{
			{FormatJSON, decodeJSON},
			{FormatYAML, decodeYAML},
		}
	}

	var failures []string
	for _, a := range attempts {
		var root any
		if err := a.decode(content, &root); err != nil {
			failures = append(failures, string(a.format)+": "+err.Error())
			continue
		}
		return &Document{Root: root, Format: a.format}, nil
	}

	// Both formats failed; name both reasons so an ambiguous document does
	// not produce a misleading single-format error
	return nil, errors.Mark(
		errors.Newf("document not parsable (%s)", strings.Join(failures, "; ")),
		errors.ErrParse,
	)
}

// hintsJSON reports whether the origin hint points at a JSON document.
func hintsJSON(originHint string) bool {
	if originHint == "" {
		return false
	}
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(originHint, "/")))
	// URLs may carry query strings after the extension
	if idx := strings.IndexAny(ext, "?#"); idx >= 0 {
		ext = ext[:idx]
	}
	return ext == ".json"
}
