// Package ingest composes loading, parsing, validation, extraction, and
// storage into the three ingestion entry points: file, URL, and directory.
//
// Expected failures (missing file, malformed document, unreachable URL) are
// part of the normal result contract and come back inside a Result, never as
// a panic.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/specdeck/specdeck/errors"
	"github.com/specdeck/specdeck/spec/digest"
	"github.com/specdeck/specdeck/spec/extract"
	"github.com/specdeck/specdeck/spec/loader"
	"github.com/specdeck/specdeck/spec/parser"
	"github.com/specdeck/specdeck/spec/storage"
)

// Options configures ingestion behavior.
type Options struct {
	// EnableValidation runs the structural validator and surfaces its result
	EnableValidation bool
	// SkipInvalidFiles aborts storage for a file that failed validation
	// instead of proceeding with a warning
	SkipInvalidFiles bool
	// EnableLogging emits progress and failure narration
	EnableLogging bool
}

// DefaultOptions validates, stores invalid documents with a warning, and
// narrates progress.
func DefaultOptions() Options {
	return Options{
		EnableValidation: true,
		SkipInvalidFiles: false,
		EnableLogging:    true,
	}
}

// Result is the outcome of ingesting one source.
type Result struct {
	Success    bool
	Name       string
	Source     string
	Message    string
	Validation *parser.ValidationResult
	Storage    *storage.StoreResult
	Err        error
}

// Ingestor drives the ingestion pipeline.
type Ingestor struct {
	loader  *loader.Loader
	store   *storage.SpecStore
	options Options
	logger  *zap.SugaredLogger
}

// New creates an ingestor over a loader and a store.
func New(ld *loader.Loader, store *storage.SpecStore, options Options, logger *zap.SugaredLogger) *Ingestor {
	return &Ingestor{
		loader:  ld,
		store:   store,
		options: options,
		logger:  logger,
	}
}

// IngestFile loads and ingests one spec file.
func (i *Ingestor) IngestFile(ctx context.Context, path string) *Result {
	started := time.Now()

	loaded, err := i.loader.LoadFile(ctx, path)
	if err != nil {
		return i.failure("ingest-file", path, "", started, err)
	}
	return i.ingestContent(loaded, "ingest-file", started)
}

// IngestURL fetches and ingests one spec URL.
func (i *Ingestor) IngestURL(ctx context.Context, rawURL string) *Result {
	started := time.Now()

	loaded, err := i.loader.LoadURL(ctx, rawURL)
	if err != nil {
		return i.failure("ingest-url", rawURL, "", started, err)
	}
	return i.ingestContent(loaded, "ingest-url", started)
}

// IngestDirectory ingests every supported file among dir's immediate
// entries, continuing past per-file failures. The returned error is non-nil
// only when the directory itself is unreadable.
func (i *Ingestor) IngestDirectory(ctx context.Context, dir string) ([]*Result, error) {
	started := time.Now()

	sources, err := i.loader.LoadDirectory(ctx, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "ingest-directory %s failed after %s", dir, time.Since(started).Round(time.Millisecond))
	}

	results := make([]*Result, 0, len(sources))
	for _, source := range sources {
		if source.Err != nil {
			results = append(results, i.failure("ingest-file", source.Origin, "", started, source.Err))
			continue
		}
		results = append(results, i.ingestContent(source.Loaded, "ingest-file", time.Now()))
	}

	if i.options.EnableLogging {
		var succeeded int
		for _, result := range results {
			if result.Success {
				succeeded++
			}
		}
		i.logger.Infow("Directory ingestion finished",
			"dir", dir,
			"total", len(results),
			"succeeded", succeeded,
			"elapsed", time.Since(started).Round(time.Millisecond))
	}

	return results, nil
}

// ingestContent runs the parse→validate→extract→store pipeline over loaded
// content.
func (i *Ingestor) ingestContent(loaded *loader.Loaded, operation string, started time.Time) *Result {
	result := &Result{
		Name:   loaded.Name,
		Source: loaded.Origin,
	}

	doc, err := parser.Parse(loaded.Content, loaded.Origin)
	if err != nil {
		return i.failure(operation, loaded.Origin, loaded.Name, started, err)
	}

	if i.options.EnableValidation {
		result.Validation = parser.Validate(doc)
		if !result.Validation.Valid {
			if i.options.SkipInvalidFiles {
				result.Message = validationMessage(result.Validation)
				result.Err = errors.Mark(errors.New(result.Message), errors.ErrValidation)
				if i.options.EnableLogging {
					i.logger.Warnw("Skipping invalid spec",
						"name", loaded.Name,
						"source", loaded.Origin,
						"errors", result.Validation.Errors)
				}
				return result
			}
			if i.options.EnableLogging {
				i.logger.Warnw("Storing spec despite validation errors",
					"name", loaded.Name,
					"source", loaded.Origin,
					"errors", result.Validation.Errors)
			}
		}
	}

	ex := extract.Extract(doc, loaded.Name)
	ex.Digest = digest.Sum(loaded.Content)
	ex.RawDocument = canonicalJSON(doc, loaded.Content)

	stored, err := i.store.Store(ex)
	if err != nil {
		return i.failure(operation, loaded.Origin, loaded.Name, started, err)
	}

	result.Success = true
	result.Storage = stored
	if stored.Skipped {
		result.Message = fmt.Sprintf("%s unchanged (digest %s)", loaded.Name, digest.Short(ex.Digest))
	} else {
		result.Message = stored.String()
	}

	if i.options.EnableLogging {
		i.logger.Infow("Ingested spec",
			"name", loaded.Name,
			"source", loaded.Origin,
			"skipped", stored.Skipped,
			"elapsed", time.Since(started).Round(time.Millisecond))
	}

	return result
}

// failure wraps an error with operation, source, and elapsed time.
func (i *Ingestor) failure(operation, source, name string, started time.Time, err error) *Result {
	wrapped := errors.Wrapf(err, "%s %s failed after %s", operation, source, time.Since(started).Round(time.Millisecond))

	if i.options.EnableLogging {
		i.logger.Errorw("Ingestion failed",
			"operation", operation,
			"source", source,
			"error", err)
	}

	return &Result{
		Name:    name,
		Source:  source,
		Message: err.Error(),
		Err:     wrapped,
	}
}

// canonicalJSON renders the parsed tree as normalized JSON; if the tree
// cannot be re-marshaled the original bytes are kept.
func canonicalJSON(doc *parser.Document, original []byte) []byte {
	data, err := json.Marshal(doc.Root)
	if err != nil {
		return original
	}
	return data
}

func validationMessage(v *parser.ValidationResult) string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", v.Errors[0])
}
