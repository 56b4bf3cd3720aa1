// Package loader normalizes file, URL, and directory sources into
// {content, name, origin} triples for ingestion.
//
// Every load returns a result instead of failing the caller: one bad file in
// a directory never aborts the scan, and loads for different sources are
// independent and safe to run concurrently.
package loader

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/specdeck/specdeck/errors"
	"github.com/specdeck/specdeck/internal/httpclient"
	"github.com/specdeck/specdeck/internal/util"
)

// DefaultURLTimeout bounds a URL fetch, cancelling the in-flight request.
const DefaultURLTimeout = 30 * time.Second

// supportedExtensions lists the file extensions treated as spec documents.
var supportedExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// IsSupportedFile reports whether path has a supported spec extension.
func IsSupportedFile(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Loaded is one successfully loaded source.
type Loaded struct {
	// Content is the raw bytes as read; digests are computed over exactly
	// these bytes
	Content []byte
	// Name is the default spec name derived from the source (overridable by
	// the caller)
	Name string
	// Origin is the resolved path or URL the content came from
	Origin string
}

// Result is the per-source outcome of a multi-source load.
type Result struct {
	Origin string
	Loaded *Loaded
	Err    error
}

// Loader reads spec sources. The zero value is not usable; construct with
// New.
type Loader struct {
	client     *httpclient.SaferClient
	urlTimeout time.Duration
	logger     *zap.SugaredLogger
}

// Option customizes a Loader.
type Option func(*Loader)

// WithURLTimeout overrides the hard timeout on URL fetches.
func WithURLTimeout(d time.Duration) Option {
	return func(l *Loader) { l.urlTimeout = d }
}

// WithClient substitutes the HTTP client (tests use a localhost-permitting
// one).
func WithClient(c *httpclient.SaferClient) Option {
	return func(l *Loader) { l.client = c }
}

// New creates a Loader. logger may be nil.
func New(logger *zap.SugaredLogger, opts ...Option) *Loader {
	l := &Loader{
		urlTimeout: DefaultURLTimeout,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		// Specs are routinely served from local dev servers, so private
		// addresses stay reachable; scheme and redirect checks still apply
		l.client = httpclient.NewSaferClientWithOptions(l.urlTimeout, httpclient.SaferClientOptions{
			BlockPrivateIP: util.Ptr(false),
		})
	}
	return l
}

// LoadFile reads one spec document from disk.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Loaded, error) {
	resolved, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to resolve path %s", path), errors.ErrLoad)
	}

	if !IsSupportedFile(resolved) {
		return nil, errors.Mark(
			errors.Newf("unsupported file extension %q (supported: .json, .yaml, .yml)", filepath.Ext(resolved)),
			errors.ErrLoad,
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Mark(errors.WithStack(err), errors.ErrLoad)
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to read %s", resolved), errors.ErrLoad)
	}
	if len(content) == 0 {
		return nil, errors.Mark(errors.Newf("file %s is empty", resolved), errors.ErrLoad)
	}

	if l.logger != nil {
		l.logger.Debugw("Loaded spec file", "path", resolved, "bytes", len(content))
	}

	return &Loaded{
		Content: content,
		Name:    nameFromPath(resolved),
		Origin:  resolved,
	}, nil
}

// LoadURL fetches one spec document over HTTP with a hard timeout that
// aborts the in-flight request.
func (l *Loader) LoadURL(ctx context.Context, rawURL string) (*Loaded, error) {
	ctx, cancel := context.WithTimeout(ctx, l.urlTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "invalid URL %s", rawURL), errors.ErrLoad)
	}
	req.Header.Set("Accept", "application/json, application/yaml, text/yaml, */*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to fetch %s", rawURL), errors.ErrLoad)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Mark(
			errors.Newf("fetch %s returned status %d", rawURL, resp.StatusCode),
			errors.ErrLoad,
		)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to read body of %s", rawURL), errors.ErrLoad)
	}
	if len(content) == 0 {
		return nil, errors.Mark(errors.Newf("fetch %s returned an empty body", rawURL), errors.ErrLoad)
	}

	if l.logger != nil {
		l.logger.Debugw("Fetched spec URL", "url", rawURL, "bytes", len(content))
	}

	return &Loaded{
		Content: content,
		Name:    nameFromURL(rawURL),
		Origin:  rawURL,
	}, nil
}

// LoadDirectory loads every supported file among dir's immediate entries.
// Subdirectories and unsupported files are skipped. One file's failure is
// recorded in its own Result and never aborts the scan; the returned error
// is non-nil only when the directory itself is unreadable.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]Result, error) {
	resolved, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to resolve directory %s", dir), errors.ErrLoad)
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to read directory %s", resolved), errors.ErrLoad)
	}

	results := []Result{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !IsSupportedFile(entry.Name()) {
			continue
		}

		path := filepath.Join(resolved, entry.Name())
		loaded, err := l.LoadFile(ctx, path)
		results = append(results, Result{
			Origin: path,
			Loaded: loaded,
			Err:    err,
		})
	}

	if l.logger != nil {
		l.logger.Debugw("Scanned spec directory", "dir", resolved, "candidates", len(results))
	}

	return results, nil
}

// nameFromPath derives a default spec name from a filename stem.
func nameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// nameFromURL derives a default spec name from the URL's last path segment,
// falling back to the host.
func nameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	if last != "" {
		return strings.TrimSuffix(last, filepath.Ext(last))
	}

	return strings.ReplaceAll(u.Hostname(), ".", "-")
}
