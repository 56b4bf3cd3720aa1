// Package storage persists extracted specs into SQLite: one descriptor row
// per spec name plus five child tables, replaced together on change.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/specdeck/specdeck/errors"
	"github.com/specdeck/specdeck/spec"
	"github.com/specdeck/specdeck/spec/digest"
)

// Query constants
const (
	specSelectByNameQuery = `
		SELECT id, digest, created_at FROM specs WHERE name = ?`

	specInsertQuery = `
		INSERT INTO specs (id, name, title, summary, version, dialect, raw_document, digest, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	specDeleteByIDQuery = `
		DELETE FROM specs WHERE id = ?`

	serverInsertQuery = `
		INSERT INTO spec_servers (spec_id, url, description)
		VALUES (?, ?, ?)`

	operationInsertQuery = `
		INSERT INTO spec_operations (spec_id, method, path, summary, description, security, parameters, responses, request_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	schemaInsertQuery = `
		INSERT INTO spec_schemas (spec_id, name, description, payload)
		VALUES (?, ?, ?, ?)`

	securitySchemeInsertQuery = `
		INSERT INTO spec_security_schemes (spec_id, name, type, scheme, description, payload)
		VALUES (?, ?, ?, ?, ?, ?)`

	responseInsertQuery = `
		INSERT INTO spec_responses (spec_id, name, description, payload)
		VALUES (?, ?, ?, ?)`
)

// SpecStore persists extractions and serves read access over the spec tables.
type SpecStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewSpecStore creates a spec store over an already-migrated database.
// logger may be nil.
func NewSpecStore(db *sql.DB, logger *zap.SugaredLogger) *SpecStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SpecStore{
		db:     db,
		logger: logger,
	}
}

// ChildCounts tallies inserted child rows per collection.
type ChildCounts struct {
	Servers         int `json:"servers"`
	Operations      int `json:"operations"`
	Schemas         int `json:"schemas"`
	SecuritySchemes int `json:"security_schemes"`
	Responses       int `json:"responses"`
}

// Total returns the sum across all collections.
func (c ChildCounts) Total() int {
	return c.Servers + c.Operations + c.Schemas + c.SecuritySchemes + c.Responses
}

// ChildFailure records one child row that could not be inserted. Child
// failures never undo the descriptor write.
type ChildFailure struct {
	Kind string // server, operation, schema, security_scheme, response
	Key  string
	Err  error
}

// StoreResult reports the outcome of one Store call.
type StoreResult struct {
	SpecID string
	Name   string
	// Skipped is true when the stored digest matched and nothing was written
	Skipped bool
	// Replaced is true when a prior version of the spec was removed first
	Replaced bool
	Inserted ChildCounts
	Failures []ChildFailure
}

// Store persists an extraction under its name.
//
// When a spec with the same name and an equal digest already exists the call
// is a no-op and the result is marked Skipped. Otherwise the old descriptor
// and its children (via cascade) are deleted and the new descriptor inserted
// in one transaction; child rows are then inserted individually, with
// per-row failures collected rather than failing the store.
func (s *SpecStore) Store(ex *spec.Extraction) (*StoreResult, error) {
	if ex == nil {
		return nil, errors.Mark(errors.New("nil extraction"), errors.ErrStorage)
	}
	if ex.Name == "" {
		return nil, errors.Mark(errors.New("spec name is required"), errors.ErrStorage)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to begin transaction"), errors.ErrStorage)
	}

	// The lookup runs inside the transaction so read-check-replace is atomic
	// per name; same-name races stay last-writer-wins
	var (
		existingID        string
		existingDigest    string
		existingCreatedAt time.Time
	)
	err = tx.QueryRow(specSelectByNameQuery, ex.Name).Scan(&existingID, &existingDigest, &existingCreatedAt)
	switch {
	case err == sql.ErrNoRows:
		// first ingest of this name
	case err != nil:
		tx.Rollback()
		return nil, errors.Mark(errors.Wrapf(err, "failed to look up spec %q", ex.Name), errors.ErrStorage)
	default:
		if digest.Equal(existingDigest, ex.Digest) {
			tx.Rollback()
			s.logger.Debugw("Spec unchanged, skipping store",
				"name", ex.Name,
				"digest", digest.Short(ex.Digest))
			return &StoreResult{SpecID: existingID, Name: ex.Name, Skipped: true}, nil
		}
	}

	specID := uuid.NewString()
	now := time.Now().UTC()
	createdAt := now
	if existingID != "" {
		// Replacement keeps the original ingest time
		createdAt = existingCreatedAt
	}

	if existingID != "" {
		if _, err := tx.Exec(specDeleteByIDQuery, existingID); err != nil {
			tx.Rollback()
			return nil, errors.Mark(errors.Wrapf(err, "failed to delete prior spec %q", ex.Name), errors.ErrStorage)
		}
	}

	_, err = tx.Exec(specInsertQuery,
		specID,
		ex.Name,
		ex.Title,
		ex.Summary,
		ex.Version,
		ex.Dialect,
		string(ex.RawDocument),
		ex.Digest,
		createdAt,
		now,
	)
	if err != nil {
		tx.Rollback()
		return nil, errors.Mark(errors.Wrapf(err, "failed to insert spec %q", ex.Name), errors.ErrStorage)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to commit spec %q", ex.Name), errors.ErrStorage)
	}

	result := &StoreResult{
		SpecID:   specID,
		Name:     ex.Name,
		Replaced: existingID != "",
	}
	s.insertChildren(specID, ex, result)

	s.logger.Infow("Stored spec",
		"name", ex.Name,
		"spec_id", specID,
		"replaced", result.Replaced,
		"children", result.Inserted.Total(),
		"child_failures", len(result.Failures))

	return result, nil
}

func (s *SpecStore) insertChildren(specID string, ex *spec.Extraction, result *StoreResult) {
	for _, server := range ex.Servers {
		_, err := s.db.Exec(serverInsertQuery, specID, server.URL, server.Description)
		if s.tallyChild(result, "server", server.URL, err) {
			result.Inserted.Servers++
		}
	}

	for _, op := range ex.Operations {
		_, err := s.db.Exec(operationInsertQuery,
			specID,
			op.Method,
			op.Path,
			op.Summary,
			op.Description,
			op.Security.JSONString("[]"),
			op.Parameters.JSONString("[]"),
			op.Responses.JSONString("{}"),
			op.RequestBody.JSONString("{}"),
		)
		if s.tallyChild(result, "operation", op.Method+" "+op.Path, err) {
			result.Inserted.Operations++
		}
	}

	for _, schema := range ex.Schemas {
		_, err := s.db.Exec(schemaInsertQuery, specID, schema.Name, schema.Description, schema.Payload.JSONString("{}"))
		if s.tallyChild(result, "schema", schema.Name, err) {
			result.Inserted.Schemas++
		}
	}

	for _, scheme := range ex.SecuritySchemes {
		_, err := s.db.Exec(securitySchemeInsertQuery,
			specID, scheme.Name, scheme.Type, scheme.Scheme, scheme.Description, scheme.Payload.JSONString("{}"))
		if s.tallyChild(result, "security_scheme", scheme.Name, err) {
			result.Inserted.SecuritySchemes++
		}
	}

	for _, response := range ex.Responses {
		_, err := s.db.Exec(responseInsertQuery, specID, response.Name, response.Description, response.Payload.JSONString("{}"))
		if s.tallyChild(result, "response", response.Name, err) {
			result.Inserted.Responses++
		}
	}
}

// tallyChild records a failed child insert and reports whether it succeeded.
func (s *SpecStore) tallyChild(result *StoreResult, kind, key string, err error) bool {
	if err == nil {
		return true
	}
	result.Failures = append(result.Failures, ChildFailure{
		Kind: kind,
		Key:  key,
		Err:  errors.Mark(errors.Wrapf(err, "failed to insert %s %q", kind, key), errors.ErrStorage),
	})
	s.logger.Warnw("Failed to insert spec child row",
		"kind", kind,
		"key", key,
		"spec_id", result.SpecID,
		"error", err)
	return false
}

// Delete removes a spec and its children by name. Returns true when a row
// was removed.
func (s *SpecStore) Delete(name string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM specs WHERE name = ?`, name)
	if err != nil {
		return false, errors.Mark(errors.Wrapf(err, "failed to delete spec %q", name), errors.ErrStorage)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Mark(errors.Wrap(err, "failed to read delete result"), errors.ErrStorage)
	}
	return affected > 0, nil
}

// String implements fmt.Stringer for log-friendly summaries.
func (r *StoreResult) String() string {
	if r.Skipped {
		return fmt.Sprintf("%s: unchanged", r.Name)
	}
	verb := "created"
	if r.Replaced {
		verb = "replaced"
	}
	return fmt.Sprintf("%s: %s with %d child rows (%d failed)", r.Name, verb, r.Inserted.Total(), len(r.Failures))
}
