package storage

import (
	"database/sql"

	"github.com/specdeck/specdeck/errors"
	"github.com/specdeck/specdeck/spec"
)

const (
	descriptorSelectQuery = `
		SELECT id, name, title, summary, version, dialect, raw_document, digest, created_at, updated_at
		FROM specs WHERE name = ?`

	descriptorListQuery = `
		SELECT id, name, title, summary, version, dialect, raw_document, digest, created_at, updated_at
		FROM specs ORDER BY name`

	serversSelectQuery = `
		SELECT url, description FROM spec_servers WHERE spec_id = ? ORDER BY url`

	operationsSelectQuery = `
		SELECT method, path, summary, description, security, parameters, responses, request_body
		FROM spec_operations WHERE spec_id = ? ORDER BY path, method`

	schemasSelectQuery = `
		SELECT name, description, payload FROM spec_schemas WHERE spec_id = ? ORDER BY name`

	securitySchemesSelectQuery = `
		SELECT name, type, scheme, description, payload
		FROM spec_security_schemes WHERE spec_id = ? ORDER BY name`

	responsesSelectQuery = `
		SELECT name, description, payload FROM spec_responses WHERE spec_id = ? ORDER BY name`
)

// GetDescriptor returns the stored descriptor for a spec name.
func (s *SpecStore) GetDescriptor(name string) (*spec.Descriptor, error) {
	var (
		d   spec.Descriptor
		raw string
	)
	err := s.db.QueryRow(descriptorSelectQuery, name).Scan(
		&d.ID, &d.Name, &d.Title, &d.Summary, &d.Version, &d.Dialect,
		&raw, &d.Digest, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.Mark(errors.Newf("spec %q not found", name), errors.ErrNotFound)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to read spec %q", name), errors.ErrStorage)
	}
	d.RawDocument = []byte(raw)
	return &d, nil
}

// ListDescriptors returns all stored descriptors ordered by name.
func (s *SpecStore) ListDescriptors() ([]spec.Descriptor, error) {
	rows, err := s.db.Query(descriptorListQuery)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to list specs"), errors.ErrStorage)
	}
	defer rows.Close()

	descriptors := []spec.Descriptor{}
	for rows.Next() {
		var (
			d   spec.Descriptor
			raw string
		)
		if err := rows.Scan(
			&d.ID, &d.Name, &d.Title, &d.Summary, &d.Version, &d.Dialect,
			&raw, &d.Digest, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to scan spec row"), errors.ErrStorage)
		}
		d.RawDocument = []byte(raw)
		descriptors = append(descriptors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed while listing specs"), errors.ErrStorage)
	}
	return descriptors, nil
}

// GetServers returns a spec's servers ordered by URL.
func (s *SpecStore) GetServers(specID string) ([]spec.Server, error) {
	rows, err := s.db.Query(serversSelectQuery, specID)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to list servers"), errors.ErrStorage)
	}
	defer rows.Close()

	servers := []spec.Server{}
	for rows.Next() {
		var server spec.Server
		if err := rows.Scan(&server.URL, &server.Description); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to scan server row"), errors.ErrStorage)
		}
		servers = append(servers, server)
	}
	return servers, rows.Err()
}

// GetOperations returns a spec's operations ordered by path then method.
func (s *SpecStore) GetOperations(specID string) ([]spec.Operation, error) {
	rows, err := s.db.Query(operationsSelectQuery, specID)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to list operations"), errors.ErrStorage)
	}
	defer rows.Close()

	operations := []spec.Operation{}
	for rows.Next() {
		var (
			op                                    spec.Operation
			security, parameters, responses, body string
		)
		if err := rows.Scan(
			&op.Method, &op.Path, &op.Summary, &op.Description,
			&security, &parameters, &responses, &body,
		); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to scan operation row"), errors.ErrStorage)
		}
		op.Security = storedDoc(security)
		op.Parameters = storedDoc(parameters)
		op.Responses = storedDoc(responses)
		op.RequestBody = storedDoc(body)
		operations = append(operations, op)
	}
	return operations, rows.Err()
}

// GetSchemas returns a spec's schemas ordered by name.
func (s *SpecStore) GetSchemas(specID string) ([]spec.Schema, error) {
	rows, err := s.db.Query(schemasSelectQuery, specID)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to list schemas"), errors.ErrStorage)
	}
	defer rows.Close()

	schemas := []spec.Schema{}
	for rows.Next() {
		var (
			schema  spec.Schema
			payload string
		)
		if err := rows.Scan(&schema.Name, &schema.Description, &payload); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to scan schema row"), errors.ErrStorage)
		}
		schema.Payload = storedDoc(payload)
		schemas = append(schemas, schema)
	}
	return schemas, rows.Err()
}

// GetSecuritySchemes returns a spec's security schemes ordered by name.
func (s *SpecStore) GetSecuritySchemes(specID string) ([]spec.SecurityScheme, error) {
	rows, err := s.db.Query(securitySchemesSelectQuery, specID)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to list security schemes"), errors.ErrStorage)
	}
	defer rows.Close()

	schemes := []spec.SecurityScheme{}
	for rows.Next() {
		var (
			scheme  spec.SecurityScheme
			payload string
		)
		if err := rows.Scan(&scheme.Name, &scheme.Type, &scheme.Scheme, &scheme.Description, &payload); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to scan security scheme row"), errors.ErrStorage)
		}
		scheme.Payload = storedDoc(payload)
		schemes = append(schemes, scheme)
	}
	return schemes, rows.Err()
}

// GetResponses returns a spec's reusable responses ordered by name.
func (s *SpecStore) GetResponses(specID string) ([]spec.Response, error) {
	rows, err := s.db.Query(responsesSelectQuery, specID)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to list responses"), errors.ErrStorage)
	}
	defer rows.Close()

	responses := []spec.Response{}
	for rows.Next() {
		var (
			response spec.Response
			payload  string
		)
		if err := rows.Scan(&response.Name, &response.Description, &payload); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to scan response row"), errors.ErrStorage)
		}
		response.Payload = storedDoc(payload)
		responses = append(responses, response)
	}
	return responses, rows.Err()
}

// storedDoc reconstructs an opaque document from a persisted TEXT column.
func storedDoc(payload string) spec.OpaqueDoc {
	if payload == "" {
		return spec.OpaqueDoc{}
	}
	return spec.OpaqueDoc{ContentType: "application/json", Data: []byte(payload)}
}
