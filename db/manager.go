package db

import (
	"database/sql"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/specdeck/specdeck/errors"
)

// Manager holds the shared connection, keyed by resolved absolute path.
// At most one connection is open at a time: acquiring a different path closes
// and replaces the prior one. The composition root owns the Manager and
// injects the *sql.DB into repositories.
type Manager struct {
	logger *zap.SugaredLogger

	mu   sync.Mutex
	path string
	db   *sql.DB
}

// NewManager creates a connection manager. logger may be nil.
func NewManager(logger *zap.SugaredLogger) *Manager {
	return &Manager{logger: logger}
}

// Acquire returns the shared connection for path, opening it (and running
// migrations) on first use. If a connection for a different path is open, it
// is closed and replaced.
func (m *Manager) Acquire(path string) (*sql.DB, error) {
	resolved, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve database path %s", path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil && m.path == resolved {
		return m.db, nil
	}

	if m.db != nil {
		if m.logger != nil {
			m.logger.Infow("Replacing database connection",
				"old_path", m.path,
				"new_path", resolved,
			)
		}
		if err := m.db.Close(); err != nil && m.logger != nil {
			m.logger.Warnw("Failed to close prior connection", "path", m.path, "error", err)
		}
		m.db = nil
		m.path = ""
	}

	db, err := OpenWithMigrations(resolved, m.logger)
	if err != nil {
		return nil, err
	}

	m.path = resolved
	m.db = db
	return db, nil
}

// Path returns the resolved path of the currently open connection, or empty.
func (m *Manager) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

// Close closes the current connection if one is open.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}

	err := m.db.Close()
	m.db = nil
	m.path = ""
	return err
}
