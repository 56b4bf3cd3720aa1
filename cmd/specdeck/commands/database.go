package commands

import (
	"database/sql"
	"sync"

	"github.com/specdeck/specdeck/config"
	"github.com/specdeck/specdeck/db"
	"github.com/specdeck/specdeck/errors"
	"github.com/specdeck/specdeck/logger"
)

var (
	managerMu sync.Mutex
	manager   *db.Manager
)

// openDatabase acquires the shared connection for the configured path, or
// for dbPath when given. Connections are cached per resolved path by the
// manager; closeDatabase releases whatever is held.
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load configuration")
		}
		dbPath = cfg.Database.Path
	}

	managerMu.Lock()
	if manager == nil {
		manager = db.NewManager(logger.Logger)
	}
	m := manager
	managerMu.Unlock()

	return m.Acquire(dbPath)
}

func closeDatabase() {
	managerMu.Lock()
	defer managerMu.Unlock()

	if manager != nil {
		if err := manager.Close(); err != nil {
			logger.Warnw("Failed to close database", "error", err)
		}
	}
}
