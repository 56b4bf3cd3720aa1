package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerReturnsSameConnectionForSamePath(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(nil)
	defer m.Close()

	first, err := m.Acquire(filepath.Join(dir, "a.db"))
	require.NoError(t, err)

	second, err := m.Acquire(filepath.Join(dir, "a.db"))
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestManagerReplacesConnectionForNewPath(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(nil)
	defer m.Close()

	first, err := m.Acquire(filepath.Join(dir, "a.db"))
	require.NoError(t, err)

	second, err := m.Acquire(filepath.Join(dir, "b.db"))
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	// Prior connection is closed
	assert.Error(t, first.Ping())
	assert.NoError(t, second.Ping())

	resolved, _ := filepath.Abs(filepath.Join(dir, "b.db"))
	assert.Equal(t, resolved, m.Path())
}

func TestManagerClose(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(nil)

	db, err := m.Acquire(filepath.Join(dir, "a.db"))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.Error(t, db.Ping())
	assert.Empty(t, m.Path())

	// Close on a closed manager is a no-op
	assert.NoError(t, m.Close())
}
