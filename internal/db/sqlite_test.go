package db

import (
	"path/filepath"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN_Write(t *testing.T) {
	dsn := buildDSN("/tmp/meta.sqlite", "write")

	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "_synchronous=NORMAL")
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_txlock=immediate")
}

func TestBuildDSN_Read(t *testing.T) {
	dsn := buildDSN("/tmp/meta.sqlite", "read")

	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.NotContains(t, dsn, "_txlock")
}

func TestOpenSQLite_InvalidMode(t *testing.T) {
	_, err := OpenSQLite("/tmp/meta.sqlite", "readwrite", 0)
	require.Error(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.sqlite")
	writeDB, err := OpenSQLite(path, "write", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = writeDB.Close() })

	require.NoError(t, RunMigrations(writeDB))
	require.NoError(t, RunMigrations(writeDB))

	var name string
	err = writeDB.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'datasets'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "datasets", name)
}

func TestConcurrentWritesSingleWriter(t *testing.T) {
	writeDB, _ := OpenTestSQLite(t)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := writeDB.Exec(
				`INSERT INTO datasets (id, project_id, dataset_name, table_name) VALUES (?, 'p', 'd', ?)`,
				// every row distinct so no UNIQUE collisions
				string(rune('a'+n)), string(rune('a'+n)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
