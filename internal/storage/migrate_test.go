package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/forkhub/internal/storage"
	"github.com/azhengyongqin/forkhub/internal/storage/migrations"
	"github.com/azhengyongqin/forkhub/internal/storage/sqlite"
)

func TestApplyMigrations_SQLiteSchema(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "schema.db"))
	require.NoError(t, err)
	defer db.Close()

	fsys, err := migrations.For("sqlite")
	require.NoError(t, err)

	require.NoError(t, storage.ApplyMigrations(ctx, db, fsys))
	// 再执行一次应保持幂等
	require.NoError(t, storage.ApplyMigrations(ctx, db, fsys))

	for _, table := range []string{"groups", "category", "releases", "settings", "sharing"} {
		var n int
		err := db.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestApplyMigrations_OrderAndFilter(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "order.db"))
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"0002_insert.sql": {Data: []byte(`INSERT INTO t (v) VALUES ('second');`)},
		"0001_create.sql": {Data: []byte(`CREATE TABLE t (v TEXT);`)},
		"README.md":       {Data: []byte(`not sql`)},
	}
	require.NoError(t, storage.ApplyMigrations(ctx, db, fsys))

	var v string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT v FROM t`).Scan(&v))
	assert.Equal(t, "second", v)
}

func TestMigrationsFor_UnknownDriver(t *testing.T) {
	_, err := migrations.For("mysql")
	assert.Error(t, err)
}
