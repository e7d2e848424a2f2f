// Package testsupport 提供测试用的 SQLite 数据库与种子数据。
package testsupport

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/azhengyongqin/forkhub/internal/gateway"
	"github.com/azhengyongqin/forkhub/internal/storage"
	"github.com/azhengyongqin/forkhub/internal/storage/migrations"
	"github.com/azhengyongqin/forkhub/internal/storage/sqlite"
)

// DB 已迁移的临时 SQLite 数据库
type DB struct {
	t  testing.TB
	DB *sql.DB
}

// Release 测试用 release 行，零值字段取建表默认值以外的显式值
type Release struct {
	GroupID        int64
	CategoryID     int
	Size           int64
	NZBStatus      int
	PasswordStatus int
	HasPreview     int
	NFOStatus      int
	IMDBID         *string
	RageID         int
}

// MustOpenDB 打开临时数据库、执行迁移并注册清理
func MustOpenDB(t testing.TB) *DB {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "forkhub.db"))
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fsys, err := migrations.For("sqlite")
	if err != nil {
		t.Fatalf("migrations.For: %v", err)
	}
	if err := storage.ApplyMigrations(ctx, db, fsys); err != nil {
		t.Fatalf("ApplyMigrations: %v", err)
	}
	return &DB{t: t, DB: db}
}

// Opener 返回该数据库的网关
func (d *DB) Opener() *gateway.SQLOpener {
	return gateway.NewSQLOpener(d.DB, "?")
}

// Exec 执行 SQL，失败时终止测试
func (d *DB) Exec(query string, args ...any) {
	d.t.Helper()
	if _, err := d.DB.Exec(query, args...); err != nil {
		d.t.Fatalf("exec %q: %v", query, err)
	}
}

// SetSetting 写入 settings
func (d *DB) SetSetting(name, value string) {
	d.t.Helper()
	d.Exec(`INSERT INTO settings (setting, value) VALUES (?, ?)
ON CONFLICT (setting) DO UPDATE SET value = excluded.value`, name, value)
}

// AddGroup 插入新闻组并返回 id
func (d *DB) AddGroup(name string, active, backfill bool) int64 {
	d.t.Helper()
	res, err := d.DB.Exec(`INSERT INTO "groups" (name, active, backfill, backfill_target) VALUES (?, ?, ?, ?)`,
		name, boolInt(active), boolInt(backfill), 10)
	if err != nil {
		d.t.Fatalf("insert group: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		d.t.Fatalf("last insert id: %v", err)
	}
	return id
}

// AddCategory 插入分类
func (d *DB) AddCategory(id int, disablePreview bool) {
	d.t.Helper()
	d.Exec(`INSERT INTO category (id, title, disablepreview) VALUES (?, ?, ?)`, id, "cat", boolInt(disablePreview))
}

// AddRelease 插入 release
func (d *DB) AddRelease(r Release) {
	d.t.Helper()
	d.Exec(`INSERT INTO releases (group_id, categoryid, size, nzbstatus, passwordstatus, haspreview, nfostatus, imdbid, rageid)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.GroupID, r.CategoryID, r.Size, r.NZBStatus, r.PasswordStatus, r.HasPreview, r.NFOStatus, r.IMDBID, r.RageID)
}

// SetSharing 写入 sharing 行
func (d *DB) SetSharing(enabled bool) {
	d.t.Helper()
	d.Exec(`DELETE FROM sharing`)
	d.Exec(`INSERT INTO sharing (site_guid, enabled) VALUES (?, ?)`, "test-guid", boolInt(enabled))
}

// StrPtr 返回字符串指针
func StrPtr(s string) *string { return &s }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
