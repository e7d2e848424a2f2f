package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/forkhub/internal/testsupport"
)

// openCounting 打开一个统计查询次数的网关
func openCounting(t *testing.T, db *testsupport.DB) *countingGateway {
	t.Helper()
	h, err := db.Opener().Open(context.Background())
	require.NoError(t, err)
	g := &countingGateway{Handle: h}
	t.Cleanup(func() { _ = h.Close() })
	return g
}

func TestCheckProcessNfo(t *testing.T) {
	ctx := context.Background()

	t.Run("setting off does not query", func(t *testing.T) {
		db := testsupport.MustOpenDB(t)
		gid := db.AddGroup("a.b.nfo", true, false)
		db.AddRelease(testsupport.Release{GroupID: gid, NZBStatus: NZBAdded, NFOStatus: -1})
		db.SetSetting(SettingLookupNfo, "0")

		gw := openCounting(t, db)
		ok, err := CheckProcessNfo(ctx, gw)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, gw.queries)
	})

	t.Run("unprocessed release", func(t *testing.T) {
		db := testsupport.MustOpenDB(t)
		gid := db.AddGroup("a.b.nfo", true, false)
		db.AddRelease(testsupport.Release{GroupID: gid, NZBStatus: NZBAdded, NFOStatus: NFOUnproc})
		db.SetSetting(SettingLookupNfo, "1")

		ok, err := CheckProcessNfo(ctx, openCounting(t, db))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("retried nfo outside gate range", func(t *testing.T) {
		db := testsupport.MustOpenDB(t)
		gid := db.AddGroup("a.b.nfo", true, false)
		db.AddRelease(testsupport.Release{GroupID: gid, NZBStatus: NZBAdded, NFOStatus: -3})
		db.SetSetting(SettingLookupNfo, "1")

		ok, err := CheckProcessNfo(ctx, openCounting(t, db))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("query error", func(t *testing.T) {
		db := testsupport.MustOpenDB(t)
		db.SetSetting(SettingLookupNfo, "1")
		gw := openCounting(t, db)
		gw.failOneRow = true

		_, err := CheckProcessNfo(ctx, gw)
		assert.ErrorIs(t, err, errBoom)
	})
}

func TestCheckProcessMovies(t *testing.T) {
	ctx := context.Background()
	db := testsupport.MustOpenDB(t)
	gid := db.AddGroup("a.b.movies", true, false)
	db.AddRelease(testsupport.Release{GroupID: gid, CategoryID: 2040, NZBStatus: NZBAdded, IMDBID: testsupport.StrPtr("0133093")})

	db.SetSetting(SettingLookupIMDB, "1")
	ok, err := CheckProcessMovies(ctx, openCounting(t, db))
	require.NoError(t, err)
	assert.False(t, ok, "matched movie needs no lookup")

	db.AddRelease(testsupport.Release{GroupID: gid, CategoryID: 2040, NZBStatus: NZBAdded})
	ok, err = CheckProcessMovies(ctx, openCounting(t, db))
	require.NoError(t, err)
	assert.True(t, ok)

	db.SetSetting(SettingLookupIMDB, "0")
	gw := openCounting(t, db)
	ok, err = CheckProcessMovies(ctx, gw)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, gw.queries)
}

func TestCheckProcessTV(t *testing.T) {
	ctx := context.Background()
	db := testsupport.MustOpenDB(t)
	gid := db.AddGroup("a.b.tv", true, false)
	db.SetSetting(SettingLookupTVRage, "1")

	db.AddRelease(testsupport.Release{GroupID: gid, CategoryID: 5030, Size: 1024, NZBStatus: NZBAdded, RageID: -1})
	ok, err := CheckProcessTV(ctx, openCounting(t, db))
	require.NoError(t, err)
	assert.False(t, ok, "small releases are ignored")

	db.AddRelease(testsupport.Release{GroupID: gid, CategoryID: 5030, Size: 2 << 20, NZBStatus: NZBAdded, RageID: -1})
	ok, err = CheckProcessTV(ctx, openCounting(t, db))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckProcessAdditional(t *testing.T) {
	ctx := context.Background()
	db := testsupport.MustOpenDB(t)
	gid := db.AddGroup("a.b.add", true, false)
	db.AddCategory(4010, true)
	db.AddCategory(4020, false)

	db.AddRelease(testsupport.Release{GroupID: gid, CategoryID: 4010, NZBStatus: NZBAdded, PasswordStatus: -1, HasPreview: -1})
	ok, err := CheckProcessAdditional(ctx, openCounting(t, db))
	require.NoError(t, err)
	assert.False(t, ok, "preview disabled for the category")

	db.AddRelease(testsupport.Release{GroupID: gid, CategoryID: 4020, NZBStatus: NZBAdded, PasswordStatus: -1, HasPreview: -1})
	// 附加处理没有功能开关
	ok, err = CheckProcessAdditional(ctx, openCounting(t, db))
	require.NoError(t, err)
	assert.True(t, ok)
}
