package gateway_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/forkhub/internal/gateway"
	"github.com/azhengyongqin/forkhub/internal/testsupport"
)

func TestSQLGateway_QueryAndSettings(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	db.AddGroup("alt.binaries.teevee", true, false)
	db.AddGroup("alt.binaries.moovee", false, true)
	db.SetSetting("binarythreads", "4")

	ctx := context.Background()
	h, err := db.Opener().Open(ctx)
	require.NoError(t, err)
	defer h.Close()

	rows, err := h.Query(ctx, `SELECT name, active FROM "groups" ORDER BY name`)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alt.binaries.moovee", rows[0].String("name"))
	active, ok := rows[1].Int("active")
	require.True(t, ok)
	assert.Equal(t, int64(1), active)

	v, err := h.GetSetting(ctx, "binarythreads")
	require.NoError(t, err)
	assert.Equal(t, "4", v)

	// 不存在的设置返回空字符串
	v, err = h.GetSetting(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestSQLGateway_QueryOneRow(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	ctx := context.Background()
	h, err := db.Opener().Open(ctx)
	require.NoError(t, err)
	defer h.Close()

	_, ok, err := h.QueryOneRow(ctx, `SELECT enabled FROM sharing`)
	require.NoError(t, err)
	assert.False(t, ok)

	db.SetSharing(true)
	row, ok, err := h.QueryOneRow(ctx, `SELECT enabled FROM sharing`)
	require.NoError(t, err)
	require.True(t, ok)
	enabled, _ := row.Int("enabled")
	assert.Equal(t, int64(1), enabled)
}

func TestSQLGateway_QueryError(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	ctx := context.Background()
	h, err := db.Opener().Open(ctx)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Query(ctx, `SELECT nope FROM missing_table`)
	assert.Error(t, err)
}

func TestRow_Conversions(t *testing.T) {
	row := gateway.Row{
		"a": int16(-1),
		"b": []byte("42"),
		"c": " 7 ",
		"d": nil,
		"e": "abc",
		"f": true,
	}

	n, ok := row.Int("a")
	assert.True(t, ok)
	assert.Equal(t, int64(-1), n)

	n, ok = row.Int("b")
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	n, ok = row.Int("c")
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)

	_, ok = row.Int("d")
	assert.False(t, ok)
	_, ok = row.Int("e")
	assert.False(t, ok)

	n, ok = row.Int("f")
	assert.True(t, ok)
	assert.Equal(t, int64(1), n)

	assert.False(t, row.Has("d"))
	assert.True(t, row.Has("e"))
	assert.Equal(t, "42", row.String("b"))
	assert.Equal(t, "", row.String("missing"))
}
