package healthcheck

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestHealthChecker_LivenessCheck(t *testing.T) {
	hc := NewHealthChecker("v1")

	result := hc.LivenessCheck()

	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "running", result.Checks["service"])
	assert.Equal(t, "v1", result.Version)
}

func TestHealthChecker_ReadinessCheck(t *testing.T) {
	hc := NewHealthChecker("").
		AddCheck("database", func(context.Context) error { return nil }).
		AddCheck("redis", func(context.Context) error { return errors.New("refused") }).
		AddCheck("skipped", nil)

	result := hc.ReadinessCheck(context.Background())

	assert.Equal(t, "error", result.Status)
	assert.Equal(t, "ok", result.Checks["database"])
	assert.Equal(t, "error: refused", result.Checks["redis"])
	assert.NotContains(t, result.Checks, "skipped")
	assert.Nil(t, result.Host)
}

func TestHealthChecker_HostDoesNotAffectStatus(t *testing.T) {
	hc := NewHealthChecker("").WithHost(func(context.Context) (*HostStats, error) {
		return nil, errors.New("no procfs")
	})

	result := hc.ReadinessCheck(context.Background())
	assert.Equal(t, "ok", result.Status)
	assert.Contains(t, result.Checks["host"], "no procfs")

	hc.WithHost(func(context.Context) (*HostStats, error) {
		return &HostStats{CPUPercent: 12.5, MemoryTotalMB: 1024}, nil
	})
	result = hc.ReadinessCheck(context.Background())
	require.NotNil(t, result.Host)
	assert.Equal(t, 12.5, result.Host.CPUPercent)
}

func TestSQLCheck(t *testing.T) {
	assert.Nil(t, SQLCheck(nil))
	assert.Nil(t, PgxCheck(nil))
	assert.Nil(t, RedisCheck(nil))

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	hc := NewHealthChecker("").AddCheck("database", SQLCheck(db))
	assert.Equal(t, "ok", hc.ReadinessCheck(context.Background()).Status)
}
