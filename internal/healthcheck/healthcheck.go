package healthcheck

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// CheckFunc 单项依赖检查
type CheckFunc func(ctx context.Context) error

// HostSampler 采集主机负载
type HostSampler func(ctx context.Context) (*HostStats, error)

// HostStats 主机负载快照；进程池会把脚本压在这台机器上
type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
}

// HealthChecker 健康检查器
type HealthChecker struct {
	checks  map[string]CheckFunc
	host    HostSampler
	version string
	timeout time.Duration
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		checks:  make(map[string]CheckFunc),
		version: version,
		timeout: 2 * time.Second,
	}
}

// AddCheck 注册一项依赖检查，同名覆盖
func (h *HealthChecker) AddCheck(name string, fn CheckFunc) *HealthChecker {
	if fn != nil {
		h.checks[name] = fn
	}
	return h
}

// WithHost 就绪检查附带主机负载
func (h *HealthChecker) WithHost(s HostSampler) *HealthChecker {
	h.host = s
	return h
}

// CheckResult 健康检查结果
type CheckResult struct {
	Status  string            `json:"status"` // "ok" or "error"
	Checks  map[string]string `json:"checks"`
	Host    *HostStats        `json:"host,omitempty"`
	Version string            `json:"version,omitempty"`
}

// LivenessCheck 存活检查（快速返回，不检查依赖）
func (h *HealthChecker) LivenessCheck() CheckResult {
	return CheckResult{
		Status:  "ok",
		Checks:  map[string]string{"service": "running"},
		Version: h.version,
	}
}

// ReadinessCheck 就绪检查（检查所有依赖）
func (h *HealthChecker) ReadinessCheck(ctx context.Context) CheckResult {
	if ctx == nil {
		ctx = context.Background()
	}
	result := CheckResult{
		Status:  "ok",
		Checks:  make(map[string]string, len(h.checks)),
		Version: h.version,
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.checks[name](cctx)
		cancel()
		if err != nil {
			result.Checks[name] = "error: " + err.Error()
			result.Status = "error"
			continue
		}
		result.Checks[name] = "ok"
	}

	// 主机负载只做展示，不影响就绪状态
	if h.host != nil {
		if stats, err := h.host(ctx); err == nil {
			result.Host = stats
		} else {
			result.Checks["host"] = "unavailable: " + err.Error()
		}
	}

	return result
}

// PgxCheck 检查 PostgreSQL 连接池
func PgxCheck(pool *pgxpool.Pool) CheckFunc {
	if pool == nil {
		return nil
	}
	return pool.Ping
}

// SQLCheck 检查 database/sql 连接（SQLite 模式）
func SQLCheck(db *sql.DB) CheckFunc {
	if db == nil {
		return nil
	}
	return db.PingContext
}

// RedisCheck 通过 Asynq Inspector 检查 Redis
func RedisCheck(opt asynq.RedisConnOpt) CheckFunc {
	if opt == nil {
		return nil
	}
	return func(ctx context.Context) error {
		inspector := asynq.NewInspector(opt)
		defer inspector.Close()

		done := make(chan error, 1)
		go func() {
			_, err := inspector.Queues()
			done <- err
		}()
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SampleHost 用 gopsutil 采集 CPU 与内存
func SampleHost(ctx context.Context) (*HostStats, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	stats := &HostStats{
		MemoryPercent: vm.UsedPercent,
		MemoryUsedMB:  vm.Used / 1024 / 1024,
		MemoryTotalMB: vm.Total / 1024 / 1024,
	}
	// interval 为 0 时与上次调用比较，不阻塞请求
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		stats.CPUPercent = pct[0]
	}
	return stats, nil
}
