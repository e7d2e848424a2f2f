package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("run not found")

// Run 一次调度的历史记录
type Run struct {
	RunID       string    `json:"run_id"`
	WorkType    string    `json:"work_type"`
	Options     []string  `json:"options,omitempty"`
	Status      string    `json:"status"`
	Items       int       `json:"items"`
	Concurrency int       `json:"concurrency"`
	Failed      int       `json:"failed"`
	Flags       string    `json:"flags"`
	Direct      bool      `json:"direct"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	DurationMs  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListRunsFilter 历史记录查询过滤条件
type ListRunsFilter struct {
	WorkType string
	Status   string
	Limit    int
	Offset   int
}

// normalize 限制分页参数
func (f ListRunsFilter) normalize() ListRunsFilter {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// RunRepository 调度历史仓储接口
type RunRepository interface {
	// Insert 写入一条调度记录
	Insert(ctx context.Context, run Run) error

	// Get 根据 run_id 获取记录
	Get(ctx context.Context, runID string) (*Run, error)

	// List 按开始时间倒序查询
	List(ctx context.Context, filter ListRunsFilter) ([]Run, error)

	// Count 统计记录数
	Count(ctx context.Context, filter ListRunsFilter) (int64, error)
}
