package repository

import (
	"context"

	"github.com/azhengyongqin/forkhub/internal/dispatch"
)

// Recorder 把调度结果写入历史
type Recorder struct {
	repo RunRepository
}

func NewRecorder(repo RunRepository) *Recorder {
	return &Recorder{repo: repo}
}

// RecordRun 实现 dispatch.RunRecorder
func (r *Recorder) RecordRun(ctx context.Context, res *dispatch.Result) error {
	return r.repo.Insert(ctx, RunFromResult(res))
}

// RunFromResult 调度结果转为历史记录
func RunFromResult(res *dispatch.Result) Run {
	return Run{
		RunID:       res.RunID,
		WorkType:    string(res.WorkType),
		Options:     res.Options,
		Status:      string(res.Status),
		Items:       res.Items,
		Concurrency: res.Concurrency,
		Failed:      res.Failed,
		Flags:       res.Flags.String(),
		Direct:      res.Direct,
		Error:       res.Error,
		StartedAt:   res.StartedAt,
		DurationMs:  res.Duration.Milliseconds(),
	}
}
