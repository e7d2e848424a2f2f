package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// RunRepo 基于 GORM 的调度历史仓储
type RunRepo struct {
	db *gorm.DB
}

func NewRunRepo(db *gorm.DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) Insert(ctx context.Context, run Run) error {
	if run.RunID == "" {
		return errors.New("run_id 不能为空")
	}
	m := RunToModel(run)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("insert dispatch_run: %w", err)
	}
	return nil
}

func (r *RunRepo) Get(ctx context.Context, runID string) (*Run, error) {
	var m DispatchRunModel
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	run := m.ToRun()
	return &run, nil
}

func (r *RunRepo) List(ctx context.Context, f ListRunsFilter) ([]Run, error) {
	f = f.normalize()

	var models []DispatchRunModel
	err := r.scoped(ctx, f).
		Order("started_at desc").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]Run, 0, len(models))
	for i := range models {
		out = append(out, models[i].ToRun())
	}
	return out, nil
}

func (r *RunRepo) Count(ctx context.Context, f ListRunsFilter) (int64, error) {
	var n int64
	err := r.scoped(ctx, f).Count(&n).Error
	return n, err
}

func (r *RunRepo) scoped(ctx context.Context, f ListRunsFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&DispatchRunModel{})
	if f.WorkType != "" {
		q = q.Where("work_type = ?", f.WorkType)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}
