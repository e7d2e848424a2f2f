package repository

import (
	"strings"
	"time"
)

// DispatchRunModel GORM 模型 - 对应 dispatch_run 表
type DispatchRunModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	RunID       string    `gorm:"column:run_id;uniqueIndex;type:text;not null"`
	WorkType    string    `gorm:"column:work_type;type:text;not null;index:idx_dispatch_run_type_started_at"`
	Options     string    `gorm:"column:options;type:text;not null;default:''"`
	Status      string    `gorm:"column:status;type:text;not null"`
	Items       int       `gorm:"column:items;default:0"`
	Concurrency int       `gorm:"column:concurrency;default:0"`
	Failed      int       `gorm:"column:failed;default:0"`
	Flags       string    `gorm:"column:flags;type:text;not null;default:''"`
	Direct      bool      `gorm:"column:direct;default:false"`
	Error       *string   `gorm:"column:error;type:text"`
	StartedAt   time.Time `gorm:"column:started_at;not null;index:idx_dispatch_run_type_started_at,sort:desc"`
	DurationMs  int64     `gorm:"column:duration_ms;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName 指定表名
func (DispatchRunModel) TableName() string { return "dispatch_run" }

// optionsSep options 列中的分隔符
const optionsSep = " "

// ToRun 转换为 Run 实体
func (m *DispatchRunModel) ToRun() Run {
	r := Run{
		RunID:       m.RunID,
		WorkType:    m.WorkType,
		Status:      m.Status,
		Items:       m.Items,
		Concurrency: m.Concurrency,
		Failed:      m.Failed,
		Flags:       m.Flags,
		Direct:      m.Direct,
		StartedAt:   m.StartedAt,
		DurationMs:  m.DurationMs,
		CreatedAt:   m.CreatedAt,
	}
	if m.Options != "" {
		r.Options = strings.Split(m.Options, optionsSep)
	}
	if m.Error != nil {
		r.Error = *m.Error
	}
	return r
}

// RunToModel 从 Run 实体创建模型
func RunToModel(r Run) DispatchRunModel {
	m := DispatchRunModel{
		RunID:       r.RunID,
		WorkType:    r.WorkType,
		Options:     strings.Join(r.Options, optionsSep),
		Status:      r.Status,
		Items:       r.Items,
		Concurrency: r.Concurrency,
		Failed:      r.Failed,
		Flags:       r.Flags,
		Direct:      r.Direct,
		StartedAt:   r.StartedAt,
		DurationMs:  r.DurationMs,
		CreatedAt:   r.CreatedAt,
	}
	if r.Error != "" {
		m.Error = &r.Error
	}
	return m
}
