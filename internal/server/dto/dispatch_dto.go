package dto

import "time"

// DispatchRequest 触发一次调度
type DispatchRequest struct {
	WorkType       string     `json:"work_type" binding:"required" example:"postProcess_nfo"`
	Options        []string   `json:"options" example:"backfill_target"`
	Queue          string     `json:"queue" example:"dispatch" enums:"dispatch_critical,dispatch,dispatch_low"`
	DelaySeconds   int32      `json:"delay_seconds" example:"0"`
	TimeoutSeconds int32      `json:"timeout_seconds" example:"3600"`
	RunAt          *time.Time `json:"run_at"`
	// UniqueSeconds 大于 0 时同一阶段在该时间窗口内只入队一次
	UniqueSeconds int32 `json:"unique_seconds" example:"60"`
}

// DispatchResponse 入队结果
type DispatchResponse struct {
	TaskID   string `json:"task_id" example:"1b2c3d4e-0000-0000-0000-000000000000"`
	Queue    string `json:"queue" example:"dispatch"`
	WorkType string `json:"work_type" example:"postProcess_nfo"`
	Status   string `json:"status" example:"pending"`
}
