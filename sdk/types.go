package sdk

import "time"

// WorkType 阶段描述
type WorkType struct {
	WorkType string `json:"work_type"`
	Setting  string `json:"setting,omitempty"`
	Script   string `json:"script,omitempty"`
	Flag     string `json:"flag,omitempty"`
	Gated    bool   `json:"gated"`
	Direct   bool   `json:"direct"`
}

// DispatchRequest 调度请求
type DispatchRequest struct {
	WorkType       string     `json:"work_type"`
	Options        []string   `json:"options,omitempty"`
	Queue          string     `json:"queue,omitempty"`
	DelaySeconds   int32      `json:"delay_seconds,omitempty"`
	TimeoutSeconds int32      `json:"timeout_seconds,omitempty"`
	RunAt          *time.Time `json:"run_at,omitempty"`
	UniqueSeconds  int32      `json:"unique_seconds,omitempty"`
}

// DispatchResponse 入队结果
type DispatchResponse struct {
	TaskID   string `json:"task_id"`
	Queue    string `json:"queue"`
	WorkType string `json:"work_type"`
	Status   string `json:"status"`
}

// ActiveRun 正在执行的调度
type ActiveRun struct {
	RunID     string    `json:"run_id"`
	WorkType  string    `json:"work_type"`
	Options   []string  `json:"options,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Run 调度历史
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
}

// RunFilter 历史查询条件
type RunFilter struct {
	WorkType string
	Status   string
	Limit    int
	Offset   int
}

type listResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}
