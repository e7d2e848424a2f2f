package asynqx

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/azhengyongqin/forkhub/internal/model"
)

// TypeDispatch 调度任务类型
const TypeDispatch = "dispatch:run"

// 服务端消费的调度队列
const (
	CriticalQueue = "dispatch_critical"
	DefaultQueue  = "dispatch"
	LowQueue      = "dispatch_low"
)

// DefaultDispatchTimeout 未指定超时时调度任务的最长运行时间；
// asynq 自身的默认值只有 30 分钟，不足以跑完一轮 backfill
const DefaultDispatchTimeout = 24 * time.Hour

// QueuePriorities 服务端消费的队列及权重
func QueuePriorities() map[string]int {
	return map[string]int{CriticalQueue: 6, DefaultQueue: 3, LowQueue: 1}
}

// IsServedQueue 队列是否有消费者
func IsServedQueue(name string) bool {
	_, ok := QueuePriorities()[name]
	return ok
}

// DispatchPayload 调度任务内容
type DispatchPayload struct {
	WorkType string   `json:"work_type"`
	Options  []string `json:"options,omitempty"`
}

// NewDispatchTask 创建调度任务
func NewDispatchTask(p DispatchPayload) (*asynq.Task, error) {
	if _, err := model.ParseWorkType(p.WorkType); err != nil {
		return nil, err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeDispatch, data), nil
}

// ParseDispatchPayload 解析调度任务内容
func ParseDispatchPayload(data []byte) (DispatchPayload, model.WorkType, error) {
	var p DispatchPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, "", fmt.Errorf("unmarshal payload: %w", err)
	}
	wt, err := model.ParseWorkType(p.WorkType)
	if err != nil {
		return p, "", err
	}
	return p, wt, nil
}

// EnqueueParams 入队参数
type EnqueueParams struct {
	Queue          string
	TimeoutSeconds int32
	// 为 0 时取 DefaultDispatchTimeout，TimeoutSeconds 优先
	Timeout      time.Duration
	DelaySeconds int32
	RunAt        time.Time
	// 大于 0 时同一阶段同一参数在该时间内只入队一次
	Unique time.Duration
}

// EnqueueOptions 调度任务不重试：查询失败只中止本次调度。
// 始终携带显式超时，调度会阻塞到所有 worker 结束
func EnqueueOptions(p EnqueueParams) []asynq.Option {
	queue := p.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	opts := []asynq.Option{asynq.Queue(queue), asynq.MaxRetry(0)}

	timeout := p.Timeout
	if p.TimeoutSeconds > 0 {
		timeout = time.Duration(p.TimeoutSeconds) * time.Second
	}
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	opts = append(opts, asynq.Timeout(timeout))
	if p.DelaySeconds > 0 {
		opts = append(opts, asynq.ProcessIn(time.Duration(p.DelaySeconds)*time.Second))
	}
	if !p.RunAt.IsZero() {
		opts = append(opts, asynq.ProcessAt(p.RunAt))
	}
	if p.Unique > 0 {
		opts = append(opts, asynq.Unique(p.Unique))
	}

	return opts
}
