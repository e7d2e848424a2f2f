package asynqx

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/azhengyongqin/forkhub/internal/metrics"
)

// Client 调度任务入队客户端
type Client struct {
	*asynq.Client
	// DispatchTimeout 请求未指定超时时使用
	DispatchTimeout time.Duration
}

func NewClient(redisURI string) (*Client, error) {
	opt, err := NewRedisConnOpt(redisURI)
	if err != nil {
		return nil, err
	}
	return &Client{Client: asynq.NewClient(opt)}, nil
}

// EnqueueDispatch 投递一次调度
func (c *Client) EnqueueDispatch(ctx context.Context, p DispatchPayload, params EnqueueParams) (*asynq.TaskInfo, error) {
	task, err := NewDispatchTask(p)
	if err != nil {
		return nil, err
	}
	if params.Timeout <= 0 {
		params.Timeout = c.DispatchTimeout
	}
	info, err := c.EnqueueContext(ctx, task, EnqueueOptions(params)...)
	if err != nil {
		metrics.RecordError("queue", "enqueue")
		return nil, fmt.Errorf("enqueue %s: %w", p.WorkType, err)
	}
	metrics.RecordTaskEnqueued(p.WorkType, info.Queue)
	return info, nil
}
